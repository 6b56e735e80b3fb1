// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blackduck

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirseerhq/sirseer-licenses/internal/apierror"
)

// MockBaseURL is the server base URL used by the mock's default data.
const MockBaseURL = "https://blackduck.example.com"

// MockFetcher is a mock implementation of the Fetcher interface for testing.
// Responses are looked up by exact URL first and then by the URL without its
// query string, so tests can ignore paging parameters.
type MockFetcher struct {
	// Responses to return, keyed by URL
	Responses map[string]map[string]any

	// Errors to return, keyed by URL
	Errors map[string]error

	// Error to return for every call
	Error error

	// Track calls for verification
	Calls   []string
	Accepts []string
}

// NewMockFetcher creates a new mock fetcher with default test data
func NewMockFetcher() *MockFetcher {
	m := &MockFetcher{
		Responses: make(map[string]map[string]any),
		Errors:    make(map[string]error),
	}
	WithLicenses(generateTestLicenses())(m)
	return m
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context, method, rawURL, accept string) (map[string]any, error) {
	m.Calls = append(m.Calls, rawURL)
	m.Accepts = append(m.Accepts, accept)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if m.Error != nil {
		return nil, m.Error
	}

	bare := rawURL
	if i := strings.IndexByte(bare, '?'); i >= 0 {
		bare = bare[:i]
	}

	for _, key := range []string{rawURL, bare} {
		if err, ok := m.Errors[key]; ok {
			return nil, err
		}
		if resp, ok := m.Responses[key]; ok {
			return resp, nil
		}
	}

	return nil, apierror.New(method, rawURL, http.StatusNotFound, nil, []byte("not found"), false)
}

// CallCount returns the number of Fetch calls made.
func (m *MockFetcher) CallCount() int {
	return len(m.Calls)
}

// MockFetcherOption allows configuring the mock fetcher
type MockFetcherOption func(*MockFetcher)

// WithResponse registers the JSON object returned for a URL
func WithResponse(rawURL string, body map[string]any) MockFetcherOption {
	return func(m *MockFetcher) {
		m.Responses[rawURL] = body
	}
}

// WithURLError makes the fetcher fail for a single URL
func WithURLError(rawURL string, err error) MockFetcherOption {
	return func(m *MockFetcher) {
		m.Errors[rawURL] = err
	}
}

// WithError makes every call fail with err
func WithError(err error) MockFetcherOption {
	return func(m *MockFetcher) {
		m.Error = err
	}
}

// WithLicenses replaces the served data with the given licenses. License i is
// served at MockBaseURL/api/licenses/<i> with its terms beneath it.
func WithLicenses(licenses []License) MockFetcherOption {
	return func(m *MockFetcher) {
		m.Responses = make(map[string]map[string]any)

		items := make([]any, 0, len(licenses))
		for i, l := range licenses {
			href := fmt.Sprintf("%s/api/licenses/%d", MockBaseURL, i+1)
			items = append(items, LicenseItem(l.Name, href))
			m.Responses[LicenseTermsURL(href)] = TermsPage(l.Terms)
		}
		m.Responses[LicenseDashboardURL(MockBaseURL)] = Page(items)
	}
}

// NewMockFetcherWithOptions creates a mock fetcher with options
func NewMockFetcherWithOptions(opts ...MockFetcherOption) *MockFetcher {
	mock := NewMockFetcher()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}

// Page builds a collection response with totalCount equal to len(items).
func Page(items []any) map[string]any {
	return map[string]any{
		"totalCount": float64(len(items)),
		"items":      items,
	}
}

// LicenseItem builds a license-dashboard item.
func LicenseItem(name, href string) map[string]any {
	return map[string]any{
		"name": name,
		"_meta": map[string]any{
			"href": href,
		},
	}
}

// TermsPage builds a license-terms collection response.
func TermsPage(terms []Term) map[string]any {
	items := make([]any, 0, len(terms))
	for _, t := range terms {
		items = append(items, map[string]any{
			"name":           t.Name,
			"responsibility": t.Responsibility,
			"description":    t.Description,
		})
	}
	return Page(items)
}

// generateTestLicenses creates sample license data for testing
func generateTestLicenses() []License {
	return []License{
		{
			Name: "Apache License 2.0",
			Terms: []Term{
				{Name: "Include License", Responsibility: "REQUIRED", Description: "Include a copy of the license."},
				{Name: "State Changes", Responsibility: "REQUIRED", Description: "State significant changes made to the software."},
				{Name: "Use Trademarks", Responsibility: "FORBIDDEN", Description: "Trademark use is not granted."},
			},
		},
		{
			Name: "MIT License",
			Terms: []Term{
				{Name: "Include Copyright", Responsibility: "REQUIRED", Description: "Include the copyright notice."},
			},
		},
		{
			Name:  "Public Domain",
			Terms: []Term{},
		},
	}
}
