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

// Package testutil provides common test helpers for sirseer-licenses
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sirseerhq/sirseer-licenses/internal/blackduck"
)

// Credentials accepted and issued by BlackDuckServer.
const (
	MockAPIToken    = "test-api-token"
	MockBearerToken = "test-bearer-token"
	MockCSRFToken   = "test-csrf-token"
)

// Paths served by BlackDuckServer.
const (
	AuthPath      = "/api/tokens/authenticate"
	DashboardPath = "/api/license-dashboard"
)

// defaultLimit is the page size the API applies when no limit is given.
const defaultLimit = 10

// Request is one request as seen by the mock server.
type Request struct {
	Method        string
	Path          string
	Query         string
	Accept        string
	Authorization string
	CSRFToken     string
}

// BlackDuckServer is an in-process Black Duck API serving the token exchange,
// the license dashboard and per-license terms with offset pagination.
// Responses for any path can be overridden to inject failures.
type BlackDuckServer struct {
	*httptest.Server

	mu       sync.Mutex
	licenses []MockLicense
	requests []Request
	failures map[string][]int
	always   map[string]int
	bodies   map[string]string
}

// NewBlackDuckServer starts a mock server holding the given licenses. The
// server is closed when the test ends.
func NewBlackDuckServer(t *testing.T, licenses ...MockLicense) *BlackDuckServer {
	t.Helper()

	s := &BlackDuckServer{
		licenses: licenses,
		failures: make(map[string][]int),
		always:   make(map[string]int),
		bodies:   make(map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// FailWith makes the next requests to path answer with the given statuses, in
// order. Later requests are served normally.
func (s *BlackDuckServer) FailWith(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], statuses...)
}

// FailAlways makes every request to path answer with status.
func (s *BlackDuckServer) FailAlways(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.always[path] = status
}

// RespondWith replaces the JSON body served for path with a raw body.
func (s *BlackDuckServer) RespondWith(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[path] = body
}

// Requests returns a copy of every request received so far.
func (s *BlackDuckServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns the number of requests received so far.
func (s *BlackDuckServer) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Hits returns how many requests were made to path.
func (s *BlackDuckServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// LicensePath returns the path of the i-th license (zero based).
func LicensePath(i int) string {
	return fmt.Sprintf("/api/licenses/lic-%d", i)
}

// TermsPath returns the license-terms path of the i-th license.
func TermsPath(i int) string {
	return LicensePath(i) + "/license-terms"
}

func (s *BlackDuckServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Accept:        r.Header.Get("Accept"),
		Authorization: r.Header.Get("Authorization"),
		CSRFToken:     r.Header.Get(blackduck.CSRFHeader),
	})
	status, failing := s.injectedFailure(r.URL.Path)
	body, overridden := s.bodies[r.URL.Path]
	s.mu.Unlock()

	if failing {
		writeError(w, status)
		return
	}

	if r.URL.Path == AuthPath {
		s.authenticate(w, r)
		return
	}

	if r.Header.Get("Authorization") != "bearer "+MockBearerToken ||
		r.Header.Get(blackduck.CSRFHeader) != MockCSRFToken {
		writeError(w, http.StatusUnauthorized)
		return
	}

	if overridden {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
		return
	}

	switch {
	case r.URL.Path == DashboardPath:
		s.serveDashboard(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/licenses/") && strings.HasSuffix(r.URL.Path, "/license-terms"):
		s.serveTerms(w, r)
	default:
		writeError(w, http.StatusNotFound)
	}
}

// injectedFailure must be called with s.mu held.
func (s *BlackDuckServer) injectedFailure(path string) (int, bool) {
	if queued := s.failures[path]; len(queued) > 0 {
		s.failures[path] = queued[1:]
		return queued[0], true
	}
	status, ok := s.always[path]
	return status, ok
}

func (s *BlackDuckServer) authenticate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("Authorization") != "token "+MockAPIToken {
		writeError(w, http.StatusUnauthorized)
		return
	}
	w.Header().Set(blackduck.CSRFHeader, MockCSRFToken)
	writeJSON(w, map[string]any{
		"bearerToken":           MockBearerToken,
		"expiresInMilliseconds": 7199000,
	})
}

func (s *BlackDuckServer) serveDashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := make([]any, len(s.licenses))
	for i, l := range s.licenses {
		items[i] = map[string]any{
			"name":  l.Name,
			"_meta": map[string]any{"href": s.URL + LicensePath(i)},
		}
	}
	s.mu.Unlock()

	writePage(w, r, items)
}

func (s *BlackDuckServer) serveTerms(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/licenses/lic-"), "/license-terms")
	i, err := strconv.Atoi(id)

	s.mu.Lock()
	if err != nil || i < 0 || i >= len(s.licenses) {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound)
		return
	}
	terms := s.licenses[i].Terms
	s.mu.Unlock()

	items := make([]any, len(terms))
	for k, term := range terms {
		items[k] = map[string]any{
			"name":           term.Name,
			"responsibility": term.Responsibility,
			"description":    term.Description,
		}
	}
	writePage(w, r, items)
}

// writePage serves the limit/offset window of items with the full totalCount.
func writePage(w http.ResponseWriter, r *http.Request, items []any) {
	q := r.URL.Query()
	limit := defaultLimit
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}

	start := min(offset, len(items))
	end := min(start+limit, len(items))

	writeJSON(w, map[string]any{
		"totalCount": len(items),
		"items":      items[start:end],
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errorMessage": http.StatusText(status),
		"errorCode":    fmt.Sprintf("{core.rest.status_%d}", status),
	})
}
