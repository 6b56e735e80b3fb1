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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirseerhq/sirseer-licenses/internal/apierror"
)

// Session is an authenticated connection to the Black Duck API. It is
// created by Client.Authenticate and is valid until the process exits.
type Session struct {
	client      *Client
	http        *http.Client
	bearerToken string
	csrfToken   string
}

func newSession(c *Client, bearerToken, csrfToken string) *Session {
	return &Session{
		client: c,
		http: &http.Client{
			Transport: &sessionTransport{
				bearerToken: bearerToken,
				csrfToken:   csrfToken,
				base:        c.transport,
			},
		},
		bearerToken: bearerToken,
		csrfToken:   csrfToken,
	}
}

// BaseURL returns the server the session is bound to.
func (s *Session) BaseURL() string {
	return s.client.baseURL
}

// BearerToken returns the short-lived bearer token.
func (s *Session) BearerToken() string {
	return s.bearerToken
}

// CSRFToken returns the anti-forgery token sent with every request.
func (s *Session) CSRFToken() string {
	return s.csrfToken
}

// Fetch implements Fetcher. The response of a 200 is decoded into a JSON
// object and returned unchanged; every other status is returned as an
// *apierror.APIError carrying the response body.
func (s *Session) Fetch(ctx context.Context, method, rawURL, accept string) (map[string]any, error) {
	header := http.Header{}
	header.Set("Accept", accept)

	resp, err := s.client.do(ctx, s.http, method, rawURL, header)
	if err != nil {
		return nil, err
	}

	if resp.statusCode != http.StatusOK {
		return nil, apierror.New(method, rawURL, resp.statusCode, s.sentHeader(header), resp.body, false)
	}

	var result map[string]any
	if err := json.NewDecoder(bytes.NewReader(resp.body)).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}

	return result, nil
}

// FetchAll walks a paged collection with this session. See Paginate.
func (s *Session) FetchAll(ctx context.Context, rawURL, accept string, pageSize int, visit func(items []any) error) error {
	return Paginate(ctx, s, rawURL, accept, pageSize, visit)
}

// sentHeader reconstructs the headers the session transport put on the wire.
func (s *Session) sentHeader(header http.Header) http.Header {
	sent := header.Clone()
	sent.Set("Authorization", "bearer "+s.bearerToken)
	sent.Set(CSRFHeader, s.csrfToken)
	return sent
}
