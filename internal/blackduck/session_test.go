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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/sirseer-licenses/internal/apierror"
	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

const dashboardFixture = `{
	"totalCount": 2,
	"items": [
		{"name": "Apache License 2.0", "_meta": {"href": "https://bd/api/licenses/1"}, "ownership": "OPEN_SOURCE"},
		{"name": "MIT License", "_meta": {"href": "https://bd/api/licenses/2"}, "codeSharing": null}
	],
	"appliedFilters": []
}`

func newTestSession(t *testing.T, server *httptest.Server) *Session {
	t.Helper()
	return newSession(newTestClient(t, server.URL, Options{}), "bearer-abc", "csrf-123")
}

func TestSessionFetch_ReturnsBodyUnchanged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bearer bearer-abc", r.Header.Get("Authorization"))
		assert.Equal(t, "csrf-123", r.Header.Get(CSRFHeader))
		assert.Equal(t, MediaTypeBOM, r.Header.Get("Accept"))
		assert.Equal(t, "3000", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, dashboardFixture)
	}))
	defer server.Close()

	got, err := newTestSession(t, server).Fetch(context.Background(), http.MethodGet,
		server.URL+"/api/license-dashboard?limit=3000", MediaTypeBOM)
	require.NoError(t, err)

	var want map[string]any
	require.NoError(t, json.Unmarshal([]byte(dashboardFixture), &want))
	assert.Equal(t, want, got)
}

func TestSessionFetch_NonOKStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind error
	}{
		{"not found", http.StatusNotFound, licerrors.ErrUnexpectedStatus},
		{"no content", http.StatusNoContent, licerrors.ErrUnexpectedStatus},
		{"service unavailable", http.StatusServiceUnavailable, licerrors.ErrUnexpectedStatus},
		{"unauthorized", http.StatusUnauthorized, licerrors.ErrAuthentication},
		{"forbidden", http.StatusForbidden, licerrors.ErrAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.status != http.StatusNoContent {
					_, _ = io.WriteString(w, `{"errorCode":"x"}`)
				}
			}))
			defer server.Close()

			rawURL := server.URL + "/api/licenses/1/license-terms"
			_, err := newTestSession(t, server).Fetch(context.Background(), http.MethodGet, rawURL, MediaTypeComponentDetail)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)

			var apiErr *apierror.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, rawURL, apiErr.URL)
			assert.Equal(t, "****", apiErr.Header.Get("Authorization"))
			assert.Equal(t, "****", apiErr.Header.Get(CSRFHeader))
			assert.Equal(t, MediaTypeComponentDetail, apiErr.Header.Get("Accept"))
		})
	}
}

func TestSessionFetch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>maintenance</html>`)
	}))
	defer server.Close()

	_, err := newTestSession(t, server).Fetch(context.Background(), http.MethodGet, server.URL+"/api/license-dashboard", MediaTypeBOM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")

	var apiErr *apierror.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestSessionFetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSession(t, server).Fetch(ctx, http.MethodGet, server.URL, MediaTypeBOM)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionFetchAll_Pages(t *testing.T) {
	var offsets []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offsets = append(offsets, r.URL.Query().Get("offset"))
		switch r.URL.Query().Get("offset") {
		case "":
			_, _ = io.WriteString(w, `{"totalCount":3,"items":[{"name":"a"},{"name":"b"}]}`)
		case "2":
			_, _ = io.WriteString(w, `{"totalCount":3,"items":[{"name":"c"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	count := 0
	err := newTestSession(t, server).FetchAll(context.Background(), server.URL+"/api/license-dashboard", MediaTypeBOM, 2,
		func(items []any) error {
			count += len(items)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, []string{"", "2"}, offsets)
}
