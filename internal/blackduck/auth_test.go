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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirseerhq/sirseer-licenses/internal/apierror"
	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

func newTestClient(t *testing.T, baseURL string, opts Options) *Client {
	t.Helper()
	if opts.Retry == nil {
		opts.Retry = fastRetryConfig()
	}
	return NewClient(baseURL, "api-token", opts)
}

func TestAuthenticate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tokens/authenticate", r.URL.Path)
		assert.Equal(t, "token api-token", r.Header.Get("Authorization"))
		assert.Equal(t, MediaTypeUser, r.Header.Get("Accept"))

		w.Header().Set(CSRFHeader, "csrf-123")
		_, _ = io.WriteString(w, `{"bearerToken":"bearer-abc","expiresInMilliseconds":7199000}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/", Options{})
	assert.Equal(t, server.URL, client.BaseURL(), "trailing slash trimmed")

	session, err := client.Authenticate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "bearer-abc", session.BearerToken())
	assert.Equal(t, "csrf-123", session.CSRFToken())
	assert.Equal(t, server.URL, session.BaseURL())
}

func TestAuthenticate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		csrf       string
		wantAPIErr bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"errorMessage":"bad token"}`, wantAPIErr: true},
		{name: "not found", status: http.StatusNotFound, body: `nope`, wantAPIErr: true},
		{name: "service unavailable", status: http.StatusServiceUnavailable, body: ``, wantAPIErr: true},
		{name: "missing bearer token", status: http.StatusOK, body: `{}`, csrf: "c"},
		{name: "invalid json", status: http.StatusOK, body: `not json`, csrf: "c"},
		{name: "missing csrf header", status: http.StatusOK, body: `{"bearerToken":"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.csrf != "" {
					w.Header().Set(CSRFHeader, tt.csrf)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			session, err := newTestClient(t, server.URL, Options{}).Authenticate(context.Background())
			require.Error(t, err)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, licerrors.ErrAuthentication)

			var apiErr *apierror.APIError
			if tt.wantAPIErr {
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tt.status, apiErr.StatusCode)
				assert.Equal(t, tt.body, apiErr.Body)
				assert.Equal(t, "****", apiErr.Header.Get("Authorization"))
			} else {
				assert.False(t, errors.As(err, &apiErr))
			}
		})
	}
}

func TestAuthenticate_RetriesExhausted(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, Options{}).Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, licerrors.ErrRetriesExhausted)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestAuthenticate_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url, Options{}).Authenticate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, licerrors.ErrRetriesExhausted)
	assert.True(t, apierror.NewInspector().IsNetworkError(err))
}

func TestAuthenticate_UntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the handler")
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, Options{}).Authenticate(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, licerrors.ErrNetworkFailure)
	assert.NotErrorIs(t, err, licerrors.ErrRetriesExhausted)
	assert.False(t, apierror.NewInspector().IsNetworkError(err))
}

func TestAuthenticate_ReportsRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(CSRFHeader, "c")
		_, _ = io.WriteString(w, `{"bearerToken":"b"}`)
	}))
	defer server.Close()

	var (
		mu    sync.Mutex
		infos []RequestInfo
	)
	client := newTestClient(t, server.URL, Options{
		OnRequest: func(info RequestInfo) {
			mu.Lock()
			defer mu.Unlock()
			infos = append(infos, info)
		},
	})

	_, err := client.Authenticate(context.Background())
	require.NoError(t, err)

	require.Len(t, infos, 1)
	assert.Equal(t, http.MethodPost, infos[0].Method)
	assert.Equal(t, server.URL+"/api/tokens/authenticate", infos[0].URL)
	assert.Equal(t, http.StatusOK, infos[0].StatusCode)
	assert.NoError(t, infos[0].Err)
}
