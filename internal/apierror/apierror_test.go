package apierror

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

func TestNew_Kind(t *testing.T) {
	tests := []struct {
		name   string
		status int
		auth   bool
		want   error
	}{
		{"auth endpoint failure", 500, true, licerrors.ErrAuthentication},
		{"unauthorized", 401, false, licerrors.ErrAuthentication},
		{"forbidden", 403, false, licerrors.ErrAuthentication},
		{"not found", 404, false, licerrors.ErrUnexpectedStatus},
		{"no content", 204, false, licerrors.ErrUnexpectedStatus},
		{"redirect", 302, false, licerrors.ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(http.MethodGet, "https://bd/api", tt.status, nil, nil, tt.auth)
			if !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false, want true", err, tt.want)
			}
		})
	}
}

func TestAPIError_RedactsCredentials(t *testing.T) {
	header := http.Header{}
	header.Set("Authorization", "bearer secret-bearer")
	header.Set("X-CSRF-TOKEN", "secret-csrf")
	header.Set("Accept", "application/json")

	err := New(http.MethodGet, "https://bd/api/license-dashboard?limit=3000", 404, header, []byte("not here"), false)

	entry := err.LogEntry(time.Date(2025, 3, 4, 5, 6, 0, 0, time.UTC))
	if strings.Contains(entry, "secret") {
		t.Errorf("log entry leaks credentials: %s", entry)
	}
	want := "2025-03-04 05:06 URL: https://bd/api/license-dashboard?limit=3000 " +
		"HEADERS: {Accept: application/json, Authorization: ****, X-Csrf-Token: ****} HTTP error: 404"
	if entry != want {
		t.Errorf("LogEntry() = %q, want %q", entry, want)
	}

	if got := header.Get("Authorization"); got != "bearer secret-bearer" {
		t.Errorf("Redact modified the original header: %q", got)
	}
	if err.Body != "not here" {
		t.Errorf("Body = %q, want %q", err.Body, "not here")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := New(http.MethodGet, "https://bd/api/x", 502, nil, nil, false)
	want := "unable to pull info from endpoint. URL: https://bd/api/x, HTTP error: 502"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
