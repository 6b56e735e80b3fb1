package apierror

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"testing"

	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

func TestHTTPErrorInspector_IsAuthError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "token exchange failure",
			err:  New(http.MethodPost, "https://bd/api/tokens/authenticate", 500, nil, nil, true),
			want: true,
		},
		{
			name: "401 on fetch",
			err:  New(http.MethodGet, "https://bd/api/license-dashboard", 401, nil, nil, false),
			want: true,
		},
		{
			name: "403 on fetch",
			err:  New(http.MethodGet, "https://bd/api/license-dashboard", 403, nil, nil, false),
			want: true,
		},
		{
			name: "wrapped sentinel",
			err:  fmt.Errorf("authenticate: %w", licerrors.ErrAuthentication),
			want: true,
		},
		{
			name: "404 on fetch",
			err:  New(http.MethodGet, "https://bd/api/licenses/1/license-terms", 404, nil, nil, false),
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("something went wrong"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPErrorInspector_IsRetryableStatus(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{401, false},
		{404, false},
		{429, false},
		{500, true},
		{501, false},
		{502, true},
		{503, false},
		{504, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			if got := inspector.IsRetryableStatus(tt.code); got != tt.want {
				t.Errorf("IsRetryableStatus(%d) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestNewInspector_CustomStatuses(t *testing.T) {
	inspector := NewInspector(http.StatusServiceUnavailable)

	if !inspector.IsRetryableStatus(503) {
		t.Error("IsRetryableStatus(503) = false, want true")
	}
	if inspector.IsRetryableStatus(500) {
		t.Error("IsRetryableStatus(500) = true, want false")
	}
}

func TestHTTPErrorInspector_IsNetworkError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "connection refused errno",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			want: true,
		},
		{
			name: "connection reset",
			err:  fmt.Errorf("read: %w", syscall.ECONNRESET),
			want: true,
		},
		{
			name: "unexpected eof",
			err:  fmt.Errorf("reading body: %w", io.ErrUnexpectedEOF),
			want: true,
		},
		{
			name: "dns failure",
			err:  &net.DNSError{Err: "no such host", Name: "bd.invalid"},
			want: true,
		},
		{
			name: "string fallback",
			err:  errors.New("net/http: TLS handshake timeout"),
			want: true,
		},
		{
			name: "sentinel",
			err:  fmt.Errorf("wrapped: %w", licerrors.ErrNetworkFailure),
			want: true,
		},
		{
			name: "client error wrapping dial failure",
			err: &url.Error{Op: "Post", URL: "https://bd/api/tokens/authenticate",
				Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}},
			want: true,
		},
		{
			name: "client error wrapping unknown authority",
			err: &url.Error{Op: "Get", URL: "https://bd/api/license-dashboard",
				Err: &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}}},
			want: false,
		},
		{
			name: "client error wrapping expired certificate",
			err:  &url.Error{Op: "Get", URL: "https://bd/api", Err: x509.CertificateInvalidError{Reason: x509.Expired}},
			want: false,
		},
		{
			name: "client error wrapping unreplayable body",
			err:  &url.Error{Op: "Post", URL: "https://bd/api", Err: errors.New("request body cannot be replayed for retry")},
			want: false,
		},
		{
			name: "context canceled",
			err:  context.Canceled,
			want: false,
		},
		{
			name: "context deadline",
			err:  fmt.Errorf("GET: %w", context.DeadlineExceeded),
			want: false,
		},
		{
			name: "api error",
			err:  New(http.MethodGet, "https://bd/api", 404, nil, nil, false),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestHTTPErrorInspector_IsRetriesExhausted(t *testing.T) {
	inspector := NewInspector()

	if !inspector.IsRetriesExhausted(fmt.Errorf("GET x: %w", licerrors.ErrRetriesExhausted)) {
		t.Error("expected wrapped ErrRetriesExhausted to be detected")
	}
	if inspector.IsRetriesExhausted(errors.New("retries exhausted")) {
		t.Error("plain error with the same text must not match")
	}
}
