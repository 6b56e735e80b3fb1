package apierror

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

// DefaultRetryableStatuses are the transient server errors retried by the client.
var DefaultRetryableStatuses = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusGatewayTimeout,
}

// Inspector provides methods for analyzing Black Duck API and transport errors.
type Inspector interface {
	// IsAuthError returns true if the error represents an authentication or authorization failure.
	IsAuthError(err error) bool

	// IsRetryableStatus returns true if a response with this status should be retried.
	IsRetryableStatus(code int) bool

	// IsNetworkError returns true if the error represents a transient network failure.
	IsNetworkError(err error) bool

	// IsRetriesExhausted returns true if the error is the result of an exhausted retry budget.
	IsRetriesExhausted(err error) bool
}

// HTTPErrorInspector implements the Inspector interface. It checks the error
// chain first and falls back to message inspection for errors produced by the
// standard library that carry no type information.
type HTTPErrorInspector struct {
	retryable map[int]bool
}

// NewInspector creates an inspector that treats the given statuses as
// retryable. With no arguments DefaultRetryableStatuses is used.
func NewInspector(retryableStatuses ...int) Inspector {
	if len(retryableStatuses) == 0 {
		retryableStatuses = DefaultRetryableStatuses
	}
	retryable := make(map[int]bool, len(retryableStatuses))
	for _, code := range retryableStatuses {
		retryable[code] = true
	}
	return &HTTPErrorInspector{retryable: retryable}
}

// IsAuthError checks if the error is an authentication or authorization error.
func (i *HTTPErrorInspector) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, licerrors.ErrAuthentication) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRetryableStatus reports whether the status code is in the retry set.
func (i *HTTPErrorInspector) IsRetryableStatus(code int) bool {
	return i.retryable[code]
}

// IsNetworkError checks if the error is a transient network connectivity error.
// Context cancellation is never a network error.
func (i *HTTPErrorInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, licerrors.ErrNetworkFailure) {
		return true
	}
	if isCertificateError(err) {
		return false
	}
	// *url.Error satisfies net.Error whatever it wraps, so judge its cause.
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		if urlErr.Timeout() {
			return true
		}
		err = urlErr.Err
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "network is unreachable")
}

// isCertificateError reports whether err is a TLS certificate verification
// failure. These are configuration problems, not connectivity ones.
func isCertificateError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

// IsRetriesExhausted checks if the error reports an exhausted retry budget.
func (i *HTTPErrorInspector) IsRetriesExhausted(err error) bool {
	return errors.Is(err, licerrors.ErrRetriesExhausted)
}
