package apierror

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
)

// LogTimeFormat is the timestamp layout used in log document entries.
const LogTimeFormat = "2006-01-02 15:04"

// redactedHeaders are masked whenever request headers are rendered.
var redactedHeaders = map[string]bool{
	"Authorization": true,
	"X-Csrf-Token":  true,
}

// APIError describes a request that completed with a status other than 200.
// It unwraps to ErrAuthentication for failures of the token exchange and for
// 401/403 responses, and to ErrUnexpectedStatus otherwise.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       string
	kind       error
}

// New builds an APIError from the request that was sent and the response body
// that came back. The request headers are copied with credentials masked.
func New(method, url string, statusCode int, reqHeader http.Header, body []byte, auth bool) *APIError {
	kind := licerrors.ErrUnexpectedStatus
	if auth || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		kind = licerrors.ErrAuthentication
	}
	return &APIError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Header:     Redact(reqHeader),
		Body:       string(body),
		kind:       kind,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unable to pull info from endpoint. URL: %s, HTTP error: %d", e.URL, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// LogEntry renders the error the way it is recorded in the log document.
func (e *APIError) LogEntry(at time.Time) string {
	return fmt.Sprintf("%s URL: %s HEADERS: %s HTTP error: %d",
		at.Format(LogTimeFormat), e.URL, FormatHeader(e.Header), e.StatusCode)
}

// Redact returns a copy of h with credential values replaced by asterisks.
func Redact(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		if redactedHeaders[http.CanonicalHeaderKey(k)] {
			out[k] = []string{"****"}
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

// FormatHeader renders headers as a single stable line, sorted by key.
func FormatHeader(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(h[k], ", "))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
