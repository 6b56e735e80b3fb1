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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-licenses/internal/apierror"
	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
	"github.com/sirseerhq/sirseer-licenses/pkg/version"
)

const tracerName = "github.com/sirseerhq/sirseer-licenses/internal/blackduck"

// Options configures a Client. The zero value is usable.
type Options struct {
	// Timeout bounds connecting, waiting for response headers and each gap
	// between body reads on every attempt. Defaults to DefaultTimeout.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Retry configures the retrying transport. Nil means DefaultRetryConfig.
	Retry *RetryConfig

	// Logger receives retry warnings. Nil discards them.
	Logger *zap.Logger

	// OnRequest, when set, is called once per API call after retries resolve.
	OnRequest func(RequestInfo)

	// Transport replaces the connection-level transport. Used in tests.
	Transport http.RoundTripper
}

// Client is the Black Duck authenticator. It holds the static API token and
// the retrying HTTP stack shared by every Session it creates.
type Client struct {
	baseURL   string
	apiToken  string
	transport http.RoundTripper
	http      *http.Client
	inspector apierror.Inspector
	tracer    trace.Tracer
	onRequest func(RequestInfo)
}

// NewClient creates a Black Duck client for the server at baseURL.
// The client is configured with:
//   - Retries on 500/502/504 and transient network failures with exponential backoff
//   - A per-attempt connect and response-header timeout
//   - Optional TLS verification
//   - User-Agent header for API compliance
func NewClient(baseURL, apiToken string, opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = newBaseTransport(opts.Timeout, opts.InsecureSkipVerify)
	}
	retry := newRetryTransport(newIdleTimeoutTransport(base, opts.Timeout), opts.Retry, opts.Logger)

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiToken:  apiToken,
		transport: retry,
		http:      &http.Client{Transport: retry},
		inspector: apierror.NewInspector(),
		tracer:    otel.Tracer(tracerName),
		onRequest: opts.OnRequest,
	}
}

// BaseURL returns the server base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate exchanges the API token for a bearer token and an anti-forgery
// token and returns a Session carrying both. Any status other than 200 is
// returned as an *apierror.APIError wrapping ErrAuthentication.
func (c *Client) Authenticate(ctx context.Context) (*Session, error) {
	authURL := c.baseURL + authenticatePath

	header := http.Header{}
	header.Set("Accept", MediaTypeUser)
	header.Set("Authorization", "token "+c.apiToken)
	header.Set("User-Agent", version.UserAgent())

	resp, err := c.do(ctx, c.http, http.MethodPost, authURL, header)
	if err != nil {
		return nil, fmt.Errorf("authentication request failed: %w", err)
	}

	if resp.statusCode != http.StatusOK {
		return nil, apierror.New(http.MethodPost, authURL, resp.statusCode, header, resp.body, true)
	}

	var payload struct {
		BearerToken string `json:"bearerToken"`
	}
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse authentication response: %v: %w", err, licerrors.ErrAuthentication)
	}
	if payload.BearerToken == "" {
		return nil, fmt.Errorf("authentication response has no bearerToken: %w", licerrors.ErrAuthentication)
	}

	csrfToken := resp.header.Get(CSRFHeader)
	if csrfToken == "" {
		return nil, fmt.Errorf("authentication response has no %s header: %w", CSRFHeader, licerrors.ErrAuthentication)
	}

	return newSession(c, payload.BearerToken, csrfToken), nil
}

// response is a fully read HTTP response.
type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

// do sends one logical request through the retrying stack and reads the body.
func (c *Client) do(ctx context.Context, httpClient *http.Client, method, rawURL string, header http.Header) (*response, error) {
	ctx, span := c.tracer.Start(ctx, "blackduck "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", rawURL),
		))
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, httpClient, method, rawURL, header)

	info := RequestInfo{Method: method, URL: rawURL, Duration: time.Since(start), Err: err}
	if resp != nil {
		info.StatusCode = resp.statusCode
		span.SetAttributes(attribute.Int("http.response.status_code", resp.statusCode))
	}
	if c.onRequest != nil {
		c.onRequest(info)
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case resp.statusCode != http.StatusOK:
		span.SetStatus(codes.Error, http.StatusText(resp.statusCode))
	}

	return resp, err
}

func (c *Client) send(ctx context.Context, httpClient *http.Client, method, rawURL string, header http.Header) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = header.Clone()

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, c.mapError(err, rawURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.mapError(fmt.Errorf("failed to read response body: %w", err), rawURL)
	}

	return &response{
		statusCode: resp.StatusCode,
		header:     resp.Header,
		body:       body,
	}, nil
}

// mapError maps transport errors to our domain errors with actionable messages
func (c *Client) mapError(err error, rawURL string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if c.inspector.IsRetriesExhausted(err) {
		return fmt.Errorf("request to %s kept failing: %w", rawURL, err)
	}

	if c.inspector.IsNetworkError(err) {
		return fmt.Errorf("network error connecting to Black Duck API at %s (%v): %w", rawURL, err, licerrors.ErrNetworkFailure)
	}

	return fmt.Errorf("request to %s failed: %w", rawURL, err)
}
