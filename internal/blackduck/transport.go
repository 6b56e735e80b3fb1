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
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/sirseerhq/sirseer-licenses/internal/apierror"
	licerrors "github.com/sirseerhq/sirseer-licenses/internal/errors"
	"github.com/sirseerhq/sirseer-licenses/pkg/version"
)

// RetryConfig configures the retry behavior for API calls
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration
	// MaxBackoff caps a single wait
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
	// RetryableStatuses are the response codes that trigger a retry
	RetryableStatuses []int
}

// DefaultRetryConfig returns the default retry configuration: three retries
// on 500, 502 and 504 waiting 0.3s, 0.6s and 1.2s.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    300 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableStatuses: apierror.DefaultRetryableStatuses,
	}
}

// newBackOff builds the wait schedule for one request.
func (c *RetryConfig) newBackOff(ctx context.Context) backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     c.InitialBackoff,
		RandomizationFactor: 0,
		Multiplier:          c.BackoffMultiplier,
		MaxInterval:         c.MaxBackoff,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
}

// retryTransport retries requests that fail with a transient server status
// or a transient network error.
type retryTransport struct {
	base      http.RoundTripper
	config    *RetryConfig
	inspector apierror.Inspector
	logger    *zap.Logger
}

// newRetryTransport creates a new transport with retry logic.
func newRetryTransport(base http.RoundTripper, config *RetryConfig, logger *zap.Logger) *retryTransport {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryTransport{
		base:      base,
		config:    config,
		inspector: apierror.NewInspector(config.RetryableStatuses...),
		logger:    logger,
	}
}

// RoundTrip implements http.RoundTripper with retry logic.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var (
		attempts   int
		lastStatus int
		permanent  bool
	)

	operation := func() (*http.Response, error) {
		attempts++
		attemptReq, err := cloneRequest(req, attempts)
		if err != nil {
			permanent = true
			return nil, backoff.Permanent(err)
		}

		resp, err := t.base.RoundTrip(attemptReq)
		if err != nil {
			if ctx.Err() != nil || !t.inspector.IsNetworkError(err) {
				permanent = true
				return nil, backoff.Permanent(err)
			}
			lastStatus = 0
			return nil, err
		}

		if t.inspector.IsRetryableStatus(resp.StatusCode) {
			lastStatus = resp.StatusCode
			drain(resp.Body)
			return nil, fmt.Errorf("received status %d", resp.StatusCode)
		}

		return resp, nil
	}

	notify := func(err error, wait time.Duration) {
		t.logger.Warn("Transient failure, retrying",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Int("attempt", attempts),
			zap.Int("max_retries", t.config.MaxRetries),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	resp, err := backoff.RetryNotifyWithData(operation, t.config.newBackOff(ctx), notify)
	if err == nil {
		return resp, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if permanent {
		return nil, err
	}
	if lastStatus != 0 {
		return nil, fmt.Errorf("giving up after %d attempts, last status %d: %w",
			attempts, lastStatus, licerrors.ErrRetriesExhausted)
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w: %w",
		attempts, licerrors.ErrRetriesExhausted, err)
}

// cloneRequest prepares the request for the given attempt, rewinding the
// body through GetBody for every attempt after the first.
func cloneRequest(req *http.Request, attempt int) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody || attempt == 1 {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed for retry")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

// drain discards the rest of a body so the connection can be reused.
func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}

// sessionTransport adds session credentials and safety limits to HTTP requests
type sessionTransport struct {
	bearerToken string
	csrfToken   string
	base        http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())

	req.Header.Set("Authorization", "bearer "+t.bearerToken)
	req.Header.Set(CSRFHeader, t.csrfToken)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      maxResponseBytes,
		}
	}

	return resp, nil
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// idleTimeoutTransport bounds the gap between reads of a response body,
// which ResponseHeaderTimeout does not cover.
type idleTimeoutTransport struct {
	base    http.RoundTripper
	timeout time.Duration
}

func newIdleTimeoutTransport(base http.RoundTripper, timeout time.Duration) *idleTimeoutTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &idleTimeoutTransport{base: base, timeout: timeout}
}

// RoundTrip implements http.RoundTripper
func (t *idleTimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(req.Context())
	resp, err := t.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		cancel()
		return resp, nil
	}

	body := &idleTimeoutBody{ReadCloser: resp.Body, timeout: t.timeout, cancel: cancel}
	body.timer = time.AfterFunc(t.timeout, body.expire)
	resp.Body = body
	return resp, nil
}

// idleTimeoutBody cancels its request once no read has completed within timeout.
type idleTimeoutBody struct {
	io.ReadCloser
	timeout time.Duration
	cancel  context.CancelFunc
	timer   *time.Timer
	expired atomic.Bool
}

func (b *idleTimeoutBody) expire() {
	b.expired.Store(true)
	b.cancel()
}

// Read implements io.Reader, restarting the idle timer after every read.
func (b *idleTimeoutBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if b.expired.Load() {
		return n, fmt.Errorf("no response data for %s: %w", b.timeout, licerrors.ErrNetworkFailure)
	}
	b.timer.Reset(b.timeout)
	return n, err
}

// Close implements io.Closer
func (b *idleTimeoutBody) Close() error {
	b.timer.Stop()
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// newBaseTransport creates the connection-level transport. The timeout bounds
// dialing, the TLS handshake and the wait for response headers of each attempt.
func newBaseTransport(timeout time.Duration, insecureSkipVerify bool) *http.Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecureSkipVerify, //nolint:gosec // verification is enabled with --verify-tls
		},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
