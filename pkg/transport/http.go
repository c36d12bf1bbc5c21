package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/matzehuels/mvnfetch/pkg/buildinfo"
	"github.com/matzehuels/mvnfetch/pkg/httputil"
	"github.com/matzehuels/mvnfetch/pkg/observability"
)

// DefaultTimeout bounds connecting, waiting for response headers, and each
// wait for body bytes.
const DefaultTimeout = 30 * time.Second

// Options configure the HTTP transport.
type Options struct {
	// Timeout bounds the dial, the wait for response headers, and every
	// single body read. It is an idle deadline, so large artifacts that keep
	// flowing are not cut off.
	Timeout time.Duration

	// CertificateCheck enables TLS certificate verification.
	CertificateCheck bool

	// Proxies are matched against the request scheme.
	Proxies []Proxy

	// Attempts is how many times a transient failure is tried (default 3).
	Attempts int

	// RetryDelay is the initial backoff between attempts (default 1s).
	RetryDelay time.Duration

	// Headers are added to every request.
	Headers map[string]string
}

// HTTP opens http and https resources.
//
// Connection errors and 5xx responses are retried with exponential backoff
// before the error is returned. 404 and 410 map to [ErrNotFound].
type HTTP struct {
	client   *http.Client
	timeout  time.Duration
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// NewHTTP creates an HTTP transport.
func NewHTTP(opts Options) *HTTP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	rt := &http.Transport{
		Proxy:                 proxyFunc(opts.Proxies),
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: !opts.CertificateCheck}, //nolint:gosec // certificateCheck defaults to off
	}
	return &HTTP{
		client:   &http.Client{Transport: rt},
		timeout:  timeout,
		headers:  opts.Headers,
		attempts: attempts,
		delay:    delay,
	}
}

// Open implements Transport.
func (t *HTTP) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := httputil.Retry(ctx, t.attempts, t.delay, func() error {
		rc, err := t.do(ctx, rawURL)
		if err != nil {
			return err
		}
		body = rc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (t *HTTP) do(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, urlPath := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, urlPath)
	start := time.Now()

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		hooks.OnError(ctx, req.Method, host, urlPath, err)
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %s: %v", ErrNetwork, Redact(rawURL), err)}
	}
	hooks.OnResponse(ctx, req.Method, host, urlPath, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%s: %w", Redact(rawURL), err)
	}
	return newIdleBody(resp.Body, t.timeout, cancel, Redact(rawURL)), nil
}

// idleBody cancels the request when a single Read waits longer than
// timeout for data.
type idleBody struct {
	rc      io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelFunc
	expired atomic.Bool
	url     string
}

func newIdleBody(rc io.ReadCloser, timeout time.Duration, cancel context.CancelFunc, url string) *idleBody {
	b := &idleBody{rc: rc, timeout: timeout, cancel: cancel, url: url}
	b.timer = time.AfterFunc(timeout, func() {
		b.expired.Store(true)
		cancel()
	})
	b.timer.Stop()
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	b.timer.Reset(b.timeout)
	n, err := b.rc.Read(p)
	b.timer.Stop()
	if err != nil && err != io.EOF && b.expired.Load() {
		err = fmt.Errorf("%w: %s: no data received for %s", ErrNetwork, b.url, b.timeout)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	err := b.rc.Close()
	b.cancel()
	return err
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
