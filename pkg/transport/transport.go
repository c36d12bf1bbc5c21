// Package transport opens repository resources.
//
// The resolution engine only ever asks for one thing: a readable stream for
// an absolute resource URL. [Mux] dispatches on the URL scheme to [HTTP] for
// http and https repositories and to [File] for file repositories.
//
// Failures are reported with two sentinels so callers can tell a missing
// resource from an unreachable repository:
//
//	rc, err := t.Open(ctx, "https://repo1.maven.org/maven2/org/example/lib/1.0/lib-1.0.jar")
//	switch {
//	case errors.Is(err, transport.ErrNotFound):
//	    // try the next repository
//	case errors.Is(err, transport.ErrNetwork):
//	    // repository unavailable
//	}
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var (
	// ErrNotFound is returned when the repository answered but does not hold
	// the resource.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for connection failures, timeouts and any
	// response other than success or not-found.
	ErrNetwork = errors.New("network error")

	// ErrUnsupportedScheme is returned for URLs no transport handles.
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

// Transport opens a stream for an absolute resource URL. The caller closes
// the returned reader. Implementations must release the underlying
// connection promptly when ctx is cancelled.
type Transport interface {
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, rawURL string) (io.ReadCloser, error)

// Open calls f.
func (f Func) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return f(ctx, rawURL)
}

// Mux routes requests by URL scheme.
type Mux struct {
	HTTP Transport
	File Transport
}

// New returns a Mux with an [HTTP] transport built from opts and a [File]
// transport.
func New(opts Options) *Mux {
	return &Mux{
		HTTP: NewHTTP(opts),
		File: File{},
	}
}

// Open implements Transport.
func (m *Mux) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	scheme, _, ok := strings.Cut(rawURL, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, rawURL)
	}
	switch strings.ToLower(scheme) {
	case "http", "https":
		if m.HTTP != nil {
			return m.HTTP.Open(ctx, rawURL)
		}
	case "file":
		if m.File != nil {
			return m.File.Open(ctx, rawURL)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
}

// ReadAll opens rawURL and reads at most limit bytes. Documents larger than
// limit are rejected rather than truncated.
func ReadAll(ctx context.Context, t Transport, rawURL string, limit int64) ([]byte, error) {
	rc, err := t.Open(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrNetwork, Redact(rawURL), err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes", Redact(rawURL), limit)
	}
	return data, nil
}

// Redact strips credentials from a URL before it is logged or wrapped into
// an error.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	return u.Redacted()
}
