package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

type resolverFunc func(ctx context.Context, ref string) (io.ReadCloser, error)

func (f resolverFunc) Resolve(ctx context.Context, ref string) (io.ReadCloser, error) {
	return f(ctx, ref)
}

func newTestServer(t *testing.T, fn resolverFunc, metrics http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(Config{
		Resolver: fn,
		Logger:   log.New(io.Discard),
		Metrics:  metrics,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestRouter_Artifact(t *testing.T) {
	var gotRef string
	srv := newTestServer(t, func(_ context.Context, ref string) (io.ReadCloser, error) {
		gotRef = ref
		return io.NopCloser(strings.NewReader("jar-bytes")), nil
	}, nil)

	resp, body := get(t, srv.URL+"/maven/org.example/lib/1.0/jar/sources")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body != "jar-bytes" {
		t.Errorf("body = %q", body)
	}
	if gotRef != "org.example/lib/1.0/jar/sources" {
		t.Errorf("ref = %q", gotRef)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/java-archive" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRouter_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed", errors.New(errors.ErrCodeMalformedReference, "unexpected segment"), http.StatusBadRequest},
		{"not found", &errors.NotFoundError{Reference: "g/a/1.0", Attempted: []string{"central"}}, http.StatusNotFound},
		{"cache write", errors.New(errors.ErrCodeCacheWriteFailure, "disk full"), http.StatusBadGateway},
		{"timeout", fmt.Errorf("resolve: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(context.Context, string) (io.ReadCloser, error) {
				return nil, tt.err
			}, nil)
			resp, _ := get(t, srv.URL+"/maven/g/a/1.0")
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRouter_Head(t *testing.T) {
	srv := newTestServer(t, func(context.Context, string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("<project/>")), nil
	}, nil)

	resp, err := http.Head(srv.URL + "/maven/g/a/1.0/pom")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "# metrics\n")
	})
	srv := newTestServer(t, nil, metrics)

	if resp, body := get(t, srv.URL+"/healthz"); resp.StatusCode != http.StatusOK || body != "ok\n" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
	if resp, body := get(t, srv.URL+"/metrics"); resp.StatusCode != http.StatusOK || body != "# metrics\n" {
		t.Errorf("metrics = %d %q", resp.StatusCode, body)
	}
}

func TestRouter_NoMetrics(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	if resp, _ := get(t, srv.URL+"/metrics"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"g/a/1.0":                       "application/java-archive",
		"g/a/1.0/pom":                   "application/xml",
		"g/a////metadata":               "application/xml",
		"g/a/1.0/zip":                   "application/octet-stream",
		"http://r/@id=r!g/a/1.0/module": "application/json",
	}
	for ref, want := range tests {
		if got := contentType(ref); got != want {
			t.Errorf("contentType(%q) = %q, want %q", ref, got, want)
		}
	}
}

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, http.NotFoundHandler(), log.New(io.Discard))
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "")
	if err != nil || shutdown != nil {
		t.Errorf("InitTracer(\"\") = %v, %v", shutdown != nil, err)
	}
}
