// Package server exposes the resolver over HTTP.
//
//	GET /maven/{reference}   stream the resolved artifact or metadata document
//	GET /healthz             liveness
//	GET /metrics             Prometheus metrics (when configured)
//
// The reference is everything after /maven/, in the same syntax the CLI
// accepts, for example /maven/org.example/lib/1.0/jar/sources.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// Resolver is the part of resolver.Resolver the gateway needs.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Config holds router configuration.
type Config struct {
	Resolver Resolver
	Logger   *log.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter creates the HTTP router.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(Tracing)
	r.Use(Logging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.ServeHTTP)
	}

	h := &artifactHandler{resolver: cfg.Resolver, logger: logger}
	r.Get("/maven/*", h.ServeHTTP)
	r.Head("/maven/*", h.ServeHTTP)
	return r
}

type artifactHandler struct {
	resolver Resolver
	logger   *log.Logger
}

func (h *artifactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "*")
	rc, err := h.resolver.Resolve(r.Context(), ref)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("resolution failed", "ref", ref, "request_id", chimiddleware.GetReqID(r.Context()), "err", err)
		}
		http.Error(w, errors.UserMessage(err), status)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType(ref))
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	if _, err := io.Copy(w, rc); err != nil && r.Context().Err() == nil {
		h.logger.Warn("streaming response failed", "ref", ref, "err", err)
	}
}

// StatusFor maps a resolution error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errors.ErrCodeMalformedReference),
		errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeCacheWriteFailure):
		return http.StatusBadGateway
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		// Client went away; nobody reads the status.
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func contentType(ref string) string {
	if i := strings.LastIndex(ref, "!"); i >= 0 {
		ref = ref[i+1:]
	}
	if strings.HasSuffix(ref, "/metadata") {
		return "application/xml"
	}
	segments := strings.Split(ref, "/")
	packaging := "jar"
	if len(segments) > 3 && segments[3] != "" {
		packaging = segments[3]
	}
	switch packaging {
	case "pom", "xml":
		return "application/xml"
	case "jar", "war", "ear":
		return "application/java-archive"
	case "json", "module":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Logging returns a middleware that logs completed requests.
func Logging(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("request completed",
					"request_id", chimiddleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", strconv.Itoa(ww.Status()),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
