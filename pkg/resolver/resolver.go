// Package resolver turns artifact references into local files.
//
// A [Resolver] drives one resolution per call:
//
//  1. Parse the reference (MALFORMED_REFERENCE on failure).
//  2. For exact versions, serve the file from the local repository if it is
//     already there. No repository is contacted.
//  3. Otherwise try each candidate repository in order: local, configured,
//     default, fallback. Mirrors are applied per repository, placeholder
//     versions are bound against that repository's own metadata, and any
//     failure moves on to the next candidate.
//  4. The first repository that serves the file wins. Its bytes are
//     committed atomically into the local repository and a stream over the
//     committed copy is returned.
//  5. When every candidate failed the result is a NOT_FOUND error listing
//     the repositories that were tried.
//
// Resolutions are independent and safe to run concurrently. Identical
// requests in flight at the same time share one download.
package resolver

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/config"
	"github.com/matzehuels/mvnfetch/pkg/coordinate"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/localrepo"
	"github.com/matzehuels/mvnfetch/pkg/metadata"
	"github.com/matzehuels/mvnfetch/pkg/mirror"
	"github.com/matzehuels/mvnfetch/pkg/observability"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/transport"
)

// TracerName is the instrumentation name spans are recorded under.
const TracerName = "github.com/matzehuels/mvnfetch/pkg/resolver"

// Options configure a Resolver. Every field is optional.
type Options struct {
	// Transport opens repository resources. Defaults to [transport.New]
	// built from the configuration's timeout, certificate check and proxies.
	Transport transport.Transport
	// MetadataCache stores remote metadata documents. Nil disables caching.
	MetadataCache cache.Cache
	// Logger defaults to log.Default().
	Logger *log.Logger
	// Tracer defaults to the global OpenTelemetry tracer provider.
	Tracer trace.Tracer
}

// Result describes a successful resolution.
type Result struct {
	// Path is the file in the local repository. Empty for metadata requests.
	Path string
	// Data holds the document bytes of a metadata request.
	Data []byte
	// Repository is the id of the repository that served the request, or
	// "local" for a local repository hit.
	Repository string
	// Version is the concrete version that was resolved.
	Version string
}

// Resolver resolves artifact references against a Configuration.
type Resolver struct {
	cfg       *config.Configuration
	transport transport.Transport
	metadata  *metadata.Resolver
	local     *localrepo.Repository
	logger    *log.Logger
	tracer    trace.Tracer
	flight    singleflight.Group
}

// New creates a Resolver for cfg.
func New(cfg *config.Configuration, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	t := opts.Transport
	if t == nil {
		t = transport.New(transport.Options{
			Timeout:          cfg.Timeout,
			CertificateCheck: cfg.CertificateCheck,
			Proxies:          cfg.Proxies,
		})
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &Resolver{
		cfg:       cfg,
		transport: t,
		metadata:  metadata.NewResolver(t, opts.MetadataCache, logger),
		local:     localrepo.New(cfg.CacheRoot),
		logger:    logger,
		tracer:    tracer,
	}
}

// LocalRepository returns the store resolved artifacts are committed to.
func (r *Resolver) LocalRepository() *localrepo.Repository { return r.local }

// Resolve parses ref and returns a stream over the resolved artifact, or
// over the metadata document for the metadata form. The caller closes it.
func (r *Resolver) Resolve(ctx context.Context, ref string) (io.ReadCloser, error) {
	parsed, err := coordinate.Parse(ref)
	if err != nil {
		return nil, err
	}
	return r.ResolveCoordinates(ctx, parsed.Coordinates, parsed.Override)
}

// ResolveCoordinates is Resolve for already parsed coordinates. A non-nil
// override restricts the candidates to the local repository and override.
func (r *Resolver) ResolveCoordinates(ctx context.Context, c coordinate.Coordinates, override *repository.Spec) (io.ReadCloser, error) {
	res, err := r.Fetch(ctx, c, override)
	if err != nil {
		return nil, err
	}
	if c.Metadata {
		return io.NopCloser(bytes.NewReader(res.Data)), nil
	}
	f, err := os.Open(res.Path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", res.Path)
	}
	return f, nil
}

// Locate resolves ref and returns the path of the file in the local
// repository. Metadata requests have no local file and are rejected.
func (r *Resolver) Locate(ctx context.Context, ref string) (string, error) {
	parsed, err := coordinate.Parse(ref)
	if err != nil {
		return "", err
	}
	if parsed.Metadata {
		return "", errors.New(errors.ErrCodeInvalidInput, "metadata request %q has no local file", ref)
	}
	res, err := r.Fetch(ctx, parsed.Coordinates, parsed.Override)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// Fetch runs one resolution and reports where the result came from.
func (r *Resolver) Fetch(ctx context.Context, c coordinate.Coordinates, override *repository.Spec) (*Result, error) {
	ref := c.String()
	logger := r.logger.With("request", uuid.NewString(), "ref", ref)

	ctx, span := r.tracer.Start(ctx, "resolve", trace.WithAttributes(
		attribute.String("maven.reference", ref),
		attribute.Bool("maven.metadata", c.Metadata),
	))
	defer span.End()

	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, ref)
	start := time.Now()

	res, err := r.fetch(ctx, logger, c, override)

	repoID := ""
	if res != nil {
		repoID = res.Repository
		span.SetAttributes(attribute.String("maven.repository", repoID))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.UserMessage(err))
		logger.Debug("resolution failed", "err", err)
	} else {
		logger.Debug("resolved", "repo", repoID, "path", res.Path)
	}
	hooks.OnResolveComplete(ctx, ref, repoID, time.Since(start), err)
	return res, err
}

func (r *Resolver) fetch(ctx context.Context, logger *log.Logger, c coordinate.Coordinates, override *repository.Spec) (*Result, error) {
	if c.Metadata {
		return r.fetchMetadata(ctx, logger, c, override)
	}

	// An exact version maps to one file; if it is there, nothing to do.
	if c.Version.Kind == coordinate.Exact {
		rel := c.Path(repository.LayoutDefault, c.Version.Value, "")
		if r.local.Exists(rel) {
			observability.Resolve().OnLocalHit(ctx, c.String())
			logger.Debug("local repository hit", "path", rel)
			p, _ := r.local.Path(rel)
			return &Result{Path: p, Repository: repository.LocalID, Version: c.Version.Value}, nil
		}
	}

	key := c.String()
	if override != nil {
		key = override.Base() + "!" + key
	}
	for {
		ch := r.flight.DoChan(key, func() (any, error) {
			return r.tryCandidates(ctx, logger, c, override)
		})
		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}
		// The shared call ran on another caller's context. If that caller
		// went away, try again on ours.
		if isContextErr(res.Err) && ctx.Err() == nil {
			r.flight.Forget(key)
			continue
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	}
}

// candidates returns the repositories to try, in order.
func (r *Resolver) candidates(override *repository.Spec) []*repository.Spec {
	if override == nil {
		return r.cfg.Candidates()
	}
	var out []*repository.Spec
	if r.cfg.LocalRepository != nil {
		out = append(out, r.cfg.LocalRepository)
	}
	return append(out, override)
}

func (r *Resolver) tryCandidates(ctx context.Context, logger *log.Logger, c coordinate.Coordinates, override *repository.Spec) (*Result, error) {
	var attempted []string
	var last error

	for _, repo := range r.candidates(override) {
		if !eligible(repo, c.Version) {
			observability.Resolve().OnAttempt(ctx, repo.ID, observability.OutcomeSkipped, 0)
			logger.Debug("repository disabled for this version", "repo", repo.ID)
			continue
		}
		attempted = append(attempted, repo.ID)

		res, err := r.attempt(ctx, logger, repo, c)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, errors.ErrCodeCacheWriteFailure) {
			return nil, err
		}
		last = err
	}

	return nil, &errors.NotFoundError{Reference: c.String(), Attempted: attempted, Last: last}
}

// attempt tries one repository. Every error other than a context or
// cache-write error means "try the next candidate".
func (r *Resolver) attempt(ctx context.Context, logger *log.Logger, repo *repository.Spec, c coordinate.Coordinates) (res *Result, err error) {
	target, mirrored := r.mirrored(repo)

	ctx, span := r.tracer.Start(ctx, "attempt", trace.WithAttributes(
		attribute.String("maven.repository", repo.ID),
		attribute.String("maven.url", transport.Redact(target.Base())),
		attribute.Bool("maven.mirrored", mirrored),
	))
	start := time.Now()
	outcome := observability.OutcomeFound
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, errors.UserMessage(err))
		}
		span.End()
		observability.Resolve().OnAttempt(ctx, repo.ID, outcome, time.Since(start))
	}()

	logger = logger.With("repo", repo.ID, "url", transport.Redact(target.Base()))
	logger.Debug("trying repository", "mirrored", mirrored)

	binding, err := r.metadata.Bind(ctx, target, c)
	if err != nil {
		outcome = observability.OutcomeMetadata
		if ctx.Err() == nil {
			logger.Warn("metadata unresolvable", "err", err)
		}
		return nil, err
	}
	if c.Version.Kind == coordinate.Latest && !repo.Enabled(coordinate.IsSnapshot(binding.Concrete)) {
		outcome = observability.OutcomeSkipped
		return nil, errors.New(errors.ErrCodeNotFound, "%s is disabled for %s", repo.ID, binding.Concrete)
	}

	rel := binding.Path(c, target.Layout)
	cacheRel := binding.Path(c, repository.LayoutDefault)

	if r.isCacheRoot(target) {
		if !r.local.Exists(rel) {
			outcome = observability.OutcomeNotFound
			return nil, errors.New(errors.ErrCodeNotFound, "%s not in local repository", rel)
		}
		p, _ := r.local.Path(rel)
		observability.Resolve().OnLocalHit(ctx, c.String())
		return &Result{Path: p, Repository: repo.ID, Version: binding.Concrete}, nil
	}

	// Concrete released and timestamped files never change, so a copy
	// another resolution already committed can be reused.
	if !strings.HasSuffix(binding.Concrete, "-SNAPSHOT") && r.local.Exists(cacheRel) {
		p, _ := r.local.Path(cacheRel)
		return &Result{Path: p, Repository: repo.ID, Version: binding.Concrete}, nil
	}

	rc, err := r.transport.Open(ctx, target.Resolve(rel))
	if err != nil {
		switch {
		case ctx.Err() != nil:
			outcome = observability.OutcomeUnavailable
			return nil, ctx.Err()
		case stderrors.Is(err, transport.ErrNotFound):
			outcome = observability.OutcomeNotFound
			logger.Debug("not found", "path", rel)
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s in %s", rel, repo.ID)
		default:
			outcome = observability.OutcomeUnavailable
			logger.Warn("repository unavailable", "err", err)
			return nil, errors.Wrap(errors.ErrCodeRepositoryUnavailable, err, "%s", repo.ID)
		}
	}
	defer rc.Close()

	p, err := r.local.Commit(ctx, cacheRel, rc)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			outcome = observability.OutcomeUnavailable
			return nil, ctx.Err()
		case errors.Is(err, errors.ErrCodeCacheWriteFailure):
			logger.Error("cache write failed", "path", cacheRel, "err", err)
			return nil, err
		default:
			outcome = observability.OutcomeUnavailable
			logger.Warn("download interrupted", "path", rel, "err", err)
			return nil, errors.Wrap(errors.ErrCodeRepositoryUnavailable, err, "read %s from %s", rel, repo.ID)
		}
	}
	logger.Info("downloaded", "path", cacheRel)
	return &Result{Path: p, Repository: repo.ID, Version: binding.Concrete}, nil
}

// fetchMetadata serves the metadata form: the version-level document when
// the reference names a version, then the artifact-level document. Nothing
// is written into the local repository.
func (r *Resolver) fetchMetadata(ctx context.Context, logger *log.Logger, c coordinate.Coordinates, override *repository.Spec) (*Result, error) {
	var paths []string
	if c.Version.Kind == coordinate.Exact || c.Version.Kind == coordinate.SnapshotLatest {
		paths = append(paths, c.MetadataPath(c.Version.String()))
	}
	paths = append(paths, c.MetadataPath(""))

	var attempted []string
	var last error
	for _, repo := range r.candidates(override) {
		target, _ := r.mirrored(repo)
		if target.Layout == repository.LayoutLegacy {
			continue
		}
		attempted = append(attempted, repo.ID)
		for _, rel := range paths {
			data, err := r.metadata.Document(ctx, target, rel)
			if err == nil {
				observability.Resolve().OnAttempt(ctx, repo.ID, observability.OutcomeFound, 0)
				return &Result{Data: data, Repository: repo.ID}, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			last = err
		}
		observability.Resolve().OnAttempt(ctx, repo.ID, observability.OutcomeNotFound, 0)
		logger.Debug("metadata not found", "repo", repo.ID, "err", last)
	}
	return nil, &errors.NotFoundError{Reference: c.String(), Attempted: attempted, Last: last}
}

// mirrored applies the mirror rules to repo. The configured local
// repository is never mirrored.
func (r *Resolver) mirrored(repo *repository.Spec) (*repository.Spec, bool) {
	if repo == r.cfg.LocalRepository {
		return repo, false
	}
	return mirror.Apply(r.cfg.Mirrors, repo)
}

// isCacheRoot reports whether repo is the directory artifacts are committed
// to. Such a repository is read in place instead of copied onto itself.
func (r *Resolver) isCacheRoot(repo *repository.Spec) bool {
	if !repo.Local {
		return false
	}
	p := repo.FilePath()
	if p == "" {
		return false
	}
	abs, err := filepath.Abs(filepath.FromSlash(p))
	if err != nil {
		return false
	}
	root, err := filepath.Abs(r.local.Root())
	return err == nil && abs == root
}

// eligible reports whether repo may serve version at all. Latest can bind
// to either kind, so it only needs one of the two enabled.
func eligible(repo *repository.Spec, v coordinate.Version) bool {
	switch v.Kind {
	case coordinate.SnapshotLatest:
		return repo.SnapshotsEnabled
	case coordinate.Release:
		return repo.ReleasesEnabled
	case coordinate.Latest:
		return repo.ReleasesEnabled || repo.SnapshotsEnabled
	default:
		return repo.Enabled(coordinate.IsSnapshot(v.Value))
	}
}

// isContextErr matches the bare context errors a cancelled shared call
// returns, not transport timeouts wrapped inside other errors.
func isContextErr(err error) bool {
	return err == context.Canceled || err == context.DeadlineExceeded
}
