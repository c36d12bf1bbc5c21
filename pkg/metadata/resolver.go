package metadata

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mvnfetch/pkg/cache"
	"github.com/matzehuels/mvnfetch/pkg/coordinate"
	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/observability"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/transport"
)

// MaxDocumentSize bounds a metadata document. Real documents are a few KB.
const MaxDocumentSize = 4 << 20

// Binding is a placeholder version bound to one concrete artifact file.
type Binding struct {
	// Version is the version directory, e.g. 1.0-SNAPSHOT.
	Version string
	// Concrete is the version in the file name, e.g. 1.0-20110714.123053-3.
	Concrete string
}

// Path returns the repository-relative path of the bound artifact.
func (b Binding) Path(c coordinate.Coordinates, layout repository.Layout) string {
	return c.Path(layout, b.Version, c.FileName(b.Concrete))
}

// Resolver fetches metadata documents from one repository at a time.
// Remote documents are cached according to the repository's update policy;
// local repositories are always read directly.
type Resolver struct {
	transport transport.Transport
	cache     cache.Cache
	logger    *log.Logger
}

// NewResolver creates a Resolver. A nil cache disables caching; a nil
// logger uses the charmbracelet default logger.
func NewResolver(t transport.Transport, c cache.Cache, logger *log.Logger) *Resolver {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{transport: t, cache: c, logger: logger}
}

// Document returns the raw bytes of the document at rel in repo.
func (r *Resolver) Document(ctx context.Context, repo *repository.Spec, rel string) ([]byte, error) {
	key := cache.MetadataKey(repo.ID, rel)
	cacheable := !repo.Local && repo.Update.TTL >= 0

	if cacheable {
		data, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Debug("metadata cache read failed", "key", key, "err", err)
		}
		if ok {
			observability.Cache().OnCacheHit(ctx, "metadata")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "metadata")
	}

	url := repo.Resolve(rel)
	data, err := transport.ReadAll(ctx, r.transport, url, MaxDocumentSize)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(errors.ErrCodeMetadataUnresolvable, err, "metadata %s from %s", rel, repo.ID)
	}

	if cacheable {
		if err := r.cache.Set(ctx, key, data, repo.Update.TTL); err != nil {
			r.logger.Debug("metadata cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "metadata", len(data))
		}
	}
	return data, nil
}

// Load fetches and parses the document at rel in repo.
func (r *Resolver) Load(ctx context.Context, repo *repository.Spec, rel string) (*Metadata, error) {
	data, err := r.Document(ctx, repo, rel)
	if err != nil {
		return nil, err
	}
	md, err := Parse(data)
	if err != nil {
		// A broken cached copy must not pin the failure until it expires.
		_ = r.cache.Delete(ctx, cache.MetadataKey(repo.ID, rel))
		return nil, errors.Wrap(errors.ErrCodeMetadataUnresolvable, err, "metadata %s from %s", rel, repo.ID)
	}
	return md, nil
}

// Bind turns the version of c into a concrete file for repo.
//
//   - Exact versions bind to themselves without contacting repo.
//   - Latest and Release read the artifact-level document.
//   - SnapshotLatest reads the version-level document; when that is missing
//     or carries no build information the literal -SNAPSHOT file is used.
//
// Legacy repositories publish no metadata, so placeholders cannot be bound
// there. Errors are METADATA_UNRESOLVABLE unless ctx was cancelled.
func (r *Resolver) Bind(ctx context.Context, repo *repository.Spec, c coordinate.Coordinates) (Binding, error) {
	v := c.Version
	if v.Kind == coordinate.Exact {
		return Binding{Version: coordinate.BaseVersion(v.Value), Concrete: v.Value}, nil
	}
	if repo.Layout == repository.LayoutLegacy {
		return Binding{}, errors.New(errors.ErrCodeMetadataUnresolvable, "legacy repository %s has no metadata", repo.ID)
	}

	if v.Kind == coordinate.SnapshotLatest {
		return r.bindSnapshot(ctx, repo, c, v.String())
	}

	md, err := r.Load(ctx, repo, c.MetadataPath(""))
	if err != nil {
		return Binding{}, err
	}
	var version string
	var ok bool
	if v.Kind == coordinate.Release {
		version, ok = md.Release()
	} else {
		version, ok = md.Latest()
	}
	if !ok {
		return Binding{}, errors.New(errors.ErrCodeMetadataUnresolvable, "no %s version of %s in %s", v.Kind, c.ArtifactDir(), repo.ID)
	}
	if strings.HasSuffix(version, "-SNAPSHOT") {
		return r.bindSnapshot(ctx, repo, c, version)
	}
	return Binding{Version: version, Concrete: version}, nil
}

func (r *Resolver) bindSnapshot(ctx context.Context, repo *repository.Spec, c coordinate.Coordinates, version string) (Binding, error) {
	md, err := r.Load(ctx, repo, c.MetadataPath(version))
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return Binding{}, err
		}
		r.logger.Debug("snapshot metadata unavailable, using -SNAPSHOT file", "repo", repo.ID, "version", version, "err", err)
		return Binding{Version: version, Concrete: version}, nil
	}
	return Binding{Version: version, Concrete: md.SnapshotVersion(version, c.Classifier, c.Type)}, nil
}
