// Package localrepo is the filesystem store resolved artifacts are written
// to, laid out like a Maven local repository (~/.m2/repository).
//
// Files are committed atomically: bytes are streamed into a temporary file
// in the destination directory and renamed into place only after the whole
// stream was read. Readers therefore never observe a partial artifact, and
// concurrent writers of the same path converge on the same bytes.
package localrepo

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// Repository is a local repository rooted at a directory.
type Repository struct {
	root string
}

// New returns a Repository rooted at root. The directory is created on the
// first commit.
func New(root string) *Repository {
	return &Repository{root: filepath.Clean(root)}
}

// DefaultRoot returns ~/.m2/repository.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".m2", "repository"), nil
}

// Root returns the repository directory.
func (r *Repository) Root() string { return r.root }

// Path maps a repository-relative slash path to a filesystem path. Paths
// that would escape the root are rejected with INVALID_PATH.
func (r *Repository) Path(rel string) (string, error) {
	if err := errors.ValidatePath(rel); err != nil {
		return "", err
	}
	return filepath.Join(r.root, filepath.FromSlash(rel)), nil
}

// Exists reports whether a regular file is stored at rel.
func (r *Repository) Exists(rel string) bool {
	p, err := r.Path(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Open opens the file stored at rel. A missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist).
func (r *Repository) Open(rel string) (*os.File, error) {
	p, err := r.Path(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Commit streams src into rel and returns the final filesystem path.
//
// If src fails (including through ctx cancellation while reading) nothing is
// left behind and any previous file at rel is untouched. Failures writing
// the local filesystem are CACHE_WRITE_FAILURE errors; a failure of src
// itself is returned unchanged so the caller can tell the two apart.
func (r *Repository) Commit(ctx context.Context, rel string, src io.Reader) (string, error) {
	dst, err := r.Path(rel)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeCacheWriteFailure, err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeCacheWriteFailure, err, "create temporary file in %s", dir)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, &contextReader{ctx: ctx, r: src}); err != nil {
		var pe *fs.PathError
		if stderrors.As(err, &pe) && pe.Path == tmp.Name() {
			return "", errors.Wrap(errors.ErrCodeCacheWriteFailure, err, "write %s", dst)
		}
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", errors.Wrap(errors.ErrCodeCacheWriteFailure, err, "sync %s", dst)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeCacheWriteFailure, err, "close %s", dst)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeCacheWriteFailure, err, "chmod %s", dst)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", errors.Wrap(errors.ErrCodeCacheWriteFailure, err, "rename into %s", dst)
	}
	committed = true
	return dst, nil
}

// Clear removes everything under the root.
func (r *Repository) Clear() error {
	entries, err := os.ReadDir(r.root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(r.root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// IsPartial reports whether a file name belongs to an uncommitted write.
func IsPartial(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".part")
}

// contextReader stops a copy as soon as ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
