package transport

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// File opens file: resources from the local filesystem.
type File struct{}

// Open implements Transport. Both file:///abs/path and the opaque
// file:relative/path form are accepted.
func (File) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := FilePath(rawURL)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, p)
	}
	return f, nil
}

// FilePath converts a file: URL to a filesystem path.
func FilePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.EqualFold(u.Scheme, "file") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, rawURL)
	}
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	if p == "" {
		return "", fmt.Errorf("%w: empty path in %s", fs.ErrInvalid, rawURL)
	}
	return filepath.FromSlash(p), nil
}
