package localrepo

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

func TestPath(t *testing.T) {
	root := t.TempDir()
	r := New(root)

	p, err := r.Path("org/example/lib/1.0/lib-1.0.jar")
	if err != nil {
		t.Fatalf("Path error: %v", err)
	}
	want := filepath.Join(root, "org", "example", "lib", "1.0", "lib-1.0.jar")
	if p != want {
		t.Errorf("Path = %q, want %q", p, want)
	}

	for _, rel := range []string{"", "../escape.jar", "/abs/lib.jar", "org/../../x", "org\\lib.jar"} {
		if _, err := r.Path(rel); !errors.Is(err, errors.ErrCodeInvalidPath) {
			t.Errorf("Path(%q) = %v, want INVALID_PATH", rel, err)
		}
	}
}

func TestCommitAndOpen(t *testing.T) {
	ctx := context.Background()
	r := New(t.TempDir())
	rel := "org/example/lib/1.0/lib-1.0.jar"

	if r.Exists(rel) {
		t.Fatal("Exists before commit")
	}
	if _, err := r.Open(rel); !stderrors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open before commit = %v, want fs.ErrNotExist", err)
	}

	path, err := r.Commit(ctx, rel, strings.NewReader("jar-bytes"))
	if err != nil {
		t.Fatalf("Commit error: %v", err)
	}
	if !r.Exists(rel) {
		t.Error("Exists after commit = false")
	}

	f, err := r.Open(rel)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "jar-bytes" {
		t.Errorf("content = %q", data)
	}
	if f.Name() != path {
		t.Errorf("Commit path %q != Open path %q", path, f.Name())
	}

	if _, err := r.Commit(ctx, rel, strings.NewReader("new-bytes")); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "new-bytes" {
		t.Errorf("overwritten content = %q", data)
	}
}

type failingReader struct {
	n   int
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.n <= 0 {
		return 0, f.err
	}
	n := min(len(p), f.n)
	for i := range n {
		p[i] = 'x'
	}
	f.n -= n
	return n, nil
}

func assertNoPartials(t *testing.T, dir string) {
	t.Helper()
	filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err == nil && IsPartial(d.Name()) {
			t.Errorf("partial file left behind: %s", p)
		}
		return nil
	})
}

func TestCommitSourceFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	r := New(root)
	rel := "g/a/1.0/a-1.0.jar"

	srcErr := stderrors.New("connection reset")
	_, err := r.Commit(ctx, rel, &failingReader{n: 1024, err: srcErr})
	if !stderrors.Is(err, srcErr) {
		t.Fatalf("Commit error = %v, want source error", err)
	}
	if errors.Is(err, errors.ErrCodeCacheWriteFailure) {
		t.Error("source failure must not be reported as CACHE_WRITE_FAILURE")
	}
	if r.Exists(rel) {
		t.Error("failed commit produced a file")
	}
	assertNoPartials(t, root)
}

func TestCommitKeepsPreviousOnFailure(t *testing.T) {
	ctx := context.Background()
	r := New(t.TempDir())
	rel := "g/a/1.0/a-1.0.jar"

	r.Commit(ctx, rel, strings.NewReader("good"))
	r.Commit(ctx, rel, &failingReader{n: 10, err: io.ErrUnexpectedEOF})

	f, _ := r.Open(rel)
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "good" {
		t.Errorf("previous file replaced by failed commit: %q", data)
	}
}

func TestCommitCancelled(t *testing.T) {
	root := t.TempDir()
	r := New(root)
	ctx, cancel := context.WithCancel(context.Background())

	src := io.MultiReader(strings.NewReader("first chunk"), readerFunc(func(p []byte) (int, error) {
		cancel()
		return copy(p, "second chunk"), nil
	}), strings.NewReader("third chunk"))

	_, err := r.Commit(ctx, "g/a/1.0/a-1.0.jar", src)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Commit error = %v, want context.Canceled", err)
	}
	if r.Exists("g/a/1.0/a-1.0.jar") {
		t.Error("cancelled commit produced a file")
	}
	assertNoPartials(t, root)
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func TestCommitWriteFailure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "g")
	os.WriteFile(blocker, []byte("not a directory"), 0644)

	_, err := New(root).Commit(context.Background(), "g/a/1.0/a-1.0.jar", strings.NewReader("x"))
	if !errors.Is(err, errors.ErrCodeCacheWriteFailure) {
		t.Errorf("Commit error = %v, want CACHE_WRITE_FAILURE", err)
	}
}

func TestCommitConcurrent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	r := New(root)
	rel := "g/a/1.0/a-1.0.jar"
	payload := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Commit(ctx, rel, bytes.NewReader(payload)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Commit error: %v", err)
	}

	p, _ := r.Path(rel)
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("final file corrupted: %d bytes, want %d", len(data), len(payload))
	}
	assertNoPartials(t, root)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	r := New(root)
	r.Commit(ctx, "g/a/1.0/a-1.0.jar", strings.NewReader("x"))

	if err := r.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("entries after Clear = %d", len(entries))
	}
	if err := New(filepath.Join(root, "missing")).Clear(); err != nil {
		t.Errorf("Clear of missing root: %v", err)
	}
}
