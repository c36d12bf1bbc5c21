package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"a/1.json", "a/2.json", "b/c/3.json", "4.json"} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir() error: %v", err)
	}
	if n != 4 {
		t.Errorf("clearDir() = %d, want 4", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("directory not empty: %v", entries)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("clearDir() should keep the root: %v", err)
	}
}

func TestClearDir_Missing(t *testing.T) {
	n, err := clearDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil || n != 0 {
		t.Errorf("clearDir(missing) = %d, %v", n, err)
	}
}

func TestCachePath(t *testing.T) {
	e := newTestEnv(t)

	out, _, err := e.run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName, "metadata")
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), want)
	}

	out, _, err = e.run(t, "cache", "path", "--artifacts")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(e.home, ".m2", "repository"); strings.TrimSpace(out) != want {
		t.Errorf("cache path --artifacts = %q, want %q", strings.TrimSpace(out), want)
	}
}

func TestCacheClear(t *testing.T) {
	e := newTestEnv(t)

	// Populate the local repository.
	args := []string{"fetch", "org.example/lib/RELEASE", "--repositories", "*"+e.repoToken(), "--no-fallback"}
	if _, _, err := e.run(t, args...); err != nil {
		t.Fatal(err)
	}
	local := filepath.Join(e.home, ".m2", "repository")
	if entries, _ := os.ReadDir(local); len(entries) == 0 {
		t.Fatal("fetch did not populate the local repository")
	}

	_, stderr, err := e.run(t, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "Directory:") {
		t.Errorf("clear output = %q", stderr)
	}
	if entries, _ := os.ReadDir(local); len(entries) == 0 {
		t.Error("cache clear without --artifacts emptied the local repository")
	}

	if _, _, err := e.run(t, "cache", "clear", "--artifacts"); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(local); len(entries) != 0 {
		t.Errorf("local repository not emptied: %v", entries)
	}
}
