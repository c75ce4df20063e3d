package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/platepack/pkg/cache"
	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[solve]
strategy = "arith"
timeout_ms = 1500
domain = "min"
formats = ["txt", "svg"]

[cache]
backend = "none"

[store]
backend = "file"
dir = "/tmp/runs"

[server]
addr = "127.0.0.1:9000"
concurrency = 4
max_cells = 2000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Solve.Strategy = "arith"
	want.Solve.TimeoutMS = 1500
	want.Solve.Domain = "min"
	want.Solve.Formats = []string{"txt", "svg"}
	want.Cache.Backend = BackendNone
	want.Store.Dir = "/tmp/runs"
	want.Server.Addr = "127.0.0.1:9000"
	want.Server.Concurrency = 4
	want.Server.MaxCells = 2000
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	opts := cfg.Solve.Options()
	if opts.Strategy != "arith" || opts.Budget().Milliseconds() != 1500 {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "[solve\n"},
		{"unknown key", "[solve]\nstrategi = \"arith\"\n"},
		{"bad strategy", "[solve]\nstrategy = \"cp\"\n"},
		{"bad cache backend", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n"},
		{"zero concurrency", "[server]\nconcurrency = 0\n"},
		{"negative max cells", "[server]\nmax_cells = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestDefaultPathXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tmp/xdg/platepack/config.toml" {
		t.Errorf("DefaultPath() = %q", p)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	dir, err := CacheConfig{}.CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("CacheDir() = %q, want %q", dir, want)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	dir, _ = CacheConfig{}.CacheDir()
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("CacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}

	dir, _ = CacheConfig{Dir: "/srv/cache"}.CacheDir()
	if dir != "/srv/cache" {
		t.Errorf("CacheDir() with Dir = %q", dir)
	}
}

func TestCacheOpen(t *testing.T) {
	ctx := context.Background()
	c, err := CacheConfig{Backend: BackendFile, Dir: t.TempDir()}.Open(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("file backend opened %T", c)
	}
	c, _ = CacheConfig{Backend: BackendFile}.Open(ctx, true)
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("noCache opened %T", c)
	}
	c, _ = CacheConfig{Backend: BackendNone}.Open(ctx, false)
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("none backend opened %T", c)
	}
}

func TestStoreOpen(t *testing.T) {
	ctx := context.Background()
	st, err := StoreConfig{Backend: BackendFile, Dir: t.TempDir()}.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*store.FileStore); !ok {
		t.Errorf("file backend opened %T", st)
	}
	st, err = StoreConfig{Backend: BackendNone}.Open(ctx)
	if err != nil || st != nil {
		t.Errorf("none backend = %v, %v; want nil, nil", st, err)
	}
}
