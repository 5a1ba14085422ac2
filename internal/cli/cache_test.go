package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kinchart/pkg/cache"
	"github.com/matzehuels/kinchart/pkg/pipeline"
)

func testCLI(t *testing.T) *CLI {
	t.Helper()
	var buf bytes.Buffer
	c := New(&buf, log.DebugLevel)
	c.configPath = filepath.Join(t.TempDir(), "missing.toml")
	return c
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestNewCacheBackends(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     pipeline.CacheConfig
		noCache bool
		wantNil bool
	}{
		{"no-cache flag", pipeline.CacheConfig{Dir: dir}, true, true},
		{"disabled in config", pipeline.CacheConfig{Dir: dir, Disabled: true}, false, true},
		{"file cache", pipeline.CacheConfig{Dir: dir}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.newCache(context.Background(), tt.cfg, tt.noCache)
			if err != nil {
				t.Fatalf("newCache() error: %v", err)
			}
			_, isNull := got.(cache.NullCache)
			if isNull != tt.wantNil {
				t.Errorf("newCache() = %T, want null cache = %v", got, tt.wantNil)
			}
		})
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinchart.toml")
	content := "[layout]\ncard_width = 150\nvertical_gap = 80\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := testCLI(t)
	c.configPath = path
	opts, _, err := c.loadConfig(pipeline.Options{CardWidth: 200})
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if opts.CardWidth != 200 {
		t.Errorf("CardWidth = %v, want 200 (flag)", opts.CardWidth)
	}
	if opts.VerticalGap != 80 {
		t.Errorf("VerticalGap = %v, want 80 (file)", opts.VerticalGap)
	}
	if opts.Logger != c.Logger {
		t.Error("Logger not set from CLI")
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	c := testCLI(t)
	if _, _, err := c.loadConfig(pipeline.Options{}); err == nil {
		t.Error("loadConfig() with missing --config file should fail")
	}
}

func TestLocalCacheDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kinchart.toml")
	cacheDirPath := filepath.Join(dir, "c")
	if err := os.WriteFile(path, []byte("[cache]\ndir = \""+filepath.ToSlash(cacheDirPath)+"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := testCLI(t)
	c.configPath = path
	got, err := c.localCacheDir()
	if err != nil {
		t.Fatalf("localCacheDir() error: %v", err)
	}
	if filepath.Clean(got) != filepath.Clean(cacheDirPath) {
		t.Errorf("localCacheDir() = %q, want %q", got, cacheDirPath)
	}
}

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	xdg := t.TempDir()

	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"default", "", filepath.Join(home, ".cache", appName)},
		{"xdg", xdg, filepath.Join(xdg, appName)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
