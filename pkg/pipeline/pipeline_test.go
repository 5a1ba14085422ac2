package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/kinchart/pkg/cache"
	"github.com/matzehuels/kinchart/pkg/core/layout"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
	"github.com/matzehuels/kinchart/pkg/graph"
)

func sampleChart() graph.Chart {
	return graph.Chart{
		Focus: "c",
		Persons: []graph.Person{
			{ID: "p1", Name: "Anton", Sex: "M"},
			{ID: "p2", Name: "Berta", Sex: "F"},
			{ID: "c", Name: "Carl", Birth: "1980"},
		},
		Partnerships: []graph.Partnership{
			{ID: "u", Partners: []string{"p1", "p2"}, Children: []string{"c"}},
		},
	}
}

func TestSetLayoutDefaults(t *testing.T) {
	opts := Options{CardWidth: 200}
	opts.SetLayoutDefaults()

	if opts.CardWidth != 200 {
		t.Errorf("CardWidth = %v, want 200 (kept)", opts.CardWidth)
	}
	if opts.CardHeight != layout.DefaultCardHeight {
		t.Errorf("CardHeight = %v, want %v", opts.CardHeight, layout.DefaultCardHeight)
	}
	if opts.MaxPasses != layout.DefaultMaxPasses {
		t.Errorf("MaxPasses = %d, want %d", opts.MaxPasses, layout.DefaultMaxPasses)
	}
	if opts.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", opts.Concurrency, DefaultConcurrency)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestSetPreviewDefaults(t *testing.T) {
	opts := Options{}
	opts.SetPreviewDefaults()
	if opts.PreviewFormat != DefaultPreviewFormat {
		t.Errorf("PreviewFormat = %q, want %q", opts.PreviewFormat, DefaultPreviewFormat)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"negative width", Options{CardWidth: -1}, true},
		{"too many workers", Options{Concurrency: MaxConcurrency + 1}, true},
		{"bad preview format", Options{PreviewFormat: "png"}, true},
		{"dot preview", Options{PreviewFormat: FormatDOT}, false},
		{"too many passes", Options{MaxPasses: 5000}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !kerrors.Is(err, kerrors.ErrCodeInvalidConfig) {
				t.Errorf("ValidateAndSetDefaults() code = %v, want %v", kerrors.GetCode(err), kerrors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{PartnerGap: 10}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first ValidateAndSetDefaults() error = %v", err)
	}
	first := opts.LayoutConfig()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults() error = %v", err)
	}
	if opts.LayoutConfig() != first {
		t.Errorf("LayoutConfig() changed: %+v, want %+v", opts.LayoutConfig(), first)
	}
}

func TestOptionsOverlay(t *testing.T) {
	base := Options{Focus: "a", CardWidth: 100, Strict: true, PreviewFormat: FormatDOT}
	base.Overlay(Options{Focus: "b", CardHeight: 40})

	if base.Focus != "b" {
		t.Errorf("Focus = %q, want b", base.Focus)
	}
	if base.CardWidth != 100 || base.CardHeight != 40 {
		t.Errorf("CardWidth, CardHeight = %v, %v, want 100, 40", base.CardWidth, base.CardHeight)
	}
	if !base.Strict {
		t.Error("Overlay() cleared Strict")
	}
	if base.PreviewFormat != FormatDOT {
		t.Errorf("PreviewFormat = %q, want dot", base.PreviewFormat)
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	opts := Options{}
	opts.SetLayoutDefaults()
	k := cache.NewDefaultKeyer()

	a := k.LayoutKey("h", opts.LayoutKeyOpts("c"))
	b := k.LayoutKey("h", opts.LayoutKeyOpts("p1"))
	if a == b {
		t.Error("LayoutKeyOpts() ignores the focus")
	}
	opts.Strict = true
	if a == k.LayoutKey("h", opts.LayoutKeyOpts("c")) {
		t.Error("LayoutKeyOpts() ignores Strict")
	}
}

func TestResolveFocus(t *testing.T) {
	c := sampleChart()
	tests := []struct {
		name     string
		chart    graph.Chart
		explicit string
		want     string
		code     kerrors.Code
	}{
		{"chart default", c, "", "c", ""},
		{"explicit", c, "p1", "p1", ""},
		{"unknown", c, "zed", "", kerrors.ErrCodeFocusNotFound},
		{"none", graph.Chart{Persons: c.Persons}, "", "", kerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveFocus(tt.chart, tt.explicit)
			if tt.code != "" {
				if !kerrors.Is(err, tt.code) {
					t.Errorf("ResolveFocus() error = %v, want code %v", err, tt.code)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ResolveFocus() = %q, %v, want %q", got, err, tt.want)
			}
		})
	}
}

func TestComputeLayout(t *testing.T) {
	res, err := ComputeLayout(sampleChart(), "c", Options{})
	if err != nil {
		t.Fatalf("ComputeLayout() error = %v", err)
	}
	if !res.Diagnostics.Valid {
		t.Errorf("Diagnostics.Valid = false: %v", res.Diagnostics.Errors)
	}
	p, ok := res.Position("c")
	if !ok || p.X != 68 {
		t.Errorf("Position(c) = %+v, %v, want X 68", p, ok)
	}
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	chart := sampleChart()

	first, err := r.Execute(ctx, chart, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first Execute() hit the cache")
	}
	if first.Layout.Focus != "c" || first.Stats.Persons != 3 {
		t.Errorf("Execute() focus, persons = %q, %d, want c, 3", first.Layout.Focus, first.Stats.Persons)
	}
	if first.ID == "" || first.Layout.ID != first.ID {
		t.Errorf("Execute() ID = %q, layout ID %q", first.ID, first.Layout.ID)
	}

	second, err := r.Execute(ctx, chart, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second Execute() missed the cache")
	}
	if second.ID != first.ID {
		t.Errorf("cached ID = %q, want %q", second.ID, first.ID)
	}
	p, ok := second.Layout.Position("p2")
	if !ok || p.X != 136 || p.Name != "Berta" {
		t.Errorf("cached Position(p2) = %+v, %v", p, ok)
	}

	refreshed, err := r.Execute(ctx, chart, Options{Refresh: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if refreshed.CacheInfo.LayoutHit {
		t.Error("Execute() with Refresh hit the cache")
	}

	other, err := r.Execute(ctx, chart, Options{Focus: "p1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if other.ID == first.ID || other.CacheInfo.LayoutHit {
		t.Error("Execute() for another focus reused the cached layout")
	}
}

func TestRunnerExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	_, err := r.Execute(context.Background(), sampleChart(), Options{Focus: "nobody"})
	if !kerrors.Is(err, kerrors.ErrCodeFocusNotFound) {
		t.Errorf("Execute() error = %v, want %v", err, kerrors.ErrCodeFocusNotFound)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Execute(ctx, sampleChart(), Options{}); err == nil {
		t.Error("Execute() with cancelled context succeeded")
	}
}

func TestRunnerExecuteBatch(t *testing.T) {
	r := newFileRunner(t)
	focuses := []string{"c", "p1", "p2"}

	results, err := r.ExecuteBatch(context.Background(), sampleChart(), focuses, Options{Concurrency: 2})
	if err != nil {
		t.Fatalf("ExecuteBatch() error = %v", err)
	}
	if len(results) != len(focuses) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(focuses))
	}
	for i, res := range results {
		if res.Layout.Focus != focuses[i] {
			t.Errorf("results[%d].Layout.Focus = %q, want %q", i, res.Layout.Focus, focuses[i])
		}
		if !res.Layout.Diagnostics.Valid {
			t.Errorf("results[%d] invalid: %v", i, res.Layout.Diagnostics.Errors)
		}
	}

	if _, err := r.ExecuteBatch(context.Background(), sampleChart(), []string{"c", "nobody"}, Options{}); err == nil {
		t.Error("ExecuteBatch() with unknown focus succeeded")
	}
	if _, err := r.ExecuteBatch(context.Background(), sampleChart(), nil, Options{}); !kerrors.Is(err, kerrors.ErrCodeInvalidInput) {
		t.Errorf("ExecuteBatch() without focuses error = %v", err)
	}
}

func TestRunnerPreviewDOT(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	res, err := r.Execute(ctx, sampleChart(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	opts := Options{PreviewFormat: FormatDOT, ShowIDs: true}
	out, hit, err := r.Preview(ctx, res.Layout, opts)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if hit {
		t.Error("first Preview() hit the cache")
	}
	if !strings.Contains(string(out), "digraph G") || !strings.Contains(string(out), "Carl") {
		t.Errorf("Preview() output = %s", out)
	}

	again, hit, err := r.Preview(ctx, res.Layout, opts)
	if err != nil || !hit || string(again) != string(out) {
		t.Errorf("second Preview() = hit %v, err %v", hit, err)
	}
}

func TestRenderPreviewBadFormat(t *testing.T) {
	_, err := RenderPreview(context.Background(), graph.Layout{Focus: "c"}, Options{PreviewFormat: "gif"})
	if !kerrors.Is(err, kerrors.ErrCodeInvalidConfig) {
		t.Errorf("RenderPreview() error = %v, want %v", err, kerrors.ErrCodeInvalidConfig)
	}
}

func TestLayoutID(t *testing.T) {
	if LayoutID("k") != LayoutID("k") {
		t.Error("LayoutID() is not deterministic")
	}
	if LayoutID("k") == LayoutID("other") {
		t.Error("LayoutID() collided")
	}
	if len(LayoutID("k")) != 36 {
		t.Errorf("LayoutID() = %q, want a UUID", LayoutID("k"))
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	src := `
[layout]
focus = "anna"
card_width = 140
strict = true

[cache]
ttl = "72h"

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if fc.Layout.Focus != "anna" || fc.Layout.CardWidth != 140 || !fc.Layout.Strict {
		t.Errorf("Layout = %+v", fc.Layout)
	}
	if ttl, _ := fc.Cache.TTLOr(0); ttl.Hours() != 72 {
		t.Errorf("Cache.TTLOr() = %v, want 72h", ttl)
	}
	if fc.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", fc.Server.Addr)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		src  string
		code kerrors.Code
	}{
		{"unknown key", "[layout]\ncard_widht = 3\n", kerrors.ErrCodeInvalidConfig},
		{"bad ttl", "[cache]\nttl = \"soon\"\n", kerrors.ErrCodeInvalidConfig},
		{"syntax", "[layout\n", kerrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".toml")
			if err := os.WriteFile(path, []byte(tt.src), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfigFile(path); !kerrors.Is(err, tt.code) {
				t.Errorf("LoadConfigFile() error = %v, want code %v", err, tt.code)
			}
		})
	}

	if _, err := LoadConfigFile(filepath.Join(dir, "missing.toml")); !kerrors.Is(err, kerrors.ErrCodeFileNotFound) {
		t.Errorf("LoadConfigFile() on missing file error = %v", err)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()

	if got, err := FindConfigFile("", dir); err != nil || got != "" {
		t.Errorf("FindConfigFile() = %q, %v, want none", got, err)
	}
	if got, _ := FindConfigFile("x.toml", dir); got != "x.toml" {
		t.Errorf("FindConfigFile() = %q, want explicit path", got)
	}

	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got, _ := FindConfigFile("", dir); got != path {
		t.Errorf("FindConfigFile() = %q, want %q", got, path)
	}
}
