package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kinchart/pkg/cache"
	"github.com/matzehuels/kinchart/pkg/graph"
	"github.com/matzehuels/kinchart/pkg/pipeline"
)

const serveChart = `{
  "focus": "c",
  "persons": [
    {"id": "p1", "name": "Anton", "sex": "M"},
    {"id": "p2", "name": "Berta", "sex": "F"},
    {"id": "c", "name": "Carl"}
  ],
  "partnerships": [{"id": "u", "partners": ["p1", "p2"], "children": ["c"]}]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(fc, cache.NewScopedKeyer(nil, "api:"), logger)
	ts := httptest.NewServer(newServer(runner, pipeline.Options{}, logger).routes())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServeLayout(t *testing.T) {
	ts := newTestServer(t)
	body := `{"chart": ` + serveChart + `}`

	resp := post(t, ts.URL+"/v1/layout", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", got)
	}
	id := resp.Header.Get("X-Layout-ID")
	if id == "" {
		t.Error("X-Layout-ID not set")
	}

	var l graph.Layout
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if l.Focus != "c" {
		t.Errorf("Focus = %q, want c", l.Focus)
	}
	if len(l.Positions) != 3 {
		t.Errorf("len(Positions) = %d, want 3", len(l.Positions))
	}

	again := post(t, ts.URL+"/v1/layout", body)
	if got := again.Header.Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", got)
	}
	if got := again.Header.Get("X-Layout-ID"); got != id {
		t.Errorf("second X-Layout-ID = %q, want %q", got, id)
	}
}

func TestServeErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/v1/layout", `{"chart":`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown field", "/v1/layout", `{"chart": ` + serveChart + `, "extra": 1}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown focus", "/v1/layout", `{"chart": ` + serveChart + `, "options": {"focus": "zz"}}`, http.StatusNotFound, "FOCUS_NOT_FOUND"},
		{"bad option", "/v1/layout", `{"chart": ` + serveChart + `, "options": {"card_width": -1}}`, http.StatusBadRequest, "INVALID_CONFIG"},
		{"empty batch", "/v1/batch", `{"chart": ` + serveChart + `, "focuses": []}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty preview", "/v1/preview", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var e errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if string(e.Code) != tt.code {
				t.Errorf("code = %q, want %q", e.Code, tt.code)
			}
			if e.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestServeBatch(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/v1/batch", `{"chart": `+serveChart+`, "focuses": ["c", "p1"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Layouts) != 2 {
		t.Fatalf("len(Layouts) = %d, want 2", len(out.Layouts))
	}
	if out.Layouts[0].Focus != "c" || out.Layouts[1].Focus != "p1" {
		t.Errorf("focuses = %q, %q, want c, p1", out.Layouts[0].Focus, out.Layouts[1].Focus)
	}
}

func TestServePreviewDOT(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/v1/preview", `{"chart": `+serveChart+`, "options": {"preview_format": "dot"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q, want DOT", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("digraph")) {
		t.Errorf("body = %q, want DOT graph", body)
	}
}
