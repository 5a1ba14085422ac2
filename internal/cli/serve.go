package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kinchart/pkg/buildinfo"
	"github.com/matzehuels/kinchart/pkg/cache"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
	"github.com/matzehuels/kinchart/pkg/graph"
	"github.com/matzehuels/kinchart/pkg/observability"
	"github.com/matzehuels/kinchart/pkg/pipeline"
)

const (
	defaultAddr     = ":8080"
	maxRequestBytes = 8 << 20
	shutdownTimeout = 10 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

Endpoints:
  POST /v1/layout   {"chart": {...}, "options": {...}}            → layout JSON
  POST /v1/batch    {"chart": {...}, "focuses": [...], "options": {...}}
  POST /v1/preview  {"chart": {...}} or {"layout": {...}}           → SVG or DOT
  GET  /healthz

Options in a request override the [layout] table of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, fc, err := c.loadConfig(pipeline.Options{})
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), fc.Cache, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()
			runner.Keyer = cache.NewScopedKeyer(runner.Keyer, "api:")

			hooks := logHooks{logger: c.Logger}
			observability.SetHTTPHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetLayoutHooks(hooks)
			defer observability.Reset()

			addr = firstNonEmpty(addr, fc.Server.Addr, defaultAddr)
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			printSuccess("Serving on %s", StyleValue.Render("http://"+ln.Addr().String()))

			srv := newServer(runner, base, c.Logger)
			return serveHTTP(cmd.Context(), srv.httpServer(), ln, c.Logger)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default "+defaultAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	return cmd
}

// serveHTTP serves until ctx is done, then shuts down gracefully.
func serveHTTP(ctx context.Context, s *http.Server, ln net.Listener, logger *log.Logger) error {
	s.BaseContext = func(net.Listener) context.Context { return ctx }

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return s.Shutdown(sctx)
	}
}

// =============================================================================
// Server
// =============================================================================

type server struct {
	runner *pipeline.Runner
	base   pipeline.Options
	logger *log.Logger
}

func newServer(r *pipeline.Runner, base pipeline.Options, logger *log.Logger) *server {
	return &server{runner: r, base: base, logger: logger}
}

func (s *server) httpServer() *http.Server {
	return &http.Server{
		Handler:           s.routes(),
		MaxHeaderBytes:    1 << 18,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", s.handle(s.health))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handle(s.layout))
		r.Post("/batch", s.handle(s.batch))
		r.Post("/preview", s.handle(s.preview))
	})
	return r
}

// observe reports each request to the HTTP hooks.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
	})
}

// handlerFunc is an http.HandlerFunc that returns its error instead of
// writing it.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

type errorResponse struct {
	Error string       `json:"error"`
	Code  kerrors.Code `json:"code,omitempty"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := kerrors.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	} else {
		s.logger.Warn("bad request", "path", r.URL.Path, "err", err)
	}
	msg := kerrors.UserMessage(err)
	if status >= 500 {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: kerrors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON request body of at most maxRequestBytes.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return kerrors.New(kerrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooBig.Limit)
		}
		return kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "decode request")
	}
	return nil
}

// options merges request options over the server's base options.
func (s *server) options(req pipeline.Options) pipeline.Options {
	opts := s.base
	opts.Overlay(req)
	opts.Logger = s.logger
	return opts
}

// =============================================================================
// Handlers
// =============================================================================

type layoutRequest struct {
	Chart   graph.Chart      `json:"chart"`
	Options pipeline.Options `json:"options"`
}

type batchRequest struct {
	Chart   graph.Chart      `json:"chart"`
	Focuses []string         `json:"focuses"`
	Options pipeline.Options `json:"options"`
}

type batchResponse struct {
	Layouts []graph.Layout `json:"layouts"`
}

type previewRequest struct {
	Chart   *graph.Chart     `json:"chart,omitempty"`
	Layout  *graph.Layout    `json:"layout,omitempty"`
	Options pipeline.Options `json:"options"`
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	return nil
}

func (s *server) layout(w http.ResponseWriter, r *http.Request) error {
	var req layoutRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	if err := req.Chart.Validate(); err != nil {
		return err
	}
	res, err := s.runner.Execute(r.Context(), req.Chart, s.options(req.Options))
	if err != nil {
		return err
	}
	w.Header().Set("X-Layout-ID", res.ID)
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.LayoutHit))
	writeJSON(w, http.StatusOK, res.Layout)
	return nil
}

func (s *server) batch(w http.ResponseWriter, r *http.Request) error {
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	if err := req.Chart.Validate(); err != nil {
		return err
	}
	results, err := s.runner.ExecuteBatch(r.Context(), req.Chart, req.Focuses, s.options(req.Options))
	if err != nil {
		return err
	}
	resp := batchResponse{Layouts: make([]graph.Layout, len(results))}
	for i, res := range results {
		resp.Layouts[i] = res.Layout
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (s *server) preview(w http.ResponseWriter, r *http.Request) error {
	var req previewRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	opts := s.options(req.Options)

	var l graph.Layout
	switch {
	case req.Layout != nil:
		l = *req.Layout
	case req.Chart != nil:
		if err := req.Chart.Validate(); err != nil {
			return err
		}
		res, err := s.runner.Execute(r.Context(), *req.Chart, opts)
		if err != nil {
			return err
		}
		l = res.Layout
	default:
		return kerrors.New(kerrors.ErrCodeInvalidInput, "request needs a chart or a layout")
	}

	out, hit, err := s.runner.Preview(r.Context(), l, opts)
	if err != nil {
		return err
	}
	opts.SetPreviewDefaults()
	w.Header().Set("Content-Type", previewContentType(opts.PreviewFormat))
	w.Header().Set("X-Cache", cacheHeader(hit))
	_, _ = w.Write(out)
	return nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func previewContentType(format string) string {
	if format == pipeline.FormatDOT {
		return "text/vnd.graphviz; charset=utf-8"
	}
	return "image/svg+xml"
}
