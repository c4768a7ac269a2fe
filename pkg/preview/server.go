package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/document"
	"github.com/vango-dev/vtree/pkg/dom"
	httpmw "github.com/vango-dev/vtree/pkg/middleware"
	"github.com/vango-dev/vtree/pkg/telemetry"
	"github.com/vango-dev/vtree/pkg/tree"
)

// Config configures the preview server.
type Config struct {
	// Addr is the listen address. Default: "localhost:7070".
	Addr string

	// Path is the document file. It is reloaded when it changes.
	Path string

	// Watch enables polling Path for changes.
	Watch bool

	// PollInterval is the watch interval. Default: 200ms.
	PollInterval time.Duration

	// Title is the page title. Default: the document path.
	Title string

	// Logger receives server logs. Default: slog.Default().
	Logger *slog.Logger

	// Registry collects engine metrics served on /metrics. Default: a new
	// registry.
	Registry *prometheus.Registry

	// DisableMetrics turns off engine and request metrics and the
	// /metrics route.
	DisableMetrics bool

	// Namespace prefixes the HTTP request metrics. Default: "vtree".
	Namespace string

	// TracerName names the tracer for request spans.
	// Default: "vtree/preview".
	TracerName string

	// MetricsOptions configure the engine metrics.
	MetricsOptions []telemetry.Option

	// Sanitize strips scripting content from every html entry.
	Sanitize bool

	// EngineOptions are passed to every view's engine.
	EngineOptions []tree.EngineOption
}

// Option configures the server.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithWatch enables reloading the document when the file changes.
func WithWatch(interval time.Duration) Option {
	return func(c *Config) {
		c.Watch = true
		c.PollInterval = interval
	}
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithRegistry sets the metrics registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = r
	}
}

// WithoutMetrics disables metrics collection.
func WithoutMetrics() Option {
	return func(c *Config) {
		c.DisableMetrics = true
	}
}

// WithNamespace sets the namespace of the HTTP request metrics.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithTracerName sets the tracer name for request spans.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithMetricsOptions configures the engine metrics, e.g. the namespace.
func WithMetricsOptions(opts ...telemetry.Option) Option {
	return func(c *Config) {
		c.MetricsOptions = append(c.MetricsOptions, opts...)
	}
}

// WithSanitize forces sanitizing on every html entry.
func WithSanitize(sanitize bool) Option {
	return func(c *Config) {
		c.Sanitize = sanitize
	}
}

// WithEngineOptions adds engine options for every view.
func WithEngineOptions(opts ...tree.EngineOption) Option {
	return func(c *Config) {
		c.EngineOptions = append(c.EngineOptions, opts...)
	}
}

func defaultConfig() Config {
	return Config{
		Addr:         "localhost:7070",
		PollInterval: 200 * time.Millisecond,
		Namespace:    "vtree",
		TracerName:   "vtree/preview",
	}
}

// Server serves a live preview of a document. The page holds the rendered
// markup and a WebSocket client that swaps it on every render.
type Server struct {
	config  Config
	logger  *slog.Logger
	hub     *Hub
	metrics *telemetry.Metrics
	router  chi.Router

	mu   sync.RWMutex
	view *document.View
}

// New creates a server for the document at path and loads it.
func New(path string, opts ...Option) (*Server, error) {
	config := defaultConfig()
	config.Path = path
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Title == "" {
		config.Title = path
	}

	s := &Server{
		config: config,
		logger: config.Logger,
		hub:    NewHub(config.Logger),
	}
	if !config.DisableMetrics {
		s.metrics = telemetry.New(append([]telemetry.Option{telemetry.WithRegistry(config.Registry)}, config.MetricsOptions...)...)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(httpmw.OpenTelemetry(httpmw.WithTracerName(s.config.TracerName)))
	if s.metrics != nil {
		r.Use(httpmw.Prometheus(
			httpmw.WithNamespace(s.config.Namespace),
			httpmw.WithRegistry(s.config.Registry),
		))
	}
	r.Use(s.logRequests)

	r.Get("/", s.handlePage)
	r.Get("/fragment", s.handleFragment)
	r.Get("/state", s.handleGetState)
	r.Post("/state", s.handleMergeState)
	r.Post("/events/{alias}/{event}", s.handleEvent)
	r.Handle("/ws", s.hub)
	if s.metrics != nil {
		r.Handle("/metrics", telemetry.Handler(s.config.Registry))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// View returns the current view.
func (s *Server) View() *document.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Reload loads the document again and replaces the view. On failure the
// previous view stays and clients get the error.
func (s *Server) Reload() error {
	doc, err := document.Load(s.config.Path)
	if err != nil {
		s.hub.Broadcast(Message{Type: MessageError, Error: err.Error()})
		return err
	}

	var engineOpts []tree.EngineOption
	if s.metrics != nil {
		engineOpts = append(engineOpts, tree.WithMetrics(s.metrics))
	}
	engineOpts = append(engineOpts, s.config.EngineOptions...)
	view, err := document.NewView(doc,
		document.WithViewLogger(s.logger),
		document.WithEngineOptions(engineOpts...),
		document.WithContainerTag("main"),
		document.WithSanitize(s.config.Sanitize),
	)
	if err != nil {
		s.hub.Broadcast(Message{Type: MessageError, Error: err.Error()})
		return err
	}
	view.OnRender(func(markup string) {
		s.hub.Broadcast(Message{Type: MessageRender, HTML: markup, Version: view.State().Version()})
	})

	s.mu.Lock()
	old := s.view
	s.view = view
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}

	s.logger.Info("document loaded", "path", s.config.Path)
	s.hub.Broadcast(Message{Type: MessageRender, HTML: view.HTML()})
	return nil
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.config.Watch {
		w := NewWatcher(s.config.Path, s.config.PollInterval, func(path string) {
			if err := s.Reload(); err != nil {
				s.logger.Error("reload failed", "path", path, "error", err)
			}
		})
		go w.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview listening", "addr", s.config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageTemplate, html.EscapeString(s.config.Title), s.View().HTML(), clientScript)
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.View().WriteHTML(w, dom.HTMLOptions{Pretty: r.URL.Query().Has("pretty")}); err != nil {
		s.logger.Warn("fragment write failed", "error", err)
	}
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.View().State().Snapshot())
}

func (s *Server) handleMergeState(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("E103").WithDetail("state body must be a JSON object").Wrap(err))
		return
	}
	view := s.View()
	err := view.Update(r.Context(), func(st *document.State) error {
		st.Merge(values)
		return nil
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, view.State().Snapshot())
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var detail map[string]any
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&detail); err != nil {
			writeError(w, http.StatusBadRequest, errors.New("E103").WithDetail("event detail must be a JSON object").Wrap(err))
			return
		}
	}
	alias, event := chi.URLParam(r, "alias"), chi.URLParam(r, "event")
	if err := s.View().Dispatch(r.Context(), alias, event, detail); err != nil {
		status := http.StatusUnprocessableEntity
		if errors.HasCode(err, "E103") {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, errors.FromError(err, "E103").FormatJSON())
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<main id="vtree-root">%s</main>
%s
</body>
</html>
`

const clientScript = `<script>
(function() {
    'use strict';

    var delay = 500;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '/ws');

        ws.onopen = function() { delay = 500; };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            var root = document.getElementById('vtree-root');
            if (msg.type === 'render') {
                root.innerHTML = msg.html;
            } else if (msg.type === 'error') {
                console.error('[vtree]', msg.error);
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                delay = Math.min(delay * 2, 10000);
                connect();
            }, delay);
        };
    }

    connect();
})();
</script>`
