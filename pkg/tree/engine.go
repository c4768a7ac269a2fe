package tree

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
)

const defaultTracerName = "vtree"

// RenderStats summarizes one render.
type RenderStats struct {
	// Computed is the number of nodes whose recompute ran.
	Computed int

	// ComputeErrors is the number of nodes whose recompute failed.
	ComputeErrors int

	// Mutations is the number of output tree mutations applied.
	Mutations int

	// StructuralMutations counts inserts and removals among Mutations.
	StructuralMutations int

	// Mismatches counts structural mismatches repaired during sync.
	Mismatches int
}

// Metrics receives render measurements.
type Metrics interface {
	RenderCompleted(kind Kind, d time.Duration, stats RenderStats)
	NodeCompiled(kind Kind)
	ComputeFailed(kind Kind)
	StructuralMismatch()
}

type nopMetrics struct{}

func (nopMetrics) RenderCompleted(Kind, time.Duration, RenderStats) {}
func (nopMetrics) NodeCompiled(Kind)                                {}
func (nopMetrics) ComputeFailed(Kind)                               {}
func (nopMetrics) StructuralMismatch()                              {}

// ExtensionFunc is a named operation registered for a node kind.
type ExtensionFunc func(n *Node, args ...any) (any, error)

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Directives resolves directive option keys.
	Directives DirectiveRegistry

	// Components resolves component names.
	Components ComponentRegistry

	// Document creates output nodes (default: a new document).
	Document *dom.Document

	// Logger receives compute, destroy, handler and sync diagnostics
	// (default: slog.Default()).
	Logger *slog.Logger

	// Metrics receives render measurements (default: discarded).
	Metrics Metrics

	// TracerName names the tracer resolved from the global provider
	// (default: "vtree"). Ignored when Tracer is set.
	TracerName string

	// Tracer opens one span per render.
	Tracer trace.Tracer

	// Extensions registers named operations per node kind, callable with
	// Node.Call.
	Extensions map[Kind]map[string]ExtensionFunc
}

// EngineOption configures an Engine.
type EngineOption func(*EngineConfig)

// WithDirectives sets the directive registry.
func WithDirectives(r DirectiveRegistry) EngineOption {
	return func(c *EngineConfig) { c.Directives = r }
}

// WithComponents sets the component registry.
func WithComponents(r ComponentRegistry) EngineOption {
	return func(c *EngineConfig) { c.Components = r }
}

// WithDocument sets the output document.
func WithDocument(d *dom.Document) EngineOption {
	return func(c *EngineConfig) { c.Document = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(c *EngineConfig) { c.Logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) EngineOption {
	return func(c *EngineConfig) { c.Metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) EngineOption {
	return func(c *EngineConfig) { c.Tracer = t }
}

// WithTracerName sets the name of the tracer taken from the global provider.
func WithTracerName(name string) EngineOption {
	return func(c *EngineConfig) { c.TracerName = name }
}

// WithExtension registers fn under name for nodes of kind.
func WithExtension(kind Kind, name string, fn ExtensionFunc) EngineOption {
	return func(c *EngineConfig) {
		if c.Extensions == nil {
			c.Extensions = make(map[Kind]map[string]ExtensionFunc)
		}
		if c.Extensions[kind] == nil {
			c.Extensions[kind] = make(map[string]ExtensionFunc)
		}
		c.Extensions[kind][name] = fn
	}
}

// Engine compiles templates into node trees and renders them into an
// output document. An Engine and its trees are not safe for concurrent
// use.
type Engine struct {
	directives DirectiveRegistry
	components ComponentRegistry
	document   *dom.Document
	logger     *slog.Logger
	metrics    Metrics
	tracer     trace.Tracer
	extensions map[Kind]map[string]ExtensionFunc

	arena     arena
	rendering bool
	pending   []*Node
	last      RenderStats
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	config := EngineConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Document == nil {
		config.Document = dom.NewDocument()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Metrics == nil {
		config.Metrics = nopMetrics{}
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(config.TracerName)
	}
	return &Engine{
		directives: config.Directives,
		components: config.Components,
		document:   config.Document,
		logger:     config.Logger,
		metrics:    config.Metrics,
		tracer:     config.Tracer,
		extensions: config.Extensions,
	}
}

// Document returns the output document.
func (e *Engine) Document() *dom.Document { return e.document }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// LiveNodes returns the number of nodes not yet destroyed.
func (e *Engine) LiveNodes() int { return e.arena.live }

// Node resolves a handle, returning nil for destroyed nodes.
func (e *Engine) Node(h Handle) *Node { return e.arena.get(h) }

// Stats returns the statistics of the last completed render.
func (e *Engine) Stats() RenderStats { return e.last }

// Compile compiles a detached node tree from t.
func (e *Engine) Compile(t *Template) (*Node, error) {
	if t == nil {
		return nil, errors.New("E101").WithDetail("nil template")
	}
	return e.compilerFor(nil).compile(t, nil)
}

// NewRoot creates an unmounted root node. Templates compile into it with
// Node.Compile.
func (e *Engine) NewRoot(vars map[string]any) *Node {
	n := &Node{
		engine:   e,
		kind:     KindRoot,
		state:    &rootState{},
		scope:    NewScope(vars),
		ownScope: true,
	}
	n.scope.isolated = true
	n.handle = e.arena.insert(n)
	return n
}

// Call runs the extension registered as name for the node's kind.
func (n *Node) Call(name string, args ...any) (any, error) {
	fn := n.engine.extensions[n.kind][name]
	if fn == nil {
		return nil, errors.New("E103").WithDetailf("no extension %q for %s nodes", name, n.kind)
	}
	return fn(n, args...)
}

// Render recomputes n's subtree and syncs the output tree. A render started
// from a hook or handler while another render runs is queued and runs when
// the outer render finishes.
//
// Compute failures are logged and skip the failing node's descendants; the
// first one is returned after the whole render completed.
func (e *Engine) Render(n *Node) error {
	return e.RenderContext(context.Background(), n)
}

// RenderContext is Render with a parent context for the render span.
func (e *Engine) RenderContext(ctx context.Context, n *Node) error {
	if n == nil || n.destroyed {
		return nil
	}
	if e.rendering {
		e.pending = append(e.pending, n)
		return nil
	}

	e.rendering = true
	defer func() { e.rendering = false }()

	err := e.render(ctx, n)
	for len(e.pending) > 0 {
		next := e.pending[0]
		e.pending = e.pending[1:]
		if next.destroyed {
			continue
		}
		if perr := e.render(ctx, next); err == nil {
			err = perr
		}
	}
	return err
}

func (e *Engine) render(ctx context.Context, n *Node) error {
	start := time.Now()
	_, span := e.tracer.Start(ctx, "vtree.render",
		trace.WithAttributes(
			attribute.String("vtree.node.kind", n.kind.String()),
			attribute.String("vtree.node.alias", n.alias),
		),
	)
	defer span.End()

	counter := &dom.Counter{}
	prev := e.document.Observer()
	e.document.SetObserver(dom.ObserverFunc(func(m dom.Mutation) {
		counter.Observe(m)
		if prev != nil {
			prev.Observe(m)
		}
	}))
	defer e.document.SetObserver(prev)

	r := &renderPass{engine: e}
	r.compute(n)

	root := syncRoot(n)
	r.sync(root)
	resetReflow(root, root != n)

	r.stats.Mutations = counter.Total
	r.stats.StructuralMutations = counter.Structural
	e.last = r.stats
	e.metrics.RenderCompleted(n.kind, time.Since(start), r.stats)

	span.SetAttributes(
		attribute.Int("vtree.nodes.computed", r.stats.Computed),
		attribute.Int("vtree.mutations", r.stats.Mutations),
		attribute.Int("vtree.compute_errors", r.stats.ComputeErrors),
	)
	if r.firstErr != nil {
		span.RecordError(r.firstErr)
		span.SetStatus(codes.Error, r.firstErr.Error())
		return r.firstErr
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// logError logs a recovered failure under a registered error code.
func (e *Engine) logError(code string, n *Node, err error, attrs ...any) {
	args := append([]any{"code", code, "node", n.String(), "kind", n.kind.String(), "error", err}, attrs...)
	e.logger.Error(errors.New(code).Message, args...)
}
