package document

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/tree"
)

// ViewConfig configures a View.
type ViewConfig struct {
	// Logger receives view and engine logs. Default: slog.Default().
	Logger *slog.Logger

	// EngineOptions are passed to the engine after the document's own.
	EngineOptions []tree.EngineOption

	// ContainerTag is the tag of the mount container. Default: "div".
	ContainerTag string

	// Sanitize strips scripting content from every html entry.
	Sanitize bool
}

// ViewOption configures a View.
type ViewOption func(*ViewConfig)

// WithViewLogger sets the logger.
func WithViewLogger(l *slog.Logger) ViewOption {
	return func(c *ViewConfig) {
		c.Logger = l
	}
}

// WithEngineOptions adds engine options such as metrics or a tracer.
func WithEngineOptions(opts ...tree.EngineOption) ViewOption {
	return func(c *ViewConfig) {
		c.EngineOptions = append(c.EngineOptions, opts...)
	}
}

// WithSanitize forces sanitizing on every html entry.
func WithSanitize(sanitize bool) ViewOption {
	return func(c *ViewConfig) {
		c.Sanitize = sanitize
	}
}

// WithContainerTag sets the mount container tag.
func WithContainerTag(tag string) ViewOption {
	return func(c *ViewConfig) {
		c.ContainerTag = tag
	}
}

// View is a mounted document. All methods are safe for concurrent use;
// the engine underneath only ever runs under the view's lock.
type View struct {
	mu        sync.Mutex
	state     *State
	engine    *tree.Engine
	root      *tree.Node
	container *dom.Node
	logger    *slog.Logger
	dirty     bool
	listeners []func(html string)
}

// NewView builds, compiles and renders doc.
func NewView(doc *Document, opts ...ViewOption) (*View, error) {
	config := ViewConfig{ContainerTag: "div"}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	v := &View{state: NewState(doc.State), logger: config.Logger}
	prog, err := doc.build(v.state, func() { v.dirty = true }, config.Sanitize)
	if err != nil {
		return nil, err
	}

	engineOpts := append([]tree.EngineOption{
		tree.WithComponents(prog.Components),
		tree.WithLogger(config.Logger),
	}, config.EngineOptions...)
	v.engine = tree.NewEngine(engineOpts...)
	v.container = v.engine.Document().CreateElement(config.ContainerTag)
	v.root = v.engine.NewRoot(nil)

	if _, err := v.root.Compile(prog.Templates...); err != nil {
		v.root.Destroy()
		return nil, err
	}
	if err := v.root.Mount(v.container, true); err != nil {
		if !errors.HasCode(err, "E201") {
			v.root.Destroy()
			return nil, err
		}
		v.logger.Warn("initial render incomplete", "error", err)
	}
	return v, nil
}

// State returns the view state. Writes through it take effect on the next
// Render.
func (v *View) State() *State { return v.state }

// Engine returns the underlying engine.
func (v *View) Engine() *tree.Engine { return v.engine }

// HTML returns the rendered markup.
func (v *View) HTML() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return dom.InnerHTML(v.container)
}

// WriteHTML writes the rendered markup to w.
func (v *View) WriteHTML(w io.Writer, opts dom.HTMLOptions) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range v.container.Children() {
		if err := dom.WriteHTML(w, c, opts); err != nil {
			return err
		}
	}
	return nil
}

// OnRender registers fn to receive the markup after every render.
func (v *View) OnRender(fn func(html string)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// Render re-renders the whole document.
func (v *View) Render(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.render(ctx)
}

// Update runs fn against the state and re-renders.
func (v *View) Update(ctx context.Context, fn func(*State) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := fn(v.state); err != nil {
		return err
	}
	return v.render(ctx)
}

// Dispatch delivers an event to the element of the node aliased alias and
// re-renders when a handler changed state.
func (v *View) Dispatch(ctx context.Context, alias, event string, detail map[string]any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := v.root.FindByAlias(alias)
	if n == nil {
		return errors.New("E103").WithDetailf("no node aliased %q", alias)
	}
	el := n.Element()
	if el == nil {
		return errors.New("E103").WithDetailf("node %q has no element output", alias)
	}
	el.Dispatch(dom.NewEvent(event, detail))
	if !v.dirty {
		return nil
	}
	return v.render(ctx)
}

// Close destroys the node tree.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.root.Unmount()
	v.root.Destroy()
}

func (v *View) render(ctx context.Context) error {
	v.dirty = false
	err := v.engine.RenderContext(ctx, v.root)
	stats := v.engine.Stats()
	v.logger.Debug("view rendered",
		"computed", stats.Computed,
		"mutations", stats.Mutations,
		"version", v.state.Version(),
	)
	if len(v.listeners) > 0 {
		html := dom.InnerHTML(v.container)
		for _, fn := range v.listeners {
			fn(html)
		}
	}
	return err
}
