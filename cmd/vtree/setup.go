package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/vango-dev/vtree/internal/config"
	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/document"
	"github.com/vango-dev/vtree/pkg/dom"
	"github.com/vango-dev/vtree/pkg/tree"
)

// loadConfig loads the explicit config file, or the nearest vtree.json.
// Without one the defaults apply.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		if errors.HasCode(err, "E141") {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logJSON {
		cfg.Log.Format = "json"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the CLI logger: text on a terminal, JSON otherwise,
// unless the format is set explicitly.
func newLogger(cfg *config.Config, w *os.File) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	return slog.New(logHandler(cfg.Log.Format, w, isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()), opts))
}

func logHandler(format string, w io.Writer, tty bool, opts *slog.HandlerOptions) slog.Handler {
	switch {
	case format == "json", format != "text" && !tty:
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// engineOptions wires the configured tracer.
func engineOptions(cfg *config.Config) []tree.EngineOption {
	return []tree.EngineOption{tree.WithTracerName(cfg.Tracing.TracerName)}
}

// openView loads and renders the document at path.
func openView(cfg *config.Config, path string, logger *slog.Logger, opts ...tree.EngineOption) (*document.View, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	return document.NewView(doc,
		document.WithViewLogger(logger),
		document.WithSanitize(cfg.Render.Sanitize),
		document.WithEngineOptions(opts...),
	)
}

// htmlOptions returns the serialization options, with pretty forced by
// the command flag.
func htmlOptions(cfg *config.Config, pretty bool) dom.HTMLOptions {
	return dom.HTMLOptions{Pretty: pretty || cfg.Render.Pretty, Indent: cfg.Render.Indent}
}

// documentPath returns the first argument, or the configured document.
func documentPath(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.DocumentPath()
}
