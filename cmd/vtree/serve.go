package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/pkg/preview"
	"github.com/vango-dev/vtree/pkg/telemetry"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port    int
		host    string
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve [document]",
		Short: "Serve a live preview",
		Long: `Serve a live preview of a document.

The page updates over a WebSocket whenever state changes through
POST /state or POST /events/{alias}/{event}, and when the document
file is edited.

Examples:
  vtree serve page.yaml
  vtree serve --port=8080 --host=0.0.0.0`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Preview.Port = port
			}
			if host != "" {
				cfg.Preview.Host = host
			}
			if noWatch {
				cfg.Preview.Watch = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)

			opts := []preview.Option{
				preview.WithAddr(cfg.PreviewAddress()),
				preview.WithLogger(logger),
				preview.WithRegistry(prometheus.NewRegistry()),
				preview.WithNamespace(cfg.Metrics.Namespace),
				preview.WithTracerName(cfg.Tracing.TracerName + "/preview"),
				preview.WithMetricsOptions(telemetry.WithNamespace(cfg.Metrics.Namespace)),
				preview.WithSanitize(cfg.Render.Sanitize),
				preview.WithEngineOptions(engineOptions(cfg)...),
			}
			if !cfg.Metrics.Enabled {
				opts = append(opts, preview.WithoutMetrics())
			}
			if cfg.Preview.Watch {
				opts = append(opts, preview.WithWatch(cfg.PollInterval()))
			}
			path := documentPath(cfg, args)
			srv, err := preview.New(path, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			success("Previewing %s at %s", path, cfg.PreviewURL())
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from vtree.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vtree.json)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload when the document changes")

	return cmd
}
