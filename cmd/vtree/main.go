package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config   string
	logLevel string
	logJSON  bool
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "vtree",
		Short: "Render declarative UI template documents",
		Long: `vtree compiles YAML template documents into a reactive node tree
and renders them to HTML.

  • render a document once to HTML
  • serve a live preview that re-renders on state changes
  • publish rendered snapshots to S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to vtree.json (default: nearest in a parent directory)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flags.logJSON, "log-json", false, "Log as JSON")

	rootCmd.AddCommand(
		renderCmd(&flags),
		serveCmd(&flags),
		publishCmd(&flags),
		versionCmd(),
	)

	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		errors.DisableColors()
	}

	if err := rootCmd.Execute(); err != nil {
		if _, ok := err.(*errors.Error); ok {
			errors.PrintError(os.Stderr, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "✓ %s\n", fmt.Sprintf(format, args...))
}
