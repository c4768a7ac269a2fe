package main

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/internal/errors"
)

func renderCmd(flags *globalFlags) *cobra.Command {
	var (
		output string
		pretty bool
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Render a document to HTML",
		Long: `Render a template document once and write the HTML.

The document defaults to the one configured in vtree.json.

Examples:
  vtree render page.yaml
  vtree render page.yaml --pretty -o index.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)

			view, err := openView(cfg, documentPath(cfg, args), logger, engineOptions(cfg)...)
			if err != nil {
				return err
			}
			defer view.Close()

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.New("E120").WithDetailf("cannot create %s", output).Wrap(err)
				}
				defer f.Close()
				out = f
			}

			w := bufio.NewWriter(out)
			if err := view.WriteHTML(w, htmlOptions(cfg, pretty)); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if stats {
				s := view.Engine().Stats()
				logger.Info("render stats",
					"computed", s.Computed,
					"mutations", s.Mutations,
					"structural", s.StructuralMutations,
					"live_nodes", view.Engine().LiveNodes(),
				)
			}
			if output != "" {
				success("Wrote %s", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write HTML to a file instead of stdout")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Indent the output")
	cmd.Flags().BoolVar(&stats, "stats", false, "Log render statistics")

	return cmd
}
