package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vtree/pkg/publish"
)

func publishCmd(flags *globalFlags) *cobra.Command {
	var (
		bucket string
		prefix string
		name   string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "publish [document]",
		Short: "Render a document and upload the HTML to S3",
		Long: `Render a document and upload the HTML snapshot to S3.

Credentials are read from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
AWS_SESSION_TOKEN. Bucket, prefix, region and endpoint default to the
publish section of vtree.json.

Examples:
  vtree publish page.yaml --bucket=my-site
  vtree publish --name=index --prefix=snapshots/v2`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if bucket != "" {
				cfg.Publish.Bucket = bucket
			}
			if prefix != "" {
				cfg.Publish.Prefix = prefix
			}
			logger := newLogger(cfg, os.Stderr)

			path := documentPath(cfg, args)
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			client := publish.NewClient(publish.ClientConfig{
				Region:       cfg.Publish.Region,
				Endpoint:     cfg.Publish.Endpoint,
				UsePathStyle: cfg.Publish.PathStyle,
			})
			pub, err := publish.New(client, cfg.Publish.Bucket,
				publish.WithPrefix(cfg.Publish.Prefix),
				publish.WithCacheControl(cfg.Publish.CacheControl),
				publish.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			view, err := openView(cfg, path, logger, engineOptions(cfg)...)
			if err != nil {
				return err
			}
			defer view.Close()

			res, err := pub.PublishView(cmd.Context(), name, view, htmlOptions(cfg, pretty))
			if err != nil {
				return err
			}
			success("Published s3://%s/%s (%d bytes)", res.Bucket, res.Key, res.Size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Target bucket (default from vtree.json)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix (default from vtree.json)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Object name (default: document file name)")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Indent the output")

	return cmd
}
