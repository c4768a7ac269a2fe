// Package publish uploads rendered snapshots to S3-compatible storage.
package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/document"
	"github.com/vango-dev/vtree/pkg/dom"
)

// PutObjectAPI is the part of the S3 client the publisher uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config configures a Publisher.
type Config struct {
	// Bucket is the target bucket. Required.
	Bucket string

	// Prefix is prepended to every key.
	Prefix string

	// CacheControl is sent with every object. Default: "no-cache".
	CacheControl string

	// Logger receives upload logs. Default: slog.Default().
	Logger *slog.Logger

	// Tracer traces uploads. Default: otel.Tracer("vtree/publish").
	Tracer trace.Tracer
}

// Option configures a Publisher.
type Option func(*Config)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Config) {
		c.Prefix = prefix
	}
}

// WithCacheControl sets the Cache-Control header of uploaded objects.
func WithCacheControl(v string) Option {
	return func(c *Config) {
		c.CacheControl = v
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}

// Result describes an uploaded snapshot.
type Result struct {
	Bucket   string
	Key      string
	ETag     string
	Size     int
	Checksum string
}

// Publisher uploads HTML snapshots.
type Publisher struct {
	client PutObjectAPI
	config Config
}

// New creates a publisher writing to bucket through client.
func New(client PutObjectAPI, bucket string, opts ...Option) (*Publisher, error) {
	config := Config{Bucket: bucket, CacheControl: "no-cache"}
	for _, opt := range opts {
		opt(&config)
	}
	if client == nil {
		return nil, errors.New("E160").WithDetail("no S3 client")
	}
	if config.Bucket == "" {
		return nil, errors.New("E160").WithDetail("bucket is required").
			WithSuggestion("Set publish.bucket in vtree.json or pass --bucket")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer("vtree/publish")
	}
	return &Publisher{client: client, config: config}, nil
}

// Key returns the object key for name.
func (p *Publisher) Key(name string) string {
	name = strings.TrimPrefix(name, "/")
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	if p.config.Prefix == "" {
		return name
	}
	return path.Join(p.config.Prefix, name)
}

// Publish uploads markup under name.
func (p *Publisher) Publish(ctx context.Context, name string, markup []byte) (*Result, error) {
	key := p.Key(name)
	sum := sha256.Sum256(markup)
	checksum := hex.EncodeToString(sum[:])

	ctx, span := p.config.Tracer.Start(ctx, "vtree.publish",
		trace.WithAttributes(
			attribute.String("s3.bucket", p.config.Bucket),
			attribute.String("s3.key", key),
			attribute.Int("vtree.snapshot.size", len(markup)),
		),
	)
	defer span.End()

	out, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.config.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(markup),
		ContentType:  aws.String("text/html; charset=utf-8"),
		CacheControl: aws.String(p.config.CacheControl),
		Metadata: map[string]string{
			"sha256":       checksum,
			"published-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.New("E160").WithDetailf("s3://%s/%s", p.config.Bucket, key).Wrap(err)
	}
	span.SetStatus(codes.Ok, "")

	res := &Result{
		Bucket:   p.config.Bucket,
		Key:      key,
		Size:     len(markup),
		Checksum: checksum,
	}
	if out != nil && out.ETag != nil {
		res.ETag = strings.Trim(*out.ETag, `"`)
	}
	p.config.Logger.Info("snapshot published", "bucket", res.Bucket, "key", res.Key, "size", res.Size)
	return res, nil
}

// PublishView renders view's current markup and uploads it.
func (p *Publisher) PublishView(ctx context.Context, name string, view *document.View, opts dom.HTMLOptions) (*Result, error) {
	var buf bytes.Buffer
	if err := view.WriteHTML(&buf, opts); err != nil {
		return nil, errors.New("E160").WithDetail("render snapshot").Wrap(err)
	}
	return p.Publish(ctx, name, buf.Bytes())
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// NewClient creates an S3 client with credentials from the standard
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN variables.
func NewClient(cfg ClientConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
		UsePathStyle: cfg.UsePathStyle,
	}
	if opts.Region == "" {
		opts.Region = os.Getenv("AWS_REGION")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errors.New("E160").WithDetail("AWS credentials not set").
			WithSuggestion("Export AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}
