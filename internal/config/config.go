package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	"github.com/vango-dev/vtree/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vtree.json"

	// DefaultDocument is the document rendered when none is given.
	DefaultDocument = "page.yaml"

	// DefaultPort is the default preview server port.
	DefaultPort = 7070

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "vtree"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "vtree"
)

// Config represents the complete vtree.json configuration.
type Config struct {
	// Name is the project name. Defaults to the last element of the
	// module path in go.mod next to the config, or the directory name.
	Name string `json:"name,omitempty"`

	// Document is the default template document.
	Document string `json:"document,omitempty"`

	// Render contains output settings.
	Render RenderConfig `json:"render,omitempty"`

	// Preview contains preview server settings.
	Preview PreviewConfig `json:"preview,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// Publish contains snapshot upload settings.
	Publish PublishConfig `json:"publish,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RenderConfig contains output settings.
type RenderConfig struct {
	// Sanitize strips scripting content from every html entry.
	Sanitize bool `json:"sanitize,omitempty"`

	// Pretty enables indented output.
	Pretty bool `json:"pretty,omitempty"`

	// Indent is the indentation unit in pretty mode.
	Indent string `json:"indent,omitempty"`
}

// PreviewConfig contains preview server settings.
type PreviewConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// Watch reloads the document when the file changes.
	Watch bool `json:"watch,omitempty"`

	// PollInterval is the watch interval (e.g. "200ms").
	PollInterval string `json:"pollInterval,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text, json or auto (text on a terminal).
	Format string `json:"format,omitempty"`
}

// PublishConfig contains snapshot upload settings.
type PublishConfig struct {
	Bucket       string `json:"bucket,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	Region       string `json:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	PathStyle    bool   `json:"pathStyle,omitempty"`
	CacheControl string `json:"cacheControl,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Document: DefaultDocument,
		Render: RenderConfig{
			Indent: "  ",
		},
		Preview: PreviewConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			Watch:        true,
			PollInterval: "200ms",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		Publish: PublishConfig{
			CacheControl: "no-cache",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for vtree.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No vtree.json found in " + filepath.Dir(path)).
				WithSuggestion("Create vtree.json or pass flags explicitly")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse vtree.json: " + err.Error()).
			WithSuggestion("Check that vtree.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" && c.Dir() != "" {
		if name := moduleName(c.Dir()); name != "" {
			c.Name = name
		} else {
			c.Name = filepath.Base(c.Dir())
		}
	}
	if c.Document == "" {
		c.Document = DefaultDocument
	}
	if c.Render.Indent == "" {
		c.Render.Indent = "  "
	}

	if c.Preview.Host == "" {
		c.Preview.Host = DefaultHost
	}
	if c.Preview.Port == 0 {
		c.Preview.Port = DefaultPort
	}
	if c.Preview.PollInterval == "" {
		c.Preview.PollInterval = "200ms"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "auto"
	}
	if c.Publish.CacheControl == "" {
		c.Publish.CacheControl = "no-cache"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Preview.Port < 0 || c.Preview.Port > 65535 {
		return errors.New("E122").
			WithDetail("preview.port must be between 0 and 65535")
	}
	if _, err := time.ParseDuration(c.Preview.PollInterval); err != nil {
		return errors.New("E122").
			WithDetail("preview.pollInterval: " + err.Error()).
			WithSuggestion(`Use a Go duration such as "200ms"`)
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("E122").
			WithDetail("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return errors.New("E122").
			WithDetail("log.format must be one of auto, text, json")
	}
	if c.Render.Indent != "" && strings.TrimLeft(c.Render.Indent, " \t") != "" {
		return errors.New("E122").
			WithDetail("render.indent may only contain spaces and tabs")
	}
	return nil
}

// PreviewAddress returns the listen address of the preview server.
func (c *Config) PreviewAddress() string {
	return net.JoinHostPort(c.Preview.Host, strconv.Itoa(c.Preview.Port))
}

// PreviewURL returns the URL of the preview server.
func (c *Config) PreviewURL() string {
	return "http://" + c.PreviewAddress()
}

// PollInterval returns the parsed watch interval, or 200ms when invalid.
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Preview.PollInterval)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}

// DocumentPath returns the absolute path to the default document.
func (c *Config) DocumentPath() string {
	path := c.Document
	if path == "" {
		path = DefaultDocument
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// moduleName returns the last path element of the module declared in
// dir/go.mod, without a major version suffix.
func moduleName(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return ""
	}
	prefix, _, ok := module.SplitPathVersion(path)
	if !ok {
		prefix = path
	}
	return prefix[strings.LastIndex(prefix, "/")+1:]
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing vtree.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No vtree.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create vtree.json at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent holding vtree.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
