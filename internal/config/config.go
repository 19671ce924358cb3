package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/manifest"
	"git.home.luguber.info/inful/sitebundle/internal/retry"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "sitebundle.yaml"

// Config represents the application configuration.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Output      OutputConfig      `yaml:"output"`
	Assets      AssetsConfig      `yaml:"assets"`
	Build       BuildConfig       `yaml:"build"`
	LinkCheck   LinkCheckConfig   `yaml:"link_check"`
	Precompress PrecompressConfig `yaml:"precompress"`
	Report      ReportConfig      `yaml:"report"`
	Events      EventsConfig      `yaml:"events"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Serve       ServeConfig       `yaml:"serve"`
	Publish     PublishConfig     `yaml:"publish"`
}

// SourceConfig locates the site sources.
type SourceConfig struct {
	Root  string             `yaml:"root"`
	Files manifest.SourceSet `yaml:"files"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// AssetsConfig describes static files copied verbatim.
type AssetsConfig struct {
	Directory string   `yaml:"directory"` // copied into <output>/images
	Static    []string `yaml:"static"`    // optional root files, copied when present
}

// BuildConfig tunes the minify fan-out.
type BuildConfig struct {
	Concurrency int `yaml:"concurrency"` // 0 runs every minify task at once
}

// LinkCheckMode controls verification of local references in minified markup.
type LinkCheckMode string

const (
	LinkCheckOff    LinkCheckMode = "off"
	LinkCheckWarn   LinkCheckMode = "warn"
	LinkCheckStrict LinkCheckMode = "strict"
)

// LinkCheckConfig configures the link verification stage.
type LinkCheckConfig struct {
	Mode LinkCheckMode `yaml:"mode"`
}

// PrecompressConfig configures .gz/.br sibling generation.
type PrecompressConfig struct {
	Gzip    bool `yaml:"gzip"`
	Brotli  bool `yaml:"brotli"`
	MinSize int  `yaml:"min_size"`
}

// Enabled reports whether any precompression format is on.
func (p PrecompressConfig) Enabled() bool { return p.Gzip || p.Brotli }

// ReportConfig configures the persisted build report.
type ReportConfig struct {
	Disabled  bool   `yaml:"disabled"`
	Directory string `yaml:"directory"`
}

// EventsConfig configures optional build event sinks.
type EventsConfig struct {
	StorePath string     `yaml:"store_path"` // sqlite database; empty disables
	NATS      NATSConfig `yaml:"nats"`
}

// NATSConfig configures the NATS event publisher.
type NATSConfig struct {
	URL     string `yaml:"url"` // empty disables
	Subject string `yaml:"subject"`
}

// MetricsConfig configures Prometheus metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node-exporter textfile path; empty disables
}

// ServeConfig configures the local preview server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// PublishConfig configures the S3-compatible upload target.
type PublishConfig struct {
	Endpoint     string      `yaml:"endpoint"`
	AccessKey    string      `yaml:"access_key"`
	SecretKey    string      `yaml:"secret_key"`
	Region       string      `yaml:"region"`
	Bucket       string      `yaml:"bucket"`
	Prefix       string      `yaml:"prefix"`
	UseSSL       bool        `yaml:"use_ssl"`
	CacheControl string      `yaml:"cache_control"`
	Retry        RetryConfig `yaml:"retry"`
}

// RetryConfig configures backoff for transient upload failures.
type RetryConfig struct {
	Backoff    retry.BackoffMode `yaml:"backoff"` // fixed|linear|exponential
	Initial    time.Duration     `yaml:"initial"`
	Max        time.Duration     `yaml:"max"`
	MaxRetries *int              `yaml:"max_retries,omitempty"` // unset uses the default
}

// Policy converts the configuration into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	maxRetries := -1
	if r.MaxRetries != nil {
		maxRetries = *r.MaxRetries
	}
	return retry.NewPolicy(r.Backoff, r.Initial, r.Max, maxRetries)
}

// Load loads configuration from the specified file. A missing file is an error.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, foundation.ConfigError("configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Fatal().Build()
	}
	return Parse(data)
}

// LoadOrDefault loads configPath when it exists and falls back to Default otherwise.
// The boolean reports whether a file was read.
func LoadOrDefault(configPath string) (*Config, bool, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		loadEnvFile()
		slog.Debug("No configuration file, using built-in defaults", "path", configPath)
		return Default(), false, nil
	}
	cfg, err := Load(configPath)
	return cfg, err == nil, err
}

// Parse decodes YAML configuration, expands ${VAR} references, applies defaults
// and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, foundation.WrapError(err, foundation.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	applyDefaults(&cfg)
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used for a parameterless build.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Init creates a new configuration file with the default values.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return foundation.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Default()
	example.Publish = PublishConfig{
		Endpoint:  "s3.example.com",
		AccessKey: "${SITEBUNDLE_S3_ACCESS_KEY}",
		SecretKey: "${SITEBUNDLE_S3_SECRET_KEY}",
		Region:    "us-east-1",
		Bucket:    "www-example-com",
		UseSSL:    true,
		Retry: RetryConfig{
			Backoff: retry.BackoffExponential,
			Initial: time.Second,
			Max:     10 * time.Second,
		},
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return foundation.WrapError(err, foundation.CategoryInternal, "failed to marshal config").Build()
	}
	header := []byte("# sitebundle configuration\n# Values support ${VAR} expansion; a .env file is loaded when present.\n")
	if err := os.WriteFile(configPath, append(header, data...), 0o644); err != nil {
		return foundation.WrapError(err, foundation.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}

// loadEnvFile loads .env then .env.local; existing process variables win.
func loadEnvFile() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
	}
}
