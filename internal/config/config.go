// Package config loads the blogbuilder YAML configuration.
//
// Values decode over Defaults, so keys absent from the file keep their
// default while explicit values are validated as written. Invalid values are
// reported as ConfigError and never replaced by a default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/paginate"
)

// Config is the complete configuration file.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Build   BuildConfig   `yaml:"build"`
	State   StateConfig   `yaml:"state"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	BaseURL     string `yaml:"base_url"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Language    string `yaml:"language"`
}

// ContentConfig locates the authored documents.
type ContentConfig struct {
	Directory string `yaml:"directory"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // remove files not produced by this build
}

// BuildConfig holds the pipeline options.
type BuildConfig struct {
	PageSize      int    `yaml:"page_size"`
	FeedLimit     int    `yaml:"feed_limit"`
	ExcerptLength int    `yaml:"excerpt_length"` // runes
	IncludeDrafts bool   `yaml:"include_drafts"`
	EmptyListing  string `yaml:"empty_listing"` // single_page|none
	Workers       int    `yaml:"workers"`       // parallel document parsers, 0 = GOMAXPROCS
}

// StateConfig locates the build history database. Empty disables history.
type StateConfig struct {
	Database string `yaml:"database"`
}

// MetricsConfig controls the Prometheus textfile export. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// CoreOptions are the options the content pipeline recognizes.
type CoreOptions struct {
	PageSize      int
	FeedLimit     int
	ExcerptLength int
	IncludeDrafts bool
	EmptyListing  paginate.EmptyPolicy
}

// Defaults returns the configuration used for keys the file leaves out.
func Defaults() Config {
	return Config{
		Site: SiteConfig{
			Title:    "My Blog",
			BaseURL:  "http://localhost:1316/",
			Language: "en",
		},
		Content: ContentConfig{Directory: "./content"},
		Output:  OutputConfig{Directory: "./site", Clean: true},
		Build: BuildConfig{
			PageSize:      10,
			FeedLimit:     20,
			ExcerptLength: 200,
			EmptyListing:  string(paginate.EmptySinglePage),
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Load reads, expands and validates a configuration file. A .env file in the
// working directory is loaded first without overriding the environment.
func Load(configPath string) (*Config, error) {
	if _, err := loadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithSource(configPath).
				WithCause(err).
				Build()
		}
		return nil, ferrors.FileSystemError("failed to read config file").
			WithSource(configPath).
			WithCause(err).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, withSource(err, configPath)
	}
	return cfg, nil
}

// withSource attaches the file path to every classified error in err,
// descending into joined errors.
func withSource(err error, source string) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		inner := joined.Unwrap()
		out := make([]error, 0, len(inner))
		for _, e := range inner {
			out = append(out, withSource(e, source))
		}
		return errors.Join(out...)
	}
	if ce, ok := err.(*ferrors.ClassifiedError); ok {
		return ce.WithContext(ferrors.ContextSource, source)
	}
	return err
}

// Parse decodes configuration bytes after ${VAR} expansion. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.ConfigError("failed to decode configuration").
			WithCause(err).
			Build()
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BuildOptions projects the options the pipeline consumes. Call it on a
// validated configuration.
func (c *Config) BuildOptions() CoreOptions {
	return CoreOptions{
		PageSize:      c.Build.PageSize,
		FeedLimit:     c.Build.FeedLimit,
		ExcerptLength: c.Build.ExcerptLength,
		IncludeDrafts: c.Build.IncludeDrafts,
		EmptyListing:  paginate.EmptyPolicy(c.Build.EmptyListing),
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithSource(configPath).
			Build()
	}

	example := Defaults()
	example.Site.Title = "Field Notes"
	example.Site.BaseURL = "https://blog.example.com/"
	example.Site.Description = "Notes on software and other things"
	example.Site.Author = "${BLOG_AUTHOR}"
	example.State.Database = "./.blogbuilder/history.db"

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithSource(configPath).
			WithCause(err).
			Build()
	}
	return nil
}
