package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/paginate"
)

// normalize case-folds enumerations and trims paths. It never substitutes
// values.
func (c *Config) normalize() {
	c.Build.EmptyListing = normalizeEnum(c.Build.EmptyListing)
	c.Logging.Level = LogLevel(normalizeEnum(string(c.Logging.Level)))
	c.Logging.Format = LogFormat(normalizeEnum(string(c.Logging.Format)))
	c.Content.Directory = strings.TrimSpace(c.Content.Directory)
	c.Output.Directory = strings.TrimSpace(c.Output.Directory)
	c.Site.BaseURL = strings.TrimSpace(c.Site.BaseURL)
}

// Validate checks every section and reports all invalid values together.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field string, value any, msg string) {
		errs = append(errs, ferrors.ConfigError(msg).
			WithField(field).
			WithContext("value", fmt.Sprint(value)).
			Build())
	}

	if strings.TrimSpace(c.Site.Title) == "" {
		invalid("site.title", c.Site.Title, "site title must not be empty")
	}
	if u, err := url.Parse(c.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid("site.base_url", c.Site.BaseURL, "base URL must be absolute (scheme and host)")
	}
	if c.Content.Directory == "" {
		invalid("content.directory", c.Content.Directory, "content directory must be set")
	}
	if c.Output.Directory == "" {
		invalid("output.directory", c.Output.Directory, "output directory must be set")
	}

	if c.Build.PageSize <= 0 {
		invalid("build.page_size", c.Build.PageSize, "page size must be positive")
	}
	if c.Build.FeedLimit < 0 {
		invalid("build.feed_limit", c.Build.FeedLimit, "feed limit must not be negative")
	}
	if c.Build.ExcerptLength <= 0 {
		invalid("build.excerpt_length", c.Build.ExcerptLength, "excerpt length must be positive")
	}
	if c.Build.Workers < 0 {
		invalid("build.workers", c.Build.Workers, "workers must not be negative")
	}
	if _, err := paginate.ParseEmptyPolicy(c.Build.EmptyListing); err != nil {
		errs = append(errs, err)
	}

	switch c.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		invalid("logging.level", c.Logging.Level, "unknown log level")
	}
	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		invalid("logging.format", c.Logging.Format, "unknown log format")
	}

	return errors.Join(errs...)
}
