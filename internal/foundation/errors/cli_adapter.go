package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter writing to stderr.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// ExitCodeFor determines the exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return exitCodeForCategory(classified.Category())
	}
	return 1
}

func exitCodeForCategory(category ErrorCategory) int {
	switch category {
	case CategoryDocumentParse:
		return 3
	case CategoryDuplicateSlug:
		return 4
	case CategoryPageRange:
		return 5
	case CategoryConfig:
		return 7
	case CategoryBuild, CategoryFileSystem:
		return 11
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for display. Joined errors are listed one per line.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		lines := make([]string, 0, len(errs)+1)
		lines = append(lines, fmt.Sprintf("Error: %d problems", len(errs)))
		for _, inner := range errs {
			lines = append(lines, "  - "+a.describe(inner))
		}
		return strings.Join(lines, "\n")
	}
	return "Error: " + a.describe(err)
}

func (a *CLIErrorAdapter) describe(err error) string {
	classified, ok := AsClassified(err)
	if !ok || a.verbose {
		return err.Error()
	}
	msg := classified.Message()
	if source, ok := classified.Context().GetString(ContextSource); ok {
		msg = source + ": " + msg
	}
	if field, ok := classified.Context().GetString(ContextField); ok {
		msg += " (field " + field + ")"
	}
	if slug, ok := classified.Context().GetString(ContextSlug); ok {
		msg += " (slug " + slug + ")"
	}
	if cause := classified.Cause(); cause != nil {
		msg += ": " + cause.Error()
	}
	return msg
}

// HandleError logs and prints err and returns the exit code to use.
func (a *CLIErrorAdapter) HandleError(err error) int {
	if err == nil {
		return 0
	}
	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
		a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	if severity == SeverityWarning {
		return slog.LevelWarn
	}
	return slog.LevelError
}
