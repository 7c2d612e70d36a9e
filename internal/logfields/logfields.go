package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeySource     = "source"
	KeySlug       = "slug"
	KeyTag        = "tag"
	KeyArtifact   = "artifact"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Tag(t string) slog.Attr          { return slog.String(KeyTag, t) }
func Artifact(a string) slog.Attr     { return slog.String(KeyArtifact, a) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
