// Package history persists a record of every build in a SQLite database
// kept outside the output directory. Nothing in it feeds back into
// generated artifacts.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNoBuilds is returned by Last when nothing has been recorded.
var ErrNoBuilds = errors.New("no builds recorded")

// Build is one recorded pipeline run.
type Build struct {
	ID             string
	Started        time.Time
	Duration       time.Duration
	Outcome        string
	Documents      int
	Drafts         int
	Tags           int
	Artifacts      int
	ManifestDigest string
	Error          string
	Stages         []Stage
}

// Stage is the timing and result of one pipeline stage.
type Stage struct {
	Name     string
	Duration time.Duration
	Result   string
}

// Store defines the interface for persisting and retrieving builds.
type Store interface {
	// Record stores b, assigning an ID when b.ID is empty.
	Record(ctx context.Context, b *Build) error
	// Recent returns up to limit builds, newest first.
	Recent(ctx context.Context, limit int) ([]Build, error)
	// Last returns the newest build or ErrNoBuilds.
	Last(ctx context.Context) (*Build, error)
	// Close closes the store and releases resources.
	Close() error
}
