package preview

import (
	"sync"
	"time"
)

// buildStatus tracks the outcome of the most recent preview build.
type buildStatus struct {
	mu           sync.RWMutex
	builds       int
	lastError    error
	hasGoodBuild bool // true once at least one build succeeded
	digest       string
	finished     time.Time
}

func (bs *buildStatus) setError(err error, at time.Time) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.lastError = err
	bs.finished = at
}

func (bs *buildStatus) setSuccess(digest string, at time.Time) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.builds++
	bs.lastError = nil
	bs.hasGoodBuild = true
	bs.digest = digest
	bs.finished = at
}

// Status is the JSON body served at /_status.
type Status struct {
	Builds         int       `json:"builds"`
	OK             bool      `json:"ok"`
	Error          string    `json:"error,omitempty"`
	HasGoodBuild   bool      `json:"has_good_build"`
	ManifestDigest string    `json:"manifest_digest,omitempty"`
	Finished       time.Time `json:"finished,omitzero"`
}

func (bs *buildStatus) snapshot() Status {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	s := Status{
		Builds:         bs.builds,
		OK:             bs.lastError == nil && bs.builds > 0,
		HasGoodBuild:   bs.hasGoodBuild,
		ManifestDigest: bs.digest,
		Finished:       bs.finished,
	}
	if bs.lastError != nil {
		s.Error = bs.lastError.Error()
	}
	return s
}
