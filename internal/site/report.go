package site

import (
	"context"
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/history"
	"git.home.luguber.info/inful/blogbuilder/internal/manifest"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// StageResult classifies how a stage ended.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// StageTiming is one executed stage in execution order.
type StageTiming struct {
	Name     StageName
	Duration time.Duration
	Result   StageResult
}

// TagCount is a tag and the number of published documents carrying it.
type TagCount struct {
	Name  string
	Count int
}

const topTagCount = 5

// BuildReport captures what one pipeline run did. The ID identifies the run
// in logs and history only; it never reaches an artifact.
type BuildReport struct {
	ID     string
	Output string
	Start  time.Time
	End    time.Time

	Documents     int // published documents in the corpus
	Drafts        int // drafts left out of the corpus
	Tags          int
	ListingPages  int
	TagPages      int
	SearchRecords int
	FeedEntries   int
	Artifacts     int
	TopTags       []TagCount // most used first, at most topTagCount

	Stages         []StageTiming
	Errors         []error
	Outcome        BuildOutcome
	ManifestDigest string
	Changes        manifest.Changes
}

func newBuildReport(id, output string, start time.Time) *BuildReport {
	return &BuildReport{ID: id, Output: output, Start: start}
}

// StageDuration returns the recorded duration of a stage.
func (r *BuildReport) StageDuration(name StageName) (time.Duration, bool) {
	for _, st := range r.Stages {
		if st.Name == name {
			return st.Duration, true
		}
	}
	return 0, false
}

func (r *BuildReport) recordStage(name StageName, d time.Duration, res StageResult, recorder metrics.Recorder) {
	r.Stages = append(r.Stages, StageTiming{Name: name, Duration: d, Result: res})
	recorder.ObserveStageDuration(string(name), d)
	switch res {
	case StageResultSuccess:
		recorder.IncStageResult(string(name), metrics.ResultSuccess)
	case StageResultFatal:
		recorder.IncStageResult(string(name), metrics.ResultFatal)
	case StageResultCanceled:
		recorder.IncStageResult(string(name), metrics.ResultCanceled)
	}
}

// deriveOutcome sets the Outcome field based on recorded errors.
func (r *BuildReport) deriveOutcome() {
	for _, e := range r.Errors {
		if errors.Is(e, context.Canceled) || errors.Is(e, context.DeadlineExceeded) {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	if len(r.Errors) > 0 {
		r.Outcome = OutcomeFailed
		return
	}
	r.Outcome = OutcomeSuccess
}

func (r *BuildReport) finish(end time.Time, recorder metrics.Recorder) {
	r.End = end
	r.deriveOutcome()
	recorder.ObserveBuildDuration(r.End.Sub(r.Start))
	recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(r.Outcome))
}

// Duration returns the wall time of the run.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("documents=%d drafts=%d tags=%d pages=%d tag_pages=%d artifacts=%d duration=%s outcome=%s",
		r.Documents, r.Drafts, r.Tags, r.ListingPages, r.TagPages, r.Artifacts,
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// HistoryRecord converts the report into a history entry.
func (r *BuildReport) HistoryRecord() *history.Build {
	b := &history.Build{
		ID:             r.ID,
		Started:        r.Start,
		Duration:       r.Duration(),
		Outcome:        string(r.Outcome),
		Documents:      r.Documents,
		Drafts:         r.Drafts,
		Tags:           r.Tags,
		Artifacts:      r.Artifacts,
		ManifestDigest: r.ManifestDigest,
	}
	if len(r.Errors) > 0 {
		b.Error = errors.Join(r.Errors...).Error()
	}
	for _, st := range r.Stages {
		b.Stages = append(b.Stages, history.Stage{Name: string(st.Name), Duration: st.Duration, Result: string(st.Result)})
	}
	return b
}
