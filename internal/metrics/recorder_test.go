package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveStageDuration("publish", time.Second)
		r.ObserveBuildDuration(time.Second)
		r.IncStageResult("publish", ResultSuccess)
		r.IncBuildOutcome(BuildOutcomeSuccess)
		r.SetDocuments(1, 0)
		r.SetTags(1)
		r.AddArtifacts("feed", 1)
	})
}
