package site

import (
	"context"
	"errors"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// runStages executes stages in order, recording timing and stopping on the
// first error. Cancellation is checked before each stage.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	g := bs.Generator
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			bs.Report.recordStage(st.Name, 0, StageResultCanceled, g.recorder)
			return ferrors.WrapError(err, ferrors.CategoryBuild, "build canceled").
				WithContext(logfields.KeyStage, string(st.Name)).
				Build()
		}

		g.logger.Debug("Stage started", logfields.Stage(string(st.Name)))
		t0 := g.now()
		err := st.Fn(ctx, bs)
		dur := g.now().Sub(t0)

		result := StageResultSuccess
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			result = StageResultCanceled
		default:
			result = StageResultFatal
		}
		bs.Report.recordStage(st.Name, dur, result, g.recorder)
		g.logger.Debug("Stage finished",
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000),
			logfields.Error(err))
		if err != nil {
			return err
		}
	}
	return nil
}
