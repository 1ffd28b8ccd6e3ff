package callbacks

import (
	"context"
	"fmt"
	"os"

	"github.com/opendetect/evalreport/internal/curve"
	"github.com/opendetect/evalreport/internal/track"
)

// DefaultSampleCount is the grid size used when resampling curves for the
// tracking dashboard.
const DefaultSampleCount = 100

// TrackingListener forwards lifecycle events to a tracking session:
// scalars per epoch, plot images as they are generated, and at train end
// the best checkpoint plus the validator's aggregated metric curves.
type TrackingListener struct {
	session *track.Session

	// SampleCount is the shared grid size for curve resampling.
	SampleCount int
	// IncludePerClass adds per-class rows to curve tables alongside the
	// mean curve.
	IncludePerClass bool
}

// NewTrackingListener creates a listener logging through session.
func NewTrackingListener(session *track.Session) *TrackingListener {
	return &TrackingListener{
		session:     session,
		SampleCount: DefaultSampleCount,
	}
}

// OnPretrainRoutineStart registers the run with the tracking service.
func (t *TrackingListener) OnPretrainRoutineStart(ctx context.Context, state *TrainerState) error {
	meta := track.RunMeta{
		Project: state.Project,
		Name:    state.Name,
		Config:  state.Config,
	}
	if meta.Project == "" {
		meta.Project = "detect"
	}
	return t.session.StartRun(ctx, meta)
}

// OnTrainEpochEnd logs training losses and learning rates for the epoch.
// At epoch 1 it also sends the first batch of training plot images.
func (t *TrackingListener) OnTrainEpochEnd(ctx context.Context, state *TrainerState) error {
	step := state.Epoch + 1
	if err := t.session.LogScalars(ctx, step, state.TrainLoss); err != nil {
		return err
	}
	if err := t.session.LogScalars(ctx, step, state.LearningRates); err != nil {
		return err
	}
	if state.Epoch == 1 {
		if err := t.session.LogPlots(ctx, state.Plots, step); err != nil {
			return err
		}
	}
	return nil
}

// OnFitEpochEnd logs validation metrics and new plot images. At epoch 0 it
// additionally logs the one-time model info figures.
func (t *TrackingListener) OnFitEpochEnd(ctx context.Context, state *TrainerState) error {
	step := state.Epoch + 1
	if err := t.session.LogScalars(ctx, step, state.Metrics); err != nil {
		return err
	}
	if err := t.session.LogPlots(ctx, state.Plots, step); err != nil {
		return err
	}
	if err := t.session.LogPlots(ctx, state.ValidatorPlots, step); err != nil {
		return err
	}
	if state.Epoch == 0 && len(state.ModelInfo) > 0 {
		if err := t.session.LogScalars(ctx, step, state.ModelInfo); err != nil {
			return err
		}
	}
	return nil
}

// OnTrainEnd sends the final plots, uploads the best checkpoint as a model
// artifact aliased "best", logs every validator curve family as a plot
// table, and closes the run.
func (t *TrackingListener) OnTrainEnd(ctx context.Context, state *TrainerState) error {
	step := state.Epoch + 1
	if err := t.session.LogPlots(ctx, state.ValidatorPlots, step); err != nil {
		return err
	}
	if err := t.session.LogPlots(ctx, state.Plots, step); err != nil {
		return err
	}

	if state.BestModelPath != "" {
		if _, err := os.Stat(state.BestModelPath); err == nil {
			art := track.Artifact{
				Name:    fmt.Sprintf("run_%s_model", t.session.ID()),
				Type:    "model",
				Path:    state.BestModelPath,
				Aliases: []string{"best"},
			}
			if err := t.session.LogArtifact(ctx, art); err != nil {
				return err
			}
		}
	}

	for _, cs := range state.Curves {
		if err := t.logCurveSet(ctx, cs); err != nil {
			return err
		}
	}

	return t.session.Finish(ctx)
}

// logCurveSet resamples one curve family onto the shared grid and logs it
// under curves/<name>.
func (t *TrackingListener) logCurveSet(ctx context.Context, cs curve.Set) error {
	sampleCount := t.SampleCount
	if sampleCount <= 0 {
		sampleCount = DefaultSampleCount
	}
	result, err := curve.AggregateSet(cs, sampleCount, t.IncludePerClass)
	if err != nil {
		return err
	}

	tbl := track.Table{
		Rows:       result.Rows(),
		Title:      cs.Name,
		XAxisTitle: cs.XAxisTitle,
		YAxisTitle: cs.YAxisTitle,
	}
	return t.session.LogTable(ctx, "curves/"+cs.Name, tbl)
}
