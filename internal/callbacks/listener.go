// Package callbacks defines the training-lifecycle listener interface and
// the adapter that forwards lifecycle events to an experiment-tracking
// sink. The training driver holds a Listeners collection and fires each
// event method at the corresponding point in the loop.
package callbacks

import (
	"context"

	"github.com/opendetect/evalreport/internal/curve"
	"github.com/opendetect/evalreport/internal/monitoring"
	"github.com/opendetect/evalreport/internal/track"
)

// TrainerState is the snapshot of the training loop handed to listeners.
// Listeners only read it.
type TrainerState struct {
	Epoch   int
	Project string
	Name    string
	Config  map[string]interface{}

	// Metrics holds validation metrics for the epoch.
	Metrics map[string]float64
	// TrainLoss holds per-component training losses, already prefixed
	// (e.g. "train/box_loss").
	TrainLoss map[string]float64
	// LearningRates holds the optimizer's current learning rates.
	LearningRates map[string]float64
	// ModelInfo holds one-time model figures (parameters, GFLOPs, speed).
	ModelInfo map[string]float64

	// Plots and ValidatorPlots reference rendered plot images on disk.
	Plots          []track.Plot
	ValidatorPlots []track.Plot

	// BestModelPath is the best checkpoint so far; empty or missing files
	// are skipped at upload time.
	BestModelPath string

	// Curves holds the validator's final metric curve families.
	Curves []curve.Set
}

// TrainingListener receives training-lifecycle events. One method per
// event; implementations must tolerate being called with partial state
// (e.g. no curves before validation has run).
type TrainingListener interface {
	// OnPretrainRoutineStart fires once before training begins.
	OnPretrainRoutineStart(ctx context.Context, state *TrainerState) error

	// OnTrainEpochEnd fires after each training epoch, before validation.
	OnTrainEpochEnd(ctx context.Context, state *TrainerState) error

	// OnFitEpochEnd fires after each train+validation epoch.
	OnFitEpochEnd(ctx context.Context, state *TrainerState) error

	// OnTrainEnd fires once after the final epoch.
	OnTrainEnd(ctx context.Context, state *TrainerState) error
}

// Listeners invokes each registered listener per event. Listener errors are
// logged and swallowed so a broken integration cannot abort a training run.
type Listeners []TrainingListener

func (ls Listeners) fire(name string, f func(TrainingListener) error) {
	for _, l := range ls {
		if err := f(l); err != nil {
			monitoring.Logf("callback %s: %v", name, err)
		}
	}
}

// PretrainRoutineStart fires OnPretrainRoutineStart on every listener.
func (ls Listeners) PretrainRoutineStart(ctx context.Context, state *TrainerState) {
	ls.fire("pretrain_routine_start", func(l TrainingListener) error {
		return l.OnPretrainRoutineStart(ctx, state)
	})
}

// TrainEpochEnd fires OnTrainEpochEnd on every listener.
func (ls Listeners) TrainEpochEnd(ctx context.Context, state *TrainerState) {
	ls.fire("train_epoch_end", func(l TrainingListener) error {
		return l.OnTrainEpochEnd(ctx, state)
	})
}

// FitEpochEnd fires OnFitEpochEnd on every listener.
func (ls Listeners) FitEpochEnd(ctx context.Context, state *TrainerState) {
	ls.fire("fit_epoch_end", func(l TrainingListener) error {
		return l.OnFitEpochEnd(ctx, state)
	})
}

// TrainEnd fires OnTrainEnd on every listener.
func (ls Listeners) TrainEnd(ctx context.Context, state *TrainerState) {
	ls.fire("train_end", func(l TrainingListener) error {
		return l.OnTrainEnd(ctx, state)
	})
}
