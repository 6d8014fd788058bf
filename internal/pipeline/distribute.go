package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/conneroisu/assetpipe/internal/fsutil"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/metrics"
	"github.com/conneroisu/assetpipe/internal/transform"
)

// State is the phase a distribute run is in.
type State string

const (
	StateClearing State = "clearing"
	StateCopying  State = "copying"
	StateDone     State = "done"
)

// PathCleaner deletes the paths matched by glob patterns.
type PathCleaner interface {
	Remove(ctx context.Context, patterns []string) (*fsutil.CleanResult, error)
}

// DistributeOptions holds the resolved inputs of a run. Patterns are
// absolute.
type DistributeOptions struct {
	Clear   []string
	Sources []string
	Output  string
	Minify  bool
}

// DistributeResult describes a finished run.
type DistributeResult struct {
	RunID    string
	State    State
	Cleared  []string
	ClearErr error
	Copy     *CopyReport
	Duration time.Duration
}

// OK reports whether every source path was handled without failure. A run
// cut short by cancellation is not OK.
func (r *DistributeResult) OK() bool {
	return r.Copy != nil && r.Copy.Canceled == nil && r.Copy.Count(transform.StatusFailed) == 0
}

// Distributor clears the output folder and then copies the sources into it.
type Distributor struct {
	fs       afero.Fs
	cleaner  PathCleaner
	pipeline *Pipeline
	recorder metrics.Recorder
	logger   logging.Logger
}

// NewDistributor wires a Distributor. A nil recorder disables metrics.
func NewDistributor(fs afero.Fs, cleaner PathCleaner, pipeline *Pipeline, recorder metrics.Recorder, logger logging.Logger) *Distributor {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Distributor{
		fs:       fs,
		cleaner:  cleaner,
		pipeline: pipeline,
		recorder: recorder,
		logger:   logger.WithComponent("distribute"),
	}
}

// Run executes one distribution build. It always returns a result in the
// done state; a failed clear is recorded and the copy still runs.
func (d *Distributor) Run(ctx context.Context, opts DistributeOptions) *DistributeResult {
	result := &DistributeResult{RunID: uuid.NewString()}
	logger := d.logger.With("run_id", result.RunID)
	op := logging.StartOperation(logger, "distribute")

	result.State = StateClearing
	logger.Debug(ctx, "Clearing output", "patterns", opts.Clear)
	cleared, err := d.cleaner.Remove(ctx, opts.Clear)
	if cleared != nil {
		result.Cleared = cleared.Removed
		d.recorder.AddClearDeletions(len(cleared.Removed))
	}
	if err != nil {
		result.ClearErr = err
		logger.Info(ctx, "Clearing failed, continuing with copy", "error", err.Error())
	}

	result.State = StateCopying
	sources, err := fsutil.Expand(d.fs, opts.Sources)
	if err != nil {
		result.Copy = newCopyReport(0)
		result.Copy.add(transform.FileOutcome{
			Source: "",
			Status: transform.StatusFailed,
			Err:    err,
		})
		d.recorder.IncFile(transform.Passthrough.String(), string(transform.StatusFailed))
		logger.Error(ctx, err, "Could not expand source patterns")
	} else {
		logger.Debug(ctx, "Copying sources", "count", len(sources), "output", opts.Output)
		result.Copy = d.pipeline.Copy(ctx, sources, opts.Output, opts.Minify)
	}

	result.State = StateDone
	if result.OK() {
		result.Duration = op.End(ctx)
		d.recorder.IncBuildOutcome("success")
	} else {
		err := result.Copy.Err()
		if err == nil {
			err = result.Copy.Canceled
		}
		result.Duration = op.EndWithError(ctx, err)
		d.recorder.IncBuildOutcome("failed")
	}
	d.recorder.ObserveBuildDuration(result.Duration)

	return result
}
