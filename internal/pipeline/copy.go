// Package pipeline runs a distribution build: the output folder is cleared,
// the source globs are expanded and every matched path is transformed into
// the output folder. Failures are isolated per file and collected into a
// report instead of stopping the run.
package pipeline

import (
	"context"

	"github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/metrics"
	"github.com/conneroisu/assetpipe/internal/transform"
)

// FileTransformer writes the distribution copy of one source path.
type FileTransformer interface {
	Transform(ctx context.Context, source, destRoot string, minify bool) (transform.FileOutcome, error)
}

// FileCallback is called after each source path has been handled.
type FileCallback func(outcome transform.FileOutcome)

// CopyReport lists the outcome of every source path in processing order.
type CopyReport struct {
	Outcomes []transform.FileOutcome
	// Canceled is the context error that cut the copy short.
	Canceled error
	errs     *errors.Collector
}

func newCopyReport(capacity int) *CopyReport {
	return &CopyReport{
		Outcomes: make([]transform.FileOutcome, 0, capacity),
		errs:     errors.NewCollector(),
	}
}

func (r *CopyReport) add(outcome transform.FileOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	r.errs.Add(outcome.Err)
}

// Count returns how many outcomes have the given status.
func (r *CopyReport) Count(status transform.Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failed returns the outcomes of the paths that could not be written.
func (r *CopyReport) Failed() []transform.FileOutcome {
	var failed []transform.FileOutcome
	for _, o := range r.Outcomes {
		if o.Status == transform.StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// BytesWritten sums the bytes of all written files.
func (r *CopyReport) BytesWritten() int64 {
	var n int64
	for _, o := range r.Outcomes {
		n += o.Bytes
	}
	return n
}

// Err joins every per-file error, or returns nil when all files succeeded.
func (r *CopyReport) Err() error {
	return r.errs.Err()
}

// ErrorsOfType returns the per-file errors of type t.
func (r *CopyReport) ErrorsOfType(t errors.ErrorType) []error {
	return r.errs.FilterByType(t)
}

// Pipeline copies source paths into a destination folder one by one.
type Pipeline struct {
	transformer FileTransformer
	recorder    metrics.Recorder
	logger      logging.Logger
	callbacks   []FileCallback
}

// New creates a Pipeline. A nil recorder disables metrics.
func New(transformer FileTransformer, recorder metrics.Recorder, logger logging.Logger) *Pipeline {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Pipeline{
		transformer: transformer,
		recorder:    recorder,
		logger:      logger.WithComponent("copy"),
	}
}

// AddCallback registers a callback run after every file.
func (p *Pipeline) AddCallback(callback FileCallback) {
	p.callbacks = append(p.callbacks, callback)
}

// Copy transforms sources into destRoot in order. A failing file is
// recorded and the next one is processed. Once ctx is done the remaining
// files are recorded as skipped.
func (p *Pipeline) Copy(ctx context.Context, sources []string, destRoot string, minify bool) *CopyReport {
	report := newCopyReport(len(sources))

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			if report.Canceled == nil {
				report.Canceled = err
				p.logger.Warn(ctx, err, "Copy canceled, skipping remaining files", "source", source)
			}
			p.record(report, transform.FileOutcome{
				Source: source,
				Kind:   transform.Decide(source, minify),
				Status: transform.StatusSkipped,
			})
			continue
		}

		outcome, err := p.transformer.Transform(ctx, source, destRoot, minify)
		if err != nil {
			outcome.Status = transform.StatusFailed
			outcome.Err = err
			p.logger.Error(ctx, err, "File could not be copied",
				"source", source, "recoverable", errors.IsRecoverable(err))
		}
		p.record(report, outcome)
	}

	if failed := report.Count(transform.StatusFailed); failed > 0 {
		p.logger.Warn(ctx, report.Err(), "Copy finished with failures",
			"files", len(sources), "failed", failed)
	} else {
		p.logger.Info(ctx, "Copy finished", "files", len(sources))
	}

	return report
}

func (p *Pipeline) record(report *CopyReport, outcome transform.FileOutcome) {
	report.add(outcome)
	p.recorder.IncFile(outcome.Kind.String(), string(outcome.Status))
	p.recorder.AddBytesWritten(outcome.Bytes)
	for _, callback := range p.callbacks {
		callback(outcome)
	}
}
