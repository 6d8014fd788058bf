// Package metrics records pipeline counters and timings. Components take a
// Recorder; NoopRecorder is used when metrics are not requested and
// PrometheusRecorder when the CLI is asked to write a metrics file.
package metrics

import "time"

// Recorder receives pipeline observations.
type Recorder interface {
	IncFile(kind, status string)
	AddBytesWritten(n int64)
	AddClearDeletions(n int)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	IncWatchRecompile(success bool)
	IncWatchDropped()
}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

func (NoopRecorder) IncFile(string, string)             {}
func (NoopRecorder) AddBytesWritten(int64)              {}
func (NoopRecorder) AddClearDeletions(int)              {}
func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)             {}
func (NoopRecorder) IncWatchRecompile(bool)             {}
func (NoopRecorder) IncWatchDropped()                   {}
