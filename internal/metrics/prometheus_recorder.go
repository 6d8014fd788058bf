package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "assetpipe"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	registry       *prom.Registry
	files          *prom.CounterVec
	bytesWritten   prom.Counter
	clearDeletions prom.Counter
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	recompiles     *prom.CounterVec
	dropped        prom.Counter
}

// NewPrometheusRecorder creates the collectors and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		files: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Source paths processed by transform kind and status",
		}, []string{"kind", "status"}),
		bytesWritten: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written to the distribution folder",
		}),
		clearDeletions: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "clear_deletions_total",
			Help:      "Paths deleted while clearing",
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a distribute run",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Distribute runs by outcome",
		}, []string{"outcome"}),
		recompiles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_recompiles_total",
			Help:      "Stylesheet recompiles triggered by the watcher",
		}, []string{"result"}),
		dropped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_dropped_events_total",
			Help:      "Change events dropped while a recompile was running",
		}),
	}
	reg.MustRegister(pr.files, pr.bytesWritten, pr.clearDeletions, pr.buildDuration, pr.buildOutcome, pr.recompiles, pr.dropped)
	return pr
}

// Registry returns the registry the collectors live on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) IncFile(kind, status string) {
	if p == nil {
		return
	}
	p.files.WithLabelValues(kind, status).Inc()
}

func (p *PrometheusRecorder) AddBytesWritten(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.bytesWritten.Add(float64(n))
}

func (p *PrometheusRecorder) AddClearDeletions(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.clearDeletions.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncWatchRecompile(success bool) {
	if p == nil {
		return
	}
	result := "failed"
	if success {
		result = "success"
	}
	p.recompiles.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncWatchDropped() {
	if p == nil {
		return
	}
	p.dropped.Inc()
}

// WriteTextfile writes the current values in the Prometheus text format,
// suitable for the node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
