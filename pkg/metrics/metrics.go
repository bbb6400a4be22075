package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels pipeline runs that produced a result.
	OutcomeSuccess = "success"
	// OutcomeError labels runs rejected by validation or failed in a stage.
	OutcomeError = "error"
)

var (
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spectra",
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	pipelineDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "spectra",
			Name:      "pipeline_seconds",
			Help:      "Pipeline latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	spectraProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "spectra",
			Name:      "processed_total",
			Help:      "Total number of spectra that went through the pipeline.",
		},
	)

	parsedFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spectra",
			Name:      "parsed_files_total",
			Help:      "Total number of uploaded files parsed, partitioned by detected format.",
		},
		[]string{"format"},
	)
)

// Register attaches the spectra collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pipelineRunsTotal,
		pipelineDurationSeconds,
		spectraProcessedTotal,
		parsedFilesTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePipeline records a run's duration, outcome and spectrum count.
func ObservePipeline(duration time.Duration, outcome string, spectra int) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	pipelineRunsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	pipelineDurationSeconds.Observe(duration.Seconds())
	if label == OutcomeSuccess && spectra > 0 {
		spectraProcessedTotal.Add(float64(spectra))
	}
}

// ObserveParsedFile counts a successfully parsed upload.
func ObserveParsedFile(format string) {
	if format == "" {
		format = "unknown"
	}
	parsedFilesTotal.WithLabelValues(format).Inc()
}
