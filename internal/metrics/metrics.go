// Package metrics exposes search engine activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const namespace = "sourcesearch"

// Collector records search activity. It satisfies search.Recorder.
type Collector struct {
	chunks        prometheus.Counter
	scannedBytes  prometheus.Counter
	matches       prometheus.Counter
	tasks         *prometheus.CounterVec
	replacements  prometheus.Counter
	patternErrors prometheus.Counter
}

// New creates a collector registered with reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		chunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_scanned_total",
			Help:      "Number of buffer chunks scanned for matches.",
		}),
		scannedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scanned_bytes_total",
			Help:      "Bytes of buffer text scanned for matches.",
		}),
		matches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_found_total",
			Help:      "Matches found by chunk scans, rescans included.",
		}),
		tasks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Asynchronous searches finished, by direction and outcome.",
		}, []string{"direction", "outcome"}),
		replacements: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replacements_total",
			Help:      "Matches replaced.",
		}),
		patternErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pattern_errors_total",
			Help:      "Search patterns that failed to compile.",
		}),
	}
}

// ChunkScanned records one scanned chunk.
func (c *Collector) ChunkScanned(bytes int64, matches int) {
	c.chunks.Inc()
	c.scannedBytes.Add(float64(bytes))
	c.matches.Add(float64(matches))
}

// TaskFinished records a finished asynchronous search.
func (c *Collector) TaskFinished(direction, outcome string) {
	c.tasks.WithLabelValues(direction, outcome).Inc()
}

// Replaced records replaced matches.
func (c *Collector) Replaced(count int) {
	c.replacements.Add(float64(count))
}

// PatternFailed records a pattern compile failure.
func (c *Collector) PatternFailed() {
	c.patternErrors.Inc()
}

// Write writes every metric g gathers in the Prometheus text format.
func Write(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
