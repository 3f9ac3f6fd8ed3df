// Package metrics implements crdt.MetricsRecorder with a small set of
// Prometheus counters, following the pack's convention of one promauto-built
// struct per component rather than hand-rolled counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set bundles the counters a Replica reports through while authoring,
// merging, and compressing changes. Construct one per node (or per table,
// if a process runs several) and pass it to crdt.WithMetrics.
type Set struct {
	ChangesEmittedTotal    prometheus.Counter
	ChangesAcceptedTotal   prometheus.Counter
	ChangesRejectedTotal   prometheus.Counter
	TombstoneDropsTotal    prometheus.Counter
	CompressionInputTotal  prometheus.Counter
	CompressionOutputTotal prometheus.Counter
}

// NewSet registers every counter against reg and returns the bundle. Pass
// prometheus.DefaultRegisterer to publish on the process-wide default
// registry, or a fresh prometheus.NewRegistry() in tests to avoid
// cross-test registration collisions.
func NewSet(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		ChangesEmittedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crdt_lite",
			Name:      "changes_emitted_total",
			Help:      "Total number of Changes produced by InsertOrUpdate and DeleteRecord.",
		}),
		ChangesAcceptedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crdt_lite",
			Name:      "changes_accepted_total",
			Help:      "Total number of incoming Changes accepted by MergeChanges.",
		}),
		ChangesRejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crdt_lite",
			Name:      "changes_rejected_total",
			Help:      "Total number of incoming Changes rejected by MergeChanges for failing to dominate.",
		}),
		TombstoneDropsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crdt_lite",
			Name:      "tombstone_drops_total",
			Help:      "Total number of local writes silently dropped because their record is tombstoned.",
		}),
		CompressionInputTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crdt_lite",
			Name:      "compression_input_total",
			Help:      "Total number of Changes fed into CompressChanges.",
		}),
		CompressionOutputTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "crdt_lite",
			Name:      "compression_output_total",
			Help:      "Total number of Changes surviving CompressChanges.",
		}),
	}
}

// ChangesEmitted implements crdt.MetricsRecorder.
func (s *Set) ChangesEmitted(n int) { s.ChangesEmittedTotal.Add(float64(n)) }

// ChangeAccepted implements crdt.MetricsRecorder.
func (s *Set) ChangeAccepted() { s.ChangesAcceptedTotal.Inc() }

// ChangeRejected implements crdt.MetricsRecorder.
func (s *Set) ChangeRejected() { s.ChangesRejectedTotal.Inc() }

// TombstoneDrop implements crdt.MetricsRecorder.
func (s *Set) TombstoneDrop() { s.TombstoneDropsTotal.Inc() }

// Compression implements crdt.MetricsRecorder.
func (s *Set) Compression(inputs, outputs int) {
	s.CompressionInputTotal.Add(float64(inputs))
	s.CompressionOutputTotal.Add(float64(outputs))
}
