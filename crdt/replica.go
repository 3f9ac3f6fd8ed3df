package crdt

import "github.com/guusw/crdt-lite/clock"

// Replica is not safe for concurrent use.
type Replica[K comparable, V any] struct {
	nodeID uint64
	clock  clock.Logical
	table  map[K]*record[V]

	// parent is a shared, read-only handle. It is never mutated through
	// this Replica. Multiple children may point at the same parent.
	parent *Replica[K, V]

	// mergeWatermark shields bootstrap data installed via
	// NewReplicaFromChanges from being re-emitted by GetChangesSince.
	mergeWatermark uint64

	log     Logger
	metrics MetricsRecorder
}

type Option[K comparable, V any] func(*Replica[K, V])

func WithLogger[K comparable, V any](l Logger) Option[K, V] {
	return func(r *Replica[K, V]) { r.log = l }
}

func WithMetrics[K comparable, V any](m MetricsRecorder) Option[K, V] {
	return func(r *Replica[K, V]) { r.metrics = m }
}

func newReplica[K comparable, V any](nodeID uint64, opts []Option[K, V]) *Replica[K, V] {
	r := &Replica[K, V]{
		nodeID:  nodeID,
		table:   make(map[K]*record[V]),
		log:     noopLogger{},
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func NewReplica[K comparable, V any](nodeID uint64, opts ...Option[K, V]) *Replica[K, V] {
	return newReplica(nodeID, opts)
}

// The merge watermark is set to the max db_version bootstrapped, so
// GetChangesSince below that watermark doesn't re-emit the bootstrap data.
func NewReplicaFromChanges[K comparable, V any](nodeID uint64, initial []Change[K, V], opts ...Option[K, V]) *Replica[K, V] {
	r := newReplica(nodeID, opts)
	accepted := r.mergeChanges(initial, false)
	var maxDB uint64
	for _, c := range accepted {
		if c.DBVersion > maxDB {
			maxDB = c.DBVersion
		}
	}
	r.mergeWatermark = maxDB
	r.clock.Seed(maxDB)
	return r
}

// Local mutations only ever touch the child; the parent is never mutated
// through it.
func NewReplicaWithParent[K comparable, V any](nodeID uint64, parent *Replica[K, V], opts ...Option[K, V]) *Replica[K, V] {
	r := newReplica(nodeID, opts)
	r.parent = parent
	r.clock.Seed(parent.GetClock())
	return r
}

func (r *Replica[K, V]) GetClock() uint64 {
	return r.clock.Now()
}

func (r *Replica[K, V]) NodeID() uint64 {
	return r.nodeID
}
