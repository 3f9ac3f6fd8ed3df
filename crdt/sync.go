package crdt

func SyncNodes[K comparable, V any](source, dest *Replica[K, V], watermark *uint64) []Change[K, V] {
	changes := source.GetChangesSince(*watermark)
	*watermark = source.GetClock()
	if len(changes) == 0 {
		return nil
	}
	return dest.MergeChanges(changes, false)
}
