package crdt

// Not a real CRDT operation: manufactures writes that out-dominate whatever
// the child already has, rather than comparing against anything external.
// The synthetic changes are merged into the child before being returned.
// Only the parent's visible fields are rewritten: where the parent also
// holds the record, a column that only the child holds is left in place. A
// no-op on a replica with no parent.
func (r *Replica[K, V]) RevertToParent() []Change[K, V] {
	if r.parent == nil {
		return nil
	}

	parentView := r.parent.GetData()
	synthetic := make([]Change[K, V], 0, len(r.table))
	for recordID := range r.table {
		parentSnap, hasParent := parentView[recordID]
		if !hasParent {
			synthetic = append(synthetic, r.dominatingDeletion(recordID))
			continue
		}
		if _, deleted := parentSnap.ColumnVersions[DeletedColumn]; deleted {
			synthetic = append(synthetic, r.dominatingDeletion(recordID))
			continue
		}
		for col, val := range parentSnap.Fields {
			synthetic = append(synthetic, r.dominatingWrite(recordID, col, val))
		}
	}
	if len(synthetic) == 0 {
		return nil
	}
	return r.mergeChanges(synthetic, true)
}

func (r *Replica[K, V]) dominatingWrite(recordID K, col string, val V) Change[K, V] {
	var prev ColumnVersion
	if rec, ok := r.table[recordID]; ok {
		prev = rec.columnVersions[col]
	}
	db := r.clock.Tick()
	return NewWrite[K, V](recordID, col, val, ColumnVersion{
		ColVersion: prev.ColVersion + 1,
		DBVersion:  db,
		NodeID:     r.nodeID,
		Seq:        db,
	})
}

func (r *Replica[K, V]) dominatingDeletion(recordID K) Change[K, V] {
	var prev ColumnVersion
	if rec, ok := r.table[recordID]; ok {
		prev, _ = rec.tombstone()
	}
	db := r.clock.Tick()
	return NewDeletion[K, V](recordID, ColumnVersion{
		ColVersion: prev.ColVersion + 1,
		DBVersion:  db,
		NodeID:     r.nodeID,
		Seq:        db,
	})
}
