package crdt

// A local write never resurrects a tombstoned record.
func (r *Replica[K, V]) InsertOrUpdate(recordID K, fields map[string]V) []Change[K, V] {
	rec, exists := r.table[recordID]
	if exists && rec.isDeleted() {
		r.log.Infow("insert_or_update dropped: record tombstoned", "record", recordID)
		r.metrics.TombstoneDrop()
		return nil
	}
	if !exists {
		rec = newRecord[V]()
		r.table[recordID] = rec
	}

	dbVersion := r.clock.Tick()
	changes := make([]Change[K, V], 0, len(fields))
	for col, val := range fields {
		prev := rec.columnVersions[col]
		cv := ColumnVersion{
			ColVersion: prev.ColVersion + 1,
			DBVersion:  dbVersion,
			NodeID:     r.nodeID,
			Seq:        dbVersion,
		}
		rec.fields[col] = val
		rec.columnVersions[col] = cv
		changes = append(changes, NewWrite[K, V](recordID, col, val, cv))
	}
	r.metrics.ChangesEmitted(len(changes))
	return changes
}

func (r *Replica[K, V]) DeleteRecord(recordID K) []Change[K, V] {
	rec, exists := r.table[recordID]
	if !exists {
		rec = newRecord[V]()
		r.table[recordID] = rec
	}

	redelete := rec.isDeleted()
	dbVersion := r.clock.Tick()
	prev, _ := rec.tombstone()
	cv := ColumnVersion{
		ColVersion: prev.ColVersion + 1,
		DBVersion:  dbVersion,
		NodeID:     r.nodeID,
		Seq:        dbVersion,
	}
	for k := range rec.fields {
		delete(rec.fields, k)
	}
	rec.columnVersions[DeletedColumn] = cv
	if redelete {
		r.log.Infow("re-delete", "record", recordID, "col_version", cv.ColVersion)
	} else {
		r.log.Debugw("delete_record", "record", recordID, "col_version", cv.ColVersion)
	}
	r.metrics.ChangesEmitted(1)
	return []Change[K, V]{NewDeletion[K, V](recordID, cv)}
}

// ignoreParent skips the inherited-tombstone check, for replaying a change
// that already originated from the parent chain.
func (r *Replica[K, V]) MergeChanges(batch []Change[K, V], ignoreParent bool) []Change[K, V] {
	return r.mergeChanges(batch, ignoreParent)
}

func (r *Replica[K, V]) mergeChanges(batch []Change[K, V], ignoreParent bool) []Change[K, V] {
	accepted := make([]Change[K, V], 0, len(batch))
	for _, c := range batch {
		r.clock.Observe(c.DBVersion)

		rec, exists := r.table[c.RecordID]
		if !exists {
			rec = newRecord[V]()
		}

		if c.IsDeletion() {
			comparator, _ := rec.tombstone()
			if !c.version().Dominates(comparator) {
				r.log.Debugw("merge rejected (deletion)", "record", c.RecordID)
				r.metrics.ChangeRejected()
				continue
			}
			for k := range rec.fields {
				delete(rec.fields, k)
			}
			rec.columnVersions[DeletedColumn] = c.version()
			r.table[c.RecordID] = rec
			accepted = append(accepted, c)
			r.log.Debugw("merge accepted (deletion)", "record", c.RecordID, "col_version", c.ColVersion)
			r.metrics.ChangeAccepted()
			continue
		}

		var comparator ColumnVersion
		if tomb, tombstoned := r.effectiveTombstone(c.RecordID, ignoreParent); tombstoned {
			comparator = tomb
		} else {
			comparator = rec.columnVersions[c.ColName]
		}

		if !c.version().Dominates(comparator) {
			r.log.Debugw("merge rejected (write)", "record", c.RecordID, "col", c.ColName)
			r.metrics.ChangeRejected()
			continue
		}

		if _, tombstoned := rec.tombstone(); tombstoned {
			// A dominating write resurrects the record: the tombstone no
			// longer masks it, and only the dominating column reappears.
			delete(rec.columnVersions, DeletedColumn)
		}
		rec.fields[c.ColName] = c.Value
		rec.columnVersions[c.ColName] = c.version()
		r.table[c.RecordID] = rec
		accepted = append(accepted, c)
		r.log.Debugw("merge accepted (write)", "record", c.RecordID, "col", c.ColName, "col_version", c.ColVersion)
		r.metrics.ChangeAccepted()
	}
	return accepted
}

// Walks the parent chain when the record has no local tombstone, so a
// write into a record only ever read through the parent still can't
// resurrect a parent-side deletion for free.
func (r *Replica[K, V]) effectiveTombstone(recordID K, ignoreParent bool) (ColumnVersion, bool) {
	if rec, ok := r.table[recordID]; ok {
		if tomb, has := rec.tombstone(); has {
			return tomb, true
		}
	}
	if !ignoreParent && r.parent != nil {
		return r.parent.effectiveTombstone(recordID, false)
	}
	return ColumnVersion{}, false
}
