package crdt

import "testing"

// S1: conflicting inserts from two nodes, same col_version/db_version tie
// broken by node_id.
func TestConflictingInsertsNodeIDTiebreak(t *testing.T) {
	n1 := NewReplica[string, string](1)
	n2 := NewReplica[string, string](2)

	c1 := n1.InsertOrUpdate("r", map[string]string{"tag": "A"})
	c2 := n2.InsertOrUpdate("r", map[string]string{"tag": "B"})

	n1.MergeChanges(c2, false)
	n2.MergeChanges(c1, false)

	got1 := n1.GetData()["r"].Fields["tag"]
	got2 := n2.GetData()["r"].Fields["tag"]
	if got1 != "B" || got2 != "B" {
		t.Fatalf("want both nodes converged on tag=B, got n1=%q n2=%q", got1, got2)
	}
}

// S2: higher col_version beats higher node_id.
func TestSequentialUpdatesThenMergeColVersionWins(t *testing.T) {
	n1 := NewReplica[string, string](1)
	n2 := NewReplica[string, string](2)

	n1.InsertOrUpdate("r", map[string]string{"tag": "A"})
	n1.InsertOrUpdate("r", map[string]string{"tag": "A1"})
	c1 := n1.InsertOrUpdate("r", map[string]string{"tag": "A2"})
	c2 := n2.InsertOrUpdate("r", map[string]string{"tag": "B1"})

	n1.MergeChanges(c2, false)
	n2.MergeChanges(c1, false)

	if got := n1.GetData()["r"].Fields["tag"]; got != "A2" {
		t.Fatalf("n1 tag = %q, want A2", got)
	}
	if got := n2.GetData()["r"].Fields["tag"]; got != "A2" {
		t.Fatalf("n2 tag = %q, want A2", got)
	}
}

// S3: delete then a retried insert must not resurrect the record.
func TestDeleteThenRetriedInsertStaysDeleted(t *testing.T) {
	n1 := NewReplica[string, string](1)
	n2 := NewReplica[string, string](2)

	ins := n1.InsertOrUpdate("r", map[string]string{"tag": "A"})
	del := n1.DeleteRecord("r")

	n2.MergeChanges(ins, false)
	n2.MergeChanges(del, false)

	retried := n2.InsertOrUpdate("r", map[string]string{"tag": "C"})
	if retried != nil {
		t.Fatalf("InsertOrUpdate on a tombstoned record should be dropped, got %v", retried)
	}

	for _, r := range []*Replica[string, string]{n1, n2} {
		snap := r.GetData()["r"]
		if len(snap.Fields) != 0 {
			t.Fatalf("fields should be empty after delete, got %v", snap.Fields)
		}
		if _, ok := snap.ColumnVersions[DeletedColumn]; !ok {
			t.Fatalf("expected a tombstone entry in column_versions")
		}
	}
}

// Tombstone stickiness (property 4): a write that does not dominate the
// tombstone's version (here: same col_version and db_version, lower
// node_id) has no effect; a write that dominates it resurrects the record
// with only that column visible.
func TestTombstoneStickiness(t *testing.T) {
	n := NewReplica[string, string](1)
	del := n.DeleteRecord("r") // tombstone col_version = 1
	tomb := del[0].version()

	rejected := n.MergeChanges([]Change[string, string]{
		NewWrite[string, string]("r", "tag", "too-late", ColumnVersion{ColVersion: tomb.ColVersion, DBVersion: tomb.DBVersion, NodeID: 0, Seq: 1}),
	}, false)
	if len(rejected) != 0 {
		t.Fatalf("write at col_version == tombstone's should be rejected, got %v", rejected)
	}

	accepted := n.MergeChanges([]Change[string, string]{
		NewWrite[string, string]("r", "tag", "resurrected", ColumnVersion{ColVersion: tomb.ColVersion + 1, DBVersion: tomb.DBVersion + 1, NodeID: 1, Seq: 1}),
	}, false)
	if len(accepted) != 1 {
		t.Fatalf("write above tombstone's col_version should resurrect, got %v", accepted)
	}

	snap := n.GetData()["r"]
	if len(snap.Fields) != 1 || snap.Fields["tag"] != "resurrected" {
		t.Fatalf("resurrected record should show only the dominating column, got %v", snap.Fields)
	}
	if _, tombstoned := snap.ColumnVersions[DeletedColumn]; tombstoned {
		t.Fatalf("tombstone entry should be removed once resurrected")
	}
}

func TestInsertOrUpdateOnTombstonedRecordIsDropped(t *testing.T) {
	n := NewReplica[string, string](1)
	n.DeleteRecord("r")
	changes := n.InsertOrUpdate("r", map[string]string{"tag": "A"})
	if changes != nil {
		t.Fatalf("expected nil, got %v", changes)
	}
	if len(n.GetData()["r"].Fields) != 0 {
		t.Fatalf("local write on tombstoned record must not resurrect it")
	}
}

// Idempotence (property 1).
func TestMergeIdempotence(t *testing.T) {
	n1 := NewReplica[string, string](1)
	n2 := NewReplica[string, string](2)
	batch := n1.InsertOrUpdate("r", map[string]string{"a": "1", "b": "2"})

	n2.MergeChanges(batch, false)
	first := n2.GetData()
	n2.MergeChanges(batch, false)
	second := n2.GetData()

	if len(first) != len(second) || first["r"].Fields["a"] != second["r"].Fields["a"] {
		t.Fatalf("merging the same batch twice changed state: %v vs %v", first, second)
	}
}

// Commutativity (property 2): disjoint batches converge to the same state
// regardless of application order.
func TestMergeCommutativity(t *testing.T) {
	origin := NewReplica[string, string](1)
	b1 := origin.InsertOrUpdate("r1", map[string]string{"x": "1"})
	b2 := origin.InsertOrUpdate("r2", map[string]string{"y": "2"})

	order1 := NewReplica[string, string](2)
	order1.MergeChanges(b1, false)
	order1.MergeChanges(b2, false)

	order2 := NewReplica[string, string](3)
	order2.MergeChanges(b2, false)
	order2.MergeChanges(b1, false)

	d1, d2 := order1.GetData(), order2.GetData()
	if d1["r1"].Fields["x"] != d2["r1"].Fields["x"] || d1["r2"].Fields["y"] != d2["r2"].Fields["y"] {
		t.Fatalf("commutativity violated: %v vs %v", d1, d2)
	}
}

// Associativity (property 3): one combined merge vs. two incremental
// merges must converge identically.
func TestMergeAssociativity(t *testing.T) {
	origin := NewReplica[string, string](1)
	b1 := origin.InsertOrUpdate("r", map[string]string{"a": "1"})
	b2 := origin.InsertOrUpdate("r", map[string]string{"b": "2"})

	streamed := NewReplica[string, string](2)
	streamed.MergeChanges(b1, false)
	streamed.MergeChanges(b2, false)

	batched := NewReplica[string, string](3)
	batched.MergeChanges(append(append([]Change[string, string]{}, b1...), b2...), false)

	sd, bd := streamed.GetData()["r"].Fields, batched.GetData()["r"].Fields
	if sd["a"] != bd["a"] || sd["b"] != bd["b"] {
		t.Fatalf("associativity violated: %v vs %v", sd, bd)
	}
}

// Dominance total order (property 5).
func TestDominanceTotalOrder(t *testing.T) {
	cases := []struct {
		a, b ColumnVersion
		want bool
	}{
		{ColumnVersion{ColVersion: 2}, ColumnVersion{ColVersion: 1}, true},
		{ColumnVersion{ColVersion: 1}, ColumnVersion{ColVersion: 2}, false},
		{ColumnVersion{ColVersion: 1, DBVersion: 5}, ColumnVersion{ColVersion: 1, DBVersion: 4}, true},
		{ColumnVersion{ColVersion: 1, DBVersion: 4, NodeID: 1}, ColumnVersion{ColVersion: 1, DBVersion: 4, NodeID: 2}, false},
		{ColumnVersion{ColVersion: 1, DBVersion: 4, NodeID: 2}, ColumnVersion{ColVersion: 1, DBVersion: 4, NodeID: 1}, true},
	}
	for _, c := range cases {
		if got := c.a.Dominates(c.b); got != c.want {
			t.Errorf("%+v.Dominates(%+v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

// Clock monotonicity (property 6).
func TestClockMonotonicity(t *testing.T) {
	n := NewReplica[string, string](1)
	prev := n.GetClock()
	ops := []func(){
		func() { n.InsertOrUpdate("r1", map[string]string{"a": "1"}) },
		func() { n.DeleteRecord("r1") },
		func() {
			n.MergeChanges([]Change[string, string]{
				NewWrite[string, string]("r2", "a", "v", ColumnVersion{ColVersion: 1, DBVersion: prev + 50, NodeID: 9, Seq: 1}),
			}, false)
		},
	}
	for _, op := range ops {
		op()
		cur := n.GetClock()
		if cur < prev {
			t.Fatalf("clock moved backward: %d -> %d", prev, cur)
		}
		prev = cur
	}
}
