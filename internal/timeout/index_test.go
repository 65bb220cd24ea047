package timeout

import "testing"

func TestInsertMinDelete(t *testing.T) {
	tick := int64(1000)
	idx := NewIndex(func() int64 { return tick })

	e1 := idx.Insert("m1", "c1", 500) // deadline 1500
	tick = 1010
	e2 := idx.Insert("m2", "c2", 100) // deadline 1110

	if idx.Min() != e2 {
		t.Fatalf("expected e2 (earlier deadline) to be min")
	}

	idx.Delete(e2)
	if idx.Min() != e1 {
		t.Fatalf("expected e1 to be min after e2 removed")
	}
	if !e2.Cleared() {
		t.Fatalf("deleted entry should report Cleared")
	}

	idx.Delete(e2) // idempotent
	if idx.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", idx.Len())
	}

	idx.Delete(e1)
	if idx.Min() != nil {
		t.Fatalf("expected empty index")
	}
}

func TestInsertNonPositiveTimeoutSkipped(t *testing.T) {
	idx := NewIndex(func() int64 { return 0 })
	if e := idx.Insert("m", "c", 0); e != nil {
		t.Fatalf("expected nil entry for zero timeout")
	}
	if e := idx.Insert("m", "c", -5); e != nil {
		t.Fatalf("expected nil entry for negative timeout")
	}
	if idx.Len() != 0 {
		t.Fatalf("index should remain empty")
	}
}
