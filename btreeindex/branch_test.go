package btreeindex

import (
	"testing"

	"bptreeindex/page"
)

func TestBranchInsertMaintainsOrder(t *testing.T) {
	pg := &page.Page{No: 1}
	b := asBranch(pg)
	b.initEmpty(1)
	b.setChild(0, 100) // leftmost child exists before any key is inserted

	b.insert(20, 102)
	b.insert(10, 101)
	b.insert(30, 103)

	if got := b.occupiedKeys(); got != 3 {
		t.Fatalf("occupiedKeys() = %d, want 3", got)
	}
	wantKeys := []int32{10, 20, 30}
	for i, want := range wantKeys {
		if got := b.key(i); got != want {
			t.Errorf("key(%d) = %d, want %d", i, got, want)
		}
	}
	wantChildren := []uint32{100, 101, 102, 103}
	for i, want := range wantChildren {
		if got := b.child(i); got != want {
			t.Errorf("child(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestBranchIsFull(t *testing.T) {
	pg := &page.Page{No: 1}
	b := asBranch(pg)
	b.initEmpty(0)
	b.setChild(0, 1)

	for i := 0; i < branchCapacity; i++ {
		if b.isFull() {
			t.Fatalf("branch reported full after %d inserts, want full only at capacity %d", i, branchCapacity)
		}
		b.insert(int32(i), uint32(i+2))
	}
	if !b.isFull() {
		t.Fatalf("branch not full after %d inserts", branchCapacity)
	}
}
