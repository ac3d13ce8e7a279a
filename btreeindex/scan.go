package btreeindex

// scanState is the small tagged state machine spec.md §9 calls for:
// either idle (nil) or active with a pinned current leaf, a cursor
// into it, and the bound predicate.
type scanState struct {
	pageNo uint32
	leaf   leafView
	slot   int
	low    int32
	lowOp  Operator
	high   int32
	highOp Operator
}

func lowQualifies(k, low int32, op Operator) bool {
	if op == GT {
		return k > low
	}
	return k >= low
}

func highQualifies(k, high int32, op Operator) bool {
	if op == LT {
		return k < high
	}
	return k <= high
}

func qualifies(k int32, low int32, lowOp Operator, high int32, highOp Operator) bool {
	return lowQualifies(k, low, lowOp) && highQualifies(k, high, highOp)
}

// StartScan positions the scan at the first leaf entry satisfying the
// predicate. A prior active scan is ended implicitly.
func (ix *Index) StartScan(low int32, lowOp Operator, high int32, highOp Operator) error {
	if ix.scan != nil {
		ix.buf.UnpinPage(ix.scan.pageNo, false)
		ix.scan = nil
	}

	if !isLowOp(lowOp) || !isHighOp(highOp) {
		return ErrBadOpcodes
	}
	if low > high {
		return ErrBadScanrange
	}

	leafPageNo, err := ix.descendToFirstLeaf(low)
	if err != nil {
		return err
	}

	pg, err := ix.buf.PinPage(leafPageNo)
	if err != nil {
		return err
	}

	for {
		leaf := asLeaf(pg)
		n := leaf.occupied()
		slot := 0
		for slot < n {
			k := leaf.key(slot)
			if qualifies(k, low, lowOp, high, highOp) {
				ix.scan = &scanState{pageNo: pg.No, leaf: leaf, slot: slot, low: low, lowOp: lowOp, high: high, highOp: highOp}
				return nil
			}
			if !highQualifies(k, high, highOp) {
				ix.buf.UnpinPage(pg.No, false)
				return ErrNoSuchKeyFound
			}
			slot++
		}

		next := leaf.rightSibling()
		ix.buf.UnpinPage(pg.No, false)
		if next == 0 {
			return ErrNoSuchKeyFound
		}
		pg, err = ix.buf.PinPage(next)
		if err != nil {
			return err
		}
	}
}

// descendToFirstLeaf walks from the root to the leftmost leaf whose
// subtree can contain a key satisfying the low bound.
func (ix *Index) descendToFirstLeaf(low int32) (uint32, error) {
	cur := ix.meta.rootPageNo
	isLeaf := ix.meta.rootIsLeaf

	for !isLeaf {
		pg, err := ix.buf.PinPage(cur)
		if err != nil {
			return 0, err
		}
		branch := asBranch(pg)
		i := branch.occupiedChildren() - 1
		for i > 0 && branch.key(i-1) >= low {
			i--
		}
		child := branch.child(i)
		childIsLeaf := branch.level() == 1
		if err := ix.buf.UnpinPage(cur, false); err != nil {
			return 0, err
		}
		cur, isLeaf = child, childIsLeaf
	}
	return cur, nil
}

// ScanNext yields the next qualifying rid or a terminal error.
func (ix *Index) ScanNext() (RID, error) {
	if ix.scan == nil {
		return RID{}, ErrScanNotInitialized
	}
	st := ix.scan

	for {
		n := st.leaf.occupied()
		if st.slot < n {
			break
		}
		next := st.leaf.rightSibling()
		if err := ix.buf.UnpinPage(st.pageNo, false); err != nil {
			ix.scan = nil
			return RID{}, err
		}
		if next == 0 {
			ix.scan = nil
			return RID{}, ErrIndexScanCompleted
		}
		pg, err := ix.buf.PinPage(next)
		if err != nil {
			ix.scan = nil
			return RID{}, err
		}
		st.pageNo = pg.No
		st.leaf = asLeaf(pg)
		st.slot = 0
	}

	k := st.leaf.key(st.slot)
	if !qualifies(k, st.low, st.lowOp, st.high, st.highOp) {
		ix.buf.UnpinPage(st.pageNo, false)
		ix.scan = nil
		return RID{}, ErrIndexScanCompleted
	}
	rid := st.leaf.rid(st.slot)
	st.slot++
	return rid, nil
}

// EndScan releases the current scan's pinned leaf, if any.
func (ix *Index) EndScan() error {
	if ix.scan == nil {
		return ErrScanNotInitialized
	}
	err := ix.buf.UnpinPage(ix.scan.pageNo, false)
	ix.scan = nil
	return err
}
