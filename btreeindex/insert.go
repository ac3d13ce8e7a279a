package btreeindex

// InsertEntry places (key, rid) into the tree, preserving I1–I5 and
// possibly growing the tree height by one. Duplicates are permitted.
func (ix *Index) InsertEntry(key int32, rid RID) error {
	rootPageNo := ix.meta.rootPageNo
	promo, err := ix.insertRecurse(rootPageNo, ix.meta.rootIsLeaf, key, rid)
	if err != nil {
		return err
	}
	if promo != nil {
		return ix.newRoot(rootPageNo, *promo)
	}
	return nil
}

// chooseChild picks the child subtree covering key: scan children from
// the right to the first occupied one, then walk left while the
// separator to its left still exceeds key.
func chooseChild(b branchView, key int32) int {
	k := b.occupiedChildren() - 1
	for k > 0 && b.key(k-1) > key {
		k--
	}
	return k
}

func (ix *Index) insertRecurse(pageNo uint32, isLeaf bool, key int32, rid RID) (*promotion, error) {
	pg, err := ix.buf.PinPage(pageNo)
	if err != nil {
		return nil, err
	}

	if isLeaf {
		leaf := asLeaf(pg)
		if !leaf.isFull() {
			leaf.insert(key, rid)
			return nil, ix.buf.UnpinPage(pageNo, true)
		}
		return ix.leafSplit(pageNo, leaf, key, rid)
	}

	branch := asBranch(pg)
	childIdx := chooseChild(branch, key)
	childPageNo := branch.child(childIdx)
	childIsLeaf := branch.level() == 1

	childPromo, err := ix.insertRecurse(childPageNo, childIsLeaf, key, rid)
	if err != nil {
		ix.buf.UnpinPage(pageNo, false)
		return nil, err
	}
	if childPromo == nil {
		return nil, ix.buf.UnpinPage(pageNo, false)
	}

	if !branch.isFull() {
		branch.insert(childPromo.key, childPromo.newPageNo)
		return nil, ix.buf.UnpinPage(pageNo, true)
	}
	return ix.branchSplit(pageNo, branch, *childPromo)
}

// leafSplit implements spec.md §4.2's leaf_split: compute the midpoint,
// nudge it by one on odd capacity when the incoming key falls on the
// far side, move the upper half to a fresh sibling, link right_sibling
// pointers, then place the incoming entry on whichever side it belongs.
func (ix *Index) leafSplit(oldPageNo uint32, old leafView, key int32, rid RID) (*promotion, error) {
	newPg, err := ix.buf.AllocPage()
	if err != nil {
		ix.buf.UnpinPage(oldPageNo, false)
		return nil, err
	}
	newPageNo := newPg.No
	newLeaf := asLeaf(newPg)
	newLeaf.initEmpty()

	split := leafCapacity / 2
	if leafCapacity%2 == 1 && key > old.key(split) {
		split++
	}

	for i, j := split, 0; i < leafCapacity; i, j = i+1, j+1 {
		newLeaf.setKey(j, old.key(i))
		newLeaf.setRID(j, old.rid(i))
		old.clearSlot(i)
	}

	newLeaf.setRightSibling(old.rightSibling())
	old.setRightSibling(newPageNo)

	if split > 0 && key < old.key(split-1) {
		old.insert(key, rid)
	} else {
		newLeaf.insert(key, rid)
	}

	promo := &promotion{key: newLeaf.key(0), newPageNo: newPageNo}

	if err := ix.buf.UnpinPage(oldPageNo, true); err != nil {
		return nil, err
	}
	if err := ix.buf.UnpinPage(newPageNo, true); err != nil {
		return nil, err
	}
	return promo, nil
}

// branchSplit implements spec.md §4.2's branch_split. The zero-sentinel
// bookkeeping below deliberately leaves old.child[index] untouched —
// it is the left child of the separator staying behind in old, not a
// moved pointer (see the split-arithmetic design note).
func (ix *Index) branchSplit(oldPageNo uint32, old branchView, c promotion) (*promotion, error) {
	newPg, err := ix.buf.AllocPage()
	if err != nil {
		ix.buf.UnpinPage(oldPageNo, false)
		return nil, err
	}
	newPageNo := newPg.No
	newBranch := asBranch(newPg)
	newBranch.initEmpty(old.level())

	mid := branchCapacity / 2
	index := mid
	if branchCapacity%2 == 0 && c.key < old.key(mid) {
		index = mid - 1
	}

	sepKey := old.key(index)

	newBranch.setChild(0, old.child(index+1))
	for i, j := index+1, 0; i < branchCapacity; i, j = i+1, j+1 {
		newBranch.setKey(j, old.key(i))
		newBranch.setChild(j+1, old.child(i+1))
	}

	// Zero what actually moved: keys from index onward (including the
	// promoted slot) and children from index+1 onward. old.child(index)
	// is the separator's surviving left child and is left alone.
	for i := index; i < branchCapacity; i++ {
		old.setKey(i, 0)
	}
	for i := index + 1; i <= branchCapacity; i++ {
		old.setChild(i, 0)
	}

	if c.key < sepKey {
		old.insert(c.key, c.newPageNo)
	} else {
		newBranch.insert(c.key, c.newPageNo)
	}

	promo := &promotion{key: sepKey, newPageNo: newPageNo}

	if err := ix.buf.UnpinPage(oldPageNo, true); err != nil {
		return nil, err
	}
	if err := ix.buf.UnpinPage(newPageNo, true); err != nil {
		return nil, err
	}
	return promo, nil
}

// newRoot allocates a fresh branch page over old_root_page and the
// promoted sibling, then atomically repoints the meta page's root.
func (ix *Index) newRoot(oldRootPageNo uint32, promo promotion) error {
	wasLeafRoot := ix.meta.rootIsLeaf

	newPg, err := ix.buf.AllocPage()
	if err != nil {
		return err
	}
	newRootPageNo := newPg.No
	root := asBranch(newPg)
	level := int32(0)
	if wasLeafRoot {
		level = 1
	}
	root.initEmpty(level)
	root.setKey(0, promo.key)
	root.setChild(0, oldRootPageNo)
	root.setChild(1, promo.newPageNo)

	metaPg, err := ix.buf.PinPage(0)
	if err != nil {
		ix.buf.UnpinPage(newRootPageNo, true)
		return err
	}
	ix.meta.rootPageNo = newRootPageNo
	ix.meta.rootIsLeaf = false
	if err := writeMeta(metaPg, ix.meta); err != nil {
		return err
	}

	if err := ix.buf.UnpinPage(0, true); err != nil {
		return err
	}
	return ix.buf.UnpinPage(newRootPageNo, true)
}
