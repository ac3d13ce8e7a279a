package btreeindex

import (
	"encoding/binary"

	"bptreeindex/page"
)

// leafView is a zero-copy accessor over a pinned page's bytes,
// reinterpreting it as a leaf node: { key[L], rid[L], right_sibling }.
// Whether a page is read as a leaf or a branch is determined by the
// caller's descent context (level / first_root_page), never by an
// in-band tag, per spec.md §9.
type leafView struct {
	pg *page.Page
}

func asLeaf(pg *page.Page) leafView { return leafView{pg: pg} }

func (l leafView) key(i int) int32 {
	return int32(binary.LittleEndian.Uint32(l.pg.Data[leafOffKeys+i*sizeofI32:]))
}

func (l leafView) setKey(i int, k int32) {
	binary.LittleEndian.PutUint32(l.pg.Data[leafOffKeys+i*sizeofI32:], uint32(k))
}

func (l leafView) rid(i int) RID {
	base := leafOffRIDs + i*sizeofRID
	return RID{
		PageNo: binary.LittleEndian.Uint32(l.pg.Data[base:]),
		Slot:   binary.LittleEndian.Uint32(l.pg.Data[base+sizeofU32:]),
	}
}

func (l leafView) setRID(i int, r RID) {
	base := leafOffRIDs + i*sizeofRID
	binary.LittleEndian.PutUint32(l.pg.Data[base:], r.PageNo)
	binary.LittleEndian.PutUint32(l.pg.Data[base+sizeofU32:], r.Slot)
}

func (l leafView) clearSlot(i int) {
	l.setKey(i, 0)
	l.setRID(i, RID{})
}

func (l leafView) rightSibling() uint32 {
	return binary.LittleEndian.Uint32(l.pg.Data[leafOffRightSibling:])
}

func (l leafView) setRightSibling(pageNo uint32) {
	binary.LittleEndian.PutUint32(l.pg.Data[leafOffRightSibling:], pageNo)
}

func (l leafView) initEmpty() {
	for i := 0; i < leafCapacity; i++ {
		l.clearSlot(i)
	}
	l.setRightSibling(0)
}

// occupied is the count of slots holding a real entry — I5: the first
// empty slot is the smallest i with rid[i].PageNo == 0.
func (l leafView) occupied() int {
	for i := 0; i < leafCapacity; i++ {
		if l.rid(i).PageNo == 0 {
			return i
		}
	}
	return leafCapacity
}

func (l leafView) isFull() bool {
	return l.rid(leafCapacity - 1).PageNo != 0
}

// insert maintains I1: find the first occupied slot from the right
// whose key exceeds the new key, shift it and everything above up by
// one, then place the new entry. Assumes the leaf is not full.
func (l leafView) insert(key int32, rid RID) {
	n := l.occupied()
	pos := n
	for pos > 0 && l.key(pos-1) > key {
		pos--
	}
	for i := n; i > pos; i-- {
		l.setKey(i, l.key(i-1))
		l.setRID(i, l.rid(i-1))
	}
	l.setKey(pos, key)
	l.setRID(pos, rid)
	l.pg.Dirty = true
}
