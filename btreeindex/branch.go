package btreeindex

import (
	"encoding/binary"

	"bptreeindex/page"
)

// branchView is a zero-copy accessor over a pinned page's bytes,
// reinterpreting it as a branch (non-leaf) node:
// { level, key[B], child[B+1] }.
type branchView struct {
	pg *page.Page
}

func asBranch(pg *page.Page) branchView { return branchView{pg: pg} }

func (b branchView) level() int32 {
	return int32(binary.LittleEndian.Uint32(b.pg.Data[branchOffLevel:]))
}

func (b branchView) setLevel(lv int32) {
	binary.LittleEndian.PutUint32(b.pg.Data[branchOffLevel:], uint32(lv))
}

func (b branchView) key(i int) int32 {
	return int32(binary.LittleEndian.Uint32(b.pg.Data[branchOffKeys+i*sizeofI32:]))
}

func (b branchView) setKey(i int, k int32) {
	binary.LittleEndian.PutUint32(b.pg.Data[branchOffKeys+i*sizeofI32:], uint32(k))
}

func (b branchView) child(i int) uint32 {
	return binary.LittleEndian.Uint32(b.pg.Data[branchOffChildren+i*sizeofU32:])
}

func (b branchView) setChild(i int, pageNo uint32) {
	binary.LittleEndian.PutUint32(b.pg.Data[branchOffChildren+i*sizeofU32:], pageNo)
}

func (b branchView) initEmpty(level int32) {
	b.setLevel(level)
	for i := 0; i < branchCapacity; i++ {
		b.setKey(i, 0)
	}
	for i := 0; i < branchCapacity+1; i++ {
		b.setChild(i, 0)
	}
}

// occupiedChildren is the first i with child[i] == 0 — I5's sentinel
// for branch occupancy.
func (b branchView) occupiedChildren() int {
	for i := 0; i <= branchCapacity; i++ {
		if b.child(i) == 0 {
			return i
		}
	}
	return branchCapacity + 1
}

func (b branchView) occupiedKeys() int {
	n := b.occupiedChildren()
	if n == 0 {
		return 0
	}
	return n - 1
}

func (b branchView) isFull() bool {
	return b.child(branchCapacity) != 0
}

// insert maintains I2: find the rightmost occupied key position, shift
// keys and the upper child pointer up by one while the new key is
// smaller, place the new separator and child in the freed slot. The
// incoming page always becomes the right child of the inserted key.
// Assumes the branch is not full.
func (b branchView) insert(key int32, childPageNo uint32) {
	n := b.occupiedKeys()
	pos := n
	for pos > 0 && b.key(pos-1) > key {
		b.setKey(pos, b.key(pos-1))
		b.setChild(pos+1, b.child(pos))
		pos--
	}
	b.setKey(pos, key)
	b.setChild(pos+1, childPageNo)
	b.pg.Dirty = true
}
