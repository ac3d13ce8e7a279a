package btreeindex

import "bptreeindex/page"

// Byte widths used to derive node capacities, named the way spec.md §3
// states the formulas rather than using unsafe.Sizeof on the Go types
// (the wire format is fixed regardless of struct layout).
const (
	sizeofI32 = 4
	sizeofU32 = 4
	sizeofRID = sizeofU32 + sizeofU32 // RID.PageNo, RID.Slot

	// leafCapacity (L) is the number of (key, rid) slots a leaf page
	// holds, after reserving trailing space for right_sibling.
	leafCapacity = (page.Size - sizeofU32) / (sizeofI32 + sizeofRID)

	// branchCapacity (B) is the number of separator keys a branch page
	// holds; it has B+1 child slots.
	branchCapacity = (page.Size - sizeofI32 - sizeofU32) / (sizeofI32 + sizeofU32)
)

// Meta page layout (page 0): relation name occupies a fixed 20-byte
// zero-padded field, per spec.md §3.
const (
	metaRelationNameSize = 20
	metaOffRelationName  = 0
	metaOffAttrOffset    = metaOffRelationName + metaRelationNameSize
	metaOffAttrType      = metaOffAttrOffset + sizeofI32
	metaOffRootPageNo    = metaOffAttrType + sizeofI32
	// metaOffRootIsLeaf persists whether the current root page is still
	// the original leaf root. A page's own bytes cannot safely carry
	// this tag (a leaf's key[0] and a branch's level overlap the same
	// offset and both are plain int32s), so it must live in the meta
	// page to survive a close/reopen — see DESIGN.md's reopen note.
	metaOffRootIsLeaf = metaOffRootPageNo + sizeofU32
)

// Leaf page layout: L keys, then L rids, then right_sibling.
const (
	leafOffKeys         = 0
	leafOffRIDs         = leafOffKeys + leafCapacity*sizeofI32
	leafOffRightSibling = leafOffRIDs + leafCapacity*sizeofRID
)

// Branch page layout: level, then B keys, then B+1 children.
const (
	branchOffLevel    = 0
	branchOffKeys     = branchOffLevel + sizeofI32
	branchOffChildren = branchOffKeys + branchCapacity*sizeofI32
)
