package btreeindex

import (
	"encoding/binary"
	"fmt"
	"strings"

	"bptreeindex/page"
)

// metaInfo is the decoded contents of page 0, grounded on the
// IndexMetaInfo layout in original_source/src/btree.h, adapted to the
// relation-name/offset/type/root fields spec.md §3 specifies.
type metaInfo struct {
	relationName string
	attrOffset   int32
	attrType     Datatype
	rootPageNo   uint32
	rootIsLeaf   bool
}

func readMeta(pg *page.Page) metaInfo {
	raw := pg.Data[metaOffRelationName : metaOffRelationName+metaRelationNameSize]
	name := strings.TrimRight(string(raw), "\x00")
	return metaInfo{
		relationName: name,
		attrOffset:   int32(binary.LittleEndian.Uint32(pg.Data[metaOffAttrOffset:])),
		attrType:     Datatype(binary.LittleEndian.Uint32(pg.Data[metaOffAttrType:])),
		rootPageNo:   binary.LittleEndian.Uint32(pg.Data[metaOffRootPageNo:]),
		rootIsLeaf:   binary.LittleEndian.Uint32(pg.Data[metaOffRootIsLeaf:]) != 0,
	}
}

func writeMeta(pg *page.Page, m metaInfo) error {
	if len(m.relationName) > metaRelationNameSize {
		return fmt.Errorf("btreeindex: relation name %q longer than %d bytes", m.relationName, metaRelationNameSize)
	}
	for i := metaOffRelationName; i < metaOffRelationName+metaRelationNameSize; i++ {
		pg.Data[i] = 0
	}
	copy(pg.Data[metaOffRelationName:], m.relationName)
	binary.LittleEndian.PutUint32(pg.Data[metaOffAttrOffset:], uint32(m.attrOffset))
	binary.LittleEndian.PutUint32(pg.Data[metaOffAttrType:], uint32(m.attrType))
	binary.LittleEndian.PutUint32(pg.Data[metaOffRootPageNo:], m.rootPageNo)
	leafFlag := uint32(0)
	if m.rootIsLeaf {
		leafFlag = 1
	}
	binary.LittleEndian.PutUint32(pg.Data[metaOffRootIsLeaf:], leafFlag)
	pg.Dirty = true
	return nil
}
