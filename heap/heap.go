// Package heap implements the page-organized row store used as the
// source relation a btreeindex.Index is bulk-built from: a header +
// backward-growing slot directory per page, and a full-file Scanner.
package heap

import (
	"encoding/binary"
	"fmt"

	"bptreeindex/btreeindex"
	"bptreeindex/buffer"
	"bptreeindex/page"
	"bptreeindex/pagedfile"

	"github.com/dgraph-io/ristretto/v2"
)

// Heap page layout (little-endian), grounded on the teacher's
// heap_page.go slotted-page format, trimmed of the WAL/LSN and
// multi-file fields this repository's bulk-load-only heap has no use
// for:
//
//	Offset  Size  Field
//	0       2     RecordEndPtr    — first free byte after the last record
//	2       2     SlotRegionStart — first byte of the slot directory
//	4       2     SlotCount       — total slot entries
//	6            headerSize
//
// Records grow forward from headerSize; the slot directory grows
// backward from page.Size. A slot entry is 4 bytes: offset, length.
const (
	offRecordEndPtr    = 0
	offSlotRegionStart = 2
	offSlotCount       = 4
	headerSize         = 6
	slotSize           = 4
)

func initPage(pg *page.Page) {
	for i := headerSize; i < page.Size; i++ {
		pg.Data[i] = 0
	}
	binary.LittleEndian.PutUint16(pg.Data[offRecordEndPtr:], uint16(headerSize))
	binary.LittleEndian.PutUint16(pg.Data[offSlotRegionStart:], uint16(page.Size))
	binary.LittleEndian.PutUint16(pg.Data[offSlotCount:], 0)
	pg.Dirty = true
}

func recordEndPtr(pg *page.Page) uint16    { return binary.LittleEndian.Uint16(pg.Data[offRecordEndPtr:]) }
func setRecordEndPtr(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offRecordEndPtr:], v)
}
func slotRegionStart(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[offSlotRegionStart:])
}
func setSlotRegionStart(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offSlotRegionStart:], v)
}
func slotCount(pg *page.Page) uint16 { return binary.LittleEndian.Uint16(pg.Data[offSlotCount:]) }
func setSlotCount(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offSlotCount:], v)
}

func freeSpace(pg *page.Page) int {
	avail := int(slotRegionStart(pg)) - int(recordEndPtr(pg)) - slotSize
	if avail < 0 {
		return 0
	}
	return avail
}

func slotByteOffset(i uint16) int {
	return page.Size - (int(i)+1)*slotSize
}

func readSlot(pg *page.Page, i uint16) (offset, length uint16) {
	base := slotByteOffset(i)
	return binary.LittleEndian.Uint16(pg.Data[base:]), binary.LittleEndian.Uint16(pg.Data[base+2:])
}

func writeSlot(pg *page.Page, i uint16, offset, length uint16) {
	base := slotByteOffset(i)
	binary.LittleEndian.PutUint16(pg.Data[base:], offset)
	binary.LittleEndian.PutUint16(pg.Data[base+2:], length)
}

// insertRecord appends data to pg and returns its slot index. Unlike
// the teacher's heap page, there is no tombstone reuse path — this
// heap is insert-then-scan only, never updated or deleted from (see
// DESIGN.md).
func insertRecord(pg *page.Page, data []byte) (uint16, error) {
	recLen := uint16(len(data))
	if int(recLen) > freeSpace(pg) {
		return 0, fmt.Errorf("heap: need %d bytes, only %d available", recLen, freeSpace(pg))
	}
	slot := slotCount(pg)
	offset := recordEndPtr(pg)
	copy(pg.Data[offset:], data)
	setRecordEndPtr(pg, offset+recLen)
	writeSlot(pg, slot, offset, recLen)
	setSlotRegionStart(pg, slotRegionStart(pg)-slotSize)
	setSlotCount(pg, slot+1)
	pg.Dirty = true
	return slot, nil
}

// File is a heap file: a sequence of slotted pages holding variable-
// length records, addressed by btreeindex.RID.
type File struct {
	buf        *buffer.Manager
	pageCache  *ristretto.Cache[uint32, [page.Size]byte]
	lastPageNo uint32
	hasPage    bool
}

// Open opens or creates the heap file at path.
func Open(path string, createIfMissing bool) (*File, error) {
	pf, err := pagedfile.Open(path, createIfMissing)
	if err != nil {
		return nil, err
	}
	buf := buffer.New(pf, 0)

	cache, err := ristretto.NewCache(&ristretto.Config[uint32, [page.Size]byte]{
		NumCounters: 1e4,
		MaxCost:     1 << 24, // 16MiB of cached heap pages
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("heap: create page cache: %w", err)
	}

	hf := &File{buf: buf, pageCache: cache}
	if pf.PageCount() > 0 {
		hf.lastPageNo = pf.PageCount() - 1
		hf.hasPage = true
	}
	return hf, nil
}

// InsertRow appends rowData to the last page with room, allocating a
// fresh page when none has space, and returns its RID.
func (hf *File) InsertRow(rowData []byte) (btreeindex.RID, error) {
	maxRowSize := page.Size - headerSize - slotSize
	if len(rowData) > maxRowSize {
		return btreeindex.RID{}, fmt.Errorf("heap: row of %d bytes exceeds max %d", len(rowData), maxRowSize)
	}

	if hf.hasPage {
		pg, err := hf.buf.PinPage(hf.lastPageNo)
		if err != nil {
			return btreeindex.RID{}, err
		}
		if freeSpace(pg) >= len(rowData)+slotSize {
			slot, err := insertRecord(pg, rowData)
			if err != nil {
				hf.buf.UnpinPage(pg.No, false)
				return btreeindex.RID{}, err
			}
			hf.pageCache.Del(pg.No)
			if err := hf.buf.UnpinPage(pg.No, true); err != nil {
				return btreeindex.RID{}, err
			}
			return btreeindex.RID{PageNo: pg.No, Slot: uint32(slot)}, nil
		}
		if err := hf.buf.UnpinPage(pg.No, false); err != nil {
			return btreeindex.RID{}, err
		}
	}

	pg, err := hf.buf.AllocPage()
	if err != nil {
		return btreeindex.RID{}, err
	}
	initPage(pg)
	slot, err := insertRecord(pg, rowData)
	if err != nil {
		hf.buf.UnpinPage(pg.No, false)
		return btreeindex.RID{}, err
	}
	hf.lastPageNo = pg.No
	hf.hasPage = true
	if err := hf.buf.UnpinPage(pg.No, true); err != nil {
		return btreeindex.RID{}, err
	}
	return btreeindex.RID{PageNo: pg.No, Slot: uint32(slot)}, nil
}

// Flush writes every dirty heap page to disk.
func (hf *File) Flush() error {
	return hf.buf.FlushFile()
}

// Close flushes and closes the underlying file.
func (hf *File) Close() error {
	hf.pageCache.Close()
	return hf.buf.Close()
}

// readPageCached returns a read-only copy of pageNo's bytes, serving it
// from the ristretto cache when present. This sits outside the buffer
// manager's pin accounting on purpose — see SPEC_FULL.md §6 — so a
// cache hit here never touches a pin count.
func (hf *File) readPageCached(pageNo uint32) ([page.Size]byte, error) {
	if data, ok := hf.pageCache.Get(pageNo); ok {
		return data, nil
	}
	pg, err := hf.buf.PinPage(pageNo)
	if err != nil {
		return [page.Size]byte{}, err
	}
	data := pg.Data
	hf.pageCache.SetWithTTL(pageNo, data, 1, 0)
	if err := hf.buf.UnpinPage(pageNo, false); err != nil {
		return [page.Size]byte{}, err
	}
	return data, nil
}
