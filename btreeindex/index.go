package btreeindex

import (
	"errors"
	"fmt"
	"path/filepath"

	"bptreeindex/buffer"
	"bptreeindex/page"
	"bptreeindex/pagedfile"
)

// bufferManager is the buffer manager interface this index consumes,
// matching spec.md §6 exactly. buffer.Manager satisfies it.
type bufferManager interface {
	PinPage(pageNo uint32) (*page.Page, error)
	AllocPage() (*page.Page, error)
	UnpinPage(pageNo uint32, dirty bool) error
	FlushFile() error
}

// RecordScanner is the input-record scanner consumed during bulk load:
// it yields (RID, record bytes) pairs and terminates with ErrEndOfFile.
type RecordScanner interface {
	Next() (RID, []byte, error)
}

// Index is a disk-resident B+ tree index over one integer attribute.
type Index struct {
	buf  bufferManager
	meta metaInfo
	scan *scanState
}

// FileName derives the on-disk index file name from the relation name
// and attribute byte offset, per spec.md §4.4.
func FileName(relationName string, attrByteOffset int32) string {
	return fmt.Sprintf("%s.%d", relationName, attrByteOffset)
}

// Open constructs an index over relationName's attribute at
// attrByteOffset, deriving its on-disk path under indexDir. If the file
// already exists, its meta page is verified against the requested
// relation/offset/type (ErrBadIndexInfo on mismatch) and adopted. If it
// does not exist, pagedfile.ErrFileNotFound is caught here and redirected
// into the create path: meta and the initial leaf root page are
// allocated, and — if scanner is non-nil — every record in it is
// inserted before the first flush. Per spec.md §4.4/§7, a missing file
// never surfaces as an error from Open; OpenExisting is the variant for
// callers that want that failure instead.
func Open(indexDir, relationName string, attrByteOffset int32, attrType Datatype, scanner RecordScanner) (*Index, error) {
	buf, existing, err := openOrCreateBuffer(indexDir, relationName, attrByteOffset)
	if err != nil {
		return nil, err
	}
	if existing {
		return adoptExisting(buf, relationName, attrByteOffset, attrType)
	}
	return createFresh(buf, relationName, attrByteOffset, attrType, scanner)
}

// OpenExisting opens an index that must already be on disk, returning
// ErrFileNotFound instead of creating one — the read-only counterpart to
// Open, for callers such as a scan tool that should never conjure an
// empty index into existence.
func OpenExisting(indexDir, relationName string, attrByteOffset int32, attrType Datatype) (*Index, error) {
	indexPath := filepath.Join(indexDir, FileName(relationName, attrByteOffset))
	pf, err := pagedfile.Open(indexPath, false)
	if err != nil {
		if errors.Is(err, pagedfile.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, indexPath)
		}
		return nil, err
	}
	return adoptExisting(buffer.New(pf, 0), relationName, attrByteOffset, attrType)
}

// openOrCreateBuffer derives relationName/attrByteOffset's index path
// under indexDir and opens it, creating the file when
// pagedfile.Open reports it missing. existing reports which path was
// taken.
func openOrCreateBuffer(indexDir, relationName string, attrByteOffset int32) (bufferManager, bool, error) {
	indexPath := filepath.Join(indexDir, FileName(relationName, attrByteOffset))

	pf, err := pagedfile.Open(indexPath, false)
	if err == nil {
		return buffer.New(pf, 0), true, nil
	}
	if !errors.Is(err, pagedfile.ErrFileNotFound) {
		return nil, false, err
	}

	pf, err = pagedfile.Open(indexPath, true)
	if err != nil {
		return nil, false, err
	}
	return buffer.New(pf, 0), false, nil
}

func adoptExisting(buf bufferManager, relationName string, attrByteOffset int32, attrType Datatype) (*Index, error) {
	ix := &Index{buf: buf}

	metaPg, err := buf.PinPage(0)
	if err != nil {
		return nil, err
	}
	ix.meta = readMeta(metaPg)
	if err := buf.UnpinPage(0, false); err != nil {
		return nil, err
	}
	if ix.meta.relationName != relationName || ix.meta.attrOffset != attrByteOffset || ix.meta.attrType != attrType {
		return nil, ErrBadIndexInfo
	}
	return ix, nil
}

func createFresh(buf bufferManager, relationName string, attrByteOffset int32, attrType Datatype, scanner RecordScanner) (*Index, error) {
	ix := &Index{buf: buf}

	metaPg, err := buf.AllocPage()
	if err != nil {
		return nil, err
	}
	if metaPg.No != 0 {
		return nil, fmt.Errorf("btreeindex: expected meta page 0, got %d", metaPg.No)
	}

	rootPg, err := buf.AllocPage()
	if err != nil {
		return nil, err
	}
	asLeaf(rootPg).initEmpty()

	ix.meta = metaInfo{
		relationName: relationName,
		attrOffset:   attrByteOffset,
		attrType:     attrType,
		rootPageNo:   rootPg.No,
		rootIsLeaf:   true,
	}
	if err := writeMeta(metaPg, ix.meta); err != nil {
		return nil, err
	}
	if err := buf.UnpinPage(metaPg.No, true); err != nil {
		return nil, err
	}
	if err := buf.UnpinPage(rootPg.No, true); err != nil {
		return nil, err
	}

	if scanner != nil {
		if err := ix.bulkLoad(scanner); err != nil {
			return nil, err
		}
	}
	if err := buf.FlushFile(); err != nil {
		return nil, err
	}
	return ix, nil
}

// bulkLoad reads every (rid, record) pair from scanner and inserts
// attrByteOffset's int32 field, stopping cleanly on ErrEndOfFile — the
// catch-EOF bulk-load loop spec.md §8 (from original_source) describes.
func (ix *Index) bulkLoad(scanner RecordScanner) error {
	for {
		rid, record, err := scanner.Next()
		if err != nil {
			if isEndOfFile(err) {
				return nil
			}
			return err
		}
		key, err := decodeIntKey(record, ix.meta.attrOffset)
		if err != nil {
			return err
		}
		if err := ix.InsertEntry(key, rid); err != nil {
			return err
		}
	}
}

// Close flushes and releases the index. Per spec.md §4.4, the
// destructor must not throw — callers who want the error can call
// Flush directly first.
func (ix *Index) Close() {
	if ix.scan != nil {
		ix.buf.UnpinPage(ix.scan.pageNo, false)
		ix.scan = nil
	}
	_ = ix.buf.FlushFile()
}

// Flush writes every dirty page belonging to this index to disk.
func (ix *Index) Flush() error {
	return ix.buf.FlushFile()
}
