// Package pagedfile implements a single OS file accessed exclusively in
// fixed page.Size blocks — the bottom layer the buffer manager reads
// through and writes through.
package pagedfile

import (
	"errors"
	"fmt"
	"os"

	"bptreeindex/page"
)

// ErrFileNotFound is returned by Open when createIfMissing is false and
// the target path does not exist.
var ErrFileNotFound = errors.New("pagedfile: file not found")

// File is a page-addressed view over one OS file.
type File struct {
	path      string
	f         *os.File
	pageCount uint32
}

// Open opens path, creating it if createIfMissing is true and it does
// not yet exist. An existing file's size must be a whole multiple of
// page.Size.
func Open(path string, createIfMissing bool) (*File, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("pagedfile: stat %s: %w", path, err)
		}
		if !createIfMissing {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
	}

	flags := os.O_RDWR
	if createIfMissing {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("pagedfile: open %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pagedfile: stat %s: %w", path, err)
	}
	if stat.Size()%page.Size != 0 {
		f.Close()
		return nil, fmt.Errorf("pagedfile: %s size %d is not a multiple of page size %d", path, stat.Size(), page.Size)
	}

	pageCount := uint32(stat.Size() / page.Size)
	fmt.Printf("[pagedfile] OpenFile: path=%s pageCount=%d\n", path, pageCount)

	return &File{
		path:      path,
		f:         f,
		pageCount: pageCount,
	}, nil
}

// PageCount returns the number of pages currently allocated in the file.
func (pf *File) PageCount() uint32 {
	return pf.pageCount
}

// ReadPage reads page pageNo into data, which must be page.Size bytes.
// Reading a page beyond the current end of file is an error — callers
// must allocate with AllocatePage first.
func (pf *File) ReadPage(pageNo uint32, data []byte) error {
	if pageNo >= pf.pageCount {
		return fmt.Errorf("pagedfile: page %d out of range (count=%d)", pageNo, pf.pageCount)
	}
	n, err := pf.f.ReadAt(data[:page.Size], int64(pageNo)*page.Size)
	if err != nil {
		return fmt.Errorf("pagedfile: read page %d: %w", pageNo, err)
	}
	if n != page.Size {
		return fmt.Errorf("pagedfile: short read on page %d: got %d bytes", pageNo, n)
	}
	return nil
}

// WritePage writes data (page.Size bytes) to page pageNo.
func (pf *File) WritePage(pageNo uint32, data []byte) error {
	if pageNo >= pf.pageCount {
		return fmt.Errorf("pagedfile: page %d out of range (count=%d)", pageNo, pf.pageCount)
	}
	if _, err := pf.f.WriteAt(data[:page.Size], int64(pageNo)*page.Size); err != nil {
		return fmt.Errorf("pagedfile: write page %d: %w", pageNo, err)
	}
	return nil
}

// AllocatePage grows the file by one page of zeros and returns its
// page number.
func (pf *File) AllocatePage() (uint32, error) {
	pageNo := pf.pageCount
	var zero [page.Size]byte
	if _, err := pf.f.WriteAt(zero[:], int64(pageNo)*page.Size); err != nil {
		return 0, fmt.Errorf("pagedfile: allocate page %d: %w", pageNo, err)
	}
	pf.pageCount++
	return pageNo, nil
}

// Sync flushes OS buffers to stable storage.
func (pf *File) Sync() error {
	if err := pf.f.Sync(); err != nil {
		return fmt.Errorf("pagedfile: sync: %w", err)
	}
	return nil
}

// Close closes the underlying OS file.
func (pf *File) Close() error {
	if err := pf.f.Close(); err != nil {
		return fmt.Errorf("pagedfile: close: %w", err)
	}
	return nil
}
