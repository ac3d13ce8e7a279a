// Package buffer implements a pin-tracked LRU buffer manager over a
// single pagedfile.File, mirroring the external interface spec.md §6
// requires of the index's buffer manager collaborator.
package buffer

import (
	"errors"
	"fmt"

	"bptreeindex/page"
	"bptreeindex/pagedfile"
)

// ErrPagesStillPinned is returned by FlushFile when one or more cached
// pages still have a nonzero pin count.
var ErrPagesStillPinned = errors.New("buffer: cannot flush, pages still pinned")

// Manager is a single-threaded, pin-tracked LRU cache of page.Page
// frames backed by one pagedfile.File. There is no internal locking:
// spec.md's concurrency model rules out concurrent callers.
type Manager struct {
	file    *pagedfile.File
	frames  map[uint32]*page.Page
	lru     []uint32 // least-recently-used first
	maxSize int
}

// New wraps file in a buffer manager that keeps at most maxSize pages
// cached at once (0 means unbounded — the manager never evicts).
func New(file *pagedfile.File, maxSize int) *Manager {
	return &Manager{
		file:    file,
		frames:  make(map[uint32]*page.Page),
		maxSize: maxSize,
	}
}

// PinPage returns the page, pinning it (incrementing PinCount). A cache
// miss reads through to the paged file first.
func (m *Manager) PinPage(pageNo uint32) (*page.Page, error) {
	if pg, ok := m.frames[pageNo]; ok {
		pg.PinCount++
		m.touch(pageNo)
		fmt.Printf("[buffer] HIT  pageNo=%d pinCount=%d\n", pageNo, pg.PinCount)
		return pg, nil
	}

	fmt.Printf("[buffer] MISS pageNo=%d — loading from disk\n", pageNo)
	pg := &page.Page{No: pageNo}
	if err := m.file.ReadPage(pageNo, pg.Data[:]); err != nil {
		return nil, fmt.Errorf("buffer: pin page %d: %w", pageNo, err)
	}
	pg.PinCount = 1

	if err := m.install(pg); err != nil {
		return nil, err
	}
	return pg, nil
}

// AllocPage allocates a fresh, zeroed page on the paged file, caches it
// pinned once and dirty, and returns it.
func (m *Manager) AllocPage() (*page.Page, error) {
	pageNo, err := m.file.AllocatePage()
	if err != nil {
		return nil, fmt.Errorf("buffer: alloc page: %w", err)
	}
	pg := &page.Page{No: pageNo, Dirty: true, PinCount: 1}
	if err := m.install(pg); err != nil {
		return nil, err
	}
	return pg, nil
}

// UnpinPage decrements the pin count of pageNo and ORs in dirty.
func (m *Manager) UnpinPage(pageNo uint32, dirty bool) error {
	pg, ok := m.frames[pageNo]
	if !ok {
		return fmt.Errorf("buffer: unpin page %d: not cached", pageNo)
	}
	if pg.PinCount > 0 {
		pg.PinCount--
	}
	if dirty {
		pg.Dirty = true
	}
	return nil
}

// FlushFile writes every dirty cached page to the paged file and syncs
// it. It refuses to run while any page remains pinned, matching
// spec.md §5's "flushFile is legal only when no pages of the file are
// pinned".
func (m *Manager) FlushFile() error {
	for _, pg := range m.frames {
		if pg.PinCount > 0 {
			return fmt.Errorf("%w: page %d has pin count %d", ErrPagesStillPinned, pg.No, pg.PinCount)
		}
	}
	fmt.Printf("[buffer] FLUSH %d cached pages\n", len(m.frames))
	for _, pg := range m.frames {
		if !pg.Dirty {
			continue
		}
		fmt.Printf("[buffer]   flushing pageNo=%d\n", pg.No)
		if err := m.file.WritePage(pg.No, pg.Data[:]); err != nil {
			return fmt.Errorf("buffer: flush page %d: %w", pg.No, err)
		}
		pg.Dirty = false
	}
	return m.file.Sync()
}

// Close flushes the file and closes it.
func (m *Manager) Close() error {
	if err := m.FlushFile(); err != nil {
		return err
	}
	return m.file.Close()
}

func (m *Manager) install(pg *page.Page) error {
	if m.maxSize > 0 && len(m.frames) >= m.maxSize {
		if err := m.evictLRU(); err != nil {
			return err
		}
	}
	m.frames[pg.No] = pg
	m.touch(pg.No)
	return nil
}

func (m *Manager) touch(pageNo uint32) {
	for i, id := range m.lru {
		if id == pageNo {
			m.lru = append(m.lru[:i], m.lru[i+1:]...)
			break
		}
	}
	m.lru = append(m.lru, pageNo)
}

func (m *Manager) evictLRU() error {
	for i, pageNo := range m.lru {
		pg := m.frames[pageNo]
		if pg == nil || pg.PinCount > 0 {
			continue
		}
		fmt.Printf("[buffer] EVICT pageNo=%d dirty=%v\n", pg.No, pg.Dirty)
		if pg.Dirty {
			if err := m.file.WritePage(pg.No, pg.Data[:]); err != nil {
				return fmt.Errorf("buffer: evict page %d: %w", pg.No, err)
			}
		}
		delete(m.frames, pageNo)
		m.lru = append(m.lru[:i], m.lru[i+1:]...)
		return nil
	}
	return fmt.Errorf("buffer: all cached pages are pinned, cannot evict")
}
