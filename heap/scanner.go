package heap

import (
	"bptreeindex/btreeindex"
	"bptreeindex/page"
)

// Scanner is the input-record scanner btreeindex.Open's bulk-load path
// consumes: it walks every live slot of every page in file order.
type Scanner struct {
	hf      *File
	pageNo  uint32
	lastNo  uint32
	slot    uint16
	started bool
}

// NewScanner opens a full-file scan over hf, starting at page 0.
func NewScanner(hf *File) *Scanner {
	last := uint32(0)
	if hf.hasPage {
		last = hf.lastPageNo
	}
	return &Scanner{hf: hf, lastNo: last}
}

// Next returns the next (RID, record) pair, or btreeindex.ErrEndOfFile
// once every page has been visited.
func (s *Scanner) Next() (btreeindex.RID, []byte, error) {
	if !s.started {
		s.started = true
		s.pageNo = 0
	}
	if !s.hf.hasPage {
		return btreeindex.RID{}, nil, btreeindex.ErrEndOfFile
	}

	for {
		if s.pageNo > s.lastNo {
			return btreeindex.RID{}, nil, btreeindex.ErrEndOfFile
		}
		data, err := s.hf.readPageCached(s.pageNo)
		if err != nil {
			return btreeindex.RID{}, nil, err
		}

		var pg page.Page
		pg.No = s.pageNo
		pg.Data = data
		count := slotCount(&pg)

		for s.slot < count {
			offset, length := readSlot(&pg, s.slot)
			if length == 0 {
				s.slot++
				continue
			}
			record := make([]byte, length)
			copy(record, pg.Data[offset:offset+length])
			rid := btreeindex.RID{PageNo: s.pageNo, Slot: uint32(s.slot)}
			s.slot++
			return rid, record, nil
		}

		s.pageNo++
		s.slot = 0
	}
}
