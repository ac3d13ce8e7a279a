package heap

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bptreeindex/btreeindex"
)

func TestScannerVisitsEveryInsertedRow(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "bptreeindex_heap_scan_test")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, t.Name()+".heap")
	os.Remove(path)
	t.Cleanup(func() { os.Remove(path) })

	hf, err := Open(path, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer hf.Close()

	var want [][]byte
	row := bytes.Repeat([]byte("z"), 150)
	for i := 0; i < 60; i++ {
		if _, err := hf.InsertRow(row); err != nil {
			t.Fatalf("InsertRow(%d): %v", i, err)
		}
		want = append(want, row)
	}

	s := NewScanner(hf)
	count := 0
	seen := map[btreeindex.RID]bool{}
	for {
		rid, record, err := s.Next()
		if errors.Is(err, btreeindex.ErrEndOfFile) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if seen[rid] {
			t.Fatalf("rid %+v visited twice", rid)
		}
		seen[rid] = true
		if !bytes.Equal(record, row) {
			t.Errorf("record at %+v = %q, want %q", rid, record, row)
		}
		count++
	}
	if count != len(want) {
		t.Fatalf("scanned %d rows, want %d", count, len(want))
	}
}

func TestScannerOnEmptyHeap(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "bptreeindex_heap_scan_test")
	os.MkdirAll(dir, 0755)
	path := filepath.Join(dir, t.Name()+".heap")
	os.Remove(path)
	t.Cleanup(func() { os.Remove(path) })

	hf, err := Open(path, true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer hf.Close()

	s := NewScanner(hf)
	if _, _, err := s.Next(); !errors.Is(err, btreeindex.ErrEndOfFile) {
		t.Fatalf("Next on empty heap = %v, want ErrEndOfFile", err)
	}
}
