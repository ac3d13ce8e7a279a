// Run a range scan against a B+ tree index and print matching rids.
// Usage: go run ./cmd/scanindex <index-dir> <relation> <attr-offset> <low> <low-op> <high> <high-op>
// Ops: LT=0 LTE=1 GTE=2 GT=3
// Example: go run ./cmd/scanindex data/indexes students 4 18 2 65 1
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"bptreeindex/btreeindex"

	"github.com/dustin/go-humanize"
)

func main() {
	if len(os.Args) < 8 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index-dir> <relation> <attr-offset> <low> <low-op> <high> <high-op>\n", os.Args[0])
		os.Exit(1)
	}
	indexDir, relation := os.Args[1], os.Args[2]
	attrOffset := atoi(os.Args[3])
	low := int32(atoi(os.Args[4]))
	lowOp := btreeindex.Operator(atoi(os.Args[5]))
	high := int32(atoi(os.Args[6]))
	highOp := btreeindex.Operator(atoi(os.Args[7]))

	indexPath := filepath.Join(indexDir, btreeindex.FileName(relation, int32(attrOffset)))
	info, err := os.Stat(indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stat %s: %v\n", indexPath, err)
		os.Exit(1)
	}

	ix, err := btreeindex.OpenExisting(indexDir, relation, int32(attrOffset), btreeindex.Integer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open index: %v\n", err)
		os.Exit(1)
	}
	defer ix.Close()

	if err := ix.StartScan(low, lowOp, high, highOp); err != nil {
		fmt.Fprintf(os.Stderr, "start scan: %v\n", err)
		os.Exit(1)
	}

	count := 0
	for {
		rid, err := ix.ScanNext()
		if err != nil {
			break
		}
		fmt.Printf("rid=(page=%d, slot=%d)\n", rid.PageNo, rid.Slot)
		count++
	}
	ix.EndScan()

	fmt.Printf("scanned %s rids from a %s index file\n", humanize.Comma(int64(count)), humanize.Bytes(uint64(info.Size())))
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad integer %q: %v\n", s, err)
		os.Exit(1)
	}
	return n
}
