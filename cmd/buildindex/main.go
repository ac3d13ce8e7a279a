// Build a B+ tree index over one integer attribute of a heap file.
// Usage: go run ./cmd/buildindex <heap-file> <index-dir> <relation> <attr-offset>
// Example: go run ./cmd/buildindex data/students.heap data/indexes students 4
package main

import (
	"fmt"
	"os"
	"strconv"

	"bptreeindex/btreeindex"
	"bptreeindex/heap"
)

func main() {
	if len(os.Args) < 5 {
		fmt.Fprintf(os.Stderr, "Usage: %s <heap-file> <index-dir> <relation> <attr-offset>\n", os.Args[0])
		os.Exit(1)
	}
	heapPath, indexDir, relation := os.Args[1], os.Args[2], os.Args[3]
	attrOffset, err := strconv.Atoi(os.Args[4])
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad attr-offset: %v\n", err)
		os.Exit(1)
	}

	hf, err := heap.Open(heapPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open heap file: %v\n", err)
		os.Exit(1)
	}
	defer hf.Close()

	if err := os.MkdirAll(indexDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", indexDir, err)
		os.Exit(1)
	}

	ix, err := btreeindex.Open(indexDir, relation, int32(attrOffset), btreeindex.Integer, heap.NewScanner(hf))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build index: %v\n", err)
		os.Exit(1)
	}
	defer ix.Close()

	indexPath := btreeindex.FileName(relation, int32(attrOffset))
	fmt.Printf("Index %s ready in %s over relation %q attr offset %d\n", indexPath, indexDir, relation, attrOffset)
}
