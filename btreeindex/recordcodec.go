package btreeindex

import (
	"encoding/binary"
	"errors"
	"fmt"
)

func isEndOfFile(err error) bool {
	return errors.Is(err, ErrEndOfFile)
}

// decodeIntKey reads a little-endian int32 out of record at offset,
// mirroring the source's insert_entry(*(i32*)(record + offset), rid).
func decodeIntKey(record []byte, offset int32) (int32, error) {
	if offset < 0 || int(offset)+sizeofI32 > len(record) {
		return 0, fmt.Errorf("btreeindex: attribute offset %d out of range for %d-byte record", offset, len(record))
	}
	return int32(binary.LittleEndian.Uint32(record[offset:])), nil
}
