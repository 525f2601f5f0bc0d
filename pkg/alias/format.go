package alias

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Persisted block layout (little endian):
//
//	[0:4]  validity tag (Magic)
//	[4:8]  entry count, int32
//	[8:]   capacity records of AddressLen address bytes + MaxAliasLen name bytes
//
// Unused record slots are written as zeros. A name shorter than MaxAliasLen
// is NUL terminated; one of exactly MaxAliasLen bytes is not.
const (
	// Magic marks a block written by this package.
	Magic uint32 = 0x31415748 // "HWA1"
	// MaxAliasLen is the maximum length of an alias name in bytes.
	MaxAliasLen = 16
	// MaxAliasNum is the default table capacity.
	MaxAliasNum = 20

	headerSize = 8
	recordSize = AddressLen + MaxAliasLen
)

// BlockSize returns the persisted block size for a table of the given capacity.
func BlockSize(capacity int) int {
	return headerSize + capacity*recordSize
}

func encodeTable(records []Record, capacity int) []byte {
	buf := make([]byte, BlockSize(capacity))
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(records)))
	for i, r := range records {
		offset := headerSize + i*recordSize
		copy(buf[offset:offset+AddressLen], r.Address[:])
		copy(buf[offset+AddressLen:offset+recordSize], r.Name)
	}
	return buf
}

// decodeTable validates the header and returns the stored records. Record
// contents are not validated beyond NUL termination of names.
func decodeTable(buf []byte, capacity int) ([]Record, error) {
	if len(buf) < BlockSize(capacity) {
		return nil, fmt.Errorf("%w: %d < %d bytes", ErrShortBlock, len(buf), BlockSize(capacity))
	}
	if magic := binary.LittleEndian.Uint32(buf[0:4]); magic != Magic {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, magic)
	}
	count := int32(binary.LittleEndian.Uint32(buf[4:8]))
	if count < 0 || int(count) > capacity {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrCountOutOfRange, count, capacity)
	}

	records := make([]Record, count, capacity)
	for i := range records {
		offset := headerSize + i*recordSize
		copy(records[i].Address[:], buf[offset:offset+AddressLen])
		records[i].Name = cString(buf[offset+AddressLen : offset+recordSize])
	}
	return records, nil
}

// cString reads b up to the first NUL byte.
func cString(b []byte) string {
	if end := bytes.IndexByte(b, 0); end >= 0 {
		b = b[:end]
	}
	return string(b)
}

// normalizeName returns name as it is stored: cut at the first NUL byte and
// truncated to at most MaxAliasLen bytes without splitting a UTF-8 sequence.
func normalizeName(name string) string {
	if len(name) > MaxAliasLen {
		n := MaxAliasLen
		for n > 0 && !utf8.RuneStart(name[n]) {
			n--
		}
		name = name[:n]
	}
	return cString([]byte(name))
}
