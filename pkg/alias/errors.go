package alias

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record matches an index, address or name.
	ErrNotFound = errors.New("alias not found")
	// ErrCapacityExceeded is returned by Insert when the table is full.
	ErrCapacityExceeded = errors.New("alias table is full")
	// ErrDuplicateEntry is wrapped by ErrDuplicateAddress and ErrDuplicateName.
	ErrDuplicateEntry = errors.New("duplicate alias entry")
	// ErrDuplicateAddress is returned by Insert when the address is already aliased.
	ErrDuplicateAddress = fmt.Errorf("%w: address already present", ErrDuplicateEntry)
	// ErrDuplicateName is returned by Insert when the name is already in use.
	ErrDuplicateName = fmt.Errorf("%w: name already present", ErrDuplicateEntry)
	// ErrInvalidAddress is returned for a hardware address that is not exactly 6 bytes.
	ErrInvalidAddress = errors.New("hardware address must be 6 bytes")

	// ErrCorrupt is wrapped by every persisted-block decoding failure.
	ErrCorrupt = errors.New("alias table block is corrupt")
	// ErrInvalidMagic means the block was not written by this package.
	ErrInvalidMagic = fmt.Errorf("%w: invalid magic", ErrCorrupt)
	// ErrCountOutOfRange means the stored entry count is negative or above capacity.
	ErrCountOutOfRange = fmt.Errorf("%w: entry count out of range", ErrCorrupt)
	// ErrShortBlock means fewer bytes were loaded than the block layout needs.
	ErrShortBlock = fmt.Errorf("%w: block too short", ErrCorrupt)
)
