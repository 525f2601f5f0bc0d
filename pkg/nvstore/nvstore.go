// Package nvstore provides the non-volatile storage collaborators that the
// alias table is persisted to. A Storage hands out and accepts whole
// fixed-size blocks; it never interprets their contents.
package nvstore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRegion is returned for a region with a negative offset or a non-positive size.
	ErrInvalidRegion = errors.New("invalid storage region")
	// ErrRegionSize is returned when saved data does not exactly fill the region.
	ErrRegionSize = errors.New("data size does not match region size")
)

// Region is a fixed block inside a storage image.
type Region struct {
	Offset int64
	Size   int
}

// End returns the offset one past the last byte of the region.
func (r Region) End() int64 {
	return r.Offset + int64(r.Size)
}

func (r Region) String() string {
	return fmt.Sprintf("[%d:%d]", r.Offset, r.End())
}

func (r Region) validate() error {
	if r.Offset < 0 || r.Size <= 0 {
		return fmt.Errorf("%w %s", ErrInvalidRegion, r)
	}
	return nil
}

func (r Region) checkData(data []byte) error {
	if err := r.validate(); err != nil {
		return err
	}
	if len(data) != r.Size {
		return fmt.Errorf("%w: got %d bytes for region %s", ErrRegionSize, len(data), r)
	}
	return nil
}

// Storage is a block-addressed non-volatile store.
//
// Load returns exactly region.Size bytes: whatever is currently stored, which
// may be all zero or garbage on first use. Save overwrites the block and is
// durable once it returns.
type Storage interface {
	Load(region Region) ([]byte, error)
	Save(region Region, data []byte) error
}

// patch copies data into image at region, growing the image with zeros when needed.
func patch(image []byte, region Region, data []byte) []byte {
	if int64(len(image)) < region.End() {
		image = append(image, make([]byte, region.End()-int64(len(image)))...)
	}
	copy(image[region.Offset:region.End()], data)
	return image
}

// extract returns a copy of region from image. Bytes beyond the end of the
// image read as zero, like unprogrammed memory.
func extract(image []byte, region Region) []byte {
	block := make([]byte, region.Size)
	if int64(len(image)) > region.Offset {
		copy(block, image[region.Offset:])
	}
	return block
}
