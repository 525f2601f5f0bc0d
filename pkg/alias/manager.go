// Package alias keeps a fixed-capacity, persisted table mapping 6-byte
// hardware addresses to short names.
//
// A Store has a single owner and no internal locking. Every mutation writes
// the whole table back to storage before it returns. Hosts that call a Store
// from several goroutines must serialize access themselves.
package alias

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/golang/glog"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/nvstore"
)

// DefaultName is the reserved name of the broadcast entry.
const DefaultName = "broadcast"

// Storage operation and reset reason labels passed to an Observer.
const (
	OpLoad   = "load"
	OpSave   = "save"
	OpInsert = "insert"
	OpRemove = "remove"

	ReasonInvalidMagic     = "invalid_magic"
	ReasonCountOutOfRange  = "count_out_of_range"
	ReasonShortBlock       = "short_block"
	ReasonManual           = "manual"
	ResultOK               = "ok"
	ResultNotFound         = "not_found"
	ResultCapacityExceeded = "capacity_exceeded"
	ResultDuplicate        = "duplicate"
	ResultInvalid          = "invalid"
	ResultStorageError     = "storage_error"
)

// LoadStatus reports how Initialize obtained the table.
type LoadStatus int

const (
	// StatusLoaded means a valid table was read from storage.
	StatusLoaded LoadStatus = iota
	// StatusReset means storage held no valid table and defaults were written.
	StatusReset
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusReset:
		return "reset"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// Record is one alias entry.
type Record struct {
	Address HardwareAddr
	Name    string
}

// Observer receives store events, typically to export them as metrics.
type Observer interface {
	ObserveEntries(count, capacity int)
	ObserveReset(reason string)
	ObserveStorageError(op string)
	ObserveOperation(op, result string)
}

type noopObserver struct{}

func (noopObserver) ObserveEntries(int, int)         {}
func (noopObserver) ObserveReset(string)             {}
func (noopObserver) ObserveStorageError(string)      {}
func (noopObserver) ObserveOperation(string, string) {}

// Store is the alias table and its persistence.
type Store struct {
	storage  nvstore.Storage
	region   nvstore.Region
	capacity int
	records  []Record
	fallback func(net.HardwareAddr) string
	observer Observer
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity fixes the table capacity. Values below 1 are ignored.
func WithCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithOffset places the table block at offset within the storage image.
func WithOffset(offset int64) Option {
	return func(s *Store) {
		s.region.Offset = offset
	}
}

// WithFallback sets how DisplayName renders an address with no alias.
func WithFallback(fallback func(net.HardwareAddr) string) Option {
	return func(s *Store) {
		if fallback != nil {
			s.fallback = fallback
		}
	}
}

// WithObserver registers an Observer for store events.
func WithObserver(observer Observer) Option {
	return func(s *Store) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// New returns a Store backed by storage. The table is empty until
// Initialize is called.
func New(storage nvstore.Storage, opts ...Option) *Store {
	s := &Store{
		storage:  storage,
		capacity: MaxAliasNum,
		fallback: func(addr net.HardwareAddr) string { return addr.String() },
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.region.Size = BlockSize(s.capacity)
	s.records = make([]Record, 0, s.capacity)
	return s
}

// Initialize loads the table from storage. A block with a wrong validity tag,
// an out of range count or too few bytes is replaced by the default table,
// which is persisted; that case is logged and reported as StatusReset rather
// than as an error. Errors come only from the storage itself.
func (s *Store) Initialize() (LoadStatus, error) {
	buf, err := s.storage.Load(s.region)
	if err != nil {
		s.observer.ObserveStorageError(OpLoad)
		return StatusLoaded, fmt.Errorf("failed to load alias table from region %s: %w", s.region, err)
	}

	records, err := decodeTable(buf, s.capacity)
	if err != nil {
		glog.Warningf("Alias table in region %s is unusable (%v), resetting to defaults", s.region, err)
		s.observer.ObserveReset(resetReason(err))
		return StatusReset, s.reset()
	}

	s.records = s.records[:0]
	s.records = append(s.records, records...)
	glog.Infof("Loaded alias table: %d/%d entries", len(s.records), s.capacity)
	s.observer.ObserveEntries(len(s.records), s.capacity)
	return StatusLoaded, nil
}

// Reset replaces the table with the single default broadcast entry and
// persists it.
func (s *Store) Reset() error {
	s.observer.ObserveReset(ReasonManual)
	return s.reset()
}

// Close releases the storage when it needs releasing, such as the image
// lock of an nvstore.FileStorage. The store must not be used afterwards.
func (s *Store) Close() error {
	if c, ok := s.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// reset leaves the default table in memory even when persisting it fails,
// so the store stays usable.
func (s *Store) reset() error {
	s.records = append(s.records[:0], Record{Address: Broadcast, Name: DefaultName})
	s.observer.ObserveEntries(len(s.records), s.capacity)
	if err := s.persist(); err != nil {
		return err
	}
	glog.Infof("Alias table reset to defaults")
	return nil
}

func (s *Store) persist() error {
	if err := s.storage.Save(s.region, encodeTable(s.records, s.capacity)); err != nil {
		s.observer.ObserveStorageError(OpSave)
		glog.Errorf("Failed to persist alias table to region %s: %v", s.region, err)
		return fmt.Errorf("failed to persist alias table: %w", err)
	}
	return nil
}

func resetReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMagic):
		return ReasonInvalidMagic
	case errors.Is(err, ErrCountOutOfRange):
		return ReasonCountOutOfRange
	default:
		return ReasonShortBlock
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrNotFound):
		return ResultNotFound
	case errors.Is(err, ErrCapacityExceeded):
		return ResultCapacityExceeded
	case errors.Is(err, ErrDuplicateEntry):
		return ResultDuplicate
	case errors.Is(err, ErrInvalidAddress):
		return ResultInvalid
	default:
		return ResultStorageError
	}
}
