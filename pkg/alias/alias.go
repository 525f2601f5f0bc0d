package alias

import (
	"fmt"
	"net"

	"github.com/golang/glog"
)

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.records)
}

// Cap returns the fixed table capacity.
func (s *Store) Cap() int {
	return s.capacity
}

// Records returns a copy of the entries in table order.
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}

// FindByAddress returns the index of the first entry for addr. Anything but a
// 6-byte address is never found.
func (s *Store) FindByAddress(addr net.HardwareAddr) (int, bool) {
	a, ok := AddressFrom(addr)
	if !ok {
		return -1, false
	}
	return s.indexOfAddress(a)
}

// FindByName returns the index of the first entry whose name matches. At
// most MaxAliasLen bytes of name are compared.
func (s *Store) FindByName(name string) (int, bool) {
	name = normalizeName(name)
	for i := range s.records {
		if s.records[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) indexOfAddress(a HardwareAddr) (int, bool) {
	for i := range s.records {
		if s.records[i].Address == a {
			return i, true
		}
	}
	return -1, false
}

// Insert appends an entry and persists the table. It fails when the table is
// full or when the address or the name is already present at any index. A
// name longer than MaxAliasLen bytes is truncated. If persisting fails the
// entry is not kept.
func (s *Store) Insert(addr net.HardwareAddr, name string) error {
	err := s.insert(addr, name)
	s.observer.ObserveOperation(OpInsert, resultLabel(err))
	return err
}

func (s *Store) insert(addr net.HardwareAddr, name string) error {
	a, ok := AddressFrom(addr)
	if !ok {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidAddress, len(addr))
	}
	name = normalizeName(name)

	if len(s.records) >= s.capacity {
		return fmt.Errorf("%w: %d entries", ErrCapacityExceeded, s.capacity)
	}
	if i, found := s.indexOfAddress(a); found {
		return fmt.Errorf("%w: %s at index %d", ErrDuplicateAddress, a, i)
	}
	if i, found := s.FindByName(name); found {
		return fmt.Errorf("%w: %q at index %d", ErrDuplicateName, name, i)
	}

	n := len(s.records)
	s.records = append(s.records, Record{Address: a, Name: name})
	if err := s.persist(); err != nil {
		s.records = s.records[:n]
		return err
	}
	glog.V(2).Infof("Added alias %q for %s at index %d", name, a, n)
	s.observer.ObserveEntries(len(s.records), s.capacity)
	return nil
}

// ResolveAddress returns the address aliased as name.
func (s *Store) ResolveAddress(name string) (HardwareAddr, bool) {
	i, ok := s.FindByName(name)
	if !ok {
		return HardwareAddr{}, false
	}
	return s.records[i].Address, true
}

// Lookup returns the name for addr, or false when the caller should fall
// back to the raw address.
func (s *Store) Lookup(addr net.HardwareAddr) (string, bool) {
	i, ok := s.FindByAddress(addr)
	if !ok {
		return "", false
	}
	return s.records[i].Name, true
}

// DisplayName returns the name for addr or, without one, the fallback
// rendering of the raw address. It never fails.
func (s *Store) DisplayName(addr net.HardwareAddr) string {
	if name, ok := s.Lookup(addr); ok {
		return name
	}
	return s.fallback(addr)
}

// NameAt returns the name stored at index.
func (s *Store) NameAt(index int) (string, bool) {
	if !s.valid(index) {
		return "", false
	}
	return s.records[index].Name, true
}

func (s *Store) valid(index int) bool {
	return index >= 0 && index < len(s.records)
}

// RemoveAt deletes the entry at index, shifting later entries one slot left,
// and persists the table. If persisting fails the entry is put back.
func (s *Store) RemoveAt(index int) error {
	err := s.removeAt(index)
	s.observer.ObserveOperation(OpRemove, resultLabel(err))
	return err
}

func (s *Store) removeAt(index int) error {
	if !s.valid(index) {
		return fmt.Errorf("%w: index %d not in [0, %d)", ErrNotFound, index, len(s.records))
	}

	n := len(s.records)
	removed := s.records[index]
	copy(s.records[index:], s.records[index+1:])
	s.records = s.records[:n-1]
	if err := s.persist(); err != nil {
		s.records = s.records[:n]
		copy(s.records[index+1:], s.records[index:n-1])
		s.records[index] = removed
		return err
	}
	glog.V(2).Infof("Removed alias %q for %s from index %d", removed.Name, removed.Address, index)
	s.observer.ObserveEntries(len(s.records), s.capacity)
	return nil
}

// RemoveByAddress deletes the entry for addr.
func (s *Store) RemoveByAddress(addr net.HardwareAddr) error {
	i, ok := s.FindByAddress(addr)
	if !ok {
		err := fmt.Errorf("%w: address %s", ErrNotFound, addr)
		s.observer.ObserveOperation(OpRemove, resultLabel(err))
		return err
	}
	return s.RemoveAt(i)
}

// RemoveByName deletes the entry named name.
func (s *Store) RemoveByName(name string) error {
	i, ok := s.FindByName(name)
	if !ok {
		err := fmt.Errorf("%w: name %q", ErrNotFound, name)
		s.observer.ObserveOperation(OpRemove, resultLabel(err))
		return err
	}
	return s.RemoveAt(i)
}
