package daemon

import (
	"net"
	"sync"

	"github.com/k8snetworkplumbingwg/hwalias/pkg/alias"
)

// Host serializes access to an alias.Store, which has no locking of its own.
// Every method holds one exclusive lock for exactly one store call, so
// concurrent callers always see the table before or after a mutation and its
// persistence, never in between.
type Host struct {
	mu    sync.Mutex
	store *alias.Store
}

// NewHost wraps an initialized store.
func NewHost(store *alias.Store) *Host {
	return &Host{store: store}
}

// Len returns the number of entries.
func (h *Host) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Len()
}

// Cap returns the table capacity.
func (h *Host) Cap() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Cap()
}

// Records returns a copy of the table in index order.
func (h *Host) Records() []alias.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Records()
}

// FindByAddress returns the index of the entry for addr.
func (h *Host) FindByAddress(addr net.HardwareAddr) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.FindByAddress(addr)
}

// FindByName returns the index of the entry named name.
func (h *Host) FindByName(name string) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.FindByName(name)
}

// Insert appends an alias and persists the table.
func (h *Host) Insert(addr net.HardwareAddr, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Insert(addr, name)
}

// ResolveAddress returns the address aliased as name.
func (h *Host) ResolveAddress(name string) (alias.HardwareAddr, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.ResolveAddress(name)
}

// Lookup returns the alias of addr.
func (h *Host) Lookup(addr net.HardwareAddr) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Lookup(addr)
}

// DisplayName returns the alias of addr or its fallback rendering.
func (h *Host) DisplayName(addr net.HardwareAddr) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.DisplayName(addr)
}

// NameAt returns the alias stored at index.
func (h *Host) NameAt(index int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.NameAt(index)
}

// RemoveAt deletes the entry at index and persists the table.
func (h *Host) RemoveAt(index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.RemoveAt(index)
}

// RemoveByAddress deletes the entry for addr.
func (h *Host) RemoveByAddress(addr net.HardwareAddr) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.RemoveByAddress(addr)
}

// RemoveByName deletes the entry named name.
func (h *Host) RemoveByName(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.RemoveByName(name)
}

// Reset restores the default table.
func (h *Host) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Reset()
}

// Close releases the store's storage. The host must not be used afterwards.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Close()
}
