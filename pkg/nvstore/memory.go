package nvstore

import "sync"

// MemoryStorage is a Storage backed by an in-process byte image.
type MemoryStorage struct {
	mu    sync.Mutex
	image []byte
}

// NewMemoryStorage returns a MemoryStorage whose image starts as a copy of initial.
func NewMemoryStorage(initial []byte) *MemoryStorage {
	return &MemoryStorage{image: append([]byte(nil), initial...)}
}

// Load ...
func (m *MemoryStorage) Load(region Region) ([]byte, error) {
	if err := region.validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return extract(m.image, region), nil
}

// Save ...
func (m *MemoryStorage) Save(region Region, data []byte) error {
	if err := region.checkData(data); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image = patch(m.image, region, data)
	return nil
}

// Bytes returns a copy of the whole image.
func (m *MemoryStorage) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.image...)
}
