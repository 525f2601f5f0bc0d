package alias_test

import (
	"errors"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/alias"
	"github.com/k8snetworkplumbingwg/hwalias/pkg/nvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStorage = errors.New("eeprom write failed")

// faultyStorage wraps a MemoryStorage and fails Load or Save on demand.
type faultyStorage struct {
	*nvstore.MemoryStorage
	failLoad bool
	failSave bool
	saves    int
}

func (f *faultyStorage) Load(region nvstore.Region) ([]byte, error) {
	if f.failLoad {
		return nil, errStorage
	}
	return f.MemoryStorage.Load(region)
}

func (f *faultyStorage) Save(region nvstore.Region, data []byte) error {
	if f.failSave {
		return errStorage
	}
	f.saves++
	return f.MemoryStorage.Save(region, data)
}

func newStorage() *faultyStorage {
	return &faultyStorage{MemoryStorage: nvstore.NewMemoryStorage(nil)}
}

func mac(last byte) net.HardwareAddr {
	return net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, last}
}

func newStore(t *testing.T, storage nvstore.Storage, opts ...alias.Option) *alias.Store {
	t.Helper()
	store := alias.New(storage, opts...)
	_, err := store.Initialize()
	require.NoError(t, err)
	return store
}

func names(store *alias.Store) []string {
	var result []string
	for _, r := range store.Records() {
		result = append(result, r.Name)
	}
	return result
}

func Test_Initialize_DefaultState(t *testing.T) {
	tests := []struct {
		name  string
		image []byte
	}{
		{"empty storage", nil},
		{"zeroed storage", make([]byte, alias.BlockSize(alias.MaxAliasNum))},
		{"garbage", []byte("this is definitely not an alias table, it is garbage ..........")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			storage := &faultyStorage{MemoryStorage: nvstore.NewMemoryStorage(tc.image)}
			store := alias.New(storage)
			status, err := store.Initialize()
			assert.NoError(t, err)
			assert.Equal(t, alias.StatusReset, status)
			assert.Equal(t, 1, store.Len())
			assert.Equal(t, alias.MaxAliasNum, store.Cap())

			want := []alias.Record{{Address: alias.Broadcast, Name: alias.DefaultName}}
			if diff := cmp.Diff(want, store.Records()); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 1, storage.saves, "default table must be persisted")
		})
	}
}

func Test_Initialize_LoadFailure(t *testing.T) {
	storage := newStorage()
	storage.failLoad = true
	store := alias.New(storage)

	_, err := store.Initialize()
	assert.ErrorIs(t, err, errStorage)
	assert.Equal(t, 0, storage.saves, "a failed load must not trigger a reset")
	assert.Equal(t, 0, store.Len())
}

func Test_Initialize_ResetPersistFailure(t *testing.T) {
	storage := newStorage()
	storage.failSave = true
	store := alias.New(storage)

	status, err := store.Initialize()
	assert.ErrorIs(t, err, errStorage)
	assert.Equal(t, alias.StatusReset, status)
	// The default table is still usable in memory
	assert.Equal(t, 1, store.Len())
	name, ok := store.NameAt(0)
	assert.True(t, ok)
	assert.Equal(t, alias.DefaultName, name)
}

func Test_PersistenceSurvivesReload(t *testing.T) {
	storage := newStorage()
	store := newStore(t, storage)
	require.NoError(t, store.Insert(mac(0x11), "dev1"))
	require.NoError(t, store.Insert(mac(0x22), "dev2"))
	require.NoError(t, store.RemoveByName("dev1"))

	reloaded := alias.New(storage)
	status, err := reloaded.Initialize()
	assert.NoError(t, err)
	assert.Equal(t, alias.StatusLoaded, status)
	if diff := cmp.Diff(store.Records(), reloaded.Records()); diff != "" {
		t.Errorf("reloaded records mismatch (-want +got):\n%s", diff)
	}
	i, ok := reloaded.FindByAddress(mac(0x22))
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func Test_Insert_RoundTrip(t *testing.T) {
	store := newStore(t, newStorage())

	require.NoError(t, store.Insert(mac(0x11), "printer"))
	i, ok := store.FindByAddress(mac(0x11))
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	name, ok := store.NameAt(i)
	assert.True(t, ok)
	assert.Equal(t, "printer", name)

	j, ok := store.FindByName("printer")
	assert.True(t, ok)
	assert.Equal(t, i, j)

	addr, ok := store.ResolveAddress("printer")
	assert.True(t, ok)
	assert.Equal(t, mac(0x11), addr.Net())
	assert.Equal(t, "printer", store.DisplayName(mac(0x11)))
}

func Test_Insert_Uniqueness(t *testing.T) {
	store := newStore(t, newStorage())
	require.NoError(t, store.Insert(mac(0x11), "dev1"))

	tests := []struct {
		name     string
		addr     net.HardwareAddr
		alias    string
		expected error
	}{
		{"address at index 0", net.HardwareAddr(alias.Broadcast[:]), "other", alias.ErrDuplicateAddress},
		{"name at index 0", mac(0x33), alias.DefaultName, alias.ErrDuplicateName},
		{"address at index 1", mac(0x11), "other", alias.ErrDuplicateAddress},
		{"name at index 1", mac(0x33), "dev1", alias.ErrDuplicateName},
		{"short address", net.HardwareAddr{1, 2, 3}, "short", alias.ErrInvalidAddress},
		{"nil address", nil, "nil", alias.ErrInvalidAddress},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Insert(tc.addr, tc.alias)
			assert.ErrorIs(t, err, tc.expected)
			assert.Equal(t, 2, store.Len(), "failed insert must not change the table")
		})
	}
	assert.ErrorIs(t, store.Insert(mac(0x11), "x"), alias.ErrDuplicateEntry)
}

func Test_Insert_Capacity(t *testing.T) {
	capacity := 4
	storage := newStorage()
	store := newStore(t, storage, alias.WithCapacity(capacity))

	for i := 1; i < capacity; i++ {
		require.NoError(t, store.Insert(mac(byte(i)), string(rune('a'+i))))
	}
	assert.Equal(t, capacity, store.Len())
	saves := storage.saves

	err := store.Insert(mac(0x99), "overflow")
	assert.ErrorIs(t, err, alias.ErrCapacityExceeded)
	assert.Equal(t, capacity, store.Len())
	assert.Equal(t, saves, storage.saves, "failed insert must not persist")
}

func Test_CapacityTwoExample(t *testing.T) {
	store := newStore(t, newStorage(), alias.WithCapacity(2))
	assert.Equal(t, 1, store.Len())

	assert.NoError(t, store.Insert(mac(0x11), "dev1"))
	assert.Equal(t, 2, store.Len())

	assert.ErrorIs(t, store.Insert(mac(0x22), "dev2"), alias.ErrCapacityExceeded)

	assert.NoError(t, store.RemoveAt(1))
	assert.Equal(t, 1, store.Len())

	assert.NoError(t, store.Insert(mac(0x22), "dev2"))
	assert.Equal(t, 2, store.Len())
}

func Test_Insert_TruncatesLongNames(t *testing.T) {
	store := newStore(t, newStorage())
	long := "0123456789abcdefOVERFLOW"
	require.NoError(t, store.Insert(mac(0x11), long))

	name, ok := store.NameAt(1)
	assert.True(t, ok)
	assert.Equal(t, long[:alias.MaxAliasLen], name)

	// Comparison only looks at the first MaxAliasLen bytes
	i, ok := store.FindByName(long[:alias.MaxAliasLen] + "-something-else")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	assert.ErrorIs(t, store.Insert(mac(0x12), long), alias.ErrDuplicateName)
}

func Test_Insert_PersistFailureRollsBack(t *testing.T) {
	storage := newStorage()
	store := newStore(t, storage)

	storage.failSave = true
	err := store.Insert(mac(0x11), "dev1")
	assert.ErrorIs(t, err, errStorage)
	assert.Equal(t, 1, store.Len())
	_, ok := store.FindByName("dev1")
	assert.False(t, ok)

	storage.failSave = false
	assert.NoError(t, store.Insert(mac(0x11), "dev1"))
}

func Test_RemoveAt_Shift(t *testing.T) {
	store := newStore(t, newStorage())
	require.NoError(t, store.Insert(mac(0x0a), "A"))
	require.NoError(t, store.Insert(mac(0x0b), "B"))
	require.NoError(t, store.Insert(mac(0x0c), "C"))
	require.NoError(t, store.RemoveAt(0)) // drop the broadcast entry
	assert.Equal(t, []string{"A", "B", "C"}, names(store))

	assert.NoError(t, store.RemoveAt(0))
	assert.Equal(t, []string{"B", "C"}, names(store))
	assert.Equal(t, 2, store.Len())

	// Index equal to count is out of range
	assert.ErrorIs(t, store.RemoveAt(2), alias.ErrNotFound)
	assert.ErrorIs(t, store.RemoveAt(-1), alias.ErrNotFound)
	assert.Equal(t, []string{"B", "C"}, names(store))
}

func Test_RemoveAt_PersistFailureRestoresOrder(t *testing.T) {
	storage := newStorage()
	store := newStore(t, storage)
	require.NoError(t, store.Insert(mac(0x0a), "A"))
	require.NoError(t, store.Insert(mac(0x0b), "B"))
	before := store.Records()

	storage.failSave = true
	for i := 0; i < store.Len(); i++ {
		assert.ErrorIs(t, store.RemoveAt(i), errStorage)
		if diff := cmp.Diff(before, store.Records()); diff != "" {
			t.Errorf("records changed after failed remove at %d (-want +got):\n%s", i, diff)
		}
	}
}

func Test_RemoveByAddressAndName(t *testing.T) {
	store := newStore(t, newStorage())
	require.NoError(t, store.Insert(mac(0x0a), "A"))
	require.NoError(t, store.Insert(mac(0x0b), "B"))

	assert.NoError(t, store.RemoveByAddress(mac(0x0a)))
	assert.Equal(t, []string{alias.DefaultName, "B"}, names(store))
	assert.ErrorIs(t, store.RemoveByAddress(mac(0x0a)), alias.ErrNotFound)

	assert.NoError(t, store.RemoveByName("B"))
	assert.Equal(t, []string{alias.DefaultName}, names(store))
	assert.ErrorIs(t, store.RemoveByName("B"), alias.ErrNotFound)
	assert.ErrorIs(t, store.RemoveByAddress(nil), alias.ErrNotFound)
}

func Test_NotFoundConsistency(t *testing.T) {
	store := newStore(t, newStorage())
	unknown := mac(0x77)

	_, ok := store.FindByAddress(unknown)
	assert.False(t, ok)
	_, ok = store.FindByAddress(nil)
	assert.False(t, ok)
	_, ok = store.FindByAddress(net.HardwareAddr{})
	assert.False(t, ok)
	_, ok = store.FindByName("nobody")
	assert.False(t, ok)
	_, ok = store.ResolveAddress("nobody")
	assert.False(t, ok)
	_, ok = store.Lookup(unknown)
	assert.False(t, ok)

	assert.Equal(t, "02:00:00:00:00:77", store.DisplayName(unknown))

	name, ok := store.NameAt(1)
	assert.False(t, ok)
	assert.Empty(t, name)
	_, ok = store.NameAt(-1)
	assert.False(t, ok)
}

func Test_DisplayName_CustomFallback(t *testing.T) {
	store := newStore(t, newStorage(), alias.WithFallback(func(addr net.HardwareAddr) string {
		return "raw:" + addr.String()
	}))
	assert.Equal(t, alias.DefaultName, store.DisplayName(net.HardwareAddr(alias.Broadcast[:])))
	assert.Equal(t, "raw:02:00:00:00:00:01", store.DisplayName(mac(0x01)))
}

func Test_Reset(t *testing.T) {
	storage := newStorage()
	store := newStore(t, storage)
	require.NoError(t, store.Insert(mac(0x0a), "A"))

	assert.NoError(t, store.Reset())
	assert.Equal(t, []string{alias.DefaultName}, names(store))

	reloaded := newStore(t, storage)
	assert.Equal(t, []string{alias.DefaultName}, names(reloaded))
}

func Test_WithOffset(t *testing.T) {
	storage := newStorage()
	store := newStore(t, storage, alias.WithOffset(64), alias.WithCapacity(3))
	require.NoError(t, store.Insert(mac(0x0a), "A"))

	image := storage.Bytes()
	assert.Len(t, image, 64+alias.BlockSize(3))
	assert.Equal(t, make([]byte, 64), image[:64], "bytes before the region are untouched")

	// A store at a different offset does not see the table
	other := alias.New(storage, alias.WithCapacity(3))
	status, err := other.Initialize()
	assert.NoError(t, err)
	assert.Equal(t, alias.StatusReset, status)
}

type recordingObserver struct {
	resets  []string
	errors  []string
	ops     []string
	entries int
}

func (r *recordingObserver) ObserveEntries(count, _ int)   { r.entries = count }
func (r *recordingObserver) ObserveReset(reason string)    { r.resets = append(r.resets, reason) }
func (r *recordingObserver) ObserveStorageError(op string) { r.errors = append(r.errors, op) }
func (r *recordingObserver) ObserveOperation(op, result string) {
	r.ops = append(r.ops, op+":"+result)
}

func Test_Observer(t *testing.T) {
	storage := newStorage()
	observer := &recordingObserver{}
	store := newStore(t, storage, alias.WithObserver(observer), alias.WithCapacity(2))
	assert.Equal(t, []string{alias.ReasonInvalidMagic}, observer.resets)
	assert.Equal(t, 1, observer.entries)

	assert.NoError(t, store.Insert(mac(0x0a), "A"))
	assert.ErrorIs(t, store.Insert(mac(0x0b), "B"), alias.ErrCapacityExceeded)
	assert.ErrorIs(t, store.RemoveAt(5), alias.ErrNotFound)
	assert.ErrorIs(t, store.RemoveByName("zzz"), alias.ErrNotFound)
	storage.failSave = true
	assert.ErrorIs(t, store.RemoveAt(1), errStorage)

	assert.Equal(t, []string{
		"insert:ok",
		"insert:capacity_exceeded",
		"remove:not_found",
		"remove:not_found",
		"remove:storage_error",
	}, observer.ops)
	assert.Equal(t, []string{alias.OpSave}, observer.errors)
	assert.Equal(t, 2, observer.entries)
}

func Test_ParseAddress(t *testing.T) {
	a, err := alias.ParseAddress("AA:bb:cc:dd:ee:01")
	assert.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", a.String())
	assert.False(t, a.IsZero())

	_, err = alias.ParseAddress("00:00:5e:00:53:00:00:01") // EUI-64
	assert.ErrorIs(t, err, alias.ErrInvalidAddress)
	_, err = alias.ParseAddress("bogus")
	assert.ErrorIs(t, err, alias.ErrInvalidAddress)

	_, ok := alias.AddressFrom(net.HardwareAddr{1, 2})
	assert.False(t, ok)
	assert.True(t, alias.HardwareAddr{}.IsZero())
}
