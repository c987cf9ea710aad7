package records_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namereg/internal/keys"
	"namereg/internal/records"
)

const testTag = 5

type owner struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newOwner(t *testing.T) owner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return owner{pub: pub, priv: priv}
}

func (o owner) record(t *testing.T, address string, version uint64, payload string) records.Record {
	t.Helper()
	rec, err := records.New(testTag, address, version, []byte(payload), []ed25519.PublicKey{o.pub}, nil, o.priv, keys.NoEncryption)
	require.NoError(t, err)
	return rec
}

func runLifecycleTest(t *testing.T, store records.Records) {
	ctx := context.Background()
	alice := newOwner(t)
	mallory := newOwner(t)

	address, err := records.NameAddress(testTag, "example.com")
	require.NoError(t, err)

	// Missing
	_, err = store.Get(ctx, address, testTag)
	assert.ErrorIs(t, err, records.ErrRecordNotFound)

	// Create
	v0 := alice.record(t, address, 0, "first")
	require.NoError(t, store.Put(ctx, v0))

	got, err := store.Get(ctx, address, testTag)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Version)
	assert.Equal(t, []byte("first"), got.Payload)
	assert.True(t, got.SignedBy([]ed25519.PublicKey{alice.pub}))

	// Create again
	err = store.Put(ctx, alice.record(t, address, 0, "again"))
	assert.ErrorIs(t, err, records.ErrRecordExists)

	// Update
	v1, err := records.Successor(got, []byte("second"), alice.priv, keys.NoEncryption)
	require.NoError(t, err)
	require.NoError(t, store.Post(ctx, v1))

	// Stale update
	stale, err := records.Successor(got, []byte("stale"), alice.priv, keys.NoEncryption)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Post(ctx, stale), records.ErrConflict)

	// Update by a stranger
	forged, err := records.New(testTag, address, 2, []byte("forged"), []ed25519.PublicKey{alice.pub}, nil, mallory.priv, keys.NoEncryption)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Post(ctx, forged), records.ErrUnauthorized)

	got, err = store.Get(ctx, address, testTag)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Version)
	assert.Equal(t, []byte("second"), got.Payload)

	// Delete
	tombstone, err := records.Successor(got, nil, alice.priv, keys.NoEncryption)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, tombstone))

	_, err = store.Get(ctx, address, testTag)
	assert.ErrorIs(t, err, records.ErrRecordNotFound)
	assert.ErrorIs(t, store.Delete(ctx, tombstone), records.ErrRecordNotFound)

	// Re-create over the tombstone
	require.NoError(t, store.Put(ctx, alice.record(t, address, 0, "reborn")))
	got, err = store.Get(ctx, address, testTag)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.Version)
	assert.Equal(t, []byte("reborn"), got.Payload)
}

func runEndToEndTest(t *testing.T, service records.Records) {
	server := records.NewServer(service, nil)

	ts := httptest.NewServer(server)
	defer ts.Close()

	client := records.NewClient(ts.URL, ts.Client())
	assert.Equal(t, service.ID(), client.ID())

	runLifecycleTest(t, client)
}

func TestMemoryRecords(t *testing.T) {
	runLifecycleTest(t, records.NewMemoryRecords(""))
}

func TestMemoryRecordsEndToEnd(t *testing.T) {
	runEndToEndTest(t, records.NewMemoryRecords("memory-test"))
}

func TestFileSystemRecords(t *testing.T) {
	store, err := records.NewFileSystemRecords(t.TempDir(), 0, nil)
	require.NoError(t, err)
	defer store.Close()

	runLifecycleTest(t, store)
}

func TestFileSystemRecordsEndToEnd(t *testing.T) {
	store, err := records.NewFileSystemRecords(t.TempDir(), 0, nil)
	require.NoError(t, err)
	defer store.Close()

	runEndToEndTest(t, store)
}

func TestFileSystemRecordsPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	alice := newOwner(t)

	store, err := records.NewFileSystemRecords(dir, 0, nil)
	require.NoError(t, err)
	id := store.ID()

	v0 := alice.record(t, "addr-1", 0, "one")
	require.NoError(t, store.Put(ctx, v0))
	v1, err := records.Successor(v0, []byte("two"), alice.priv, keys.NoEncryption)
	require.NoError(t, err)
	require.NoError(t, store.Post(ctx, v1))
	require.NoError(t, store.Put(ctx, alice.record(t, "addr-2", 0, "other")))
	require.NoError(t, store.Close())

	reopened, err := records.NewFileSystemRecords(dir, 0, nil)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, id, reopened.ID())

	got, err := reopened.Get(ctx, "addr-1", testTag)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Version)
	assert.Equal(t, []byte("two"), got.Payload)

	_, err = reopened.Get(ctx, "addr-2", testTag)
	require.NoError(t, err)

	// The journal keeps enforcing version order after a restart.
	assert.ErrorIs(t, reopened.Post(ctx, v1), records.ErrConflict)
}

func TestFileSystemRecordsSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	alice := newOwner(t)

	store, err := records.NewFileSystemRecords(dir, 20*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, alice.record(t, "addr-1", 0, "one")))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, store.Put(ctx, alice.record(t, "addr-2", 0, "two")))
	require.NoError(t, store.Close())

	reopened, err := records.NewFileSystemRecords(dir, 0, nil)
	require.NoError(t, err)
	defer reopened.Close()

	for _, address := range []string{"addr-1", "addr-2"} {
		_, err := reopened.Get(ctx, address, testTag)
		assert.NoError(t, err, address)
	}
}

func TestFileSystemRecordsReopenLeavesNoJournals(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	alice := newOwner(t)

	for i := 0; i < 5; i++ {
		store, err := records.NewFileSystemRecords(dir, 0, nil)
		require.NoError(t, err)
		if i == 2 {
			require.NoError(t, store.Put(ctx, alice.record(t, "addr-1", 0, "one")))
		}
		require.NoError(t, store.Close())

		journals, err := filepath.Glob(filepath.Join(dir, "journal-*.jsonl"))
		require.NoError(t, err)
		assert.Empty(t, journals, "after run %d", i)
	}

	reopened, err := records.NewFileSystemRecords(dir, 0, nil)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "addr-1", testTag)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got.Payload)
	require.NoError(t, reopened.Close())

	assert.ErrorIs(t, reopened.Put(ctx, alice.record(t, "addr-2", 0, "two")), records.ErrStoreClosed)
	assert.NoError(t, reopened.Close())
}

func TestBadgerRecords(t *testing.T) {
	store, err := records.OpenBadgerRecords("")
	require.NoError(t, err)
	defer store.Close()

	runLifecycleTest(t, store)
}

func TestBadgerRecordsEndToEnd(t *testing.T) {
	store, err := records.OpenBadgerRecords("")
	require.NoError(t, err)
	defer store.Close()

	runEndToEndTest(t, store)
}

func TestBadgerRecordsPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	alice := newOwner(t)

	store, err := records.OpenBadgerRecords(dir)
	require.NoError(t, err)
	id := store.ID()
	require.NoError(t, store.Put(ctx, alice.record(t, "addr-1", 0, "one")))
	require.NoError(t, store.Close())

	reopened, err := records.OpenBadgerRecords(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, id, reopened.ID())
	got, err := reopened.Get(ctx, "addr-1", testTag)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got.Payload)
}

func TestConcurrentUpdatesHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	store := records.NewMemoryRecords("")
	alice := newOwner(t)

	v0 := alice.record(t, "addr", 0, "base")
	require.NoError(t, store.Put(ctx, v0))

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		next, err := records.Successor(v0, []byte{byte('a' + i)}, alice.priv, keys.NoEncryption)
		require.NoError(t, err)
		wg.Add(1)
		go func(i int, rec records.Record) {
			defer wg.Done()
			errs[i] = store.Post(ctx, rec)
		}(i, next)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, records.ErrConflict)
		}
	}
	assert.Equal(t, 1, winners)
}
