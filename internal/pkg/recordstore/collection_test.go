package recordstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID    string  `json:"id"`
	Value int     `json:"value"`
	Note  *string `json:"note"`
}

func newFileStore(t *testing.T, opts ...Option) (*Store, *FileBackend, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)
	return New(backend, opts...), backend, dir
}

func appendRecords(records ...testRecord) func([]testRecord) ([]testRecord, error) {
	return func(current []testRecord) ([]testRecord, error) {
		return append(current, records...), nil
	}
}

func TestCollection_LoadMissingIsEmpty(t *testing.T) {
	store, _, _ := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")

	records, err := coll.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestCollection_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")

	note := "second"
	want := []testRecord{
		{ID: "a", Value: 3},
		{ID: "b", Value: 1, Note: &note},
		{ID: "c", Value: 2},
	}
	require.NoError(t, coll.WithLock(ctx, appendRecords(want...)))

	got, err := coll.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// A second handle on the same store sees the same snapshot.
	other := NewCollection[testRecord](store, "things")
	got, err = other.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCollection_SnapshotIsIndentedJSON(t *testing.T) {
	ctx := context.Background()
	store, _, dir := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")

	require.NoError(t, coll.WithLock(ctx, appendRecords(testRecord{ID: "a", Value: 1})))

	raw, err := os.ReadFile(filepath.Join(dir, "things.json"))
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": \"a\",\n    \"value\": 1,\n    \"note\": null\n  }\n]\n", string(raw))
}

func TestCollection_WithLockSerializesWriters(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- coll.WithLock(ctx, appendRecords(testRecord{ID: fmt.Sprintf("r%02d", i), Value: i}))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := coll.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, writers)

	seen := make(map[string]bool)
	for _, r := range records {
		assert.False(t, seen[r.ID], "duplicate record %s", r.ID)
		seen[r.ID] = true
	}
}

type countingBackend struct {
	Backend
	mu       sync.Mutex
	replaces int
}

func (b *countingBackend) Replace(ctx context.Context, name string, data []byte) error {
	b.mu.Lock()
	b.replaces++
	b.mu.Unlock()
	return b.Backend.Replace(ctx, name, data)
}

func TestCollection_NoChangeSkipsPersist(t *testing.T) {
	ctx := context.Background()
	_, fileBackend, _ := newFileStore(t)
	backend := &countingBackend{Backend: fileBackend}
	store := New(backend)
	coll := NewCollection[testRecord](store, "things")

	require.NoError(t, coll.WithLock(ctx, appendRecords(testRecord{ID: "a"})))
	require.Equal(t, 1, backend.replaces)

	err := coll.WithLock(ctx, func(records []testRecord) ([]testRecord, error) {
		return nil, ErrNoChange
	})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.replaces)
}

func TestCollection_BodyErrorAbortsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")
	require.NoError(t, coll.WithLock(ctx, appendRecords(testRecord{ID: "a", Value: 1})))

	errRule := errors.New("rule violated")
	err := coll.WithLock(ctx, func(records []testRecord) ([]testRecord, error) {
		records[0].Value = 99
		return records, errRule
	})
	require.ErrorIs(t, err, errRule)

	records, err := coll.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, records[0].Value)
}

func TestFileBackend_FailedWriteKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store, backend, dir := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")

	before := []testRecord{{ID: "a", Value: 1}, {ID: "b", Value: 2}}
	require.NoError(t, coll.WithLock(ctx, appendRecords(before...)))

	// Simulate the process dying halfway through writing the new snapshot.
	backend.write = func(w io.Writer, data []byte) error {
		if _, err := w.Write(data[:len(data)/2]); err != nil {
			return err
		}
		return errors.New("disk full")
	}

	err := coll.WithLock(ctx, appendRecords(testRecord{ID: "c", Value: 3}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	got, err := coll.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"things.json"}, names, "staging file left behind")

	backend.write = writeAll
	require.NoError(t, coll.WithLock(ctx, appendRecords(testRecord{ID: "c", Value: 3})))
	got, err = coll.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCollection_CorruptSnapshotIsStorageUnavailable(t *testing.T) {
	ctx := context.Background()
	store, _, dir := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "things.json"), []byte(`[{"id": "a"`), 0o644))

	_, err := coll.Load(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	err = coll.WithLock(ctx, appendRecords(testRecord{ID: "b"}))
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	raw, err := os.ReadFile(filepath.Join(dir, "things.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"id": "a"`, string(raw))
}

func TestCollection_LockTimeout(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newFileStore(t, WithLockTimeout(50*time.Millisecond))
	coll := NewCollection[testRecord](store, "things")

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- coll.WithLock(ctx, func(records []testRecord) ([]testRecord, error) {
			close(held)
			<-release
			return nil, ErrNoChange
		})
	}()
	<-held

	err := coll.WithLock(ctx, appendRecords(testRecord{ID: "late"}))
	assert.ErrorIs(t, err, ErrLockTimeout)

	// Other collections are not blocked.
	require.NoError(t, NewCollection[testRecord](store, "others").WithLock(ctx, appendRecords(testRecord{ID: "x"})))

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, coll.WithLock(ctx, appendRecords(testRecord{ID: "late"})))
}

func TestCollection_CancelledCallerReturnsContextError(t *testing.T) {
	store, _, _ := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- coll.WithLock(context.Background(), func(records []testRecord) ([]testRecord, error) {
			close(held)
			<-release
			return nil, ErrNoChange
		})
	}()
	<-held

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := coll.WithLock(ctx, appendRecords(testRecord{ID: "a"}))
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-done)
}

func TestCollection_CancellationAfterLockStillPersists(t *testing.T) {
	store, _, _ := newFileStore(t)
	coll := NewCollection[testRecord](store, "things")

	ctx, cancel := context.WithCancel(context.Background())
	err := coll.WithLock(ctx, func(records []testRecord) ([]testRecord, error) {
		cancel()
		return append(records, testRecord{ID: "a", Value: 1}), nil
	})
	require.NoError(t, err)

	records, err := coll.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []testRecord{{ID: "a", Value: 1}}, records)
}

func TestStore_Bootstrap(t *testing.T) {
	ctx := context.Background()
	store, _, dir := newFileStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept.json"), []byte(`[{"id":"k","value":7,"note":null}]`), 0o644))

	store.Bootstrap(ctx, "fresh", "broken", "kept")

	raw, err := os.ReadFile(filepath.Join(dir, "fresh.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))

	raw, err = os.ReadFile(filepath.Join(dir, "broken.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(raw))

	matches, err := filepath.Glob(filepath.Join(dir, "broken.corrupt-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	preserved, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(preserved))

	kept, err := NewCollection[testRecord](store, "kept").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []testRecord{{ID: "k", Value: 7}}, kept)
}

func TestStore_BootstrapUnreadableCollection(t *testing.T) {
	ctx := context.Background()
	store, _, dir := newFileStore(t)

	// A directory where the snapshot should be cannot be read as a file.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "employees.json"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "employees.json", "stray"), []byte("x"), 0o644))

	store.Bootstrap(ctx, "employees")

	coll := NewCollection[testRecord](store, "employees")
	records, err := coll.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	matches, err := filepath.Glob(filepath.Join(dir, "employees.unreadable-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	stray, err := os.ReadFile(filepath.Join(matches[0], "stray"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(stray), "the unreadable snapshot is kept aside")

	require.NoError(t, coll.WithLock(ctx, appendRecords(testRecord{ID: "a", Value: 1})))
	records, err = coll.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []testRecord{{ID: "a", Value: 1}}, records)
}

// unreadableBackend fails every read of one collection and cannot move
// snapshots aside.
type unreadableBackend struct {
	Backend
	broken string
}

func (b unreadableBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if name == b.broken {
		return nil, errors.New("input/output error")
	}
	return b.Backend.Read(ctx, name)
}

func TestStore_BootstrapDegradedCollectionLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	fileBackend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := New(unreadableBackend{Backend: fileBackend, broken: "employees"})

	// Before Bootstrap an unreadable collection is an error.
	_, err = NewCollection[testRecord](store, "employees").Load(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	store.Bootstrap(ctx, "employees", "leaves")

	records, err := NewCollection[testRecord](store, "employees").Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	err = NewCollection[testRecord](store, "employees").WithLock(ctx, appendRecords(testRecord{ID: "a"}))
	assert.ErrorIs(t, err, ErrStorageUnavailable, "writes still refuse to overwrite what they cannot read")

	require.NoError(t, NewCollection[testRecord](store, "leaves").WithLock(ctx, appendRecords(testRecord{ID: "l"})))
}
