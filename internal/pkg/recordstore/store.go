// Package recordstore keeps named collections of records on durable storage.
//
// A collection is read and rewritten as a whole. Writers to the same
// collection are serialized, and every successful write replaces the previous
// snapshot atomically: after a failure the next Load sees either the old
// snapshot or the new one, never a partial file.
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrStorageUnavailable wraps every I/O or decoding failure of the
	// underlying storage. The previous snapshot remains authoritative.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrLockTimeout is returned when a collection lock cannot be acquired
	// within the store's lock timeout.
	ErrLockTimeout = errors.New("timed out waiting for collection lock")
	// ErrNoChange may be returned by a WithLock body to release the lock
	// without persisting anything. WithLock then returns nil.
	ErrNoChange = errors.New("no change")
	// ErrNotExist is returned by backends for a collection that was never written.
	ErrNotExist = errors.New("collection does not exist")
)

// DefaultLockTimeout bounds how long WithLock waits for a busy collection.
const DefaultLockTimeout = 5 * time.Second

var emptySnapshot = []byte("[]\n")

// Backend reads and atomically replaces raw collection snapshots.
type Backend interface {
	// Read returns the raw snapshot or ErrNotExist.
	Read(ctx context.Context, name string) ([]byte, error)
	// Replace swaps the snapshot for data in one atomic step.
	Replace(ctx context.Context, name string, data []byte) error
	Close() error
}

// TxBackend is implemented by backends that can hold their own lock on a
// collection while fn runs, so that separate processes serialize as well.
// current is nil when the collection does not exist yet. An error from fn
// aborts the transaction and is returned unchanged.
type TxBackend interface {
	Backend
	Transact(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error
}

// AsideMover is implemented by backends that can rename a snapshot they are
// unable to read, so that Bootstrap can reseed the collection in its place.
type AsideMover interface {
	MoveAside(ctx context.Context, name, aside string) error
}

type Store struct {
	backend     Backend
	lockTimeout time.Duration

	mu       sync.Mutex
	locks    map[string]*semaphore.Weighted
	degraded map[string]bool
}

type Option func(*Store)

// WithLockTimeout overrides DefaultLockTimeout. Non-positive values are ignored.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		lockTimeout: DefaultLockTimeout,
		locks:       make(map[string]*semaphore.Weighted),
		degraded:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// lock returns the exclusive lock shared by every handle of a collection name.
func (s *Store) lock(name string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = semaphore.NewWeighted(1)
		s.locks[name] = l
	}
	return l
}

func (s *Store) markDegraded(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded[name] = true
}

// isDegraded reports whether Bootstrap found name unreadable and could not
// reseed it. Reads of such a collection fail open as empty.
func (s *Store) isDegraded(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded[name]
}

// Bootstrap prepares the named collections at startup. A missing collection
// is seeded empty. A collection whose snapshot is not a JSON array is copied
// aside as "<name>.corrupt-<unix>" and reseeded empty. A collection that
// cannot be read at all is moved aside as "<name>.unreadable-<unix>" and
// reseeded empty; when the backend cannot do that, the collection is marked
// degraded and Load returns it empty. Bootstrap never fails: problems are
// logged and the process keeps serving.
func (s *Store) Bootstrap(ctx context.Context, names ...string) {
	for _, name := range names {
		raw, err := s.backend.Read(ctx, name)
		switch {
		case errors.Is(err, ErrNotExist):
			if err := s.backend.Replace(ctx, name, emptySnapshot); err != nil {
				slog.Error("Record store: failed to seed collection", "collection", name, "error", err)
				continue
			}
			slog.Info("Record store: seeded empty collection", "collection", name)

		case err != nil:
			slog.Error("Record store: collection unreadable", "collection", name, "error", err)
			aside, err := s.reseedUnreadable(ctx, name)
			if err != nil {
				s.markDegraded(name)
				slog.Warn("Record store: unreadable collection served empty", "collection", name, "error", err)
				continue
			}
			slog.Warn("Record store: unreadable collection reseeded empty", "collection", name, "preserved_as", aside)

		case !isSnapshot(raw):
			aside := name + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
			if err := s.backend.Replace(ctx, aside, raw); err != nil {
				slog.Error("Record store: failed to preserve corrupt collection", "collection", name, "error", err)
				continue
			}
			if err := s.backend.Replace(ctx, name, emptySnapshot); err != nil {
				slog.Error("Record store: failed to reseed corrupt collection", "collection", name, "error", err)
				continue
			}
			slog.Warn("Record store: corrupt collection reseeded empty", "collection", name, "preserved_as", aside)
		}
	}
}

func (s *Store) reseedUnreadable(ctx context.Context, name string) (string, error) {
	mover, ok := s.backend.(AsideMover)
	if !ok {
		return "", errors.New("backend cannot move snapshots aside")
	}
	aside := name + ".unreadable-" + strconv.FormatInt(time.Now().Unix(), 10)
	if err := mover.MoveAside(ctx, name, aside); err != nil {
		return "", err
	}
	if err := s.backend.Replace(ctx, name, emptySnapshot); err != nil {
		return "", fmt.Errorf("reseed %s: %w", name, err)
	}
	return aside, nil
}

func isSnapshot(raw []byte) bool {
	var items []json.RawMessage
	return json.Unmarshal(raw, &items) == nil
}

func decode[T any](name string, raw []byte) ([]T, error) {
	records := []T{}
	if len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", name, ErrStorageUnavailable, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func encode[T any](name string, records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return append(data, '\n'), nil
}
