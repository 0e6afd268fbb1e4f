package recordstore

import (
	"context"
	"errors"
	"fmt"
)

// Collection is a typed handle on one named collection of a Store.
type Collection[T any] struct {
	store *Store
	name  string
}

func NewCollection[T any](store *Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns the current snapshot in stored order. It does not take the
// collection lock, so it may observe a snapshot that a concurrent writer is
// about to replace, but never a partial one. A collection that Bootstrap left
// degraded loads as empty while its storage stays unreadable.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.store.backend.Read(ctx, c.name)
	if err != nil {
		if errors.Is(err, ErrNotExist) || c.store.isDegraded(c.name) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w: %w", c.name, ErrStorageUnavailable, err)
	}
	return decode[T](c.name, raw)
}

// WithLock runs fn inside the collection's exclusive section. fn receives the
// full collection and returns the full updated collection, which is persisted
// before the lock is released. Returning ErrNoChange skips persistence; any
// other error aborts and is returned as is.
//
// Waiting for the lock honours ctx and the store's lock timeout. Once the lock
// is held the mutation runs to completion even if ctx is cancelled.
func (c *Collection[T]) WithLock(ctx context.Context, fn func(records []T) ([]T, error)) error {
	l := c.store.lock(c.name)

	acquireCtx, cancel := context.WithTimeout(ctx, c.store.lockTimeout)
	defer cancel()
	if err := l.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", c.name, ErrLockTimeout)
	}
	defer l.Release(1)

	ctx = context.WithoutCancel(ctx)

	if tb, ok := c.store.backend.(TxBackend); ok {
		err := tb.Transact(ctx, c.name, func(current []byte) ([]byte, error) {
			return c.apply(current, fn)
		})
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	raw, err := c.store.backend.Read(ctx, c.name)
	if err != nil && !errors.Is(err, ErrNotExist) {
		return fmt.Errorf("read %s: %w: %w", c.name, ErrStorageUnavailable, err)
	}

	next, err := c.apply(raw, fn)
	if err != nil {
		if errors.Is(err, ErrNoChange) {
			return nil
		}
		return err
	}

	if err := c.store.backend.Replace(ctx, c.name, next); err != nil {
		return fmt.Errorf("persist %s: %w: %w", c.name, ErrStorageUnavailable, err)
	}
	return nil
}

func (c *Collection[T]) apply(raw []byte, fn func(records []T) ([]T, error)) ([]byte, error) {
	records, err := decode[T](c.name, raw)
	if err != nil {
		return nil, err
	}
	updated, err := fn(records)
	if err != nil {
		return nil, err
	}
	return encode(c.name, updated)
}
