package lock

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrLockNotAcquired = errors.New("doctor lock not acquired")

// Locker serializes mutations of a single doctor's schedule. Book, cancel,
// complete, reschedule and availability writes for a doctor all run inside
// WithDoctorLock so the non-overlap invariant holds under concurrent callers.
// Different doctors never contend with each other.
type Locker interface {
	WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error
}

// KeyedMutex is an in-process Locker backed by one mutex per doctor.
// Suitable for a single-node deployment and for tests; multi-node
// deployments use the Redis locker instead.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (k *KeyedMutex) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	m, ok := k.locks[doctorID]
	if !ok {
		m = &sync.Mutex{}
		k.locks[doctorID] = m
	}
	k.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	return fn(ctx)
}
