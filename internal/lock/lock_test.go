package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameDoctor(t *testing.T) {
	km := NewKeyedMutex()
	doctorID := uuid.New()

	const workers = 16
	var (
		wg      sync.WaitGroup
		counter int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := km.WithDoctorLock(context.Background(), doctorID, func(context.Context) error {
				// A data race here would be caught by the race detector;
				// the lock makes the unsynchronized increment safe.
				counter++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyedMutexDifferentDoctorsDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()
	first, second := uuid.New(), uuid.New()

	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = km.WithDoctorLock(context.Background(), first, func(context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	done := make(chan struct{})
	go func() {
		_ = km.WithDoctorLock(context.Background(), second, func(context.Context) error {
			close(done)
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different doctor should not block")
	}
}

func TestKeyedMutexPropagatesError(t *testing.T) {
	km := NewKeyedMutex()
	want := assert.AnError

	err := km.WithDoctorLock(context.Background(), uuid.New(), func(context.Context) error {
		return want
	})
	assert.ErrorIs(t, err, want)
}

func TestKeyedMutexCancelledContext(t *testing.T) {
	km := NewKeyedMutex()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := km.WithDoctorLock(ctx, uuid.New(), func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
