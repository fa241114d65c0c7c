package locking

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAcquire_Exclusive(t *testing.T) {
	m := NewManager()

	var inCritical int32
	var maxSeen int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := m.Acquire("sg-1")
			defer h.Release()

			n := atomic.AddInt32(&inCritical, 1)
			if n > atomic.LoadInt32(&maxSeen) {
				atomic.StoreInt32(&maxSeen, n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inCritical, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen, "two holders of the same key overlapped")
}

func TestAcquire_IndependentKeys(t *testing.T) {
	m := NewManager()

	h1 := m.Acquire("port-a")
	done := make(chan struct{})
	go func() {
		h2 := m.Acquire("port-b")
		h2.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquisition of a different key blocked")
	}
	h1.Release()
}

func TestAcquire_SequentialSameKey(t *testing.T) {
	// The security-group handlers each lock the same group id in sequence.
	m := NewManager()
	for i := 0; i < 3; i++ {
		h := m.Acquire("sg-1")
		h.Release()
	}
	assert.Equal(t, 0, m.Size())
}

func TestRelease_Idempotent(t *testing.T) {
	m := NewManager()

	h := m.Acquire("sg-1")
	h.Release()
	assert.NotPanics(t, func() { h.Release() })
	assert.Equal(t, 0, m.Size())

	// A stale handle must not disturb a later holder of the same key.
	h2 := m.Acquire("sg-1")
	h.Release()
	assert.Equal(t, 1, m.Size())
	h2.Release()
	assert.Equal(t, 0, m.Size())
}

func TestRelease_CollectsEntries(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := m.Acquire("qos-1")
			h.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, m.Size(), "registry retained unreferenced locks")
}
