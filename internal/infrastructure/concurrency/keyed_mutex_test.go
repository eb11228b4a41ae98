package concurrency

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex(16)
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock(id)
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedMutex_DifferentShardsDoNotBlock(t *testing.T) {
	m := NewKeyedMutex(64)

	a := uuid.New()
	b := uuid.New()
	for m.ShardIndex(a) == m.ShardIndex(b) {
		b = uuid.New()
	}

	unlock := m.Lock(a)
	defer unlock()

	done := make(chan struct{})
	go func() {
		m.Lock(b)()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another player blocked")
	}
}

func TestKeyedMutex_ShardIndexIsStable(t *testing.T) {
	m := NewKeyedMutex(0)
	id := uuid.New()
	assert.Equal(t, 0, m.ShardIndex(id))

	m = NewKeyedMutex(32)
	assert.Equal(t, m.ShardIndex(id), m.ShardIndex(id))
	assert.Less(t, m.ShardIndex(id), 32)
}
