package reconcile

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := newKeyedMutex()
	counter := 0

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("u1")
			defer km.Unlock("u1")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	km := newKeyedMutex()
	km.Lock("u1")
	defer km.Unlock("u1")

	done := make(chan struct{})
	go func() {
		km.Lock("u2")
		km.Unlock("u2")
		close(done)
	}()
	<-done
}

func TestKeyedMutex_IdleEntriesAreReleased(t *testing.T) {
	km := newKeyedMutex()
	km.Lock("u1")
	km.Unlock("u1")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}
