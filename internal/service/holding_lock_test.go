package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestKeyedMutex tests per-key serialisation and cleanup.
func TestKeyedMutex(t *testing.T) {
	t.Run("serialises the same key", func(t *testing.T) {
		locks := newKeyedMutex()
		var wg sync.WaitGroup
		inside, maxInside := 0, 0
		var mu sync.Mutex

		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locks.Lock("h1")
				defer unlock()

				mu.Lock()
				inside++
				maxInside = max(maxInside, inside)
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxInside)
		assert.Equal(t, 0, locks.size())
	})

	t.Run("different keys do not block", func(t *testing.T) {
		locks := newKeyedMutex()
		unlockA := locks.Lock("a")
		unlockB := locks.Lock("b")

		assert.Equal(t, 2, locks.size())
		unlockA()
		unlockB()
		assert.Equal(t, 0, locks.size())
	})
}
