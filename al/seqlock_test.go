package al

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqlockLoadReturnsInitialValue(t *testing.T) {
	sl := newSeqlock(7)
	assert.Equal(t, 7, sl.Load())
}

func TestSeqlockPublishIsVisible(t *testing.T) {
	sl := newSeqlock(0)
	sl.Publish(99)
	assert.Equal(t, 99, sl.Load())
	assert.Equal(t, uint64(2), sl.Seq())
}

func TestSeqlockConcurrentPublishAndLoad(t *testing.T) {
	sl := newSeqlock(listenerState{})
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			sl.Publish(listenerState{Gain: float32(i)})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			v := sl.Load()
			_ = v.Gain // any value read must be a whole, previously-published snapshot
		}
	}()

	wg.Wait()
}
