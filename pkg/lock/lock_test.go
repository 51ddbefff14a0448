package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConcurrentReaders(t *testing.T) {
	var l IndexLock
	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.AcquireRead()
			defer l.ReleaseRead()
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	require.Greater(t, maxActive, int32(1))
}

func TestWriterExclusive(t *testing.T) {
	var l IndexLock
	var active int32
	var sawOverlap bool
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.AcquireWrite()
			defer l.ReleaseWrite()
			n := atomic.AddInt32(&active, 1)
			if n > 1 {
				mu.Lock()
				sawOverlap = true
				mu.Unlock()
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	require.False(t, sawOverlap)
}
