package exec

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	p := NewPool(Config{CoreThreads: 2, MaxThreads: 2})
	defer p.Stop()

	var mu sync.Mutex
	var n int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			mu.Lock()
			n++
			mu.Unlock()
		})
	}
	wg.Wait()
	assert.Equal(t, 10, n)
}

func TestPoolGrowsBeyondCoreUpToMax(t *testing.T) {
	p := NewPool(Config{CoreThreads: 1, MaxThreads: 4, KeepAlive: 50 * time.Millisecond})
	defer p.Stop()

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			<-release
		})
	}
	assert.Eventually(t, func() bool {
		return p.ActiveWorkers() >= 2
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
}

func TestPoolStopWaitsForWorkers(t *testing.T) {
	p := NewPool(Config{CoreThreads: 1, MaxThreads: 1})
	done := make(chan struct{})
	p.Submit(func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	})
	p.Stop()
	select {
	case <-done:
	default:
		t.Fatal("expected submitted job to finish before Stop returns")
	}
}
