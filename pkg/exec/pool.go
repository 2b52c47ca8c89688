package exec

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuemby/vexdb/pkg/log"
	"github.com/rs/zerolog"
)

// Pool is a bounded worker pool with a synchronous handoff queue
// (spec §4.6/§5): Submit hands a job to an idle worker when one is free,
// spawns a transient worker for it while below maxThreads, and otherwise
// runs the job on the calling goroutine rather than blocking for
// capacity — "the calling thread is the next worker". The
// scheduler relies on this: it calls Submit from inside worker goroutines
// to re-evaluate newly-ready dependents, and a blocking handoff there can
// starve the pool of receivers and deadlock it.
type Pool struct {
	core int
	max  int

	keepAlive time.Duration
	jobs      chan func()

	active int32 // atomic: goroutines currently servicing jobs or idle-waiting beyond core
	wg     sync.WaitGroup
	stopCh chan struct{}
	logger zerolog.Logger
}

// Config configures a Pool.
type Config struct {
	CoreThreads int
	MaxThreads  int
	KeepAlive   time.Duration
}

// NewPool builds a Pool and starts its core workers.
func NewPool(cfg Config) *Pool {
	if cfg.CoreThreads < 1 {
		cfg.CoreThreads = 1
	}
	if cfg.MaxThreads < cfg.CoreThreads {
		cfg.MaxThreads = cfg.CoreThreads
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 30 * time.Second
	}
	p := &Pool{
		core:      cfg.CoreThreads,
		max:       cfg.MaxThreads,
		keepAlive: cfg.KeepAlive,
		jobs:      make(chan func()),
		stopCh:    make(chan struct{}),
		logger:    log.WithComponent("exec.pool"),
	}
	for i := 0; i < p.core; i++ {
		p.spawn(true)
	}
	return p
}

// Submit hands fn to a worker if one is immediately free. If none is and
// the pool hasn't reached maxThreads, a transient worker is spawned and
// Submit waits until a worker takes fn. At maxThreads with no idle
// worker, Submit never blocks waiting for a receiver: it
// runs fn on the calling goroutine. That is the pool's actual admission
// contract, not an edge case — without it, a worker goroutine that calls
// Submit to hand off a dependent task could block forever once every
// other worker is itself blocked the same way, with nothing left to
// drain the jobs channel.
func (p *Pool) Submit(fn func()) {
	select {
	case p.jobs <- fn:
		return
	case <-p.stopCh:
		return
	default:
	}
	if atomic.LoadInt32(&p.active) < int32(p.max) {
		p.spawn(false)
		select {
		case p.jobs <- fn:
		case <-p.stopCh:
		}
		return
	}
	fn()
}

func (p *Pool) spawn(permanent bool) {
	atomic.AddInt32(&p.active, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer atomic.AddInt32(&p.active, -1)
		idle := time.NewTimer(p.keepAlive)
		defer idle.Stop()
		for {
			select {
			case fn, ok := <-p.jobs:
				if !ok {
					return
				}
				fn()
				if !idle.Stop() {
					<-idle.C
				}
				idle.Reset(p.keepAlive)
			case <-idle.C:
				if !permanent {
					return
				}
				idle.Reset(p.keepAlive)
			case <-p.stopCh:
				return
			}
		}
	}()
}

// Stop signals every worker to exit once its current job (if any)
// finishes, and waits for them to do so.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

// ActiveWorkers reports the current number of live worker goroutines,
// for /metrics.
func (p *Pool) ActiveWorkers() int {
	return int(atomic.LoadInt32(&p.active))
}
