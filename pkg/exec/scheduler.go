package exec

import (
	"sync"

	"github.com/cuemby/vexdb/pkg/events"
	"github.com/cuemby/vexdb/pkg/log"
	"github.com/cuemby/vexdb/pkg/recordset"
)

// Scheduler drives one Plan's tasks to completion over a shared Pool,
// re-evaluating dependents as each task finishes (spec §4.6).
type Scheduler struct {
	pool   *Pool
	broker *events.Broker
}

// NewScheduler builds a Scheduler over pool, publishing task lifecycle
// events to broker if non-nil.
func NewScheduler(pool *Pool, broker *events.Broker) *Scheduler {
	return &Scheduler{pool: pool, broker: broker}
}

// Run executes plan to completion and returns the root task's output.
// No ordering is guaranteed among sibling tasks beyond the graph's
// declared edges.
func (s *Scheduler) Run(plan *Plan) (recordset.Recordset, error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	submitted := make(map[*Task]bool, len(plan.Tasks))

	var tryAdvance func()
	tryAdvance = func() {
		mu.Lock()
		var toSubmit []*Task
		for _, t := range plan.Tasks {
			if submitted[t] {
				continue
			}
			if t.State() != TaskPending || !t.ready() {
				continue
			}
			submitted[t] = true
			toSubmit = append(toSubmit, t)
		}
		mu.Unlock()

		for _, t := range toSubmit {
			wg.Add(1)
			task := t
			s.pool.Submit(func() {
				defer wg.Done()
				task.execute()
				s.publish(task)
				tryAdvance()
			})
		}
	}

	tryAdvance()
	wg.Wait()

	return plan.Root.Result()
}

func (s *Scheduler) publish(t *Task) {
	if s.broker == nil {
		return
	}
	switch t.State() {
	case TaskCompleted:
		s.broker.Publish(&events.Event{Type: events.EventTaskCompleted, Message: t.ID.String()})
	case TaskFailed:
		s.broker.Publish(&events.Event{Type: events.EventTaskFailed, Message: t.ID.String()})
	}
}

// Cancel marks every not-yet-started task in plan as skipped; tasks
// already running are left to finish, and their results are discarded
// by the caller.
func Cancel(plan *Plan) {
	for _, t := range plan.Tasks {
		t.mu.Lock()
		if t.state == TaskPending {
			t.state = TaskSkipped
		}
		t.mu.Unlock()
	}
	log.WithComponent("exec").Info().Msg("plan cancelled")
}
