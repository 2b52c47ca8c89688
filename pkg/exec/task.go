package exec

import (
	"sync"

	"github.com/cuemby/vexdb/pkg/recordset"
	"github.com/cuemby/vexdb/pkg/types"
	"github.com/google/uuid"
)

// TaskState is a task's position in the plan's execution lifecycle.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskSkipped
)

// Execute runs a task given its parents' outputs, in parent declaration
// order, and produces one Recordset output.
type Execute func(inputs []recordset.Recordset) (recordset.Recordset, error)

// Task is one node of a query plan's DAG (spec §4.6): a source task has
// no parents, a unary task has one, a binary task has two.
type Task struct {
	ID      uuid.UUID
	Parents []*Task
	Cost    float64
	Run     Execute

	mu       sync.Mutex
	state    TaskState
	result   recordset.Recordset
	err      error
	children []*Task
}

// NewTask builds a task with a fresh id.
func NewTask(run Execute, cost float64, parents ...*Task) *Task {
	t := &Task{ID: uuid.New(), Parents: parents, Cost: cost, Run: run, state: TaskPending}
	for _, p := range parents {
		p.children = append(p.children, t)
	}
	return t
}

func (t *Task) ready() bool {
	for _, p := range t.Parents {
		p.mu.Lock()
		s := p.state
		p.mu.Unlock()
		if s != TaskCompleted && s != TaskFailed && s != TaskSkipped {
			return false
		}
	}
	return true
}

func (t *Task) parentFailed() bool {
	for _, p := range t.Parents {
		p.mu.Lock()
		s := p.state
		p.mu.Unlock()
		if s == TaskFailed || s == TaskSkipped {
			return true
		}
	}
	return false
}

func (t *Task) inputs() []recordset.Recordset {
	in := make([]recordset.Recordset, len(t.Parents))
	for i, p := range t.Parents {
		p.mu.Lock()
		in[i] = p.result
		p.mu.Unlock()
	}
	return in
}

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns the task's output and error, valid once State() is
// TaskCompleted or TaskFailed.
func (t *Task) Result() (recordset.Recordset, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

func (t *Task) execute() {
	if t.parentFailed() {
		t.mu.Lock()
		t.state = TaskFailed
		t.err = types.NewError(types.ErrParentFailed, "a parent task failed or was skipped", nil)
		t.mu.Unlock()
		return
	}
	in := t.inputs()
	res, err := t.Run(in)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.state = TaskFailed
		t.err = err
		return
	}
	t.state = TaskCompleted
	t.result = res
}

// Plan is the full DAG for one query: every task it contains, rooted at
// one final task whose output is the query result.
type Plan struct {
	Tasks []*Task
	Root  *Task
}

// NewPlan collects every task reachable from root (via Parents) into a
// Plan.
func NewPlan(root *Task) *Plan {
	seen := make(map[uuid.UUID]bool)
	var all []*Task
	var visit func(*Task)
	visit = func(t *Task) {
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		for _, p := range t.Parents {
			visit(p)
		}
		all = append(all, t)
	}
	visit(root)
	return &Plan{Tasks: all, Root: root}
}
