/*
Package exec implements the query engine's execution graph: a directed
acyclic graph of Tasks, and a Pool of workers, bounded by
[coreThreads, maxThreads], that runs them.

A Task becomes ready once every parent has produced a Recordset or
failed. Ready tasks are submitted to the Pool over an unbuffered
("synchronous handoff") channel: an idle worker takes the task at once;
if none is idle and the pool is below maxThreads, a new worker is
spawned and the submission waits until a worker accepts it; if every
worker is busy and the pool is at maxThreads, the submitting goroutine
runs the task itself.
Completion of one task triggers re-evaluation of its dependents; a task
whose parent failed propagates ParentFailed downstream without ever
executing. The scheduler offers no preemption — a task runs to
completion once started — and makes no ordering guarantee among sibling
tasks beyond the graph's declared edges.

Cancelling a Plan marks every not-yet-started task as skipped;
in-flight tasks are allowed to finish, and partial results are
discarded.
*/
package exec
