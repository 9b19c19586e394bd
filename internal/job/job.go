package job

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/jobgrid/internal/ctxlog"
	"github.com/vk/jobgrid/internal/entry"
)

// WorkFunc is the unit of executable work carried by a Job. Any error it
// returns (or panic it raises) is recorded on the job and contained there;
// it never reaches the worker's control loop.
type WorkFunc func(ctx context.Context) error

// Scheduler is the capability a Job needs from whatever runs it: a place to
// put itself once its dependency count reaches zero. The manager implements
// it; tests substitute fakes.
type Scheduler interface {
	Enqueue(j *Job)
}

// Job is a leaf entry in the dependency graph: a dependency counter plus one
// unit of executable work. The graph builder owns the Job; the scheduler
// only borrows a reference while it is queued or running.
type Job struct {
	id   string
	work WorkFunc
	deps *entry.Counter

	// state holds the lifecycle phase as a State value, managed atomically.
	state atomic.Int32

	// mu guards sched, err and output. The scheduler reference is written
	// once at submission and read on the ready transition, which may race
	// with it from a completing upstream worker.
	mu     sync.Mutex
	sched  Scheduler
	err    error
	output any

	// enqueueOnce guarantees the job enters the ready queue exactly once
	// even when the zero-crossing and the submission race.
	enqueueOnce sync.Once

	// done is closed when the job reaches Completed.
	done chan struct{}
}

// New returns a Job in the Pending state with a zero dependency count.
// Dependencies are added by wiring edges through an entry.DependencyTable.
func New(id string, work WorkFunc) *Job {
	return &Job{
		id:   id,
		work: work,
		deps: entry.NewCounter(id),
		done: make(chan struct{}),
	}
}

// ID implements entry.Entry.
func (j *Job) ID() string { return j.id }

// DependencyCount implements entry.Entry.
func (j *Job) DependencyCount() int32 { return j.deps.Count() }

// IncrementDependency implements entry.Entry. It must only be used while the
// job is still Pending; a job cannot be made un-ready once it has entered
// the queue.
func (j *Job) IncrementDependency() {
	j.deps.Increment()
}

// DecrementDependency implements entry.Entry. The caller that observes the
// zero-crossing transitions the job to Ready and hands it to the scheduler.
func (j *Job) DecrementDependency() {
	if j.deps.Decrement() {
		j.ready()
	}
}

// State returns the job's current lifecycle phase.
func (j *Job) State() State {
	return State(j.state.Load())
}

// Err returns the error recorded by the work function. It is only
// meaningful once the job is Completed.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Output returns the value stored by the work function, if any.
func (j *Job) Output() any {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.output
}

// SetOutput records the job's result for downstream consumers.
func (j *Job) SetOutput(v any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.output = v
}

// Done returns a channel closed when the job reaches Completed, whether the
// work succeeded or failed.
func (j *Job) Done() <-chan struct{} { return j.done }

// Attach binds the job to a scheduler. The manager calls it from Submit. If
// the dependency count is already zero — either because the job never had
// dependencies or because every upstream finished before submission — the
// job is enqueued immediately.
func (j *Job) Attach(s Scheduler) {
	j.mu.Lock()
	j.sched = s
	j.mu.Unlock()

	if j.deps.Count() == 0 {
		j.state.CompareAndSwap(int32(Pending), int32(Ready))
	}
	if j.State() == Ready {
		j.tryEnqueue()
	}
}

// ready performs the Pending -> Ready transition. Exactly one caller gets
// here per job: the decrementer that observed the zero-crossing.
func (j *Job) ready() {
	if !j.state.CompareAndSwap(int32(Pending), int32(Ready)) {
		return
	}
	j.tryEnqueue()
}

// tryEnqueue hands the job to its scheduler exactly once. When the job
// becomes ready before it has been submitted there is no scheduler yet;
// Attach retries the enqueue in that case.
func (j *Job) tryEnqueue() {
	j.mu.Lock()
	s := j.sched
	j.mu.Unlock()
	if s == nil {
		return
	}
	j.enqueueOnce.Do(func() {
		s.Enqueue(j)
	})
}

// Execute runs the work function on the calling worker goroutine. Failures
// and panics are recorded on the job; a *entry.ConsistencyError raised by
// work that manipulates counters is re-panicked, because a corrupted graph
// must abort the run rather than be absorbed as a job failure. Execute
// always leaves the job Completed and closes Done; it does not notify
// dependents — the worker does that through the dependency table so a
// failing job still unblocks its downstream.
func (j *Job) Execute(ctx context.Context) {
	j.state.Store(int32(Running))

	err := j.invoke(ctx)

	j.mu.Lock()
	j.err = err
	j.mu.Unlock()
	j.state.Store(int32(Completed))
	close(j.done)

	if err != nil {
		ctxlog.FromContext(ctx).Error("Job failed.", "job", j.id, "error", err)
	}
}

// invoke calls the work function with a panic boundary.
func (j *Job) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*entry.ConsistencyError); ok {
				panic(ce)
			}
			err = fmt.Errorf("job %q panicked: %v", j.id, r)
		}
	}()
	return j.work(ctx)
}
