package sched

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vk/jobgrid/internal/chann"
	"github.com/vk/jobgrid/internal/ctxlog"
	"github.com/vk/jobgrid/internal/entry"
	"github.com/vk/jobgrid/internal/job"
)

// ErrManagerClosed is returned by Submit after Close has begun.
var ErrManagerClosed = errors.New("sched: manager closed")

// Manager owns the worker pool and the ready queue. Jobs are submitted at
// any time; a job enters the queue the moment its dependency count is zero,
// workers pull one ready job at a time in FIFO-by-ready-time order, run it,
// and propagate completion through the dependency table.
//
// The manager borrows job references only. It never assumes ownership of the
// graph the caller built.
type Manager struct {
	workers int
	table   *entry.DependencyTable
	queue   *chann.Chann[*job.Job]

	eg *errgroup.Group

	// mu guards jobs, closed and inflight; cond signals inflight reaching
	// zero during Close's quiesce wait.
	mu       sync.Mutex
	cond     *sync.Cond
	jobs     map[string]*job.Job
	closed   bool
	started  bool
	inflight int
}

// New constructs a Manager over the given dependency table with a fixed
// number of workers. Call Start before submitting.
func New(table *entry.DependencyTable, workers int) *Manager {
	if workers < 1 {
		workers = 1
	}
	m := &Manager{
		workers: workers,
		table:   table,
		queue:   chann.New[*job.Job](),
		jobs:    make(map[string]*job.Job),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Start launches the worker pool. The context carries the logger and is
// handed to every work function; it does not cancel queued work — once
// submitted, a job runs to completion or records a failure.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting worker pool.", "workers", m.workers)

	m.eg = &errgroup.Group{}
	for i := 0; i < m.workers; i++ {
		m.eg.Go(func() error {
			m.worker(ctx, i)
			return nil
		})
	}
}

// Submit registers a job with the manager. A job whose dependency count is
// already zero goes straight onto the ready queue; otherwise it waits for
// propagation through the dependency table to reach zero. Submit must not be
// called concurrently with Close.
func (m *Manager) Submit(j *job.Job) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if _, dup := m.jobs[j.ID()]; dup {
		m.mu.Unlock()
		return fmt.Errorf("sched: job %q already submitted", j.ID())
	}
	m.jobs[j.ID()] = j
	m.mu.Unlock()

	j.Attach(m)
	return nil
}

// Enqueue implements job.Scheduler. It is called exactly once per job, by
// whichever side of the ready race got there: the submitting goroutine or a
// worker completing the job's last upstream.
func (m *Manager) Enqueue(j *job.Job) {
	m.mu.Lock()
	m.inflight++
	m.mu.Unlock()

	m.queue.In() <- j
}

// worker is the processing loop of one pool goroutine. It blocks on the
// ready queue, runs jobs to completion, and notifies dependents afterwards —
// a failed job still unblocks its downstream; dependents that care inspect
// the upstream's recorded error themselves.
func (m *Manager) worker(ctx context.Context, id int) {
	logger := ctxlog.FromContext(ctx).With("workerID", id)
	logger.Debug("Worker started.")

	for j := range m.queue.Out() {
		logger.Debug("Worker picked up job.", "job", j.ID())

		j.Execute(ctx)
		m.table.NotifyDependents(j)

		logger.Debug("Job completed.", "job", j.ID(), "failed", j.Err() != nil)

		m.mu.Lock()
		m.inflight--
		if m.inflight == 0 {
			m.cond.Broadcast()
		}
		m.mu.Unlock()
	}
	logger.Debug("Worker finished.")
}

// Close shuts the manager down: it refuses further submissions, lets the
// workers drain everything that is ready or becomes ready through in-flight
// completions, tears the pool down, and audits the submitted jobs. Jobs that
// never reached Completed are reported rather than silently dropped — a job
// still pending at shutdown usually means a broken graph (a missing external
// signal or an undetected cycle).
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	// Quiesce: every enqueued job, plus everything its completion cascades
	// into, must finish before the queue can be torn down. Cascades keep
	// inflight above zero because dependents are enqueued before the
	// finishing job is counted down.
	for m.inflight > 0 {
		m.cond.Wait()
	}
	started := m.started
	m.mu.Unlock()

	m.queue.Close()
	if started {
		_ = m.eg.Wait()
	}

	return m.audit(ctx)
}

// audit reports submitted jobs that never completed.
func (m *Manager) audit(ctx context.Context) error {
	m.mu.Lock()
	var stalled []string
	for id, j := range m.jobs {
		if j.State() != job.Completed {
			stalled = append(stalled, id)
		}
	}
	m.mu.Unlock()

	if len(stalled) == 0 {
		return nil
	}
	sort.Strings(stalled)
	ctxlog.FromContext(ctx).Warn("Jobs never became ready before shutdown.", "jobs", stalled)
	return fmt.Errorf("sched: %d job(s) never completed: %s", len(stalled), strings.Join(stalled, ", "))
}

// QueueLen returns an approximation of the number of ready jobs awaiting a
// worker. Exposed for the healthcheck surface.
func (m *Manager) QueueLen() int {
	return m.queue.Len()
}
