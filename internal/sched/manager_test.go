package sched

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/jobgrid/internal/entry"
	"github.com/vk/jobgrid/internal/group"
	"github.com/vk/jobgrid/internal/job"
)

// noopWork returns a work function that records its completion order.
func noopWork(mu *sync.Mutex, order *[]string, id string) job.WorkFunc {
	return func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		*order = append(*order, id)
		return nil
	}
}

func TestManager_RunsIndependentJobs(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 4)
	m.Start(context.Background())

	var mu sync.Mutex
	var order []string
	jobs := []*job.Job{
		job.New("a", noopWork(&mu, &order, "a")),
		job.New("b", noopWork(&mu, &order, "b")),
		job.New("c", noopWork(&mu, &order, "c")),
	}
	for _, j := range jobs {
		require.NoError(t, m.Submit(j))
	}

	require.NoError(t, m.Close(context.Background()))
	for _, j := range jobs {
		require.Equal(t, job.Completed, j.State())
		require.NoError(t, j.Err())
	}
	require.Len(t, order, 3)
}

// Diamond: a -> {b, c} -> d. Every job completes, and d runs after both
// middle jobs.
func TestManager_DiamondLiveness(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 4)
	m.Start(context.Background())

	var mu sync.Mutex
	var order []string
	a := job.New("a", noopWork(&mu, &order, "a"))
	b := job.New("b", noopWork(&mu, &order, "b"))
	c := job.New("c", noopWork(&mu, &order, "c"))
	d := job.New("d", noopWork(&mu, &order, "d"))

	table.AddDependent(a, b)
	table.AddDependent(a, c)
	table.AddDependent(b, d)
	table.AddDependent(c, d)

	for _, j := range []*job.Job{a, b, c, d} {
		require.NoError(t, m.Submit(j))
	}
	require.NoError(t, m.Close(context.Background()))

	require.Len(t, order, 4)
	require.Equal(t, "a", order[0])
	require.Equal(t, "d", order[3])
}

// Two sibling jobs complete concurrently into the same downstream job; the
// downstream must run exactly once, and only after both siblings.
func TestManager_FanInRunsDownstreamExactlyOnce(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 4)
	m.Start(context.Background())

	var siblingsDone atomic.Int32
	var downstreamRuns atomic.Int32
	var sawBothSiblings atomic.Bool

	mkSibling := func(id string) *job.Job {
		return job.New(id, func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			siblingsDone.Add(1)
			return nil
		})
	}
	s1 := mkSibling("s1")
	s2 := mkSibling("s2")
	down := job.New("down", func(context.Context) error {
		downstreamRuns.Add(1)
		sawBothSiblings.Store(siblingsDone.Load() == 2)
		return nil
	})

	table.AddDependent(s1, down)
	table.AddDependent(s2, down)

	require.NoError(t, m.Submit(s1))
	require.NoError(t, m.Submit(s2))
	require.NoError(t, m.Submit(down))
	require.NoError(t, m.Close(context.Background()))

	require.Equal(t, int32(1), downstreamRuns.Load(), "downstream must become ready exactly once")
	require.True(t, sawBothSiblings.Load(), "downstream must not start before both siblings completed")
}

// Job A (no deps) -> Job B (depends on A) -> Group G over {A, B} with a sync
// event: A runs before B, and G's wait returns only after both completed.
func TestManager_ChainWithBarrierGroup(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 4)
	m.Start(context.Background())

	var mu sync.Mutex
	var order []string
	a := job.New("a", noopWork(&mu, &order, "a"))
	b := job.New("b", noopWork(&mu, &order, "b"))

	table.AddDependent(a, b)

	g := group.New("group.g", table, true)
	g.AddStaticDependency(a)
	g.AddStaticDependency(b)

	require.NoError(t, m.Submit(a))
	require.NoError(t, m.Submit(b))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, g.Wait(ctx))

	require.Equal(t, job.Completed, a.State())
	require.Equal(t, job.Completed, b.State())
	require.Equal(t, []string{"a", "b"}, order)

	require.NoError(t, m.Close(context.Background()))
}

// A failing job records its error but still unblocks its dependents.
func TestManager_FailedJobStillNotifiesDependents(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 2)
	m.Start(context.Background())

	boom := errors.New("boom")
	a := job.New("a", func(context.Context) error { return boom })
	var ranB atomic.Bool
	b := job.New("b", func(context.Context) error {
		ranB.Store(true)
		return nil
	})
	table.AddDependent(a, b)

	require.NoError(t, m.Submit(a))
	require.NoError(t, m.Submit(b))
	require.NoError(t, m.Close(context.Background()), "a job failure is not a scheduling failure")

	require.ErrorIs(t, a.Err(), boom)
	require.True(t, ranB.Load(), "a failed upstream must not stall its dependents")
	require.NoError(t, b.Err())
}

// A panicking job is contained at the job boundary and the worker keeps
// serving the queue.
func TestManager_PanickingJobDoesNotKillWorker(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 1)
	m.Start(context.Background())

	p := job.New("panicky", func(context.Context) error { panic("kaboom") })
	var ranNext atomic.Bool
	next := job.New("next", func(context.Context) error {
		ranNext.Store(true)
		return nil
	})

	require.NoError(t, m.Submit(p))
	require.NoError(t, m.Submit(next))
	require.NoError(t, m.Close(context.Background()))

	require.ErrorContains(t, p.Err(), "kaboom")
	require.True(t, ranNext.Load())
}

// With a single worker, jobs that became ready in order run in order.
func TestManager_FIFOByReadyTime(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 1)
	m.Start(context.Background())

	var mu sync.Mutex
	var order []string
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, m.Submit(job.New(id, noopWork(&mu, &order, id))))
	}
	require.NoError(t, m.Close(context.Background()))

	require.Equal(t, []string{"first", "second", "third"}, order)
}

// Jobs that never become ready are reported at shutdown, not dropped.
func TestManager_CloseAuditsStalledJobs(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 2)
	m.Start(context.Background())

	done := job.New("done", func(context.Context) error { return nil })
	stuck := job.New("stuck", func(context.Context) error { return nil })
	// An externally-resolved dependency nobody ever signals.
	stuck.IncrementDependency()

	require.NoError(t, m.Submit(done))
	require.NoError(t, m.Submit(stuck))

	err := m.Close(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "stuck")
	require.NotContains(t, err.Error(), `"done"`)
	require.Equal(t, job.Completed, done.State())
	require.Equal(t, job.Pending, stuck.State())
}

func TestManager_SubmitAfterClose(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 1)
	m.Start(context.Background())
	require.NoError(t, m.Close(context.Background()))

	err := m.Submit(job.New("late", func(context.Context) error { return nil }))
	require.ErrorIs(t, err, ErrManagerClosed)
}

func TestManager_SubmitDuplicateID(t *testing.T) {
	t.Parallel()

	table := entry.NewDependencyTable()
	m := New(table, 1)
	m.Start(context.Background())

	require.NoError(t, m.Submit(job.New("dup", func(context.Context) error { return nil })))
	err := m.Submit(job.New("dup", func(context.Context) error { return nil }))
	require.ErrorContains(t, err, "already submitted")

	_ = m.Close(context.Background())
}
