package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/jobgrid/internal/registry"
)

// ExecutionRecord captures when one sleeper invocation started and ended.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// MockSleeperModule is a shared, self-contained runner for concurrency
// tests. It records the execution window of each job that uses it and
// optionally reports completions on a channel, in completion order.
type MockSleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string]*ExecutionRecord
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		executionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// ExecutionTimes returns a snapshot of the recorded execution windows keyed
// by the sleeper's id argument.
func (m *MockSleeperModule) ExecutionTimes() map[string]ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ExecutionRecord, len(m.executionTimes))
	for k, v := range m.executionTimes {
		out[k] = *v
	}
	return out
}

// Register registers the "sleeper" runner.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	type sleeperInput struct {
		ID string `hcl:"id"`
	}

	r.Register("sleeper", &registry.Handler{
		NewInput: func() any { return new(sleeperInput) },
		Fn: func(_ context.Context, inputRaw any) (any, error) {
			input := inputRaw.(*sleeperInput)

			startTime := time.Now()
			time.Sleep(m.sleepDuration)
			endTime := time.Now()

			m.mu.Lock()
			m.executionTimes[input.ID] = &ExecutionRecord{Start: startTime, End: endTime}
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- input.ID
			}
			return nil, nil
		},
	})
}
