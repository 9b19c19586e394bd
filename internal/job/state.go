package job

// State represents the lifecycle phase of a Job.
type State int32

const (
	// Pending indicates the job is waiting for its dependency count to
	// reach zero.
	Pending State = iota
	// Ready indicates the job has no unmet dependencies and is queued for a
	// worker.
	Ready
	// Running indicates a worker is currently executing the job.
	Running
	// Completed indicates the work function returned, successfully or not.
	Completed
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}
