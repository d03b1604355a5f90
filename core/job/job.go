// Package job tracks launched pipelines as jobs and routes interrupt
// signals to the foreground job instead of the host process.
package job

import (
	"time"
)

// Handle is the manager's view of one live pipeline stage. External
// processes and in-process builtins both satisfy it; the manager only
// ever asks a stage to stop, waiting is the executor's business.
type Handle interface {
	// Terminate delivers a termination request to the stage. It must
	// be safe to call after the stage has already exited.
	Terminate() error
}

// State is a job's position in its lifecycle.
type State int

const (
	// Foreground: running and owning the terminal; the dispatch loop
	// is blocked on it.
	Foreground State = iota
	// Background: running detached from the prompt.
	Background
	// StoppedWaiting: a background job reclassified by fg or wait;
	// the dispatch loop is blocked on it again.
	StoppedWaiting
	// Completed: terminal, last stage exited zero.
	Completed
	// Failed: terminal, last stage exited non-zero.
	Failed
	// Interrupted: terminal by termination request.
	Interrupted
)

func (s State) String() string {
	switch s {
	case Foreground:
		return "running (foreground)"
	case Background:
		return "running"
	case StoppedWaiting:
		return "waiting"
	case Completed:
		return "done"
	case Failed:
		return "failed"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool {
	switch s {
	case Completed, Failed, Interrupted:
		return true
	}
	return false
}

// Job is one launched pipeline. All fields are guarded by the
// owning Manager; read them through snapshots or while holding its
// lock via the Manager's methods.
type Job struct {
	id      int
	summary string
	started time.Time

	// handles holds one entry per stage, in pipeline order.
	handles []Handle

	state    State
	statuses []int // per-stage exit statuses, set on finish

	termRequested bool
	done          chan struct{}
}

// Snapshot is an immutable copy of a job's observable fields.
type Snapshot struct {
	ID       int
	Summary  string
	State    State
	Started  time.Time
	Statuses []int
}

// ExitStatus returns the job's terminal status, the last stage's exit
// code. Zero for jobs that have not finished.
func (s Snapshot) ExitStatus() int {
	if len(s.Statuses) == 0 {
		return 0
	}
	return s.Statuses[len(s.Statuses)-1]
}

func (j *Job) snapshot() Snapshot {
	return Snapshot{
		ID:       j.id,
		Summary:  j.summary,
		State:    j.state,
		Started:  j.started,
		Statuses: append([]int(nil), j.statuses...),
	}
}

// ID returns the job's table identifier.
func (j *Job) ID() int { return j.id }

// Done returns a channel closed when the job reaches a terminal
// state.
func (j *Job) Done() <-chan struct{} { return j.done }
