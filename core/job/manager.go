package job

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager owns the job table. Every live pipeline handle belongs to
// exactly one job; at most one job is in the Foreground state at any
// time.
type Manager struct {
	logger *log.Logger

	mu     sync.Mutex
	jobs   map[int]*Job
	nextID int
	fgID   int // 0 when no foreground job
}

// NewManager creates an empty job table.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		logger: logger,
		jobs:   make(map[int]*Job),
	}
}

// Register creates a job for a launched pipeline. handles must be in
// stage order. Registering a second foreground job is an error.
func (m *Manager) Register(summary string, handles []Handle, background bool) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !background && m.fgID != 0 {
		return nil, fmt.Errorf("job %d is already in the foreground", m.fgID)
	}

	// IDs grow monotonically and restart only once the table has
	// been fully drained.
	if len(m.jobs) == 0 {
		m.nextID = 0
	}
	m.nextID++

	j := &Job{
		id:      m.nextID,
		summary: summary,
		started: time.Now(),
		handles: append([]Handle(nil), handles...),
		state:   Background,
		done:    make(chan struct{}),
	}
	if !background {
		j.state = Foreground
		m.fgID = j.id
	}
	m.jobs[j.id] = j

	m.logger.Debug("job registered", "id", j.id, "summary", summary, "background", background)
	return j, nil
}

// Finish records a job's per-stage exit statuses and moves it to a
// terminal state. The executor calls this exactly once per job, after
// every stage has been awaited.
func (m *Manager) Finish(id int, statuses []int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok || j.state.Terminal() {
		return
	}

	j.statuses = append([]int(nil), statuses...)
	switch {
	case j.termRequested:
		j.state = Interrupted
	case lastStatus(statuses) == 0:
		j.state = Completed
	default:
		j.state = Failed
	}
	if m.fgID == id {
		m.fgID = 0
	}
	close(j.done)

	m.logger.Debug("job finished", "id", id, "state", j.state.String(), "status", lastStatus(statuses))
}

func lastStatus(statuses []int) int {
	if len(statuses) == 0 {
		return 0
	}
	return statuses[len(statuses)-1]
}

// Foreground returns a snapshot of the current foreground job.
func (m *Manager) Foreground() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fgID == 0 {
		return Snapshot{}, false
	}
	return m.jobs[m.fgID].snapshot(), true
}

// Get returns a snapshot of the job with the given id.
func (m *Manager) Get(id int) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return Snapshot{}, false
	}
	return j.snapshot(), true
}

// Jobs lists the table in id order. A terminal job is included in the
// report that first observes it and garbage-collected right after, so
// its final state is shown exactly once.
func (m *Manager) Jobs() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		j := m.jobs[id]
		out = append(out, j.snapshot())
		if j.state.Terminal() {
			delete(m.jobs, id)
		}
	}
	return out
}

// Wait blocks until the job reaches a terminal state, then reaps it
// from the table and returns its final snapshot. A waited job holds
// the foreground slot while dispatch blocks on it, so an interrupt
// during the wait terminates the job instead of going nowhere.
func (m *Manager) Wait(id int) (Snapshot, error) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return Snapshot{}, fmt.Errorf("no such job: %d", id)
	}
	if j.state == Background {
		j.state = StoppedWaiting
	}
	if m.fgID == 0 && !j.state.Terminal() {
		m.fgID = id
	}
	done := j.done
	m.mu.Unlock()

	<-done

	m.mu.Lock()
	defer m.mu.Unlock()
	snap := j.snapshot()
	delete(m.jobs, id)
	return snap, nil
}

// WaitAll waits for every job currently in the table and reaps each,
// returning final snapshots in id order.
func (m *Manager) WaitAll() []Snapshot {
	m.mu.Lock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Ints(ids)

	var out []Snapshot
	for _, id := range ids {
		if snap, err := m.Wait(id); err == nil {
			out = append(out, snap)
		}
	}
	return out
}

// Kill fans a termination request out to every handle of the job, in
// stage order. The job moves to Interrupted once the executor awaits
// its stages and calls Finish.
func (m *Manager) Kill(id int) error {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("no such job: %d", id)
	}
	if j.state.Terminal() {
		m.mu.Unlock()
		return fmt.Errorf("job %d has already finished", id)
	}
	j.termRequested = true
	handles := j.handles
	m.mu.Unlock()

	m.terminate(id, handles)
	return nil
}

// MoveToForeground reclassifies a background job so the dispatch loop
// can block on it. The caller then waits via Wait.
func (m *Manager) MoveToForeground(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fgID != 0 {
		return fmt.Errorf("job %d is already in the foreground", m.fgID)
	}
	j, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("no such job: %d", id)
	}
	if j.state.Terminal() {
		return fmt.Errorf("job %d has already finished", id)
	}
	j.state = StoppedWaiting
	m.fgID = id
	return nil
}

// Interrupt routes an interrupt to the foreground job, terminating
// its stages in order. With no foreground job it reports false and
// does nothing; the host never dies of the signal either way.
func (m *Manager) Interrupt() bool {
	m.mu.Lock()
	if m.fgID == 0 {
		m.mu.Unlock()
		return false
	}
	j := m.jobs[m.fgID]
	j.termRequested = true
	id, handles := j.id, j.handles
	m.mu.Unlock()

	m.logger.Debug("interrupt routed to foreground job", "id", id)
	m.terminate(id, handles)
	return true
}

// terminate is the explicit fan-out that substitutes for a process
// group signal: each stage handle gets its own termination request,
// in pipeline order.
func (m *Manager) terminate(id int, handles []Handle) {
	for i, h := range handles {
		if err := h.Terminate(); err != nil {
			m.logger.Debug("stage termination failed", "job", id, "stage", i, "err", err)
		}
	}
}
