// Package logger records session audit events as newline delimited
// JSON, one object per event.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one audit record.
type Event struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id"`
	Kind            string `json:"kind"`

	// Command fields, set for command_run and command_done.
	Line      string `json:"line,omitempty"`
	Status    *int   `json:"status,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
}

// Event kinds, one per audit record.
const (
	KindSessionStart = "session_start"
	KindSessionEnd   = "session_end"
	KindCommandRun   = "command_run"
	KindCommandDone  = "command_done"
)

// Recorder writes audit events for one session. A nil Recorder is
// valid and records nothing.
type Recorder struct {
	mu        sync.Mutex
	w         io.Writer
	sessionID string
}

// NewRecorder starts a session audit stream on w and records the
// session_start event.
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{w: w, sessionID: uuid.NewString()}
	r.record(Event{Kind: KindSessionStart})
	return r
}

// SessionID returns the identifier stamped on every event.
func (r *Recorder) SessionID() string {
	if r == nil {
		return ""
	}
	return r.sessionID
}

func (r *Recorder) record(ev Event) {
	if r == nil {
		return
	}
	ev.TimestampMicros = time.Now().UnixMicro()
	ev.SessionID = r.sessionID

	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintln(r.w, string(entry))
}

// CommandRun records the start of one command line.
func (r *Recorder) CommandRun(line string) {
	r.record(Event{Kind: KindCommandRun, Line: line})
}

// CommandDone records a command line's aggregate exit status.
func (r *Recorder) CommandDone(line string, status int, elapsed time.Duration) {
	r.record(Event{
		Kind:      KindCommandDone,
		Line:      line,
		Status:    &status,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

// Close records the session_end event. The underlying writer's
// lifetime belongs to the caller.
func (r *Recorder) Close(status int) {
	r.record(Event{Kind: KindSessionEnd, Status: &status})
}

// ReadEvents parses a newline delimited audit log.
func ReadEvents(r io.Reader, handler func(ev Event)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var ev Event
		if err := decoder.Decode(&ev); err != nil {
			return err
		}
		handler(ev)
	}
	return nil
}
