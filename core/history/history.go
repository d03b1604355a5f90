// Package history persists command lines across sessions. The file
// is shared between concurrently running hosts, so writes go through
// an advisory file lock.
package history

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// History is an in-memory line log with optional file persistence.
type History struct {
	mu    sync.Mutex
	lines []string
	max   int

	path string
	lock *flock.Flock
}

// New creates a history capped at max lines (0 means unlimited),
// persisted at path. An empty path keeps history in memory only.
func New(path string, max int) *History {
	h := &History{max: max, path: path}
	if path != "" {
		h.lock = flock.New(path + ".lock")
	}
	return h
}

// Load reads persisted lines from disk. A missing file is fine.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}

	f, err := os.Open(h.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	h.mu.Lock()
	defer h.mu.Unlock()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			h.lines = append(h.lines, line)
		}
	}
	h.trimLocked()
	return sc.Err()
}

// Add records one line and appends it to the persisted file. Empty
// lines and immediate duplicates are dropped.
func (h *History) Add(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	h.mu.Lock()
	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		h.mu.Unlock()
		return nil
	}
	h.lines = append(h.lines, line)
	h.trimLocked()
	h.mu.Unlock()

	return h.appendToFile(line)
}

func (h *History) appendToFile(line string) error {
	if h.path == "" {
		return nil
	}

	if err := h.lock.Lock(); err != nil {
		return err
	}
	defer h.lock.Unlock()

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(line + "\n")
	return err
}

// Lines returns the recorded lines, oldest first.
func (h *History) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

func (h *History) trimLocked() {
	if h.max > 0 && len(h.lines) > h.max {
		h.lines = append([]string(nil), h.lines[len(h.lines)-h.max:]...)
	}
}
