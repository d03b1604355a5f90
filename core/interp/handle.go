package interp

import (
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
)

// stageHandle is one live pipeline stage: terminable by the job
// manager, awaitable by the executor.
type stageHandle interface {
	Terminate() error
	await() int
}

// procHandle wraps an external process. The child runs in its own
// process group so a termination request never hits the host.
type procHandle struct {
	cmd *exec.Cmd

	// after the stage exits these get closed, in order: the parent's
	// pipe ends are closed right after spawn instead.
	files []io.Closer
}

func (h *procHandle) Terminate() error {
	return terminate(h.cmd)
}

func (h *procHandle) await() int {
	status := waitStatus(h.cmd)
	for _, c := range h.files {
		c.Close()
	}
	return status
}

// builtinHandle runs a builtin as a pipeline stage on its own
// goroutine, bound to the same pipe endpoints a process would get.
type builtinHandle struct {
	once sync.Once
	done chan int

	// closers unblock the builtin's pipe I/O when terminated.
	closers []io.Closer

	// terminated is set only if a termination request won the once
	// over the builtin's own exit, so a builtin that already finished
	// keeps its real status.
	terminated atomic.Bool
}

func startBuiltin(fn BuiltinFunc, p *Proc, closers []io.Closer) *builtinHandle {
	h := &builtinHandle{done: make(chan int, 1), closers: closers}
	go func() {
		status := fn(p)
		h.release(false)
		h.done <- status
	}()
	return h
}

// Terminate closes the builtin's stream endpoints; a stage blocked on
// pipe I/O fails out and returns.
func (h *builtinHandle) Terminate() error {
	h.release(true)
	return nil
}

func (h *builtinHandle) release(byTermination bool) {
	h.once.Do(func() {
		if byTermination {
			h.terminated.Store(true)
		}
		for _, c := range h.closers {
			c.Close()
		}
	})
}

func (h *builtinHandle) await() int {
	status := <-h.done
	if h.terminated.Load() {
		return 130
	}
	return status
}
