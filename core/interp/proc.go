package interp

import (
	"io"

	"github.com/spf13/afero"

	"github.com/jitlabs-sg/titan-bash/core/job"
	"github.com/jitlabs-sg/titan-bash/core/state"
)

// Proc is the execution context handed to a builtin. It plays the
// role stdin/stdout/stderr and the environment play for an external
// process: a builtin in the middle of a pipeline receives the same
// pipe endpoints a process would.
type Proc struct {
	// Argv is the expanded command line, Argv[0] the builtin name.
	Argv []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// State is the session state. Builtins that mutate it (cd,
	// export, alias, activate) only ever run single-stage on the
	// dispatch goroutine.
	State *state.State

	// FS is the filesystem the session operates on.
	FS afero.Fs

	// Host exposes the parts of the host a few builtins need.
	Host Hooks
}

// BuiltinFunc runs a builtin against its Proc and returns its exit
// status.
type BuiltinFunc func(p *Proc) int

// Hooks is the builtin-facing surface of the host. jobs, fg, wait and
// kill talk to the job table; which re-enters the resolver; history
// reads the persisted line log.
type Hooks interface {
	// Jobs returns the session job manager.
	Jobs() *job.Manager

	// Resolve reports how a name would be dispatched.
	Resolve(name string) Resolution

	// History returns the session's command lines, oldest first.
	History() []string
}
