package interp

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/jitlabs-sg/titan-bash/core/pathutil"
	"github.com/jitlabs-sg/titan-bash/core/shell"
	"github.com/jitlabs-sg/titan-bash/core/state"
)

// BuildError reports a redirect target that could not be opened. It
// aborts the pipeline before anything spawns.
type BuildError struct {
	Stage  int
	Target string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("cannot open %q: %v", e.Target, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// stagePlan is the wired I/O for one pipeline stage.
type stagePlan struct {
	res  Resolution
	argv []string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// pipeEnds are this stage's pipe file descriptors. For an
	// external stage the parent closes them right after spawn so EOF
	// propagates; for a builtin the stage goroutine closes them when
	// it returns. A pipe end displaced by an explicit redirect still
	// sits here and gets closed unused, which is what drives EOF for
	// the next stage.
	pipeEnds []io.Closer

	// files are opened redirect targets, closed after the stage has
	// been awaited.
	files []io.Closer
}

// Plan is a fully wired pipeline, ready to spawn. Stages are in
// pipeline order.
type Plan struct {
	stages []stagePlan
}

// Close releases every descriptor the plan still owns. Used when the
// build or a spawn fails before the stages took ownership.
func (p *Plan) Close() {
	for i := range p.stages {
		p.stages[i].close()
	}
}

func (s *stagePlan) close() {
	for _, c := range s.pipeEnds {
		c.Close()
	}
	s.pipeEnds = nil
	for _, c := range s.files {
		c.Close()
	}
	s.files = nil
}

// buildTopology wires an N-stage pipeline: N-1 anonymous pipes, then
// per-stage redirects applied left to right on top of the pipe
// wiring. Every redirect target is opened before the caller spawns
// anything; one bad target fails the whole pipeline.
func buildTopology(fs afero.Fs, st *state.State, pl shell.Pipeline, stages []stagePlan, defIn io.Reader, defOut, defErr io.Writer) (*Plan, error) {
	plan := &Plan{stages: stages}
	n := len(plan.stages)

	for i := range plan.stages {
		plan.stages[i].stdin = nil
		plan.stages[i].stdout = defOut
		plan.stages[i].stderr = defErr
	}
	if n > 0 && !pl.Background {
		// Background pipelines do not contend for the terminal input.
		plan.stages[0].stdin = defIn
	}

	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			plan.Close()
			return nil, &BuildError{Stage: i, Target: "pipe", Err: err}
		}
		plan.stages[i].stdout = w
		plan.stages[i].pipeEnds = append(plan.stages[i].pipeEnds, w)
		plan.stages[i+1].stdin = r
		plan.stages[i+1].pipeEnds = append(plan.stages[i+1].pipeEnds, r)
	}

	for i, cmd := range pl.Commands {
		stage := &plan.stages[i]
		for _, redir := range cmd.Redirects {
			if err := applyRedirect(fs, st, stage, redir); err != nil {
				plan.Close()
				return nil, &BuildError{Stage: i, Target: redir.Target.Literal(), Err: err}
			}
		}
	}

	return plan, nil
}

// applyRedirect rewires one stream of a stage. Duplication binds to
// the stdout destination current at this point in the redirect list,
// so "2>&1 1>f" and "1>f 2>&1" differ.
func applyRedirect(fs afero.Fs, st *state.State, stage *stagePlan, redir shell.Redirect) error {
	if redir.Mode == shell.ModeDuplicate {
		stage.stderr = stage.stdout
		return nil
	}

	target := pathutil.Resolve(st.Cwd(), expandRedirectTarget(st, redir.Target))

	switch redir.Mode {
	case shell.ModeRead:
		f, err := fs.Open(target)
		if err != nil {
			return err
		}
		stage.stdin = f
		stage.files = append(stage.files, f)

	case shell.ModeTruncate, shell.ModeAppend:
		flags := os.O_CREATE | os.O_WRONLY
		if redir.Mode == shell.ModeAppend {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := fs.OpenFile(target, flags, 0o644)
		if err != nil {
			return err
		}
		if redir.Stream == shell.Stderr {
			stage.stderr = f
		} else {
			stage.stdout = f
		}
		stage.files = append(stage.files, f)

	default:
		return fmt.Errorf("unsupported redirect mode %v", redir.Mode)
	}
	return nil
}
