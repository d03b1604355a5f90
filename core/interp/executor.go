package interp

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/jitlabs-sg/titan-bash/core/job"
	"github.com/jitlabs-sg/titan-bash/core/shell"
	"github.com/jitlabs-sg/titan-bash/core/state"
)

// ReservedStatus is the exit status for failures that never reached a
// spawn: parse errors, unresolved commands, topology build errors.
const ReservedStatus = 127

// AuditSink receives session audit events. Nil sinks are allowed.
type AuditSink interface {
	CommandRun(line string)
	CommandDone(line string, status int, elapsed time.Duration)
}

// Executor turns parsed command lists into running pipelines and
// mediates connector semantics between them. One Executor serves one
// session; dispatch is single threaded.
type Executor struct {
	FS       afero.Fs
	State    *state.State
	Manager  *job.Manager
	Resolver *Resolver
	Logger   *log.Logger
	Audit    AuditSink

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// HistoryFunc supplies the session history to the history
	// builtin. Optional.
	HistoryFunc func() []string
}

// Executor doubles as the builtins' view of the host.
var _ Hooks = (*Executor)(nil)

// Jobs implements Hooks.
func (e *Executor) Jobs() *job.Manager { return e.Manager }

// Resolve implements Hooks.
func (e *Executor) Resolve(name string) Resolution {
	return e.Resolver.Resolve(e.State, name)
}

// History implements Hooks.
func (e *Executor) History() []string {
	if e.HistoryFunc == nil {
		return nil
	}
	return e.HistoryFunc()
}

// RunLine parses and executes one logical command line and returns
// its aggregate exit status.
func (e *Executor) RunLine(line string) int {
	list, err := shell.Parse(line)
	if err != nil {
		fmt.Fprintf(e.Stderr, "titan-bash: %v\n", err)
		e.State.SetLastStatus(ReservedStatus)
		return ReservedStatus
	}
	if list.Empty() {
		return e.State.LastStatus()
	}

	if e.Audit != nil {
		start := time.Now()
		e.Audit.CommandRun(line)
		status := e.RunList(list)
		e.Audit.CommandDone(line, status, time.Since(start))
		return status
	}
	return e.RunList(list)
}

// RunList walks the connector chain left to right. && and || consult
// the prior pipeline's terminal status; skipped pipelines keep that
// status flowing so "false && a || b" runs b.
func (e *Executor) RunList(list *shell.List) int {
	status := 0
	for i, pl := range list.Pipelines {
		if i > 0 {
			switch list.Ops[i-1] {
			case shell.OpAnd:
				if status != 0 {
					continue
				}
			case shell.OpOr:
				if status == 0 {
					continue
				}
			}
		}
		status = e.runPipeline(pl)
		if exit, _ := e.State.ExitRequested(); exit {
			break
		}
	}
	return status
}

// runPipeline expands, resolves, wires and launches one pipeline and,
// for foreground pipelines, awaits its terminal status.
func (e *Executor) runPipeline(pl shell.Pipeline) int {
	n := len(pl.Commands)
	stages := make([]stagePlan, n)

	for i, cmd := range pl.Commands {
		argv, err := expandCommand(e.State, e.FS, cmd)
		if err != nil {
			return e.fail("titan-bash: %v", err)
		}
		if len(argv) == 0 || argv[0] == "" {
			return e.fail("titan-bash: empty command")
		}
		stages[i].argv = argv
		stages[i].res = e.Resolver.Resolve(e.State, argv[0])
		if stages[i].res.Kind == KindUnresolved {
			return e.fail("%s: command not found", argv[0])
		}
	}

	if status, blocked := e.checkStateBuiltins(pl, stages); blocked {
		return status
	}

	plan, err := buildTopology(e.FS, e.State, pl, stages, e.Stdin, e.Stdout, e.Stderr)
	if err != nil {
		return e.fail("titan-bash: %v", err)
	}

	// A lone foreground builtin runs on the dispatch goroutine and
	// never enters the job table: it cannot outlive dispatch, and fg
	// and wait need the foreground slot free to reclassify a job into
	// it. This is also the one place session state may mutate, with
	// no other stage alive to read it.
	if n == 1 && !pl.Background && stages[0].res.Kind == KindBuiltin {
		return e.runDispatchBuiltin(&plan.stages[0])
	}

	return e.launch(pl, plan)
}

// checkStateBuiltins rejects state-mutating builtins anywhere they
// could race: inside a multi-stage pipeline or in the background.
func (e *Executor) checkStateBuiltins(pl shell.Pipeline, stages []stagePlan) (int, bool) {
	if len(stages) == 1 && !pl.Background {
		return 0, false
	}
	for _, s := range stages {
		if s.res.Kind == KindBuiltin && IsStateBuiltin(s.argv[0]) {
			return e.fail("%s: must run alone in the foreground", s.argv[0]), true
		}
	}
	return 0, false
}

func (e *Executor) runDispatchBuiltin(stage *stagePlan) int {
	status := stage.res.Builtin(e.newProc(stage))
	stage.close()
	e.State.SetLastStatus(status)
	return status
}

// launch spawns every stage of the wired plan in order, registers the
// job and either awaits it (foreground) or leaves it running.
func (e *Executor) launch(pl shell.Pipeline, plan *Plan) int {
	n := len(plan.stages)
	handles := make([]stageHandle, 0, n)
	spawnFailed := false
	restoreTerminal := func() {}

	for i := range plan.stages {
		stage := &plan.stages[i]

		if stage.res.Kind == KindBuiltin {
			closers := make([]io.Closer, 0, len(stage.pipeEnds)+len(stage.files))
			closers = append(closers, stage.pipeEnds...)
			closers = append(closers, stage.files...)
			h := startBuiltin(stage.res.Builtin, e.newProc(stage), closers)
			stage.pipeEnds, stage.files = nil, nil
			handles = append(handles, h)
			continue
		}

		cmd := exec.Command(stage.res.Argv[0], append(stage.res.Argv[1:], stage.argv[1:]...)...)
		cmd.Dir = e.State.Cwd()
		cmd.Env = e.State.Env.Environ()
		cmd.Stdin = stage.stdin
		cmd.Stdout = stage.stdout
		cmd.Stderr = stage.stderr
		prepareSpawn(cmd)

		if err := cmd.Start(); err != nil {
			// Earlier stages keep running and drain into closed pipe
			// ends; this stage and the rest never start.
			fmt.Fprintf(e.Stderr, "%s: %v\n", stage.argv[0], err)
			for j := i; j < n; j++ {
				plan.stages[j].close()
			}
			spawnFailed = true
			break
		}

		// The first foreground stage owns the terminal until awaited,
		// so it can read a tty without being stopped by SIGTTIN.
		if i == 0 && !pl.Background {
			restoreTerminal = giveTerminal(e.Stdin, cmd.Process.Pid)
		}

		// The child owns its pipe ends now; the parent's copies must
		// go so EOF propagates stage to stage.
		for _, c := range stage.pipeEnds {
			c.Close()
		}
		stage.pipeEnds = nil
		handles = append(handles, &procHandle{cmd: cmd, files: stage.files})
		stage.files = nil
	}

	jobHandles := make([]job.Handle, len(handles))
	for i, h := range handles {
		jobHandles[i] = h
	}

	j, err := e.Manager.Register(pl.String(), jobHandles, pl.Background)
	if err != nil {
		fmt.Fprintf(e.Stderr, "titan-bash: %v\n", err)
		restoreTerminal()
		go awaitAll(handles)
		return ReservedStatus
	}

	if pl.Background {
		if e.Logger != nil {
			e.Logger.Debug("background job launched", "id", j.ID(), "stages", len(handles))
		}
		go func() {
			e.Manager.Finish(j.ID(), awaitAll(handles))
		}()
		// An ampersand yields success to whatever connector follows.
		e.State.SetLastStatus(0)
		return 0
	}

	statuses := awaitAll(handles)
	restoreTerminal()
	e.Manager.Finish(j.ID(), statuses)
	e.Manager.Wait(j.ID())

	status := ReservedStatus
	if !spawnFailed && len(statuses) > 0 {
		status = statuses[len(statuses)-1]
	}
	e.State.SetLastStatus(status)
	return status
}

func awaitAll(handles []stageHandle) []int {
	statuses := make([]int, len(handles))
	for i, h := range handles {
		statuses[i] = h.await()
	}
	return statuses
}

func (e *Executor) newProc(stage *stagePlan) *Proc {
	stdin := stage.stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	return &Proc{
		Argv:   stage.argv,
		Stdin:  stdin,
		Stdout: stage.stdout,
		Stderr: stage.stderr,
		State:  e.State,
		FS:     e.FS,
		Host:   e,
	}
}

// fail reports a pre-spawn failure and yields the reserved status.
func (e *Executor) fail(format string, args ...interface{}) int {
	fmt.Fprintf(e.Stderr, format+"\n", args...)
	e.State.SetLastStatus(ReservedStatus)
	return ReservedStatus
}
