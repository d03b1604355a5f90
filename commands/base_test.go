package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitlabs-sg/titan-bash/core/interp"
	"github.com/jitlabs-sg/titan-bash/core/job"
	"github.com/jitlabs-sg/titan-bash/core/state"
)

// testProc builds a Proc wired to buffers, in-memory state and a live
// job manager.
type testProc struct {
	*interp.Proc
	out  *bytes.Buffer
	errw *bytes.Buffer
	mgr  *job.Manager
}

type testHooks struct {
	mgr      *job.Manager
	resolver *interp.Resolver
	st       *state.State
	history  []string
}

func (h *testHooks) Jobs() *job.Manager { return h.mgr }

func (h *testHooks) Resolve(name string) interp.Resolution {
	return h.resolver.Resolve(h.st, name)
}

func (h *testHooks) History() []string { return h.history }

func newTestProc(t *testing.T, argv ...string) *testProc {
	t.Helper()

	fs := afero.NewMemMapFs()
	st := state.New("/home/u", state.NewEnvFromList([]string{
		"HOME=/home/u",
		"PATH=/usr/bin",
	}))
	mgr := job.NewManager(nil)
	hooks := &testHooks{
		mgr: mgr,
		st:  st,
		resolver: &interp.Resolver{
			FS:       fs,
			Builtins: AllBuiltins,
		},
	}

	tp := &testProc{
		out:  &bytes.Buffer{},
		errw: &bytes.Buffer{},
		mgr:  mgr,
	}
	tp.Proc = &interp.Proc{
		Argv:   argv,
		Stdin:  strings.NewReader(""),
		Stdout: tp.out,
		Stderr: tp.errw,
		State:  st,
		FS:     fs,
		Host:   hooks,
	}
	return tp
}

func (tp *testProc) hooks() *testHooks { return tp.Proc.Host.(*testHooks) }

func TestCd(t *testing.T) {
	tp := newTestProc(t, "cd", "src")
	require.NoError(t, tp.FS.MkdirAll("/home/u/src", 0o755))

	assert.Equal(t, 0, Cd(tp.Proc))
	assert.Equal(t, "/home/u/src", tp.State.Cwd())
}

func TestCdMissingDirectory(t *testing.T) {
	tp := newTestProc(t, "cd", "nope")

	assert.Equal(t, 1, Cd(tp.Proc))
	assert.Contains(t, tp.errw.String(), "no such directory")
	assert.Equal(t, "/home/u", tp.State.Cwd())
}

func TestCdDefaultsToHome(t *testing.T) {
	tp := newTestProc(t, "cd")
	require.NoError(t, tp.FS.MkdirAll("/home/u", 0o755))
	tp.State.Chdir("/")

	assert.Equal(t, 0, Cd(tp.Proc))
	assert.Equal(t, "/home/u", tp.State.Cwd())
}

func TestPwd(t *testing.T) {
	tp := newTestProc(t, "pwd")
	assert.Equal(t, 0, Pwd(tp.Proc))
	assert.Equal(t, "/home/u\n", tp.out.String())
}

func TestEcho(t *testing.T) {
	tp := newTestProc(t, "echo", "hello", "world")
	assert.Equal(t, 0, Echo(tp.Proc))
	assert.Equal(t, "hello world\n", tp.out.String())
}

func TestEchoFlags(t *testing.T) {
	tp := newTestProc(t, "echo", "-n", "no newline")
	assert.Equal(t, 0, Echo(tp.Proc))
	assert.Equal(t, "no newline", tp.out.String())

	tp = newTestProc(t, "echo", "-e", `a\tb`)
	assert.Equal(t, 0, Echo(tp.Proc))
	assert.Equal(t, "a\tb\n", tp.out.String())
}

func TestCatFiles(t *testing.T) {
	tp := newTestProc(t, "cat", "a.txt", "b.txt")
	require.NoError(t, afero.WriteFile(tp.FS, "/home/u/a.txt", []byte("one\n"), 0o644))
	require.NoError(t, afero.WriteFile(tp.FS, "/home/u/b.txt", []byte("two\n"), 0o644))

	assert.Equal(t, 0, Cat(tp.Proc))
	assert.Equal(t, "one\ntwo\n", tp.out.String())
}

func TestCatStdin(t *testing.T) {
	tp := newTestProc(t, "cat")
	tp.Proc.Stdin = strings.NewReader("piped\n")

	assert.Equal(t, 0, Cat(tp.Proc))
	assert.Equal(t, "piped\n", tp.out.String())
}

func TestCatMissingFile(t *testing.T) {
	tp := newTestProc(t, "cat", "ghost.txt")
	assert.Equal(t, 1, Cat(tp.Proc))
	assert.Contains(t, tp.errw.String(), "ghost.txt")
}

func TestExportAndEnv(t *testing.T) {
	tp := newTestProc(t, "export", "FOO=bar", "EMPTY=")
	assert.Equal(t, 0, Export(tp.Proc))
	assert.Equal(t, "bar", tp.State.Env.Get("FOO"))

	tp2 := newTestProc(t, "env")
	tp2.State.Env.Set("ZZZ", "1")
	assert.Equal(t, 0, Env(tp2.Proc))
	assert.Contains(t, tp2.out.String(), "ZZZ=1\n")
}

func TestExportRejectsBareName(t *testing.T) {
	tp := newTestProc(t, "export", "JUSTNAME")
	assert.Equal(t, 1, Export(tp.Proc))
	assert.Contains(t, tp.errw.String(), "expected NAME=VALUE")
}

func TestAliasRoundTrip(t *testing.T) {
	tp := newTestProc(t, "alias", "ll=ls -la")
	assert.Equal(t, 0, Alias(tp.Proc))

	body, ok := tp.State.Alias("ll")
	require.True(t, ok)
	assert.Equal(t, "ls -la", body)

	list := newTestProc(t, "alias")
	list.State.SetAlias("ll", "ls -la")
	assert.Equal(t, 0, Alias(list.Proc))
	assert.Equal(t, "alias ll='ls -la'\n", list.out.String())

	rm := newTestProc(t, "unalias", "ll")
	rm.State.SetAlias("ll", "ls -la")
	assert.Equal(t, 0, Unalias(rm.Proc))
	_, ok = rm.State.Alias("ll")
	assert.False(t, ok)

	miss := newTestProc(t, "unalias", "nope")
	assert.Equal(t, 1, Unalias(miss.Proc))
}

func TestWhich(t *testing.T) {
	tp := newTestProc(t, "which", "cd", "grep", "nothing")
	require.NoError(t, afero.WriteFile(tp.FS, "/usr/bin/grep", []byte("x"), 0o755))
	require.NoError(t, tp.FS.Chmod("/usr/bin/grep", 0o755))

	assert.Equal(t, 1, Which(tp.Proc), "one name unresolved")
	out := tp.out.String()
	assert.Contains(t, out, "cd: shell builtin")
	assert.Contains(t, out, "/usr/bin/grep")
	assert.Contains(t, tp.errw.String(), "nothing: not found")
}

func TestExit(t *testing.T) {
	tp := newTestProc(t, "exit", "3")
	assert.Equal(t, 3, Exit(tp.Proc))

	requested, code := tp.State.ExitRequested()
	assert.True(t, requested)
	assert.Equal(t, 3, code)
}

func TestExitDefaultsToLastStatus(t *testing.T) {
	tp := newTestProc(t, "exit")
	tp.State.SetLastStatus(7)

	assert.Equal(t, 7, Exit(tp.Proc))
	_, code := tp.State.ExitRequested()
	assert.Equal(t, 7, code)
}

func TestActivateDeactivate(t *testing.T) {
	tp := newTestProc(t, "activate", "venv")
	require.NoError(t, tp.FS.MkdirAll("/home/u/venv/bin", 0o755))
	original := tp.State.Env.Get("PATH")

	assert.Equal(t, 0, Activate(tp.Proc))
	assert.Equal(t, "venv", tp.State.VenvName())
	assert.Equal(t, "/home/u/venv/bin:"+original, tp.State.Env.Get("PATH"))

	deact := &interp.Proc{}
	*deact = *tp.Proc
	deact.Argv = []string{"deactivate"}
	assert.Equal(t, 0, Deactivate(deact))
	assert.Equal(t, original, tp.State.Env.Get("PATH"))

	assert.Equal(t, 1, Deactivate(deact))
}

func TestActivateRequiresBinDir(t *testing.T) {
	tp := newTestProc(t, "activate", "plain")
	require.NoError(t, tp.FS.MkdirAll("/home/u/plain", 0o755))

	assert.Equal(t, 1, Activate(tp.Proc))
	assert.Contains(t, tp.errw.String(), "no bin directory")
}

func TestJobsListing(t *testing.T) {
	tp := newTestProc(t, "jobs")
	j, err := tp.mgr.Register("sleep 60 &", nil, true)
	require.NoError(t, err)

	assert.Equal(t, 0, Jobs(tp.Proc))
	assert.Contains(t, tp.out.String(), "[1]\trunning\tsleep 60 &")

	tp.mgr.Finish(j.ID(), []int{0})
	tp.out.Reset()
	assert.Equal(t, 0, Jobs(tp.Proc))
	assert.Contains(t, tp.out.String(), "done")

	tp.out.Reset()
	assert.Equal(t, 0, Jobs(tp.Proc))
	assert.Empty(t, tp.out.String(), "terminal job reported once then collected")
}

func TestWaitReapsJob(t *testing.T) {
	tp := newTestProc(t, "wait", "1")
	j, err := tp.mgr.Register("work &", nil, true)
	require.NoError(t, err)
	go tp.mgr.Finish(j.ID(), []int{4})

	assert.Equal(t, 4, Wait(tp.Proc))
	assert.Empty(t, tp.mgr.Jobs())
}

func TestWaitAllJobs(t *testing.T) {
	tp := newTestProc(t, "wait")
	a, _ := tp.mgr.Register("a &", nil, true)
	b, _ := tp.mgr.Register("b &", nil, true)
	go func() {
		tp.mgr.Finish(a.ID(), []int{0})
		tp.mgr.Finish(b.ID(), []int{2})
	}()

	assert.Equal(t, 2, Wait(tp.Proc), "last job's status wins")
}

func TestFgUnknownJob(t *testing.T) {
	tp := newTestProc(t, "fg", "9")
	assert.Equal(t, 1, Fg(tp.Proc))
	assert.Contains(t, tp.errw.String(), "no such job")
}

func TestKillRequiresValidID(t *testing.T) {
	tp := newTestProc(t, "kill", "abc")
	assert.Equal(t, 1, Kill(tp.Proc))
	assert.Contains(t, tp.errw.String(), "not a job id")

	tp2 := newTestProc(t, "kill", "5")
	assert.Equal(t, 1, Kill(tp2.Proc))
	assert.Contains(t, tp2.errw.String(), "no such job")
}

func TestHelpListsBuiltins(t *testing.T) {
	tp := newTestProc(t, "help")
	assert.Equal(t, 0, Help(tp.Proc))

	out := tp.out.String()
	for _, name := range []string{"cd", "exit", "jobs", "alias", "activate"} {
		assert.Contains(t, out, "\n  "+name+"\n")
	}
}

func TestHistoryOutput(t *testing.T) {
	tp := newTestProc(t, "history")
	tp.hooks().history = []string{"ls", "make test"}

	assert.Equal(t, 0, HistoryCmd(tp.Proc))
	assert.Equal(t, "    1  ls\n    2  make test\n", tp.out.String())
}

func TestSimpleCommandHelpFlag(t *testing.T) {
	tp := newTestProc(t, "pwd", "--help")
	assert.Equal(t, 0, Pwd(tp.Proc))
	assert.Contains(t, tp.out.String(), "usage: pwd")
}

func TestSimpleCommandBadFlag(t *testing.T) {
	tp := newTestProc(t, "echo", "--bogus")
	assert.Equal(t, 1, Echo(tp.Proc))
	assert.Contains(t, tp.errw.String(), "error:")
}

func TestAllBuiltinsRegistered(t *testing.T) {
	for _, name := range []string{
		"cd", "pwd", "echo", "cat", "export", "env", "alias", "unalias",
		"which", "jobs", "fg", "wait", "kill", "activate", "deactivate",
		"help", "history", "exit",
	} {
		assert.Contains(t, AllBuiltins, name)
	}
}
