package interp

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jitlabs-sg/titan-bash/core/job"
	"github.com/jitlabs-sg/titan-bash/core/state"
)

// testHost is an executor wired to buffers and in-memory state, with
// a handful of builtins standing in for external tools.
type testHost struct {
	exec *Executor
	out  *bytes.Buffer
	errw *bytes.Buffer

	spyCalls atomic.Int32
	slowGate chan struct{}
}

func newTestHost(t *testing.T) *testHost {
	t.Helper()
	fs := afero.NewMemMapFs()
	st := testState()

	h := &testHost{
		out:      &bytes.Buffer{},
		errw:     &bytes.Buffer{},
		slowGate: make(chan struct{}),
	}

	builtins := map[string]BuiltinFunc{
		"true":  func(*Proc) int { return 0 },
		"false": func(*Proc) int { return 1 },
		"emit": func(p *Proc) int {
			fmt.Fprintln(p.Stdout, strings.Join(p.Argv[1:], " "))
			return 0
		},
		"both": func(p *Proc) int {
			fmt.Fprintln(p.Stdout, "to-out")
			fmt.Fprintln(p.Stderr, "to-err")
			return 0
		},
		"upper": func(p *Proc) int {
			sc := bufio.NewScanner(p.Stdin)
			for sc.Scan() {
				fmt.Fprintln(p.Stdout, strings.ToUpper(sc.Text()))
			}
			return 0
		},
		"spy": func(*Proc) int {
			h.spyCalls.Add(1)
			return 0
		},
		"slow": func(*Proc) int {
			<-h.slowGate
			return 0
		},
		"quit": func(p *Proc) int {
			p.State.RequestExit(5)
			return 5
		},
		"cd": func(p *Proc) int {
			p.State.Chdir(p.Argv[1])
			return 0
		},
	}

	h.exec = &Executor{
		FS:      fs,
		State:   st,
		Manager: job.NewManager(nil),
		Resolver: &Resolver{
			FS:       fs,
			Builtins: builtins,
		},
		Stdin:  strings.NewReader(""),
		Stdout: h.out,
		Stderr: h.errw,
	}
	return h
}

func (h *testHost) run(t *testing.T, line string) int {
	t.Helper()
	return h.exec.RunLine(line)
}

func TestRunSimpleBuiltin(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "emit hello world")
	assert.Equal(t, 0, status)
	assert.Equal(t, "hello world\n", h.out.String())
}

func TestRunParseErrorIsReported(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "emit |")
	assert.Equal(t, ReservedStatus, status)
	assert.Contains(t, h.errw.String(), "syntax error")
	assert.Equal(t, ReservedStatus, h.exec.State.LastStatus())
}

func TestRunCommandNotFound(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "nosuchtool --flag")
	assert.Equal(t, ReservedStatus, status)
	assert.Contains(t, h.errw.String(), "nosuchtool: command not found")
}

func TestConnectorShortCircuit(t *testing.T) {
	cases := []struct {
		line string
		want int32
	}{
		{"false && spy", 0},
		{"true && spy", 1},
		{"true || spy", 0},
		{"false || spy", 1},
		{"false ; spy", 1},
		{"true ; spy", 1},
		// Status flows through skipped pipelines: false fails, the
		// &&-gated middle is skipped, so || still fires.
		{"false && spy || spy", 1},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			h := newTestHost(t)
			h.run(t, tc.line)
			assert.Equal(t, tc.want, h.spyCalls.Load())
		})
	}
}

func TestLastStatusExpansion(t *testing.T) {
	h := newTestHost(t)

	h.run(t, "false")
	status := h.run(t, "emit rc=$?")
	assert.Equal(t, 0, status)
	assert.Equal(t, "rc=1\n", h.out.String())
}

func TestBuiltinPipeline(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "emit hello pipeline | upper")
	assert.Equal(t, 0, status)
	assert.Equal(t, "HELLO PIPELINE\n", h.out.String())
}

func TestRedirectToFile(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "emit saved > result.txt")
	require.Equal(t, 0, status)
	assert.Empty(t, h.out.String())

	data, err := afero.ReadFile(h.exec.FS, "/home/u/result.txt")
	require.NoError(t, err)
	assert.Equal(t, "saved\n", string(data))
}

func TestRedirectAppend(t *testing.T) {
	h := newTestHost(t)

	h.run(t, "emit one > log.txt")
	h.run(t, "emit two >> log.txt")

	data, err := afero.ReadFile(h.exec.FS, "/home/u/log.txt")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestRedirectInput(t *testing.T) {
	h := newTestHost(t)
	require.NoError(t, afero.WriteFile(h.exec.FS, "/home/u/in.txt", []byte("shout\n"), 0o644))

	status := h.run(t, "upper < in.txt")
	assert.Equal(t, 0, status)
	assert.Equal(t, "SHOUT\n", h.out.String())
}

func TestDuplicateOrderEndToEnd(t *testing.T) {
	t.Run("merge then move", func(t *testing.T) {
		h := newTestHost(t)
		h.run(t, "both 2>&1 1> f.txt")

		// stderr merged into the terminal stdout before it moved.
		assert.Equal(t, "to-err\n", h.out.String())
		data, err := afero.ReadFile(h.exec.FS, "/home/u/f.txt")
		require.NoError(t, err)
		assert.Equal(t, "to-out\n", string(data))
	})

	t.Run("move then merge", func(t *testing.T) {
		h := newTestHost(t)
		h.run(t, "both 1> f.txt 2>&1")

		assert.Empty(t, h.out.String())
		data, err := afero.ReadFile(h.exec.FS, "/home/u/f.txt")
		require.NoError(t, err)
		assert.Contains(t, string(data), "to-out\n")
		assert.Contains(t, string(data), "to-err\n")
	})
}

func TestBuildErrorAbortsPipeline(t *testing.T) {
	h := newTestHost(t)
	h.exec.FS = afero.NewReadOnlyFs(h.exec.FS)
	h.exec.Resolver.FS = h.exec.FS

	status := h.run(t, "spy | spy > blocked.txt")
	assert.Equal(t, ReservedStatus, status)
	assert.Contains(t, h.errw.String(), "blocked.txt")
	assert.Zero(t, h.spyCalls.Load(), "no stage spawns when the build fails")
}

func TestStateBuiltinRestrictedToForeground(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "cd /tmp | emit x")
	assert.Equal(t, ReservedStatus, status)
	assert.Contains(t, h.errw.String(), "cd: must run alone in the foreground")
	assert.Equal(t, "/home/u", h.exec.State.Cwd())

	status = h.run(t, "cd /tmp &")
	assert.Equal(t, ReservedStatus, status)
	assert.Equal(t, "/home/u", h.exec.State.Cwd())
}

func TestStateBuiltinMutatesOnDispatchThread(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "cd /etc")
	assert.Equal(t, 0, status)
	assert.Equal(t, "/etc", h.exec.State.Cwd())
}

func TestBackgroundJobLifecycle(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "slow &")
	assert.Equal(t, 0, status, "background launch yields success immediately")

	jobs := h.exec.Manager.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, job.Background, jobs[0].State)
	id := jobs[0].ID

	close(h.slowGate)
	snap, err := h.exec.Manager.Wait(id)
	require.NoError(t, err)
	assert.Equal(t, job.Completed, snap.State)
	assert.Empty(t, h.exec.Manager.Jobs())
}

func TestBackgroundYieldsSuccessToConnector(t *testing.T) {
	h := newTestHost(t)

	h.run(t, "slow & && spy")
	assert.Equal(t, int32(1), h.spyCalls.Load())
	close(h.slowGate)
	h.exec.Manager.WaitAll()
}

func TestExitRequestStopsChain(t *testing.T) {
	h := newTestHost(t)

	status := h.run(t, "quit ; spy")
	assert.Equal(t, 5, status)
	assert.Zero(t, h.spyCalls.Load())

	exit, code := h.exec.State.ExitRequested()
	assert.True(t, exit)
	assert.Equal(t, 5, code)
}

func TestSpawnErrorMidPipeline(t *testing.T) {
	h := newTestHost(t)
	// Resolvable in the session fs, but not spawnable on the real OS.
	require.NoError(t, afero.WriteFile(h.exec.FS, "/usr/bin/ghost", []byte("x"), 0o755))
	require.NoError(t, h.exec.FS.Chmod("/usr/bin/ghost", 0o755))

	status := h.run(t, "emit data | ghost | upper")
	assert.Equal(t, ReservedStatus, status)
	assert.Contains(t, h.errw.String(), "ghost")
}

// End-to-end against real binaries, the canonical grep|sort scenario.
func TestExternalPipelineEndToEnd(t *testing.T) {
	for _, tool := range []string{"grep", "sort"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not on PATH", tool)
		}
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"),
		[]byte("foo2\nbar\nfoo1\n"), 0o644))

	fs := afero.NewOsFs()
	st := state.New(dir, state.NewEnvFromList(os.Environ()))
	out, errw := &bytes.Buffer{}, &bytes.Buffer{}

	e := &Executor{
		FS:       fs,
		State:    st,
		Manager:  job.NewManager(nil),
		Resolver: &Resolver{FS: fs},
		Stdin:    strings.NewReader(""),
		Stdout:   out,
		Stderr:   errw,
	}

	status := e.RunLine("grep foo file.txt | sort > out.txt")
	require.Equal(t, 0, status, "stderr: %s", errw.String())

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "foo1\nfoo2\n", string(data))
}
