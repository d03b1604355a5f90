//go:build unix

package interp

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// prepareSpawn puts the child in its own process group. Interrupts
// typed at the terminal then reach children only through the job
// manager's explicit fan-out, never directly from the kernel.
func prepareSpawn(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

var ignoreTTOUOnce sync.Once

// giveTerminal makes pgid the terminal's foreground process group so
// a stdin-reading child in its own group is not stopped by SIGTTIN
// before it reads a byte. The returned func hands the terminal back;
// both directions are no-ops when stdin is not a terminal.
func giveTerminal(stdin io.Reader, pgid int) func() {
	f, ok := stdin.(*os.File)
	if !ok {
		return func() {}
	}
	fd := int(f.Fd())

	prev, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil {
		return func() {}
	}

	// The restore runs while the host is no longer the foreground
	// group; unless SIGTTOU is ignored it would stop the host.
	ignoreTTOUOnce.Do(func() {
		signal.Ignore(unix.SIGTTOU)
	})

	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid); err != nil {
		return func() {}
	}
	return func() {
		_ = unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, prev)
	}
}

// terminate asks the stage's process group to shut down.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

// waitStatus awaits the process and maps its exit to a shell status:
// the native exit code, or 128+signal for a signalled death.
func waitStatus(cmd *exec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		return ee.ExitCode()
	}
	return 127
}
