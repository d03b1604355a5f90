//go:build !unix

package interp

import (
	"errors"
	"io"
	"os/exec"
)

func prepareSpawn(cmd *exec.Cmd) {}

// giveTerminal is a no-op without unix process groups.
func giveTerminal(stdin io.Reader, pgid int) func() { return func() {} }

// terminate kills the stage process directly; without process groups
// the explicit per-stage fan-out is the only delivery path anyway.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

func waitStatus(cmd *exec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 127
}
