package commands

import (
	"fmt"
	"path"

	"github.com/jitlabs-sg/titan-bash/core/interp"
	"github.com/jitlabs-sg/titan-bash/core/pathutil"
)

// Activate enters a virtual environment: DIR/bin is prepended to the
// search path until deactivate restores it.
func Activate(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "activate DIR",
		Short: "Enter the virtual environment rooted at DIR.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) != 1 {
			fmt.Fprintln(p.Stderr, "activate: usage: activate DIR")
			return 1
		}

		root := pathutil.Resolve(p.State.Cwd(), pathutil.ExpandHome(args[0], p.State.Home()))
		binDir := path.Join(root, "bin")
		info, err := p.FS.Stat(binDir)
		if err != nil || !info.IsDir() {
			fmt.Fprintf(p.Stderr, "activate: %s: no bin directory\n", args[0])
			return 1
		}

		p.State.Activate(path.Base(root), binDir)
		return 0
	})
}

// Deactivate leaves the active virtual environment, restoring the
// saved search path exactly.
func Deactivate(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "deactivate",
		Short: "Leave the active virtual environment.",
	}

	return cmd.Run(p, func() int {
		if !p.State.Deactivate() {
			fmt.Fprintln(p.Stderr, "deactivate: no active environment")
			return 1
		}
		return 0
	})
}

func init() {
	register("activate", Activate)
	register("deactivate", Deactivate)
}
