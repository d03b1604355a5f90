package commands

import (
	"fmt"

	"github.com/jitlabs-sg/titan-bash/core/interp"
	"github.com/jitlabs-sg/titan-bash/core/pathutil"
)

// Cd changes the session's working directory.
func Cd(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "cd [DIR]",
		Short: "Change the working directory, to $HOME when DIR is omitted.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()

		dir := p.State.Home()
		if len(args) > 0 {
			dir = pathutil.ExpandHome(args[0], p.State.Home())
		}

		target := pathutil.Resolve(p.State.Cwd(), dir)
		info, err := p.FS.Stat(target)
		if err != nil {
			fmt.Fprintf(p.Stderr, "cd: %s: no such directory\n", dir)
			return 1
		}
		if !info.IsDir() {
			fmt.Fprintf(p.Stderr, "cd: %s: not a directory\n", dir)
			return 1
		}

		p.State.Chdir(target)
		return 0
	})
}

func init() {
	register("cd", Cd)
}
