package commands

import (
	"fmt"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

// Which reports how each name would be dispatched.
func Which(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "which NAME ...",
		Short: "Show how a command name resolves.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			fmt.Fprintln(p.Stderr, "which: usage: which NAME ...")
			return 1
		}

		status := 0
		for _, name := range args {
			res := p.Host.Resolve(name)
			switch res.Kind {
			case interp.KindBuiltin:
				fmt.Fprintf(p.Stdout, "%s: shell builtin\n", name)
			case interp.KindExecutable:
				fmt.Fprintln(p.Stdout, res.Path)
			case interp.KindScript:
				fmt.Fprintf(p.Stdout, "%s (via %s)\n", res.Path, res.Argv[0])
			default:
				fmt.Fprintf(p.Stderr, "which: %s: not found\n", name)
				status = 1
			}
		}
		return status
	})
}

func init() {
	register("which", Which)
}
