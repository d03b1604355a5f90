package commands

import (
	"fmt"
	"strings"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

// Export sets environment variables for the session and its children.
func Export(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "export [NAME=VALUE] ...",
		Short: "Set environment variables. Without arguments, print the environment.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			for _, kv := range p.State.Env.Environ() {
				fmt.Fprintln(p.Stdout, kv)
			}
			return 0
		}

		status := 0
		for _, arg := range args {
			name, value, ok := strings.Cut(arg, "=")
			if !ok || name == "" {
				fmt.Fprintf(p.Stderr, "export: %s: expected NAME=VALUE\n", arg)
				status = 1
				continue
			}
			p.State.Env.Set(name, value)
		}
		return status
	})
}

func init() {
	register("export", Export)
}
