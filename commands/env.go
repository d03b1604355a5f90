package commands

import (
	"fmt"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

// Env prints the session environment.
func Env(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "env",
		Short: "Print the environment, one NAME=VALUE per line.",
	}

	return cmd.Run(p, func() int {
		for _, kv := range p.State.Env.Environ() {
			fmt.Fprintln(p.Stdout, kv)
		}
		return 0
	})
}

func init() {
	register("env", Env)
}
