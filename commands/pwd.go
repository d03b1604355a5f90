package commands

import (
	"fmt"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

// Pwd prints the session's working directory.
func Pwd(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(p, func() int {
		fmt.Fprintln(p.Stdout, p.State.Cwd())
		return 0
	})
}

func init() {
	register("pwd", Pwd)
}
