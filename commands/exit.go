package commands

import (
	"fmt"
	"strconv"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

// Exit asks the host to end the session once dispatch returns.
func Exit(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "exit [CODE]",
		Short: "End the session, with CODE or the last exit status.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()

		code := p.State.LastStatus()
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(p.Stderr, "exit: %s: numeric argument required\n", args[0])
				code = 2
			} else {
				code = parsed
			}
		}

		p.State.RequestExit(code)
		return code
	})
}

func init() {
	register("exit", Exit)
}
