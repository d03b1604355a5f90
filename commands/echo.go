package commands

import (
	"fmt"
	"strings"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

var unescapeReplacer = strings.NewReplacer(
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\\`, `\`,
	`\a`, "\a",
	`\b`, "\b",
	`\f`, "\f",
	`\v`, "\v",
)

// Echo displays its arguments.
func Echo(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "echo [-n] [-e] [ARG] ...",
		Short: "Display a line of text.",
	}

	opt := cmd.Flags()
	noNewline := opt.Bool('n', "do not output the trailing newline")
	escapes := opt.Bool('e', "interpret backslash escapes")

	return cmd.Run(p, func() int {
		line := strings.Join(opt.Args(), " ")
		if *escapes {
			line = unescapeReplacer.Replace(line)
		}
		if *noNewline {
			fmt.Fprint(p.Stdout, line)
		} else {
			fmt.Fprintln(p.Stdout, line)
		}
		return 0
	})
}

func init() {
	register("echo", Echo)
}
