package commands

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

var helpHeading = color.New(color.FgCyan, color.Bold)

// Help lists the available builtins.
func Help(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "help",
		Short: "List the shell's builtin commands.",
	}

	return cmd.Run(p, func() int {
		names := make([]string, 0, len(AllBuiltins))
		for name := range AllBuiltins {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(p.Stdout, helpHeading.Sprint("builtin commands:"))
		for _, name := range names {
			fmt.Fprintf(p.Stdout, "  %s\n", name)
		}
		return 0
	})
}

// HistoryCmd prints the session's command history, oldest first.
func HistoryCmd(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "history",
		Short: "Print the command history.",
	}

	return cmd.Run(p, func() int {
		for i, line := range p.Host.History() {
			fmt.Fprintf(p.Stdout, "%5d  %s\n", i+1, line)
		}
		return 0
	})
}

func init() {
	register("help", Help)
	register("history", HistoryCmd)
}
