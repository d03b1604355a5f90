package commands

import (
	"fmt"
	"strings"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

// Alias defines or lists command aliases.
func Alias(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "alias [NAME=BODY] ...",
		Short: "Define aliases. Without arguments, list the defined ones.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			for _, name := range p.State.AliasNames() {
				body, _ := p.State.Alias(name)
				fmt.Fprintf(p.Stdout, "alias %s='%s'\n", name, body)
			}
			return 0
		}

		status := 0
		for _, arg := range args {
			name, body, ok := strings.Cut(arg, "=")
			switch {
			case !ok:
				// Bare name: show that one alias.
				if body, defined := p.State.Alias(arg); defined {
					fmt.Fprintf(p.Stdout, "alias %s='%s'\n", arg, body)
				} else {
					fmt.Fprintf(p.Stderr, "alias: %s: not found\n", arg)
					status = 1
				}
			case name == "":
				fmt.Fprintf(p.Stderr, "alias: %s: invalid name\n", arg)
				status = 1
			default:
				p.State.SetAlias(name, body)
			}
		}
		return status
	})
}

// Unalias removes alias definitions.
func Unalias(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "unalias NAME ...",
		Short: "Remove aliases.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			fmt.Fprintln(p.Stderr, "unalias: usage: unalias NAME ...")
			return 1
		}

		status := 0
		for _, name := range args {
			if !p.State.UnsetAlias(name) {
				fmt.Fprintf(p.Stderr, "unalias: %s: not found\n", name)
				status = 1
			}
		}
		return status
	})
}

func init() {
	register("alias", Alias)
	register("unalias", Unalias)
}
