// Package commands holds the host's builtin commands. Each builtin
// registers itself in AllBuiltins at init time; the resolver gives
// this table precedence over the search path so an external tool can
// never shadow cd or exit.
package commands

import (
	"fmt"
	"io"

	getopt "github.com/pborman/getopt/v2"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

// AllBuiltins maps builtin names to their implementations.
var AllBuiltins = make(map[string]interp.BuiltinFunc)

func register(name string, fn interp.BuiltinFunc) {
	AllBuiltins[name] = fn
}

// SimpleCommand handles the boilerplate of a builtin: flag parsing,
// a standard help flag and usage output on bad invocations.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not. If this is
	// non-nil when Run() is called, the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail always runs the callback even when flag parsing
	// failed.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command; if flag parsing was successful call the callback.
func (s *SimpleCommand) Run(p *interp.Proc, callback func() int) int {
	opts := s.Flags()

	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(p.Argv, nil)
	if err != nil && !s.NeverBail {
		fmt.Fprintf(p.Stderr, "error: %s\n\n", err)
		s.PrintHelp(p.Stderr)
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(p.Stdout)
		return 0
	}

	return callback()
}
