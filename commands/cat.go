package commands

import (
	"fmt"
	"io"

	"github.com/jitlabs-sg/titan-bash/core/interp"
	"github.com/jitlabs-sg/titan-bash/core/pathutil"
)

// Cat concatenates files to stdout, or copies stdin when no files
// are named so it slots into pipelines.
func Cat(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "cat [FILE] ...",
		Short: "Concatenate files to standard output.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			if _, err := io.Copy(p.Stdout, p.Stdin); err != nil {
				fmt.Fprintf(p.Stderr, "cat: %v\n", err)
				return 1
			}
			return 0
		}

		status := 0
		for _, name := range args {
			target := pathutil.Resolve(p.State.Cwd(), pathutil.ExpandHome(name, p.State.Home()))
			f, err := p.FS.Open(target)
			if err != nil {
				fmt.Fprintf(p.Stderr, "cat: %s: no such file\n", name)
				status = 1
				continue
			}
			if _, err := io.Copy(p.Stdout, f); err != nil {
				fmt.Fprintf(p.Stderr, "cat: %s: %v\n", name, err)
				status = 1
			}
			f.Close()
		}
		return status
	})
}

func init() {
	register("cat", Cat)
}
