package commands

import (
	"fmt"
	"strconv"

	"github.com/jitlabs-sg/titan-bash/core/interp"
)

// Jobs lists the job table. Terminal jobs appear in exactly one
// listing before the manager collects them.
func Jobs(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "jobs",
		Short: "List background and recently finished jobs.",
	}

	return cmd.Run(p, func() int {
		for _, j := range p.Host.Jobs().Jobs() {
			fmt.Fprintf(p.Stdout, "[%d]\t%s\t%s\n", j.ID, j.State, j.Summary)
		}
		return 0
	})
}

// Fg moves a background job into the foreground and blocks until it
// finishes.
func Fg(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "fg ID",
		Short: "Wait for a background job in the foreground.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) != 1 {
			fmt.Fprintln(p.Stderr, "fg: usage: fg ID")
			return 1
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(p.Stderr, "fg: %s: not a job id\n", args[0])
			return 1
		}

		mgr := p.Host.Jobs()
		if err := mgr.MoveToForeground(id); err != nil {
			fmt.Fprintf(p.Stderr, "fg: %v\n", err)
			return 1
		}
		snap, err := mgr.Wait(id)
		if err != nil {
			fmt.Fprintf(p.Stderr, "fg: %v\n", err)
			return 1
		}
		return snap.ExitStatus()
	})
}

// Wait blocks until the named job, or every job, reaches a terminal
// state and reaps it.
func Wait(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "wait [ID]",
		Short: "Wait for a background job, or all of them, to finish.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		mgr := p.Host.Jobs()

		if len(args) == 0 {
			status := 0
			for _, snap := range mgr.WaitAll() {
				status = snap.ExitStatus()
			}
			return status
		}

		id, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(p.Stderr, "wait: %s: not a job id\n", args[0])
			return 1
		}
		snap, err := mgr.Wait(id)
		if err != nil {
			fmt.Fprintf(p.Stderr, "wait: %v\n", err)
			return 1
		}
		return snap.ExitStatus()
	})
}

// Kill delivers a termination request to every stage of a job.
func Kill(p *interp.Proc) int {
	cmd := &SimpleCommand{
		Use:   "kill ID ...",
		Short: "Terminate background jobs by id.",
	}

	return cmd.Run(p, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			fmt.Fprintln(p.Stderr, "kill: usage: kill ID ...")
			return 1
		}

		status := 0
		for _, arg := range args {
			id, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Fprintf(p.Stderr, "kill: %s: not a job id\n", arg)
				status = 1
				continue
			}
			if err := p.Host.Jobs().Kill(id); err != nil {
				fmt.Fprintf(p.Stderr, "kill: %v\n", err)
				status = 1
			}
		}
		return status
	})
}

func init() {
	register("jobs", Jobs)
	register("fg", Fg)
	register("wait", Wait)
	register("kill", Kill)
}
