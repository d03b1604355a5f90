package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jitlabs-sg/titan-bash/core/logger"
)

var kindColor = color.New(color.FgCyan)

var logsCmd = &cobra.Command{
	Use:     "logs FILE",
	Aliases: []string{"log"},
	Short:   "Print a session audit log in a readable form.",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		out := cmd.OutOrStdout()
		return logger.ReadEvents(fd, func(ev logger.Event) {
			ts := time.UnixMicro(ev.TimestampMicros).UTC().Format(time.RFC3339)
			sid := ev.SessionID
			if len(sid) > 8 {
				sid = sid[:8]
			}
			fmt.Fprintf(out, "%s  %s  %-13s", ts, sid, kindColor.Sprint(ev.Kind))
			if ev.Line != "" {
				fmt.Fprintf(out, "  %q", ev.Line)
			}
			if ev.Status != nil {
				fmt.Fprintf(out, "  status=%d", *ev.Status)
			}
			if ev.ElapsedMS > 0 {
				fmt.Fprintf(out, "  elapsed=%dms", ev.ElapsedMS)
			}
			fmt.Fprintln(out)
		})
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
}
