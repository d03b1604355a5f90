package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jitlabs-sg/titan-bash/core/config"
)

// initCmd writes a starter configuration for editing.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the config path.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fs := afero.NewOsFs()
		target := cfgPath
		if info, err := fs.Stat(target); err == nil && info.IsDir() {
			target = filepath.Join(target, config.ConfigurationName)
		}

		if err := config.Initialize(fs, target); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
