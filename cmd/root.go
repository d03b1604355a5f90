package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jitlabs-sg/titan-bash/core"
	"github.com/jitlabs-sg/titan-bash/core/config"
	"github.com/jitlabs-sg/titan-bash/core/pathutil"
)

// Version is stamped by the build.
var Version = "dev"

var (
	cfgPath     string
	commandLine string
)

func loadConfig() (*config.Configuration, error) {
	return config.Load(afero.NewOsFs(), cfgPath)
}

func newLogger(cmd *cobra.Command, cfg *config.Configuration) *log.Logger {
	lg := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		ReportTimestamp: false,
	})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		lg.SetLevel(level)
	}
	return lg
}

// rootCmd runs interactively by default; -c runs one command line and
// a positional script file is dispatched through its interpreter.
var rootCmd = &cobra.Command{
	Use:     "titanbash [SCRIPT [ARG ...]]",
	Short:   "An interactive command host.",
	Long:    `An interactive command host with pipelines, job control and script dispatch.`,
	Version: Version,
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lg := newLogger(cmd, cfg)

		switch {
		case commandLine != "":
			os.Exit(runOnce(cfg, lg, commandLine))
		case len(args) > 0:
			if _, ok := cfg.ScriptHosts[strings.ToLower(filepath.Ext(args[0]))]; ok {
				// A script-host extension dispatches the whole
				// invocation through its interpreter.
				os.Exit(runOnce(cfg, lg, core.ScriptLine(args)))
			}
			os.Exit(runScript(cfg, lg, args[0]))
		}

		host, err := core.NewHost(cfg, lg)
		if err != nil {
			return err
		}
		os.Exit(host.Run())
		return nil
	},
}

// runOnce runs a single command line non-interactively: no init file
// and no history.
func runOnce(cfg *config.Configuration, lg *log.Logger, line string) int {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	session, err := core.NewSession(afero.NewOsFs(), cfg, lg, os.Environ(),
		pathutil.Normalize(cwd), os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		lg.Error("session setup failed", "error", err)
		return 1
	}

	status := session.Exec.RunLine(line)
	if requested, code := session.State.ExitRequested(); requested {
		status = code
	}
	session.Close(status)
	return status
}

// runScript runs a file without a script-host extension line by line.
func runScript(cfg *config.Configuration, lg *log.Logger, path string) int {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	session, err := core.NewSession(afero.NewOsFs(), cfg, lg, os.Environ(),
		pathutil.Normalize(cwd), os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		lg.Error("session setup failed", "error", err)
		return 1
	}

	status, err := session.RunScript(path)
	if err != nil {
		lg.Error("script failed", "path", path, "error", err)
	}
	session.Close(status)
	return status
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single command line and exit")
}
