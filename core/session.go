package core

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/jitlabs-sg/titan-bash/commands"
	"github.com/jitlabs-sg/titan-bash/core/config"
	"github.com/jitlabs-sg/titan-bash/core/history"
	"github.com/jitlabs-sg/titan-bash/core/interp"
	"github.com/jitlabs-sg/titan-bash/core/job"
	"github.com/jitlabs-sg/titan-bash/core/logger"
	"github.com/jitlabs-sg/titan-bash/core/pathutil"
	"github.com/jitlabs-sg/titan-bash/core/state"
	"github.com/jitlabs-sg/titan-bash/core/toolbox"
)

const (
	EnvHome = "HOME"
	EnvPath = "PATH"

	// DefaultPrompt is used when the configuration carries none.
	DefaultPrompt = "{venv}{cwd} $ "
)

// Session is one command-host session: state, executor, history and
// audit wired together over a filesystem. The interactive Host drives
// a Session through a line reader; the -c and script paths drive it
// directly.
type Session struct {
	Config  *config.Configuration
	State   *state.State
	Exec    *interp.Executor
	History *history.History
	Manager *job.Manager
	Logger  *log.Logger

	fs        afero.Fs
	audit     *logger.Recorder
	auditFile io.Closer
}

// NewSession builds a session over fs with the given stdio. environ
// seeds the variable table, usually os.Environ().
func NewSession(fs afero.Fs, cfg *config.Configuration, lg *log.Logger, environ []string, cwd string, stdin io.Reader, stdout, stderr io.Writer) (*Session, error) {
	if lg == nil {
		lg = log.New(io.Discard)
	}

	env := state.NewEnvFromList(environ)
	st := state.New(cwd, env)
	for name, body := range cfg.Aliases {
		st.SetAlias(name, body)
	}

	tb, err := detectToolbox(fs, cfg)
	if err != nil {
		lg.Warn("toolbox unavailable", "error", err)
	}
	if tb != nil {
		lg.Debug("toolbox loaded", "path", tb.Path, "applets", len(tb.Applets()))
	}

	s := &Session{
		Config:  cfg,
		State:   st,
		Manager: job.NewManager(lg),
		Logger:  lg,
		fs:      fs,
	}

	if cfg.AuditLog != "" {
		target := pathutil.Resolve(st.Home(), pathutil.ExpandHome(cfg.AuditLog, st.Home()))
		f, err := fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		s.audit = logger.NewRecorder(f)
		s.auditFile = f
	}

	if cfg.HistoryFile != "" {
		target := pathutil.Resolve(st.Home(), pathutil.ExpandHome(cfg.HistoryFile, st.Home()))
		s.History = history.New(target, cfg.HistorySize)
		if err := s.History.Load(); err != nil {
			lg.Warn("could not load history", "error", err)
		}
	} else {
		s.History = history.New("", cfg.HistorySize)
	}

	s.Exec = &interp.Executor{
		FS:      fs,
		State:   st,
		Manager: s.Manager,
		Resolver: &interp.Resolver{
			FS:          fs,
			Builtins:    commands.AllBuiltins,
			ScriptHosts: cfg.ScriptHosts,
			Toolbox:     tb,
		},
		Logger:      lg,
		Audit:       s.audit,
		Stdin:       stdin,
		Stdout:      stdout,
		Stderr:      stderr,
		HistoryFunc: func() []string { return s.History.Lines() },
	}

	return s, nil
}

func detectToolbox(fs afero.Fs, cfg *config.Configuration) (*toolbox.Toolbox, error) {
	if cfg.ToolboxPath != "" {
		return toolbox.Load(cfg.ToolboxPath, toolbox.ExecList)
	}
	return toolbox.Detect(fs, toolbox.ExecList)
}

// RunLine records the line in history and runs it, returning its exit
// status.
func (s *Session) RunLine(line string) int {
	if err := s.History.Add(line); err != nil {
		s.Logger.Warn("could not append history", "error", err)
	}
	return s.Exec.RunLine(line)
}

// RunInitFile runs the configured init script line by line before the
// first prompt. A missing file is not an error; a failing line is
// reported and the rest still runs.
func (s *Session) RunInitFile() {
	if s.Config.InitFile == "" {
		return
	}
	target := pathutil.Resolve(s.State.Home(), pathutil.ExpandHome(s.Config.InitFile, s.State.Home()))
	data, err := afero.ReadFile(s.fs, target)
	if err != nil {
		if !os.IsNotExist(err) {
			s.Logger.Warn("could not read init file", "path", target, "error", err)
		}
		return
	}
	s.runLines(string(data))
}

// RunScript runs a script file line by line: blank lines and # comments
// are skipped, a trailing backslash continues onto the next line. The
// return value is the last command's status, or the argument to exit.
func (s *Session) RunScript(path string) (int, error) {
	target := pathutil.Resolve(s.State.Cwd(), pathutil.ExpandHome(path, s.State.Home()))
	data, err := afero.ReadFile(s.fs, target)
	if err != nil {
		return 1, fmt.Errorf("reading script: %w", err)
	}

	status := s.runLines(string(data))
	if requested, code := s.State.ExitRequested(); requested {
		status = code
	}
	return status, nil
}

func (s *Session) runLines(text string) int {
	status := 0
	pending := ""
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if pending == "" && (line == "" || strings.HasPrefix(line, "#")) {
			continue
		}
		if strings.HasSuffix(line, `\`) {
			pending += strings.TrimSuffix(line, `\`) + " "
			continue
		}
		line = pending + line
		pending = ""

		status = s.Exec.RunLine(line)
		if requested, code := s.State.ExitRequested(); requested {
			return code
		}
	}
	if pending != "" {
		status = s.Exec.RunLine(strings.TrimSpace(pending))
	}
	return status
}

// Prompt renders the configured prompt template. {cwd} becomes the
// working directory with $HOME shortened to ~, {venv} the active
// environment marker.
func (s *Session) Prompt() string {
	prompt := s.Config.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	cwd := s.State.Cwd()
	home := s.State.Home()
	if cwd == home {
		cwd = "~"
	} else if strings.HasPrefix(cwd, home+"/") {
		cwd = "~" + strings.TrimPrefix(cwd, home)
	}

	venv := ""
	if name := s.State.VenvName(); name != "" {
		venv = "(" + name + ") "
	}

	prompt = strings.ReplaceAll(prompt, "{cwd}", cwd)
	prompt = strings.ReplaceAll(prompt, "{venv}", venv)
	return prompt
}

// NotifyFinished writes a line for every background job that reached a
// terminal state since the last check. Running jobs stay in the table.
func (s *Session) NotifyFinished(w io.Writer) {
	for _, snap := range s.Manager.Jobs() {
		if snap.State.Terminal() {
			fmt.Fprintf(w, "[%d]\t%s\t%s\n", snap.ID, snap.State, snap.Summary)
		}
	}
}

// Close waits out the remaining background jobs and seals the audit
// log with the session's final status.
func (s *Session) Close(status int) {
	s.Manager.WaitAll()
	s.audit.Close(status)
	if s.auditFile != nil {
		s.auditFile.Close()
	}
}

// ScriptLine turns a script invocation's argv into the command line
// that dispatches it through the session, quoting arguments that need
// it.
func ScriptLine(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		if arg == "" || strings.ContainsAny(arg, " \t'\"|&;<>") {
			arg = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		}
		quoted = append(quoted, arg)
	}
	return strings.Join(quoted, " ")
}

// home returns a usable home directory for seeding sessions.
func homeDir(environ []string) string {
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, EnvHome+"="); ok && v != "" {
			return v
		}
	}
	if h, err := os.UserHomeDir(); err == nil {
		return pathutil.Normalize(h)
	}
	return "/"
}
