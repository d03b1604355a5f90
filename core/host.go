package core

import (
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/jitlabs-sg/titan-bash/core/config"
	"github.com/jitlabs-sg/titan-bash/core/job"
	"github.com/jitlabs-sg/titan-bash/core/pathutil"
)

// Host runs the interactive loop: it reads lines, feeds them to the
// session and owns the interrupt handler for the process.
type Host struct {
	Session  *Session
	Readline *readline.Instance

	coordinator *job.Coordinator
}

// NewHost wires a session over the real filesystem and standard
// streams to a line reader.
func NewHost(cfg *config.Configuration, lg *log.Logger) (*Host, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = homeDir(os.Environ())
	}
	session, err := NewSession(afero.NewOsFs(), cfg, lg, os.Environ(), pathutil.Normalize(cwd), os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return nil, err
	}

	stdinFd := int(os.Stdin.Fd())
	rl, err := readline.NewEx(&readline.Config{
		Stdin:  readline.NewCancelableStdin(os.Stdin),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		FuncIsTerminal: func() bool {
			return term.IsTerminal(stdinFd)
		},
		FuncGetWidth: func() int {
			w, _, err := term.GetSize(stdinFd)
			if err != nil {
				return 80
			}
			return w
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initializing line reader: %w", err)
	}

	for _, line := range session.History.Lines() {
		rl.SaveHistory(line)
	}

	return &Host{
		Session:     session,
		Readline:    rl,
		coordinator: job.NewCoordinator(session.Manager, session.Logger),
	}, nil
}

// Run is the read-eval loop. It returns the session's exit code: the
// argument to exit, or the last command's status when input closes.
func (h *Host) Run() int {
	defer h.close()

	s := h.Session
	s.RunInitFile()
	if requested, code := s.State.ExitRequested(); requested {
		s.Close(code)
		return code
	}

	for {
		s.NotifyFinished(h.Readline)
		h.Readline.SetPrompt(s.Prompt())

		line, err := h.Readline.Readline()
		switch {
		case err == io.EOF:
			code := s.State.LastStatus()
			s.Close(code)
			return code

		case err == readline.ErrInterrupt:
			continue // Discard the partial line.

		case err != nil:
			s.Logger.Error("readline", "error", err)
			code := s.State.LastStatus()
			s.Close(code)
			return code

		case len(line) == 0:
			continue
		}

		s.RunLine(line)
		h.Readline.SaveHistory(line)

		if requested, code := s.State.ExitRequested(); requested {
			s.Close(code)
			return code
		}
	}
}

func (h *Host) close() {
	h.coordinator.Close()
	h.Readline.Close()
}
