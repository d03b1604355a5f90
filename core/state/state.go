// Package state holds the mutable session state of the host: working
// directory, environment, aliases, the last exit status and virtual
// environment bookkeeping. All mutation happens on the dispatch
// goroutine; the locks exist because pipeline stages running as
// goroutines read concurrently.
package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/jitlabs-sg/titan-bash/core/pathutil"
)

// State is the explicit shell state threaded through the resolver,
// the executor and the builtins. It is never global.
type State struct {
	Env *Env

	mu         sync.RWMutex
	cwd        string
	aliases    map[string]string
	lastStatus int

	exitRequested bool
	exitCode      int

	venvName  string
	savedPath string
}

// New creates session state rooted at cwd with the given environment.
func New(cwd string, env *Env) *State {
	if env == nil {
		env = NewEnv()
	}
	return &State{
		Env:     env,
		cwd:     pathutil.Normalize(cwd),
		aliases: make(map[string]string),
	}
}

// Cwd returns the current working directory, always normalized.
func (s *State) Cwd() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cwd
}

// Chdir resolves dir against the current directory and makes it the
// new working directory. Existence checks belong to the caller.
func (s *State) Chdir(dir string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cwd = pathutil.Resolve(s.cwd, dir)
	return s.cwd
}

// Home returns $HOME, falling back to "/" when unset.
func (s *State) Home() string {
	if home := s.Env.Get("HOME"); home != "" {
		return home
	}
	return "/"
}

// SearchPath returns the entries of $PATH in order.
func (s *State) SearchPath() []string {
	path := s.Env.Get("PATH")
	if path == "" {
		return nil
	}
	var dirs []string
	for _, d := range strings.Split(path, ":") {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// LastStatus returns the exit status of the most recent foreground
// pipeline, the value "$?" expands to.
func (s *State) LastStatus() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStatus
}

func (s *State) SetLastStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastStatus = code
}

// RequestExit marks the session for termination after the current
// dispatch completes.
func (s *State) RequestExit(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exitRequested = true
	s.exitCode = code
}

// ExitRequested reports whether a builtin asked the session to end,
// and with which code.
func (s *State) ExitRequested() (bool, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitRequested, s.exitCode
}

// SetAlias defines or replaces an alias.
func (s *State) SetAlias(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[name] = value
}

// UnsetAlias removes an alias and reports whether it existed.
func (s *State) UnsetAlias(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.aliases[name]
	delete(s.aliases, name)
	return ok
}

// Alias looks up an alias definition.
func (s *State) Alias(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.aliases[name]
	return v, ok
}

// AliasNames returns all defined alias names, sorted.
func (s *State) AliasNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.aliases))
	for n := range s.aliases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Activate enters a virtual environment: binDir is prepended to PATH
// and the pre-activation PATH is saved so Deactivate can restore it
// byte for byte. Activating while active switches environments without
// stacking PATH entries.
func (s *State) Activate(name, binDir string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.venvName == "" {
		s.savedPath = s.Env.Get("PATH")
	}
	s.venvName = name

	base := s.savedPath
	if base == "" {
		s.Env.Set("PATH", binDir)
	} else {
		s.Env.Set("PATH", binDir+":"+base)
	}
}

// Deactivate leaves the active virtual environment and restores the
// saved PATH. It reports whether an environment was active.
func (s *State) Deactivate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.venvName == "" {
		return false
	}
	s.Env.Set("PATH", s.savedPath)
	s.venvName = ""
	s.savedPath = ""
	return true
}

// VenvName returns the active virtual environment name, or "".
func (s *State) VenvName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.venvName
}
