package interp

import (
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/jitlabs-sg/titan-bash/core/pathutil"
	"github.com/jitlabs-sg/titan-bash/core/state"
	"github.com/jitlabs-sg/titan-bash/core/toolbox"
)

// Kind enumerates the closed set of resolution outcomes. Every value
// is handled explicitly by the executor; there is no dynamic dispatch
// beyond this tag.
type Kind int

const (
	// KindUnresolved: the name matched nothing. Zero value on purpose.
	KindUnresolved Kind = iota
	// KindBuiltin: in-process command. Builtins win over PATH so an
	// external tool can never shadow cd or exit.
	KindBuiltin
	// KindExecutable: native binary found on the search path.
	KindExecutable
	// KindScript: file dispatched through an interpreter by
	// extension.
	KindScript
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindExecutable:
		return "executable"
	case KindScript:
		return "script"
	default:
		return "unresolved"
	}
}

// Resolution is the outcome of resolving one command name.
type Resolution struct {
	Kind Kind
	// Name is the name as given.
	Name string
	// Path is the resolved file for KindExecutable and KindScript.
	Path string
	// Argv is the spawn prefix: for a script, the interpreter argv
	// followed by the script path; for an executable, just the path;
	// for a toolbox applet, the toolbox invocation.
	Argv []string
	// Builtin is set for KindBuiltin.
	Builtin BuiltinFunc
}

// Resolver decides how a command name dispatches. It is a pure
// function of the builtin table, the session search path and the
// filesystem; it performs no spawning.
type Resolver struct {
	FS afero.Fs

	// Builtins is the fixed builtin table.
	Builtins map[string]BuiltinFunc

	// ScriptHosts maps a file extension (with dot, lower case) to the
	// interpreter argv prefix that runs such files.
	ScriptHosts map[string][]string

	// Toolbox is the optional bundled command provider, consulted
	// only after the search path fails.
	Toolbox *toolbox.Toolbox
}

// Resolve looks name up in order: builtin table, then each search
// path directory, then the toolbox.
func (r *Resolver) Resolve(st *state.State, name string) Resolution {
	if fn, ok := r.Builtins[name]; ok {
		return Resolution{Kind: KindBuiltin, Name: name, Builtin: fn}
	}

	// A name with a path separator never searches PATH.
	if strings.ContainsRune(name, '/') {
		p := pathutil.Resolve(st.Cwd(), pathutil.ExpandHome(name, st.Home()))
		if res, ok := r.classify(name, p); ok {
			return res
		}
		return Resolution{Kind: KindUnresolved, Name: name}
	}

	for _, dir := range st.SearchPath() {
		candidate := path.Join(pathutil.Resolve(st.Cwd(), dir), name)
		if res, ok := r.classify(name, candidate); ok {
			return res
		}
	}

	if r.Toolbox.HasApplet(name) {
		return Resolution{
			Kind: KindExecutable,
			Name: name,
			Path: r.Toolbox.Path,
			Argv: []string{r.Toolbox.Path, name},
		}
	}

	return Resolution{Kind: KindUnresolved, Name: name}
}

// classify decides what kind of file p is. Script extensions are
// checked before exec bits so a .sh without +x still dispatches
// through its interpreter.
func (r *Resolver) classify(name, p string) (Resolution, bool) {
	info, err := r.FS.Stat(p)
	if err != nil || info.IsDir() {
		return Resolution{}, false
	}

	if host, ok := r.ScriptHosts[strings.ToLower(path.Ext(p))]; ok {
		argv := make([]string, 0, len(host)+1)
		argv = append(argv, host...)
		argv = append(argv, p)
		return Resolution{Kind: KindScript, Name: name, Path: p, Argv: argv}, true
	}

	if info.Mode()&0111 != 0 {
		return Resolution{Kind: KindExecutable, Name: name, Path: p, Argv: []string{p}}, true
	}
	return Resolution{}, false
}

// IsStateBuiltin reports whether name is a builtin that mutates
// session state and therefore must run alone in the foreground.
func IsStateBuiltin(name string) bool {
	switch name {
	case "cd", "export", "alias", "unalias", "activate", "deactivate", "exit":
		return true
	}
	return false
}
