package interp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/spf13/afero"

	"github.com/jitlabs-sg/titan-bash/core/pathutil"
	"github.com/jitlabs-sg/titan-bash/core/shell"
	"github.com/jitlabs-sg/titan-bash/core/state"
)

// aliasDepthLimit bounds alias substitution so "alias x=x" and mutual
// recursion terminate.
const aliasDepthLimit = 16

// expandCommand turns a parsed command into the argv that actually
// dispatches: alias substitution on the head word, then variable,
// tilde and glob expansion. Expansion is the executor's job, never
// the parser's.
func expandCommand(st *state.State, fs afero.Fs, cmd shell.Command) ([]string, error) {
	words, err := expandAliases(st, cmd.Words)
	if err != nil {
		return nil, err
	}

	var argv []string
	for _, w := range words {
		argv = append(argv, expandWord(st, fs, w)...)
	}
	return argv, nil
}

// expandAliases substitutes the head word while it names an alias.
// The alias body is re-split with shell lexing so multi-word aliases
// become separate argv entries. Quoted head words are exempt.
func expandAliases(st *state.State, words []shell.Word) ([]shell.Word, error) {
	for depth := 0; depth < aliasDepthLimit; depth++ {
		if len(words) == 0 || words[0].FullyQuoted() {
			return words, nil
		}
		head := words[0].Literal()
		body, ok := st.Alias(head)
		if !ok {
			return words, nil
		}

		parts, err := shlex.Split(body, true)
		if err != nil {
			return nil, fmt.Errorf("bad alias body %q: %v", body, err)
		}

		replaced := make([]shell.Word, 0, len(parts)+len(words)-1)
		for _, p := range parts {
			replaced = append(replaced, shell.WordOf(p))
		}
		replaced = append(replaced, words[1:]...)

		// A self-referential alias like ls='ls --color' expands once.
		if len(replaced) > 0 && replaced[0].Literal() == head {
			return replaced, nil
		}
		words = replaced
	}
	return words, nil
}

// expandWord applies variable, tilde and glob expansion to one word.
// Single-quoted parts pass through untouched; double-quoted parts get
// variables only. A glob with no matches stays literal.
func expandWord(st *state.State, fs afero.Fs, w shell.Word) []string {
	lookup := statusLookup(st)

	var b strings.Builder
	for _, part := range w.Parts {
		switch part.Quote {
		case shell.QuoteSingle:
			b.WriteString(part.Text)
		default:
			b.WriteString(pathutil.ExpandVars(part.Text, lookup))
		}
	}
	text := b.String()

	if !w.FullyQuoted() {
		text = pathutil.ExpandHome(text, st.Home())
	}

	if unquoted(w) && pathutil.HasGlob(text) {
		if matches := globMatches(st, fs, text); len(matches) > 0 {
			return matches
		}
	}
	return []string{text}
}

// expandRedirectTarget expands a redirect target word. Globs never
// apply to redirect targets; the result is exactly one path.
func expandRedirectTarget(st *state.State, w shell.Word) string {
	lookup := statusLookup(st)

	var b strings.Builder
	for _, part := range w.Parts {
		switch part.Quote {
		case shell.QuoteSingle:
			b.WriteString(part.Text)
		default:
			b.WriteString(pathutil.ExpandVars(part.Text, lookup))
		}
	}
	text := b.String()
	if !w.FullyQuoted() {
		text = pathutil.ExpandHome(text, st.Home())
	}
	return text
}

// statusLookup wraps the environment with the "?" pseudo-variable.
func statusLookup(st *state.State) pathutil.LookupFunc {
	return func(name string) (string, bool) {
		if name == "?" {
			return strconv.Itoa(st.LastStatus()), true
		}
		return st.Env.Lookup(name)
	}
}

func unquoted(w shell.Word) bool {
	for _, p := range w.Parts {
		if p.Quote != shell.QuoteNone {
			return false
		}
	}
	return true
}

// globMatches expands a pattern against the session's working
// directory. Relative patterns yield relative names.
func globMatches(st *state.State, fs afero.Fs, pattern string) []string {
	cwd := st.Cwd()
	abs := strings.HasPrefix(pattern, "/")

	full := pattern
	if !abs {
		full = pathutil.Resolve(cwd, pattern)
	}

	matches, err := afero.Glob(fs, full)
	if err != nil || len(matches) == 0 {
		return nil
	}
	sort.Strings(matches)

	if abs {
		return matches
	}
	prefix := strings.TrimSuffix(cwd, "/") + "/"
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimPrefix(m, prefix))
	}
	return out
}
