// Package pathutil holds pure path manipulation helpers shared by the
// interpreter and the builtins. Nothing here touches the filesystem;
// callers decide which Fs the results are resolved against.
package pathutil

import (
	"path"
	"strings"
)

// Normalize cleans p to a slash separated absolute-or-relative form
// without trailing slashes. The empty path normalizes to ".".
func Normalize(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// Resolve interprets p relative to base unless p is already absolute.
// base must be absolute.
func Resolve(base, p string) string {
	p = Normalize(p)
	if path.IsAbs(p) {
		return p
	}
	return path.Clean(path.Join(base, p))
}

// ExpandHome rewrites a leading "~" or "~/" prefix to home. A tilde
// anywhere else, or a "~user" form, is left alone.
func ExpandHome(p, home string) string {
	if home == "" || p == "" {
		return p
	}
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return path.Join(home, p[2:])
	}
	return p
}

// LookupFunc reports the value of a variable and whether it is set.
type LookupFunc func(name string) (string, bool)

// ExpandVars substitutes $NAME and ${NAME} references in s using
// lookup. Unset variables expand to the empty string. A "$" that does
// not start a valid reference is kept literally.
func ExpandVars(s string, lookup LookupFunc) string {
	var out strings.Builder
	out.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c != '$' || i+1 == len(s) {
			out.WriteByte(c)
			i++
			continue
		}

		rest := s[i+1:]
		if rest[0] == '{' {
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				out.WriteByte(c)
				i++
				continue
			}
			name := rest[1:end]
			if v, ok := lookup(name); ok {
				out.WriteString(v)
			}
			i += 2 + end
			continue
		}

		n := varNameLen(rest)
		if n == 0 {
			out.WriteByte(c)
			i++
			continue
		}
		if v, ok := lookup(rest[:n]); ok {
			out.WriteString(v)
		}
		i += 1 + n
		continue
	}
	return out.String()
}

// varNameLen returns the length of the variable name at the start of
// s, or zero if s does not start one. "?" is the status variable and
// is always a single character.
func varNameLen(s string) int {
	if s == "" {
		return 0
	}
	if s[0] == '?' {
		return 1
	}
	if !isNameStart(s[0]) {
		return 0
	}
	n := 1
	for n < len(s) && isNameByte(s[n]) {
		n++
	}
	return n
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// HasGlob reports whether p contains an unescaped glob metacharacter.
func HasGlob(p string) bool {
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '*', '?', '[':
			return true
		case '\\':
			i++
		}
	}
	return false
}
