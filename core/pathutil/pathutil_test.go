package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":            ".",
		"/":           "/",
		"/a/b/../c":   "/a/c",
		"a//b/":       "a/b",
		"./x":         "x",
		"/a/./b":      "/a/b",
		"C:\\tmp\\x":  "C:/tmp/x",
		"/../../etc":  "/etc",
		"../outside":  "../outside",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		base, p, want string
	}{
		{"/home/user", "docs", "/home/user/docs"},
		{"/home/user", "/etc", "/etc"},
		{"/home/user", "..", "/home"},
		{"/home/user", "../..", "/"},
		{"/", ".", "/"},
		{"/a/b", "./c/../d", "/a/b/d"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Resolve(tc.base, tc.p), "Resolve(%q, %q)", tc.base, tc.p)
	}
}

func TestExpandHome(t *testing.T) {
	home := "/home/tester"
	cases := map[string]string{
		"~":        home,
		"~/":       home,
		"~/sub/f":  "/home/tester/sub/f",
		"/abs":     "/abs",
		"rel/~":    "rel/~",
		"~other/x": "~other/x",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExpandHome(in, home), "ExpandHome(%q)", in)
	}

	assert.Equal(t, "~/x", ExpandHome("~/x", ""))
}

func TestExpandVars(t *testing.T) {
	env := map[string]string{
		"HOME": "/home/tester",
		"A":    "aaa",
		"_x1":  "u",
		"?":    "42",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	cases := map[string]string{
		"$HOME/bin":     "/home/tester/bin",
		"${HOME}dir":    "/home/testerdir",
		"$A$A":          "aaaaaa",
		"pre$_x1post":   "pre", // "post" extends the name, and "_x1post" is unset
		"status=$?":     "status=42",
		"status=${?}":   "status=42",
		"$UNSET/x":      "/x",
		"100$":          "100$",
		"a$1":           "a$1", // digits cannot start a name
		"${unclosed":    "${unclosed",
		"plain":         "plain",
		"cost: $$HOME":  "cost: $/home/tester",
	}

	for in, want := range cases {
		assert.Equal(t, want, ExpandVars(in, lookup), "ExpandVars(%q)", in)
	}
}

func TestHasGlob(t *testing.T) {
	assert.True(t, HasGlob("*.txt"))
	assert.True(t, HasGlob("file?"))
	assert.True(t, HasGlob("[ab]c"))
	assert.False(t, HasGlob("plain.txt"))
	assert.False(t, HasGlob(`esc\*aped`))
}
