// Package toolbox integrates an optional bundled multi-call binary
// (busybox style). When present it provides a last-resort resolution
// target: unknown commands with a matching applet dispatch as
// "<toolbox> <applet> ...".
package toolbox

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// EnvOverride names the environment variable that pins the toolbox
// binary, bypassing the search next to the host executable.
const EnvOverride = "TITANBASH_TOOLBOX"

// Toolbox is a detected multi-call binary and its applet set.
type Toolbox struct {
	// Path is the absolute path of the toolbox binary.
	Path string

	applets map[string]bool
}

// ListFunc runs a candidate binary with "--list" and returns its
// stdout. Tests substitute it; the default shells out.
type ListFunc func(path string) (string, error)

// ExecList is the default ListFunc.
func ExecList(path string) (string, error) {
	out, err := exec.Command(path, "--list").Output()
	if err != nil {
		return "", fmt.Errorf("listing applets of %q: %w", path, err)
	}
	return string(out), nil
}

// Detect searches for a toolbox binary and loads its applet list.
// Search order: the EnvOverride variable, then "busybox" and
// "tools/busybox" next to the host executable, then PATH. A missing
// toolbox is not an error; Detect returns (nil, nil).
func Detect(fs afero.Fs, list ListFunc) (*Toolbox, error) {
	if list == nil {
		list = ExecList
	}

	// An explicit override is authoritative: a bad path is an error,
	// not a reason to fall back.
	if explicit := os.Getenv(EnvOverride); explicit != "" {
		return Load(explicit, list)
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates := []string{
			filepath.Join(dir, "busybox"),
			filepath.Join(dir, "tools", "busybox"),
			filepath.Join(filepath.Dir(dir), "tools", "busybox"),
		}
		for _, c := range candidates {
			if ok, _ := afero.Exists(fs, c); ok {
				return Load(c, list)
			}
		}
	}

	if p, err := exec.LookPath("busybox"); err == nil {
		return Load(p, list)
	}

	return nil, nil
}

// Load builds a Toolbox from the binary at path by parsing its
// "--list" output, one applet per line.
func Load(path string, list ListFunc) (*Toolbox, error) {
	out, err := list(path)
	if err != nil {
		return nil, err
	}

	tb := &Toolbox{Path: path, applets: make(map[string]bool)}
	for _, tok := range strings.Fields(out) {
		tb.applets[strings.ToLower(tok)] = true
	}
	if len(tb.applets) == 0 {
		return nil, fmt.Errorf("toolbox %q reported no applets", path)
	}
	return tb, nil
}

// HasApplet reports whether the toolbox provides name. Matching is
// case-insensitive, following the multi-call binary's own behavior.
func (t *Toolbox) HasApplet(name string) bool {
	if t == nil {
		return false
	}
	return t.applets[strings.ToLower(name)]
}

// Applets returns the applet names, unsorted.
func (t *Toolbox) Applets() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.applets))
	for n := range t.applets {
		names = append(names, n)
	}
	return names
}

// ResolveArgv rewrites an argv so the toolbox runs the applet:
// ["grep", "-c", "x"] becomes [path, "grep", "-c", "x"].
func (t *Toolbox) ResolveArgv(argv []string) []string {
	out := make([]string, 0, len(argv)+1)
	out = append(out, t.Path)
	out = append(out, argv...)
	return out
}
