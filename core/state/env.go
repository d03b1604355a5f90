package state

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// NewEnv creates an empty in-memory environment.
func NewEnv() *Env {
	return &Env{}
}

// NewEnvFromList creates an environment from "KEY=value" pairs, such
// as os.Environ().
func NewEnvFromList(environ []string) *Env {
	out := &Env{}

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Set(key, value)
	}

	return out
}

// Env is an in-memory environment table. It never touches the host
// process environment; changes become visible to children only when
// the spawner passes Environ() to them.
type Env struct {
	rw  sync.RWMutex
	env map[string]string
}

func (m *Env) Set(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

func (m *Env) Unset(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

func (m *Env) Lookup(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

func (m *Env) Get(key string) string {
	val, _ := m.Lookup(key)
	return val
}

// Environ returns the table as sorted "KEY=value" pairs.
func (m *Env) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(m.env))
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)
	return env
}

// Clone returns an independent copy of the table.
func (m *Env) Clone() *Env {
	m.rw.RLock()
	defer m.rw.RUnlock()

	out := &Env{env: make(map[string]string, len(m.env))}
	for k, v := range m.env {
		out.env[k] = v
	}
	return out
}
