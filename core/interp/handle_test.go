package interp

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func()

func (f closerFunc) Close() error { f(); return nil }

func TestBuiltinTerminateUnblocksStage(t *testing.T) {
	gate := make(chan struct{})
	h := startBuiltin(func(*Proc) int {
		<-gate
		return 0
	}, &Proc{}, []io.Closer{closerFunc(func() { close(gate) })})

	require.NoError(t, h.Terminate())
	assert.Equal(t, 130, h.await())
}

func TestBuiltinKeepsStatusWhenAlreadyFinished(t *testing.T) {
	h := startBuiltin(func(*Proc) int { return 7 }, &Proc{}, nil)

	// The stage has fully exited once its status is buffered; a
	// termination request arriving now must not relabel it.
	require.Eventually(t, func() bool { return len(h.done) == 1 },
		time.Second, time.Millisecond)
	require.NoError(t, h.Terminate())
	assert.Equal(t, 7, h.await())
}

func TestBuiltinTerminateRacesExit(t *testing.T) {
	for i := 0; i < 200; i++ {
		h := startBuiltin(func(*Proc) int { return 1 }, &Proc{}, nil)
		go h.Terminate()
		status := h.await()
		assert.Contains(t, []int{1, 130}, status)
	}
}
