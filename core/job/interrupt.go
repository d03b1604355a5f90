package job

import (
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
)

// Coordinator owns the host's interrupt handler. While a foreground
// job runs, an interrupt terminates that job's stages; at the prompt
// it does nothing. The host process itself never exits because of the
// signal.
type Coordinator struct {
	mgr    *Manager
	logger *log.Logger

	ch       chan os.Signal
	stop     chan struct{}
	finished chan struct{}

	// Prompt is signalled after an interrupt arrives with no
	// foreground job, so the line reader can redraw.
	Prompt chan struct{}
}

// NewCoordinator installs the interrupt handler and starts routing.
func NewCoordinator(mgr *Manager, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := &Coordinator{
		mgr:    mgr,
		logger: logger,
		ch:       make(chan os.Signal, 1),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
		Prompt:   make(chan struct{}, 1),
	}
	signal.Notify(c.ch, os.Interrupt)
	go c.run()
	return c
}

func (c *Coordinator) run() {
	defer close(c.finished)
	for {
		select {
		case <-c.ch:
			if c.mgr.Interrupt() {
				continue
			}
			c.logger.Debug("interrupt at prompt, ignored")
			select {
			case c.Prompt <- struct{}{}:
			default:
			}
		case <-c.stop:
			return
		}
	}
}

// Close uninstalls the handler and waits for the routing goroutine to
// stop. Subsequent interrupts get the default OS disposition again.
func (c *Coordinator) Close() {
	signal.Stop(c.ch)
	close(c.stop)
	<-c.finished
}
