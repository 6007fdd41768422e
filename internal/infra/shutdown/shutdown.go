package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ExitCodeInterrupted is used when a second signal forces the exit.
const ExitCodeInterrupted = 130

// exit is replaced in tests.
var exit = os.Exit

// WithSignals returns a context cancelled by the first SIGINT or SIGTERM.
// A second signal exits the process immediately. The returned stop
// function releases the signal handler.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigCh:
			exit(ExitCodeInterrupted)
		case <-done:
		}
	}()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
	return ctx, stop
}
