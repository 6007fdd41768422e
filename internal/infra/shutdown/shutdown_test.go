package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestWithSignals_Cancel(t *testing.T) {
	ctx, stop := WithSignals(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
}

func TestWithSignals_SecondSignalExits(t *testing.T) {
	codes := make(chan int, 1)
	saved := exit
	exit = func(code int) { codes <- code }
	defer func() { exit = saved }()

	ctx, stop := WithSignals(context.Background())
	defer stop()

	syscall.Kill(syscall.Getpid(), syscall.SIGINT)
	<-ctx.Done()
	syscall.Kill(syscall.Getpid(), syscall.SIGINT)

	select {
	case code := <-codes:
		if code != ExitCodeInterrupted {
			t.Errorf("exit code = %d, want %d", code, ExitCodeInterrupted)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second signal did not exit")
	}
}

func TestWithSignals_Stop(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx, stop := WithSignals(parent)
	stop()
	stop()

	if ctx.Err() == nil {
		t.Error("stop should cancel the context")
	}
}
