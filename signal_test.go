package subsystem

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestCatchSignalsTriggersGlobalShutdown(t *testing.T) {
	top, err := New(func(h *SubsystemHandle) error {
		_, err := h.Start("worker", func(w *SubsystemHandle) error {
			<-w.OnShutdownRequested()
			return nil
		}, SubsystemBuilder{})
		return err
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	top.CatchSignals()

	go func() {
		time.Sleep(10 * time.Millisecond)
		if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
			t.Errorf("Kill: %v", err)
		}
	}()

	if err := top.HandleShutdownRequests(time.Second); err != nil {
		t.Fatalf("HandleShutdownRequests: %v", err)
	}
}

func TestCatchSignalsIsIdempotent(t *testing.T) {
	top, err := New(func(h *SubsystemHandle) error { return nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	top.CatchSignals()
	top.CatchSignals() // must not install a second handler

	top.root.token.root().triggerLocal()
	if err := top.HandleShutdownRequests(time.Second); err != nil {
		t.Fatalf("HandleShutdownRequests: %v", err)
	}
}
