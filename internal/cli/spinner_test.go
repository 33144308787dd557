package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsMessage(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Annealing inst.json...")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	if !strings.Contains(out.String(), "Annealing inst.json...") {
		t.Errorf("spinner output %q lacks its message", out.String())
	}
	if s.Cancelled() {
		t.Error("Stop alone should not count as cancellation")
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Solving 4 jobs...")
	s.Start()
	s.SetMessage("Solving 4 jobs (3 done)...")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	if got := s.Message(); got != "Solving 4 jobs (3 done)..." {
		t.Errorf("Message() = %q", got)
	}
	if !strings.Contains(out.String(), "(3 done)") {
		t.Errorf("updated message never drawn: %q", out.String())
	}
}

func TestSpinnerContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 20*time.Millisecond)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			var out syncBuffer
			s := newSpinnerTo(ctx, &out, "Solving...")
			s.Start()
			if tt.name == "cancel" {
				cancel()
			}
			time.Sleep(50 * time.Millisecond)
			if !s.Cancelled() {
				t.Error("spinner should report cancellation")
			}
			s.Stop()
			cancel()
		})
	}
}

func TestSpinnerStop(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Solving...")
	s.Start()
	s.Stop()
	s.Stop()

	// Never started: Stop must not block.
	done := make(chan struct{})
	go func() {
		newSpinnerTo(context.Background(), &out, "idle").Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on an unstarted spinner blocked")
	}
}

func TestSpinnerStopWithStatus(t *testing.T) {
	s := newSpinner("Solving...")
	s.Start()
	s.StopWithSuccess("Solved")

	s = newSpinner("Solving...")
	s.Start()
	s.StopWithError("Batch stopped")
}
