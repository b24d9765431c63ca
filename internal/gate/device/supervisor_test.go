package device_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/edgegate/checkpoint-agent/internal/gate/device"
)

// flakyReader fails its first few Connect calls, then connects.
type flakyReader struct {
	mu           sync.Mutex
	failuresLeft int
	attempts     int
	status       device.Status
	reads        chan string
	disc         chan struct{}
}

func newFlakyReader(failures int) *flakyReader {
	return &flakyReader{
		failuresLeft: failures,
		reads:        make(chan string),
		disc:         make(chan struct{}, 1),
	}
}

func (r *flakyReader) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if r.failuresLeft > 0 {
		r.failuresLeft--
		return errors.New("port busy")
	}
	r.status = device.StatusConnected
	return nil
}

func (r *flakyReader) Status() device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *flakyReader) Reads() <-chan string { return r.reads }

func (r *flakyReader) Disconnects() <-chan struct{} { return r.disc }

func (r *flakyReader) attemptCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func TestSupervisor_ReconnectsAfterDisconnect(t *testing.T) {
	reader := newFlakyReader(2)
	s := device.NewSupervisor(reader, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	reader.disc <- struct{}{}

	deadline := time.After(time.Second)
	for reader.Status() != device.StatusConnected {
		select {
		case <-deadline:
			t.Fatalf("reader never reconnected after %d attempts", reader.attemptCount())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := reader.attemptCount(); got < 3 {
		t.Errorf("expected at least 3 connect attempts (2 failures + success), got %d", got)
	}
}

func TestSupervisor_StopWhileReconnecting(t *testing.T) {
	// A reader that never connects; Stop must still return.
	reader := newFlakyReader(1 << 30)
	s := device.NewSupervisor(reader, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	reader.disc <- struct{}{}
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return while reconnect loop was running")
	}
}
