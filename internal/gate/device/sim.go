package device

import (
	"bufio"
	"io"
	"sync"
)

// SimReader reads newline-separated tag payloads from an io.Reader,
// typically stdin.  Reaching EOF counts as a disconnect; Connect restarts
// the scan on the same source, which for stdin simply stays disconnected.
type SimReader struct {
	mu     sync.Mutex
	in     io.Reader
	status Status
	reads  chan string
	disc   chan struct{}
}

func NewSimReader(in io.Reader) *SimReader {
	return &SimReader{
		in:    in,
		reads: make(chan string, 16),
		disc:  make(chan struct{}, 1),
	}
}

func (r *SimReader) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusConnected {
		return nil
	}
	r.status = StatusConnected

	go func() {
		sc := bufio.NewScanner(r.in)
		for sc.Scan() {
			r.reads <- sc.Text()
		}
		r.mu.Lock()
		r.status = StatusDisconnected
		r.mu.Unlock()
		select {
		case r.disc <- struct{}{}:
		default:
		}
	}()
	return nil
}

func (r *SimReader) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *SimReader) Reads() <-chan string { return r.reads }

func (r *SimReader) Disconnects() <-chan struct{} { return r.disc }
