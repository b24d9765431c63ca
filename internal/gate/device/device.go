// Package device defines the badge reader contract and supervises its
// connection.  Concrete hardware drivers live outside this repo; the sim
// driver here exists for bench setups and tests.
package device

type Status int

const (
	StatusDisconnected Status = iota
	StatusConnected
)

// Reader is a physical badge reader.  Connect may be called repeatedly;
// it is a no-op while the reader is already connected.  Reads carries raw
// tag payloads in emission order; Disconnects signals each connection
// loss.  Both channels stay open for the reader's lifetime.
type Reader interface {
	Connect() error
	Status() Status
	Reads() <-chan string
	Disconnects() <-chan struct{}
}
