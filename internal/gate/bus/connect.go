package bus

import (
	"github.com/nats-io/nats.go"
)

// Connect dials the message bus.  Reconnects are left to the nats client's
// own unlimited retry; the subscription survives them.
func Connect(url, token string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name("checkpoint-agent"),
		nats.MaxReconnects(-1),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	return nats.Connect(url, opts...)
}
