package device

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Supervisor watches a reader's disconnect signal and re-invokes Connect
// on a fixed interval until the reader reports connected again.  There is
// no retry bound and no backoff: the agent is useless without its reader,
// so it keeps trying for as long as the process lives.
type Supervisor struct {
	reader   Reader
	interval time.Duration
	logger   *log.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSupervisor(reader Reader, interval time.Duration, logger *log.Logger) *Supervisor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Supervisor{
		reader:   reader,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (s *Supervisor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Supervisor) loop(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.reader.Disconnects():
			s.logger.Warn("reader disconnected, reconnecting")
			if !s.reconnect(ctx) {
				return
			}
		}
	}
}

// reconnect keeps invoking Connect until the reader reports connected.
// Returns false only when ctx ends first.
func (s *Supervisor) reconnect(ctx context.Context) bool {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if s.reader.Status() == StatusConnected {
			s.logger.Info("reader reconnected")
			return true
		}
		if err := s.reader.Connect(); err != nil {
			s.logger.Warnf("reader connect failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
