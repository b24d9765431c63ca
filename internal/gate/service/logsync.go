package service

import (
	"context"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/checkpoint-agent/internal/gate/report"
	"github.com/edgegate/checkpoint-agent/internal/gate/store"
)

// LogSync periodically drains pending audit log entries to the remote
// store.  Entries whose upload fails stay pending and are retried every
// cycle, indefinitely.  Volume is low and audit entries never expire,
// so there is no backoff and no dead-lettering.
type LogSync struct {
	logs     store.AuditLogStore
	remote   store.RemoteStore
	interval time.Duration
	reporter report.Reporter
	logger   *log.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

type LogSyncConfig struct {
	// Interval between cycles.  Defaults to 15 minutes.
	Interval time.Duration
}

func NewLogSync(logs store.AuditLogStore, remote store.RemoteStore, cfg LogSyncConfig, reporter report.Reporter, logger *log.Logger) *LogSync {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogSync{
		logs:     logs,
		remote:   remote,
		interval: interval,
		reporter: reporter,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the background upload loop: an immediate cycle, then one
// per interval.  The loop exits when ctx is cancelled or Stop is called;
// a cycle in flight is never interrupted mid-way.
func (s *LogSync) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
	s.logger.Infof("log sync started (interval=%s)", s.interval)
}

// Stop signals the loop to exit and waits for it to finish.
func (s *LogSync) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *LogSync) loop(ctx context.Context) {
	defer close(s.done)

	s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncOnce(ctx)
		}
	}
}

// SyncOnce runs one upload cycle and returns how many entries were marked
// synced.  Each entry is uploaded independently; one failure does not
// abort the rest, and only confirmed entries are flipped, in a single
// atomic batch.
func (s *LogSync) SyncOnce(ctx context.Context) int {
	entries, err := s.logs.Unsynced(ctx)
	if err != nil {
		s.reporter.Report(err, map[string]string{"op": "fetch_unsynced"})
		return 0
	}
	if len(entries) == 0 {
		return 0
	}

	var confirmed []int64
	for _, e := range entries {
		if err := s.remote.IngestLogEntry(ctx, e); err != nil {
			s.reporter.Report(err, map[string]string{
				"op":       "ingest_log",
				"entry_id": strconv.FormatInt(e.ID, 10),
			})
			continue
		}
		confirmed = append(confirmed, e.ID)
	}

	if err := s.logs.MarkSynced(ctx, confirmed); err != nil {
		// Nothing was marked; the whole batch is retried next cycle.
		// At-least-once on the remote side is expected and tolerated.
		s.reporter.Report(err, map[string]string{"op": "mark_synced"})
		return 0
	}

	if len(confirmed) > 0 {
		s.logger.Infof("log sync: uploaded %d/%d entries", len(confirmed), len(entries))
	}
	return len(confirmed)
}
