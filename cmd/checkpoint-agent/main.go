package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/checkpoint-agent/internal/config"
	"github.com/edgegate/checkpoint-agent/internal/db"
	"github.com/edgegate/checkpoint-agent/internal/gate/bus"
	"github.com/edgegate/checkpoint-agent/internal/gate/dedup"
	"github.com/edgegate/checkpoint-agent/internal/gate/device"
	"github.com/edgegate/checkpoint-agent/internal/gate/display"
	"github.com/edgegate/checkpoint-agent/internal/gate/remote"
	"github.com/edgegate/checkpoint-agent/internal/gate/report"
	"github.com/edgegate/checkpoint-agent/internal/gate/service"
	"github.com/edgegate/checkpoint-agent/internal/gate/store/sqlite"
)

func main() {
	cfg := config.Load()
	logger := log.StandardLogger()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local store
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()

	identities := sqlite.NewIdentityStore(conn, writer)
	auditLog := sqlite.NewAuditLogStore(conn, writer)
	cursor := sqlite.NewCursorStore(conn, writer)

	if cfg.FullResync {
		if err := cursor.Reset(ctx); err != nil {
			log.Fatalf("reset cursor: %v", err)
		}
		log.Warn("cursor reset: next reconciliation replays the full remote store")
	}

	// Remote store
	remoteStore := remote.NewClient(remote.Options{
		BaseURL: cfg.RemoteURL,
		Token:   cfg.RemoteToken,
		Timeout: cfg.RemoteTimeout,
	})

	reporter := report.NewLogReporter(logger)

	// Current session: remote wins, configured default otherwise.
	session := service.NewSession(cfg.DefaultSession)
	if id, err := remoteStore.CurrentSession(ctx, cfg.DeviceID); err != nil {
		reporter.Report(err, map[string]string{"op": "startup_session"})
	} else if id != "" {
		session.Set(id)
	}
	log.Infof("current session is %s", session.Current())

	// Presentation
	hub := display.NewHub()
	renderer := display.NewRenderer()
	srv := display.NewServer(cfg.HTTPAddr, hub)
	go func() {
		log.Infof("display server listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			log.Errorf("display server: %v", err)
			stop()
		}
	}()

	// Identification pipeline
	pipeline := service.NewPipeline(
		service.PipelineConfig{
			DeviceID:      cfg.DeviceID,
			DepartureMode: cfg.DepartureMode,
		},
		dedup.New(cfg.DedupTTL),
		identities, auditLog, remoteStore,
		session, renderer, hub, reporter, logger,
	)

	// One-shot bulk reconciliation; a failure resumes from the cursor on
	// the next start, so it is logged rather than fatal.
	go func() {
		if _, err := service.NewReconciler(identities, cursor, remoteStore, logger).Run(ctx); err != nil {
			reporter.Report(err, map[string]string{"op": "reconcile"})
		}
	}()

	// Incremental log upload
	logSync := service.NewLogSync(auditLog, remoteStore, service.LogSyncConfig{
		Interval: cfg.SyncInterval,
	}, reporter, logger)
	logSync.Start(ctx)
	defer logSync.Stop()

	// Configuration channel
	busConn, err := bus.Connect(cfg.NatsURL, cfg.NatsToken)
	if err != nil {
		log.Fatalf("connect message bus: %v", err)
	}
	defer busConn.Close()

	channel := bus.NewChannel(busConn, session, identities, reporter)
	if _, err := channel.Subscribe(cfg.BusTopic); err != nil {
		log.Fatalf("subscribe %s: %v", cfg.BusTopic, err)
	}
	log.Infof("configuration channel subscribed to %s", cfg.BusTopic)

	// Reader device
	reader, err := newReader(cfg)
	if err != nil {
		log.Fatalf("reader driver: %v", err)
	}
	if err := reader.Connect(); err != nil {
		log.Fatalf("reader connect: %v", err)
	}

	supervisor := device.NewSupervisor(reader, cfg.ReconnectInterval, logger)
	supervisor.Start(ctx)
	defer supervisor.Stop()

	go func() {
		for raw := range reader.Reads() {
			pipeline.HandleRead(ctx, raw)
		}
	}()

	log.Infof("checkpoint agent %s ready", cfg.DeviceID)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newReader(cfg config.Config) (device.Reader, error) {
	switch cfg.ReaderDriver {
	case "sim":
		return device.NewSimReader(os.Stdin), nil
	default:
		return nil, &unknownDriverError{name: cfg.ReaderDriver}
	}
}

type unknownDriverError struct{ name string }

func (e *unknownDriverError) Error() string {
	return "unknown reader driver " + e.name
}
