package service

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/edgegate/checkpoint-agent/internal/gate/dedup"
	"github.com/edgegate/checkpoint-agent/internal/gate/report"
	"github.com/edgegate/checkpoint-agent/internal/gate/store"
	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// Sink fans a rendered markup string out to the connected displays.
type Sink interface {
	Broadcast(markup string)
}

// Renderer produces the four presentation variants.  Rendering never
// fails; every input has a default.
type Renderer interface {
	Welcome(rec *types.IdentityRecord) string
	Unauthorized(rec *types.IdentityRecord) string
	Unknown() string
	Departure() string
}

type PipelineConfig struct {
	DeviceID string

	// DepartureMode renders a fixed departure message for every accepted
	// read, regardless of lookup outcome.
	DepartureMode bool
}

// Pipeline turns one raw tag payload into a deduplicated attendance
// decision, an audit log entry and a presentation push.
type Pipeline struct {
	cfg        PipelineConfig
	cache      *dedup.Cache
	identities store.IdentityStore
	logs       store.AuditLogStore
	remote     store.RemoteStore
	session    *Session
	render     Renderer
	sink       Sink
	reporter   report.Reporter
	logger     *log.Logger
}

func NewPipeline(
	cfg PipelineConfig,
	cache *dedup.Cache,
	identities store.IdentityStore,
	logs store.AuditLogStore,
	remote store.RemoteStore,
	session *Session,
	render Renderer,
	sink Sink,
	reporter report.Reporter,
	logger *log.Logger,
) *Pipeline {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Pipeline{
		cfg:        cfg,
		cache:      cache,
		identities: identities,
		logs:       logs,
		remote:     remote,
		session:    session,
		render:     render,
		sink:       sink,
		reporter:   reporter,
		logger:     logger,
	}
}

// HandleRead runs one full pipeline pass.  Reads from one device are
// handled in emission order (the device loop calls this sequentially); the
// audit write runs concurrently with identity resolution and neither
// blocks the other.  HandleRead returns only after every side effect has
// settled, so callers observe a complete pass.
func (p *Pipeline) HandleRead(ctx context.Context, raw string) {
	tag, ok := normalizeTag(raw)
	if !ok {
		// Malformed payloads are dropped without a trace: partial reads
		// from a mis-seated badge are routine, not reportable.
		return
	}

	if p.cache.ShouldSuppress(tag) {
		p.logger.Debugf("suppressed repeat read of %s", tag)
		return
	}
	p.cache.MarkSeen(tag)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := p.logs.Append(ctx, p.cfg.DeviceID, tag, p.session.Current()); err != nil {
			p.reporter.Report(err, map[string]string{"op": "append_log", "tag": tag})
		}
	}()

	rec := p.resolve(ctx, tag)
	p.sink.Broadcast(p.renderFor(rec))

	wg.Wait()
}

// resolve looks the tag up locally first, then falls back to the remote
// store and writes any hit back into the local replica.  This write-back
// is the only path that populates previously-unknown identities between
// reconciliation runs.  Returns nil when the tag is unknown everywhere or
// nothing is reachable.
func (p *Pipeline) resolve(ctx context.Context, tag string) *types.IdentityRecord {
	rec, err := p.identities.GetByTag(ctx, tag)
	if err != nil {
		p.reporter.Report(err, map[string]string{"op": "local_lookup", "tag": tag})
	}
	if rec != nil {
		return rec
	}

	rec, err = p.remote.GetIdentityByTag(ctx, tag)
	if err != nil {
		p.reporter.Report(err, map[string]string{"op": "remote_lookup", "tag": tag})
		return nil
	}
	if rec == nil {
		return nil
	}

	if err := p.identities.Upsert(ctx, *rec); err != nil {
		// The record is still good for this presentation; only the cache
		// write failed.
		p.reporter.Report(err, map[string]string{"op": "write_back", "tag": tag})
	}
	return rec
}

func (p *Pipeline) renderFor(rec *types.IdentityRecord) string {
	if p.cfg.DepartureMode {
		return p.render.Departure()
	}
	if rec == nil {
		return p.render.Unknown()
	}
	if rec.AuthorizedFor(p.session.Current()) {
		return p.render.Welcome(rec)
	}
	return p.render.Unauthorized(rec)
}

// normalizeTag trims and upcases a raw payload and checks its shape: an
// even-length hex string of 4 to 10 bytes, which covers 4/7/10-byte NFC
// UIDs with room for vendor prefixes.
func normalizeTag(raw string) (string, bool) {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	if len(tag) < 8 || len(tag) > 20 || len(tag)%2 != 0 {
		return "", false
	}
	for _, c := range tag {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return "", false
		}
	}
	return tag, true
}
