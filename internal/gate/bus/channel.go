// Package bus receives out-of-band configuration messages from the
// message bus: session changes pushed by the organizers and participant
// records created or edited after the last bulk reconciliation.
package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/edgegate/checkpoint-agent/internal/gate/report"
	"github.com/edgegate/checkpoint-agent/internal/gate/service"
	"github.com/edgegate/checkpoint-agent/internal/gate/store"
	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// maxAssetBytes caps an inlined photo download.
const maxAssetBytes = 1 << 20

// handleTimeout bounds one message's store writes and asset fetch.
const handleTimeout = 30 * time.Second

type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Channel subscribes to the configuration topic and applies each message.
// Both message kinds are idempotent to repeat; malformed or empty payloads
// are dropped without effect.
type Channel struct {
	conn       *nats.Conn
	session    *service.Session
	identities store.IdentityStore
	reporter   report.Reporter
	assets     *http.Client
}

func NewChannel(conn *nats.Conn, session *service.Session, identities store.IdentityStore, reporter report.Reporter) *Channel {
	return &Channel{
		conn:       conn,
		session:    session,
		identities: identities,
		reporter:   reporter,
		assets:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Channel) Subscribe(topic string) (*nats.Subscription, error) {
	return c.conn.Subscribe(topic, func(m *nats.Msg) {
		c.Handle(m.Data)
	})
}

// Handle applies one raw bus payload.  Exported so tests can drive the
// channel without a live broker.
func (c *Channel) Handle(data []byte) {
	if len(bytes.TrimSpace(data)) == 0 {
		return
	}

	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		// Malformed bus traffic is not reportable; drop it.
		log.Debugf("dropping undecodable bus message: %v", err)
		return
	}

	switch msg.Type {
	case "session-info":
		c.handleSessionInfo(msg.Data)
	case "participant-info":
		c.handleParticipantInfo(msg.Data)
	default:
		log.Warnf("unknown bus message type %q", msg.Type)
	}
}

func (c *Channel) handleSessionInfo(data json.RawMessage) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		return
	}
	c.session.Set(payload.SessionID)
	log.Infof("current session set to %s", payload.SessionID)
}

func (c *Channel) handleParticipantInfo(data json.RawMessage) {
	var payload struct {
		types.IdentityRecord
		PhotoURL string `json:"photo_url,omitempty"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if payload.AttendanceID == "" || payload.Tag == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	rec := payload.IdentityRecord
	if payload.PhotoURL != "" && len(rec.Photo) == 0 {
		photo, err := c.fetchAsset(ctx, payload.PhotoURL)
		if err != nil {
			// The record is still worth caching without its photo.
			c.reporter.Report(err, map[string]string{
				"op":            "fetch_photo",
				"attendance_id": rec.AttendanceID,
			})
		} else {
			rec.Photo = photo
		}
	}

	// Same delete-then-insert path as the pipeline's write-back: clear
	// both natural keys first in case either changed upstream.
	if err := c.identities.DeleteByKeys(ctx, rec.AttendanceID, rec.Tag); err != nil {
		c.reporter.Report(err, map[string]string{"op": "participant_delete", "attendance_id": rec.AttendanceID})
		return
	}
	if err := c.identities.Upsert(ctx, rec); err != nil {
		c.reporter.Report(err, map[string]string{"op": "participant_upsert", "attendance_id": rec.AttendanceID})
		return
	}
	log.Infof("participant %s updated from bus", rec.AttendanceID)
}

func (c *Channel) fetchAsset(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("asset request: %w", err)
	}

	resp, err := c.assets.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asset fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset fetch: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
}
