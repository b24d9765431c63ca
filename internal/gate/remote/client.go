package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edgegate/checkpoint-agent/internal/gate/store"
	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// ErrUnreachable wraps transport failures against the remote store so
// callers can tell "remote down" from "record absent".  The pipeline
// renders the same unknown variant either way, but only the former is
// reported to the error sink.
var ErrUnreachable = errors.New("remote store unreachable")

// Client talks JSON to the authoritative remote store.
type Client struct {
	base  string
	token string
	httpc *http.Client
}

type Options struct {
	BaseURL string
	Token   string        // optional bearer token
	Timeout time.Duration // per-request; the identity stream is exempt
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(opts.BaseURL, "/"),
		token: opts.Token,
		httpc: &http.Client{Timeout: timeout},
	}
}

func (c *Client) GetIdentityByTag(ctx context.Context, tag string) (*types.IdentityRecord, error) {
	u := c.base + "/v1/identities?tag=" + url.QueryEscape(tag)

	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var rec types.IdentityRecord
		if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode identity: %w", err)
		}
		return &rec, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("identity lookup: %w: status %d", ErrUnreachable, resp.StatusCode)
	}
}

func (c *Client) IngestLogEntry(ctx context.Context, entry types.AuditLogEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/logs", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("log ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("log ingest: %w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("log ingest: %w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

func (c *Client) CurrentSession(ctx context.Context, deviceID string) (string, error) {
	u := c.base + "/v1/sessions/current?device_id=" + url.QueryEscape(deviceID)

	resp, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload struct {
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", fmt.Errorf("decode session: %w", err)
		}
		return payload.SessionID, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("session lookup: %w: status %d", ErrUnreachable, resp.StatusCode)
	}
}

// StreamIdentitiesSince opens the NDJSON bulk endpoint.  The stream has no
// client-side timeout: a full replication of a large remote store can
// legitimately outlive any per-request deadline, so lifetime is governed
// by ctx alone.
func (c *Client) StreamIdentitiesSince(ctx context.Context, since int64) (store.IdentityStream, error) {
	u := c.base + "/v1/identities/stream?since=" + strconv.FormatInt(since, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("stream request: %w", err)
	}
	c.auth(req)

	streamc := &http.Client{Transport: c.httpc.Transport}
	resp, err := streamc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream open: %w: %w", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream open: %w: status %d", ErrUnreachable, resp.StatusCode)
	}

	return newIdentityStream(resp.Body), nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.auth(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return resp, nil
}

func (c *Client) auth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
