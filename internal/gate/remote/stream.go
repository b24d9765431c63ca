package remote

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/edgegate/checkpoint-agent/internal/gate/types"
)

// Each stream line is either an identity row or the completion trailer:
//
//	{"record": {...}}
//	{"done": true, "count": 1234}
//
// A stream that ends without a trailer was cut off by a transport failure.
type streamLine struct {
	Record *types.IdentityRecord `json:"record,omitempty"`
	Done   bool                  `json:"done,omitempty"`
	Count  int                   `json:"count,omitempty"`
}

type identityStream struct {
	body  io.ReadCloser
	sc    *bufio.Scanner
	count int
	done  bool
}

func newIdentityStream(body io.ReadCloser) *identityStream {
	sc := bufio.NewScanner(body)
	// Rows carry inline photo blobs; the default 64K token limit is too small.
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &identityStream{body: body, sc: sc}
}

func (s *identityStream) Next() (*types.IdentityRecord, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.sc.Scan() {
		line := bytes.TrimSpace(s.sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var l streamLine
		if err := json.Unmarshal(line, &l); err != nil {
			return nil, fmt.Errorf("stream decode: %w", err)
		}
		if l.Done {
			s.done = true
			s.count = l.Count
			return nil, io.EOF
		}
		if l.Record != nil {
			return l.Record, nil
		}
	}

	if err := s.sc.Err(); err != nil {
		return nil, fmt.Errorf("stream read: %w: %w", ErrUnreachable, err)
	}
	// Body ended with no trailer: the remote side went away mid-stream.
	return nil, fmt.Errorf("stream truncated: %w: %w", ErrUnreachable, io.ErrUnexpectedEOF)
}

func (s *identityStream) Count() int { return s.count }

func (s *identityStream) Close() error { return s.body.Close() }
