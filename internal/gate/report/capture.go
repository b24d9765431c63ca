package report

import "sync"

// Captured is one report held by a Capture reporter.
type Captured struct {
	Err    error
	Fields map[string]string
}

// Capture collects reports in memory.  Test-only helper.
type Capture struct {
	mu      sync.Mutex
	reports []Captured
}

func NewCapture() *Capture {
	return &Capture{}
}

func (c *Capture) Report(err error, fields map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, Captured{Err: err, Fields: fields})
}

// Reports returns a copy of everything reported so far.
func (c *Capture) Reports() []Captured {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Captured, len(c.reports))
	copy(out, c.reports)
	return out
}
