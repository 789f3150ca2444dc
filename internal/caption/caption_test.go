package caption

import (
	"encoding/json"
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

// captureBC records every broadcast payload for later inspection.
type captureBC struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (c *captureBC) Broadcast(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, append([]byte(nil), p...))
}

func (c *captureBC) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func (c *captureBC) all() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.payloads))
	copy(out, c.payloads)
	return out
}

func decodePayload(t *testing.T, raw []byte) payload {
	t.Helper()
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal payload %s: %v", raw, err)
	}
	return p
}

// lastProduction returns the most recent production line broadcast for
// lang, and whether any was seen.
func lastProduction(t *testing.T, c *captureBC, lang string) (string, bool) {
	t.Helper()
	var line string
	var found bool
	for _, raw := range c.all() {
		p := decodePayload(t, raw)
		if p.Translations.Production == nil {
			continue
		}
		if v, ok := p.Translations.Production[lang]; ok {
			line, found = v, true
		}
	}
	return line, found
}

// lastUser returns the most recent audience text broadcast for lang, and
// whether any was seen.
func lastUser(t *testing.T, c *captureBC, lang string) (string, bool) {
	t.Helper()
	var text string
	var found bool
	for _, raw := range c.all() {
		p := decodePayload(t, raw)
		if p.Translations.User == nil {
			continue
		}
		if v, ok := p.Translations.User[lang]; ok {
			text, found = v, true
		}
	}
	return text, found
}

func containsProduction(t *testing.T, c *captureBC, lang, text string) bool {
	t.Helper()
	for _, raw := range c.all() {
		p := decodePayload(t, raw)
		if p.Translations.Production == nil {
			continue
		}
		if v, ok := p.Translations.Production[lang]; ok && v == text {
			return true
		}
	}
	return false
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func mustParseDuration(t *testing.T, s string) time.Duration {
	t.Helper()
	d, err := time.ParseDuration(s)
	if err != nil {
		t.Fatalf("parse duration %q: %v", s, err)
	}
	return d
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", d)
}
