// Package caption contains the caption aggregation and broadcast engine:
// it turns raw speech recognition events into two live display projections
// and hands the resulting payloads to the broadcast layer.
package caption

import (
	"context"
	"time"
)

// Event is a single recognition result delivered by a speech provider.
type Event struct {
	Language string
	Text     string
	Final    bool
	At       time.Time
}

// Broadcaster delivers a marshaled payload to every connected viewer.
// Sends are fire and forget from the engine's point of view.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Normalizer rewrites recognized text before it reaches the projections.
type Normalizer interface {
	Normalize(text string) string
}

// Provider is the speech source controlled by the engine.
type Provider interface {
	Start(ctx context.Context) error
	Stop()
}

// Config carries the per-session projection settings. Values are fixed for
// the lifetime of the engine; edits to the persisted settings take effect
// on the next process start.
type Config struct {
	PrimaryLanguage     string
	ProductionLineWidth int
	PauseThreshold      time.Duration
	MaxTranscriptLines  int

	AudienceLineWidth int
	AudienceMaxLines  int
	AutoFinalizeDelay time.Duration

	// DebounceInterval delays audience broadcasts so that rapid interim
	// updates coalesce into a single send. Zero means the default 100ms.
	DebounceInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PrimaryLanguage == "" {
		c.PrimaryLanguage = "en-US"
	}
	if c.ProductionLineWidth <= 0 {
		c.ProductionLineWidth = 90
	}
	if c.PauseThreshold <= 0 {
		c.PauseThreshold = 2 * time.Second
	}
	if c.MaxTranscriptLines <= 0 {
		c.MaxTranscriptLines = 200
	}
	if c.AudienceLineWidth <= 0 {
		c.AudienceLineWidth = 500
	}
	if c.AudienceMaxLines <= 0 {
		c.AudienceMaxLines = 3
	}
	if c.AutoFinalizeDelay <= 0 {
		c.AutoFinalizeDelay = 10 * time.Second
	}
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = 100 * time.Millisecond
	}
	return c
}
