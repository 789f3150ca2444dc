package caption

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
)

const (
	startAttempts   = 3
	startRetryDelay = 200 * time.Millisecond
)

// Engine fans speech events out to the production and audience
// projections and tracks recognizer lifecycle state.
//
// IsRecognizing reports whether the provider is currently delivering
// events. ShouldBeRecognizing reports operator intent; when the two
// disagree the health monitor restarts recognition.
type Engine struct {
	cfg    Config
	norm   Normalizer
	bc     Broadcaster
	logger *log.Logger

	production *productionView
	audience   *audienceView

	mu          sync.Mutex
	provider    Provider
	display     string
	recognizing bool
	shouldRun   bool
	starting    bool
}

// Status is the recognizer lifecycle state reported to clients.
type Status struct {
	IsRecognizing       bool `json:"is_recognizing"`
	ShouldBeRecognizing bool `json:"should_be_recognizing"`
}

func NewEngine(cfg Config, norm Normalizer, bc Broadcaster, logger *log.Logger) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:        cfg,
		norm:       norm,
		bc:         bc,
		logger:     logger,
		production: newProductionView(cfg, bc, logger),
		audience:   newAudienceView(cfg, bc, logger),
		display:    canonicalLanguage(cfg.PrimaryLanguage),
	}
	return e
}

// SetProvider installs the speech provider driven by Start and Stop.
func (e *Engine) SetProvider(p Provider) {
	e.mu.Lock()
	e.provider = p
	e.mu.Unlock()
}

// Start begins speech recognition, retrying a few times before giving
// up. Projection state survives a stop/start cycle so a restarted
// session continues the same transcript.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.recognizing || e.starting {
		e.mu.Unlock()
		return nil
	}
	p := e.provider
	if p == nil {
		e.mu.Unlock()
		return errors.New("caption: no speech provider configured")
	}
	e.starting = true
	e.shouldRun = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.starting = false
		e.mu.Unlock()
	}()

	e.announce("Listening...")

	var err error
	for attempt := 1; attempt <= startAttempts; attempt++ {
		if err = p.Start(ctx); err == nil {
			e.mu.Lock()
			e.recognizing = true
			e.mu.Unlock()
			e.logger.Printf("caption: recognition started (attempt %d)", attempt)
			return nil
		}
		e.logger.Printf("caption: start attempt %d/%d failed: %v", attempt, startAttempts, err)
		p.Stop()
		if attempt < startAttempts {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				attempt = startAttempts
			case <-time.After(startRetryDelay):
			}
		}
	}

	e.mu.Lock()
	e.recognizing = false
	e.shouldRun = false
	e.mu.Unlock()

	e.announce("Error: Failed to start speech recognition.")
	return fmt.Errorf("caption: starting recognition: %w", err)
}

// Stop halts recognition. Accumulated captions stay on display.
func (e *Engine) Stop() {
	e.mu.Lock()
	p := e.provider
	wasRunning := e.recognizing || e.shouldRun
	e.recognizing = false
	e.shouldRun = false
	e.mu.Unlock()

	if p != nil {
		p.Stop()
	}
	if wasRunning {
		e.announce("Recognition stopped.")
	}
}

// Clear wipes both projections and tells viewers to blank their
// displays.
func (e *Engine) Clear() {
	e.production.clear()
	e.audience.clear()
}

// Status reports the current recognizer lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{IsRecognizing: e.recognizing, ShouldBeRecognizing: e.shouldRun}
}

// SetDisplayLanguage selects which language the audience projection
// routes to viewers. The tag is canonicalized, so "en-us" and "en-US"
// select the same stream.
func (e *Engine) SetDisplayLanguage(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("caption: invalid language %q: %w", lang, err)
	}
	e.mu.Lock()
	e.display = tag.String()
	e.mu.Unlock()
	return nil
}

// DisplayLanguage returns the audience projection's selected language.
func (e *Engine) DisplayLanguage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.display
}

// Transcript returns the finalized production lines, oldest first.
func (e *Engine) Transcript() []string {
	return e.production.snapshot().Transcript
}

// Context returns the accumulated finalized text of the session.
func (e *Engine) Context() string {
	return e.production.snapshot().Context
}

// HandleInterim feeds a provisional recognition result into the
// projections.
func (e *Engine) HandleInterim(lang, text string) {
	e.dispatch(lang, text, false)
}

// HandleFinal feeds a finalized recognition result into the
// projections.
func (e *Engine) HandleFinal(lang, text string) {
	e.dispatch(lang, text, true)
}

// HandleProviderError records that the provider died mid-session.
// Operator intent is left intact so the health monitor brings
// recognition back.
func (e *Engine) HandleProviderError(err error) {
	e.mu.Lock()
	e.recognizing = false
	e.mu.Unlock()

	e.logger.Printf("caption: recognition error: %v", err)
	e.announce("Recognition error: " + err.Error())
}

// Close stops the provider and both projection workers.
func (e *Engine) Close() {
	e.mu.Lock()
	p := e.provider
	e.recognizing = false
	e.shouldRun = false
	e.mu.Unlock()

	if p != nil {
		p.Stop()
	}
	e.production.stop()
	e.audience.stop()
}

func (e *Engine) dispatch(lang, text string, final bool) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if lang == "" {
		lang = e.cfg.PrimaryLanguage
	}
	if e.norm != nil {
		text = e.norm.Normalize(text)
	}

	ev := Event{Language: lang, Text: text, Final: final, At: time.Now()}
	e.production.enqueue(ev)
	if lang == e.DisplayLanguage() {
		e.audience.enqueue(ev)
	}
}

// announce pushes a status line through the production caption channel.
func (e *Engine) announce(text string) {
	e.bc.Broadcast(marshalProduction(e.cfg.PrimaryLanguage, text))
}

func canonicalLanguage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}
