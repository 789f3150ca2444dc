package recognizer

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// ScriptConfig holds the settings for the replay provider.
type ScriptConfig struct {
	Path      string
	Language  string
	WordDelay time.Duration // pause between growing interim updates
	LineDelay time.Duration // pause after each finalized line
}

func (c ScriptConfig) withDefaults() ScriptConfig {
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.WordDelay <= 0 {
		c.WordDelay = 200 * time.Millisecond
	}
	if c.LineDelay <= 0 {
		c.LineDelay = time.Second
	}
	return c
}

// Script replays a text file as recognition events: each line is
// delivered word by word as growing interim results, then finalized.
// Useful for rehearsing the caption displays without a microphone.
type Script struct {
	cfg    ScriptConfig
	cb     Callbacks
	logger *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScript(cfg ScriptConfig, cb Callbacks, logger *log.Logger) *Script {
	return &Script{cfg: cfg.withDefaults(), cb: cb, logger: logger}
}

func (s *Script) Start(ctx context.Context) error {
	raw, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		return fmt.Errorf("recognizer: reading script: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return fmt.Errorf("recognizer: script %s is empty", s.cfg.Path)
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	// The replay outlives the Start request, so it carries its own
	// cancellation rather than the caller's.
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.replay(runCtx, lines)

	s.logger.Printf("recognizer: replaying script %s (%d lines)", s.cfg.Path, len(lines))
	return nil
}

// Stop ends the replay. No callback fires after Stop returns.
func (s *Script) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		s.wg.Wait()
	}
}

func (s *Script) replay(ctx context.Context, lines []string) {
	defer s.wg.Done()

	for _, line := range lines {
		words := strings.Fields(line)
		for i := range words {
			s.cb.emitInterim(s.cfg.Language, strings.Join(words[:i+1], " "))
			if !sleepCtx(ctx, s.cfg.WordDelay) {
				return
			}
		}
		s.cb.emitFinal(s.cfg.Language, line)
		if !sleepCtx(ctx, s.cfg.LineDelay) {
			return
		}
	}
	s.logger.Printf("recognizer: script %s finished", s.cfg.Path)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
