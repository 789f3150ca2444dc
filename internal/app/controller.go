package app

import (
	"context"
	"time"

	"github.com/joyfuladam/voskcaption/internal/archive"
	"github.com/joyfuladam/voskcaption/internal/caption"
	"github.com/joyfuladam/voskcaption/internal/stats"
)

// controller wraps the caption engine so session recording and ops
// notifications ride along with every start and stop, whether they
// come from the HTTP API, the scheduler or the health monitor. It is
// the CaptionService the router sees and the CaptionControl the jobs
// drive.
type controller struct {
	engine   *caption.Engine
	recorder *archive.Recorder
	discord  notifier
	provider string
	language string
}

// notifier is the slice of the Discord notifier the controller uses.
type notifier interface {
	NotifySessionStarted(ctx context.Context, provider, language string)
	NotifySessionStopped(ctx context.Context, summary *stats.SessionStats)
}

func (c *controller) Start(ctx context.Context) error {
	if err := c.engine.Start(ctx); err != nil {
		return err
	}
	if !c.recorder.Active() {
		c.recorder.Begin(ctx, c.provider, c.language)
		// The notifier sends in the background; the request context
		// ends before it gets there.
		c.discord.NotifySessionStarted(context.Background(), c.provider, c.language)
	}
	return nil
}

func (c *controller) Stop() {
	c.engine.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session := c.recorder.End(ctx)
	if session == nil {
		return
	}

	summary := sessionSummary(session)
	c.discord.NotifySessionStopped(context.Background(), &summary)
}

func (c *controller) Clear() {
	c.engine.Clear()
	c.recorder.RecordEvent(archive.EventCaptionsCleared, nil)
}

func (c *controller) Status() caption.Status {
	return c.engine.Status()
}

func (c *controller) SetDisplayLanguage(lang string) error {
	if err := c.engine.SetDisplayLanguage(lang); err != nil {
		return err
	}
	c.recorder.RecordEvent(archive.EventLanguageChanged, map[string]any{
		"language": c.engine.DisplayLanguage(),
	})
	return nil
}

func (c *controller) DisplayLanguage() string {
	return c.engine.DisplayLanguage()
}

func (c *controller) Transcript() []string {
	return c.engine.Transcript()
}

func sessionSummary(s *archive.Session) stats.SessionStats {
	endedAt := time.Now().UTC()
	if s.EndedAt != nil {
		endedAt = *s.EndedAt
	}
	return stats.Calculate(stats.SessionMetrics{
		StartedAt:  s.StartedAt,
		EndedAt:    endedAt,
		FinalCount: s.FinalCount,
		WordCount:  s.WordCount,
	})
}
