package archive

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/joyfuladam/voskcaption/internal/stats"
)

// Recorder ties the engine lifecycle to the archive: it opens a
// session when recognition starts, streams finalized lines into it,
// and closes it with a summary when recognition stops.
type Recorder struct {
	store  *Store
	logger *log.Logger

	mu        sync.Mutex
	sessionID string
	sequence  int
}

// NewRecorder creates a recorder over the archive store.
func NewRecorder(store *Store, logger *log.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Begin opens a new archived session.
func (r *Recorder) Begin(ctx context.Context, provider, language string) {
	id, err := r.store.CreateSession(ctx, provider, language, time.Now())
	if err != nil {
		r.logger.Printf("archive: creating session: %v", err)
		return
	}
	r.mu.Lock()
	r.sessionID = id
	r.sequence = 0
	r.mu.Unlock()
	r.store.LogAsync(id, EventSessionStarted, map[string]any{"provider": provider, "language": language})
}

// RecordFinal archives one finalized caption without blocking the
// recognition callback.
func (r *Recorder) RecordFinal(language, text string) {
	r.mu.Lock()
	id := r.sessionID
	if id != "" {
		r.sequence++
	}
	seq := r.sequence
	r.mu.Unlock()
	if id == "" {
		return
	}

	line := TranscriptLine{
		Sequence:  seq,
		Language:  language,
		Text:      text,
		WordCount: stats.CountWords(text),
		CreatedAt: time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.store.AppendLine(ctx, id, line); err != nil {
			r.logger.Printf("archive: appending line: %v", err)
		}
	}()
}

// End closes the active session and returns its summary, or nil when
// nothing was being recorded.
func (r *Recorder) End(ctx context.Context) *Session {
	r.mu.Lock()
	id := r.sessionID
	r.sessionID = ""
	r.sequence = 0
	r.mu.Unlock()
	if id == "" {
		return nil
	}

	if err := r.store.EndSession(ctx, id, time.Now()); err != nil {
		r.logger.Printf("archive: ending session: %v", err)
	}
	r.store.LogAsync(id, EventSessionStopped, nil)

	sess, err := r.store.GetSession(ctx, id)
	if err != nil {
		r.logger.Printf("archive: loading session summary: %v", err)
		return nil
	}
	return sess
}

// RecordError logs a recognizer failure against the active session.
func (r *Recorder) RecordError(err error) {
	r.RecordEvent(EventRecognizerError, map[string]any{"error": err.Error()})
}

// RecordEvent logs a lifecycle event against the active session.
func (r *Recorder) RecordEvent(eventType EventType, data map[string]any) {
	r.mu.Lock()
	id := r.sessionID
	r.mu.Unlock()
	if id == "" {
		return
	}
	r.store.LogAsync(id, eventType, data)
}

// Active reports whether a session is currently being recorded.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID != ""
}
