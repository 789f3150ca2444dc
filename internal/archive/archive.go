// Package archive persists caption sessions, their finalized
// transcript lines, and lifecycle events in an embedded SQLite
// database.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/xid"
	_ "modernc.org/sqlite"

	"github.com/joyfuladam/voskcaption/internal/archive/migrations"
)

// ErrNotFound is returned when no session exists for the given id.
var ErrNotFound = errors.New("archive: session not found")

// EventType classifies a session lifecycle event.
type EventType string

const (
	EventSessionStarted  EventType = "session_started"
	EventSessionStopped  EventType = "session_stopped"
	EventRecognizerError EventType = "recognizer_error"
	EventCaptionsCleared EventType = "captions_cleared"
	EventLanguageChanged EventType = "language_changed"
)

// Session is one recognition run from start to stop.
type Session struct {
	ID         string     `json:"id"`
	Provider   string     `json:"provider"`
	Language   string     `json:"language"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	FinalCount int        `json:"final_count"`
	WordCount  int        `json:"word_count"`
}

// TranscriptLine is one finalized caption within a session.
type TranscriptLine struct {
	Sequence  int       `json:"sequence"`
	Language  string    `json:"language"`
	Text      string    `json:"text"`
	WordCount int       `json:"word_count"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionEvent is one logged lifecycle event within a session.
type SessionEvent struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store persists sessions in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the archive database at path and applies the embedded
// migrations.
func Open(path string) (*Store, error) {
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: opening db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: pinging db: %w", err)
	}
	if err := applyMigrations(db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: running migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a session row and returns its id.
func (s *Store) CreateSession(ctx context.Context, provider, language string, startedAt time.Time) (string, error) {
	id := xid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, provider, language, started_at)
		VALUES (?, ?, ?, ?)
	`, id, provider, language, toMillis(startedAt))
	if err != nil {
		return "", err
	}
	return id, nil
}

// EndSession marks a session as finished.
func (s *Store) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ? WHERE id = ?
	`, toMillis(endedAt), id)
	return err
}

// AppendLine stores one finalized caption line.
func (s *Store) AppendLine(ctx context.Context, sessionID string, line TranscriptLine) error {
	createdAt := line.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcript_lines (session_id, sequence, language, text, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, line.Sequence, line.Language, line.Text, line.WordCount, toMillis(createdAt))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	var startedAt int64
	var endedAt *int64
	err := row.Scan(&sess.ID, &sess.Provider, &sess.Language, &startedAt, &endedAt, &sess.FinalCount, &sess.WordCount)
	if err != nil {
		return Session{}, err
	}
	sess.StartedAt = fromMillis(startedAt)
	if endedAt != nil {
		t := fromMillis(*endedAt)
		sess.EndedAt = &t
	}
	return sess, nil
}

// ListSessions returns the most recent sessions, newest first, with
// their line and word totals.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.provider, s.language, s.started_at, s.ended_at,
		       COUNT(l.id), COALESCE(SUM(l.word_count), 0)
		FROM sessions s
		LEFT JOIN transcript_lines l ON l.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// GetSession returns one session with its line and word totals.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.provider, s.language, s.started_at, s.ended_at,
		       COUNT(l.id), COALESCE(SUM(l.word_count), 0)
		FROM sessions s
		LEFT JOIN transcript_lines l ON l.session_id = s.id
		WHERE s.id = ?
		GROUP BY s.id
	`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SessionLines returns the finalized lines of a session in sequence
// order.
func (s *Store) SessionLines(ctx context.Context, sessionID string) ([]TranscriptLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, language, text, word_count, created_at
		FROM transcript_lines
		WHERE session_id = ?
		ORDER BY sequence
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TranscriptLine
	for rows.Next() {
		var line TranscriptLine
		var createdAt int64
		if err := rows.Scan(&line.Sequence, &line.Language, &line.Text, &line.WordCount, &createdAt); err != nil {
			return nil, err
		}
		line.CreatedAt = fromMillis(createdAt)
		out = append(out, line)
	}
	return out, rows.Err()
}

// InsertEvent writes a session event synchronously.
func (s *Store) InsertEvent(ctx context.Context, sessionID string, eventType EventType, data map[string]any) error {
	if sessionID == "" {
		return nil
	}
	dataJSON := []byte("{}")
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			dataJSON = raw
		}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_events (session_id, event_type, event_data, created_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, string(eventType), string(dataJSON), toMillis(time.Now()))
	return err
}

// LogAsync writes a session event without blocking the caller.
func (s *Store) LogAsync(sessionID string, eventType EventType, data map[string]any) {
	if sessionID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.InsertEvent(ctx, sessionID, eventType, data)
	}()
}

// SessionEvents returns a session's logged events in order.
func (s *Store) SessionEvents(ctx context.Context, sessionID string, limit int) ([]SessionEvent, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, event_data, created_at
		FROM session_events
		WHERE session_id = ?
		ORDER BY id
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionEvent
	for rows.Next() {
		var event SessionEvent
		var data []byte
		var createdAt int64
		if err := rows.Scan(&event.Type, &data, &createdAt); err != nil {
			return nil, err
		}
		event.Data = json.RawMessage(data)
		event.CreatedAt = fromMillis(createdAt)
		out = append(out, event)
	}
	return out, rows.Err()
}
