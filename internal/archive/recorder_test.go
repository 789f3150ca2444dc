package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRecorderLifecycle(t *testing.T) {
	s := openTestStore(t)
	r := NewRecorder(s, testLogger())
	ctx := context.Background()

	r.Begin(ctx, "vosk", "en-US")
	if !r.Active() {
		t.Fatal("recorder not active after Begin")
	}
	r.RecordFinal("en-US", "hello there")
	r.RecordFinal("en-US", "welcome back everyone")

	list, err := s.ListSessions(ctx, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSessions() = %v, %v", list, err)
	}
	id := list[0].ID

	// Lines land asynchronously.
	waitFor(t, 2*time.Second, func() bool {
		lines, err := s.SessionLines(ctx, id)
		return err == nil && len(lines) == 2
	})

	sess := r.End(ctx)
	if sess == nil {
		t.Fatal("End() returned nil summary")
	}
	if sess.FinalCount != 2 || sess.WordCount != 5 {
		t.Errorf("summary counts = (%d, %d), want (2, 5)", sess.FinalCount, sess.WordCount)
	}
	if sess.EndedAt == nil {
		t.Error("summary missing EndedAt")
	}
	if r.Active() {
		t.Error("recorder still active after End")
	}

	lines, err := s.SessionLines(ctx, sess.ID)
	if err != nil {
		t.Fatalf("SessionLines() error = %v", err)
	}
	if lines[0].Sequence != 1 || lines[0].WordCount != 2 || lines[1].Sequence != 2 {
		t.Errorf("lines = %+v", lines)
	}
}

func TestRecorderIgnoresWhenInactive(t *testing.T) {
	s := openTestStore(t)
	r := NewRecorder(s, testLogger())
	ctx := context.Background()

	r.RecordFinal("en-US", "dropped")
	r.RecordError(errors.New("no session"))
	if sess := r.End(ctx); sess != nil {
		t.Errorf("End() = %+v, want nil", sess)
	}

	list, err := s.ListSessions(ctx, 10)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("sessions created without Begin: %+v", list)
	}
}

func TestRecorderEvents(t *testing.T) {
	s := openTestStore(t)
	r := NewRecorder(s, testLogger())
	ctx := context.Background()

	r.Begin(ctx, "vosk", "en-US")
	r.RecordError(errors.New("socket closed"))
	r.RecordEvent(EventCaptionsCleared, nil)

	list, err := s.ListSessions(ctx, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListSessions() = %v, %v", list, err)
	}
	id := list[0].ID

	// Begin, the error, and the clear all log asynchronously.
	waitFor(t, 2*time.Second, func() bool {
		events, err := s.SessionEvents(ctx, id, 0)
		return err == nil && len(events) == 3
	})

	events, err := s.SessionEvents(ctx, id, 0)
	if err != nil {
		t.Fatalf("SessionEvents() error = %v", err)
	}
	seen := make(map[EventType]string)
	for _, event := range events {
		seen[event.Type] = string(event.Data)
	}
	if _, ok := seen[EventSessionStarted]; !ok {
		t.Error("missing session_started event")
	}
	if _, ok := seen[EventCaptionsCleared]; !ok {
		t.Error("missing captions_cleared event")
	}
	if data, ok := seen[EventRecognizerError]; !ok || !strings.Contains(data, "socket closed") {
		t.Errorf("recognizer_error event data = %q", data)
	}
}
