package schedule

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if got := s.List(); len(got) != 0 {
		t.Fatalf("List() = %v, want empty", got)
	}

	entry := Entry{Date: "2099-03-10", StartTime: "09:30", StopTime: "11:00", Timezone: "UTC"}
	if err := s.Upsert(entry); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() reopen error = %v", err)
	}
	got := reopened.List()
	if len(got) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(got))
	}
	if got[0].Date != "2099-03-10" || got[0].StartTime != "09:30" || got[0].StopTime != "11:00" {
		t.Errorf("List()[0] = %+v", got[0])
	}
	if got[0].RecurrenceType != "one-time" || got[0].EndingType != "never" || got[0].RecurrenceInterval != 1 {
		t.Errorf("defaults not applied: %+v", got[0])
	}
}

func TestStoreUpsertReplacesSameDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	entry := Entry{Date: "2099-03-10", StartTime: "09:30", StopTime: "11:00", Timezone: "UTC"}
	if err := s.Upsert(entry); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	entry.StopTime = "12:15"
	if err := s.Upsert(entry); err != nil {
		t.Fatalf("Upsert() replace error = %v", err)
	}

	got := s.List()
	if len(got) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(got))
	}
	if got[0].StopTime != "12:15" {
		t.Errorf("StopTime = %q, want %q", got[0].StopTime, "12:15")
	}
}

func TestStoreUpsertRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := s.Upsert(Entry{Date: "bad", StartTime: "09:30", StopTime: "11:00"}); err == nil {
		t.Fatal("Upsert() with bad date succeeded, want error")
	}
	if got := s.List(); len(got) != 0 {
		t.Errorf("List() = %v, want empty after rejected upsert", got)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("schedule file written after rejected upsert")
	}
}

func TestStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	for _, date := range []string{"2099-03-10", "2099-04-11"} {
		if err := s.Upsert(Entry{Date: date, StartTime: "09:30", StopTime: "11:00", Timezone: "UTC"}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", date, err)
		}
	}
	if err := s.Delete("2099-03-10"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got := s.List()
	if len(got) != 1 || got[0].Date != "2099-04-11" {
		t.Errorf("List() = %+v, want only 2099-04-11", got)
	}
	if err := s.Delete("2099-03-10"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() missing = %v, want ErrNotFound", err)
	}
}

func TestStoreMigratesLegacyEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	raw := `[
  {"date": "2000-01-02", "start_time": "09:00", "stop_time": "10:00", "is_recurring": false},
  {"date": "2001-05-06", "start_time": "09:00", "stop_time": "10:00", "is_recurring": true}
]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	got := s.List()
	if len(got) != 1 {
		t.Fatalf("List() returned %d entries, want 1 after pruning", len(got))
	}
	if got[0].Date != "2001-05-06" || got[0].RecurrenceType != "yearly" {
		t.Errorf("migrated entry = %+v, want yearly 2001-05-06", got[0])
	}

	// Pruning rewrites the file without the legacy flag.
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(saved), "is_recurring") {
		t.Errorf("rewritten file still has is_recurring: %s", saved)
	}
	if !strings.Contains(string(saved), "yearly") {
		t.Errorf("rewritten file missing recurrence type: %s", saved)
	}
}

func TestStoreKeepsFileWhenNothingPruned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	raw := `[{"date": "2099-01-02", "start_time": "09:00", "stop_time": "10:00", "is_recurring": true}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if got := s.List(); len(got) != 1 || got[0].RecurrenceType != "yearly" {
		t.Fatalf("List() = %+v, want one yearly entry", got)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(saved) != raw {
		t.Errorf("file rewritten without pruning:\n%s", saved)
	}
}

func TestStoreMigratesLegacySingleObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	if err := os.WriteFile(path, []byte(`{"start_time": "09:00", "stop_time": "11:00"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	got := s.List()
	if len(got) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(got))
	}
	want := Entry{
		Date:           time.Now().Format("2006-01-02"),
		StartTime:      "09:00",
		StopTime:       "11:00",
		RecurrenceType: "one-time",
	}
	if got[0] != want {
		t.Errorf("migrated entry = %+v, want %+v", got[0], want)
	}
}

func TestStoreMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path); err == nil {
		t.Fatal("NewStore() with malformed file succeeded, want error")
	}
}
