package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrNotFound is returned when no entry exists for the given date.
var ErrNotFound = errors.New("schedule: entry not found")

// Store persists schedule entries as a JSON array. Older file formats
// are migrated on load: the pre-recurrence is_recurring flag becomes a
// recurrence type, a bare {start_time, stop_time} object becomes a
// one-time entry for today, and one-time entries whose date has passed
// are dropped.
type Store struct {
	path string

	mu      sync.Mutex
	entries []Entry
}

// NewStore opens the schedule file at path, creating an empty store
// when the file does not exist yet.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("schedule: reading %s: %w", s.path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		legacy, legacyErr := parseLegacy(raw)
		if legacyErr != nil {
			return fmt.Errorf("schedule: parsing %s: %w", s.path, err)
		}
		s.entries = legacy
		return nil
	}
	kept, pruned := migrate(entries, time.Now())
	s.entries = kept
	if pruned {
		return s.save()
	}
	return nil
}

// migrate normalizes entries loaded from older file formats and drops
// one-time entries whose date has passed. The second return reports
// whether anything was dropped; only then is the file rewritten, so a
// purely migrated file keeps its old shape on disk until the next
// write.
func migrate(entries []Entry, now time.Time) ([]Entry, bool) {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.RecurrenceType == "" {
			if e.LegacyRecurring != nil && *e.LegacyRecurring {
				e.RecurrenceType = recurrenceYearly
			} else {
				e.RecurrenceType = recurrenceOneTime
			}
		}
		e.LegacyRecurring = nil
		if e.RecurrenceType == recurrenceOneTime && pastDate(e.Date, now) {
			continue
		}
		kept = append(kept, e)
	}
	return kept, len(kept) < len(entries)
}

func pastDate(date string, now time.Time) bool {
	d, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}

// parseLegacy reads the original single-object file format, a bare
// {start_time, stop_time} pair, as a one-time entry dated today.
func parseLegacy(raw []byte) ([]Entry, error) {
	var legacy struct {
		StartTime string `json:"start_time"`
		StopTime  string `json:"stop_time"`
	}
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, err
	}
	if legacy.StartTime == "" && legacy.StopTime == "" {
		return nil, errors.New("no schedule fields")
	}
	return []Entry{{
		Date:           time.Now().Format(dateLayout),
		StartTime:      legacy.StartTime,
		StopTime:       legacy.StopTime,
		RecurrenceType: recurrenceOneTime,
	}}, nil
}

// List returns a copy of the stored entries.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Upsert validates e, fills its defaults, and stores it, replacing any
// existing entry for the same date.
func (s *Store) Upsert(e Entry) error {
	e.normalize()
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.entries {
		if s.entries[i].Date == e.Date {
			s.entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		s.entries = append(s.entries, e)
	}
	return s.save()
}

// Delete removes the entry for date.
func (s *Store) Delete(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].Date == date {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("schedule: encoding: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("schedule: writing %s: %w", s.path, err)
	}
	return nil
}
