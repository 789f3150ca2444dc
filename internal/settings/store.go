// Package settings persists the display tuning for the two caption
// views as flat JSON objects, the shape the viewer pages consume
// directly.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Store is one settings file. Updates are filtered to the editable key
// set; everything else in the file is readable but fixed from the
// API's point of view.
type Store struct {
	path     string
	editable map[string]struct{}

	mu     sync.Mutex
	values map[string]any
}

func newStore(path string, defaults map[string]any, editable []string) (*Store, error) {
	s := &Store{
		path:     path,
		editable: make(map[string]struct{}, len(editable)),
		values:   make(map[string]any, len(defaults)),
	}
	for _, key := range editable {
		s.editable[key] = struct{}{}
	}
	for key, value := range defaults {
		s.values[key] = value
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: reading %s: %w", path, err)
	}
	var loaded map[string]any
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("settings: parsing %s: %w", path, err)
	}
	for key, value := range loaded {
		s.values[key] = value
	}
	return s, nil
}

// NewDisplayStore opens the production overlay settings. The
// projection tuning keys (line width, pause threshold, transcript cap)
// live here too but are not editable through Update.
func NewDisplayStore(path string) (*Store, error) {
	defaults := map[string]any{
		"font_size":               48,
		"font_style":              "Arial",
		"bg_color":                "#00FF00",
		"text_color":              "#FFFFFF",
		"max_line_length":         90,
		"max_lines":               2,
		"text_justify":            "center",
		"text_anchor":             "bottom",
		"text_padding_x":          40,
		"text_padding_y":          40,
		"main_text_position_x":    0,
		"main_text_position_y":    0,
		"preview_position":        "bottom",
		"preview_fine_tune_x":     0,
		"preview_fine_tune_y":     0,
		"pause_threshold_seconds": 2.0,
		"max_transcript_lines":    200,
	}
	editable := []string{
		"font_size", "font_style", "bg_color", "text_color", "max_line_length", "max_lines",
		"text_justify", "text_anchor", "text_padding_x", "text_padding_y",
		"main_text_position_x", "main_text_position_y",
		"preview_position", "preview_fine_tune_x", "preview_fine_tune_y",
	}
	return newStore(path, defaults, editable)
}

// NewUserStore opens the audience view settings. Every key is
// editable.
func NewUserStore(path string) (*Store, error) {
	defaults := map[string]any{
		"user_bg_color":            "#000000",
		"user_text_color":          "#FFFFFF",
		"user_font_style":          "Arial",
		"user_font_size":           24,
		"user_max_line_length":     500,
		"user_lines":               3,
		"user_auto_finalize_delay": 10.0,
	}
	editable := make([]string, 0, len(defaults))
	for key := range defaults {
		editable = append(editable, key)
	}
	return newStore(path, defaults, editable)
}

// Get returns a copy of all current values.
func (s *Store) Get() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// Update applies the editable subset of patch, persists it and returns
// the keys that were actually applied. Unknown and read-only keys are
// dropped silently.
func (s *Store) Update(patch map[string]any) (map[string]any, error) {
	applied := make(map[string]any)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range patch {
		if _, ok := s.editable[key]; !ok {
			continue
		}
		s.values[key] = value
		applied[key] = value
	}
	if len(applied) == 0 {
		return applied, nil
	}
	if err := s.save(); err != nil {
		return nil, err
	}
	return applied, nil
}

// Int reads a numeric setting. JSON decoding yields float64, so both
// forms are accepted.
func (s *Store) Int(key string, fallback int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := s.values[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func (s *Store) Float(key string, fallback float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := s.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func (s *Store) String(key, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key].(string); ok {
		return v
	}
	return fallback
}

// save writes the settings back to disk. Callers hold s.mu.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encoding: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("settings: writing %s: %w", s.path, err)
	}
	return nil
}
