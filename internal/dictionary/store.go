// Package dictionary persists the correction table applied to
// recognized text and the list of caption languages offered to
// viewers.
package dictionary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("dictionary: entry not found")

// Language is one selectable caption language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Contents mirrors the on-disk dictionary file.
type Contents struct {
	SpellingCorrections map[string]string `json:"spelling_corrections"`
	ProperNouns         []string          `json:"proper_nouns"`
	CustomPhrases       []string          `json:"custom_phrases"`
	SupportedLanguages  []Language        `json:"supported_languages"`
}

func emptyContents() Contents {
	return Contents{
		SpellingCorrections: map[string]string{},
		ProperNouns:         []string{},
		CustomPhrases:       []string{},
		SupportedLanguages:  []Language{},
	}
}

func (c Contents) clone() Contents {
	out := Contents{
		SpellingCorrections: make(map[string]string, len(c.SpellingCorrections)),
		ProperNouns:         append([]string{}, c.ProperNouns...),
		CustomPhrases:       append([]string{}, c.CustomPhrases...),
		SupportedLanguages:  append([]Language{}, c.SupportedLanguages...),
	}
	for k, v := range c.SpellingCorrections {
		out.SpellingCorrections[k] = v
	}
	return out
}

// Store is the mutable dictionary backed by a JSON file. Edits are
// persisted immediately but do not reach the normalizer until it
// reloads.
type Store struct {
	path string

	mu   sync.Mutex
	data Contents
}

// NewStore loads the dictionary at path. A missing file yields an
// empty dictionary; a malformed one is an error.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, data: emptyContents()}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dictionary: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("dictionary: parsing %s: %w", path, err)
	}
	if s.data.SpellingCorrections == nil {
		s.data.SpellingCorrections = map[string]string{}
	}
	return s, nil
}

// Reload re-reads the file from disk, picking up edits made outside
// the API. A missing file keeps the current contents.
func (s *Store) Reload() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dictionary: reading %s: %w", s.path, err)
	}

	loaded := emptyContents()
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("dictionary: parsing %s: %w", s.path, err)
	}
	if loaded.SpellingCorrections == nil {
		loaded.SpellingCorrections = map[string]string{}
	}

	s.mu.Lock()
	s.data = loaded
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current dictionary contents.
func (s *Store) Get() Contents {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

// Languages returns the selectable caption languages.
func (s *Store) Languages() []Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Language{}, s.data.SupportedLanguages...)
}

// SetSpelling maps a misrecognized word to its replacement.
func (s *Store) SetSpelling(wrong, right string) error {
	wrong = strings.ToLower(strings.TrimSpace(wrong))
	right = strings.TrimSpace(right)
	if wrong == "" || right == "" {
		return errors.New("dictionary: spelling correction needs both words")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.SpellingCorrections[wrong] = right
	return s.save()
}

func (s *Store) DeleteSpelling(wrong string) error {
	wrong = strings.ToLower(strings.TrimSpace(wrong))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.SpellingCorrections[wrong]; !ok {
		return ErrNotFound
	}
	delete(s.data.SpellingCorrections, wrong)
	return s.save()
}

// AddProperNoun records the canonical casing of a name. The list stays
// sorted and free of case-insensitive duplicates.
func (s *Store) AddProperNoun(word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return errors.New("dictionary: proper noun is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.ProperNouns {
		if strings.EqualFold(existing, word) {
			return nil
		}
	}
	s.data.ProperNouns = append(s.data.ProperNouns, word)
	sort.Strings(s.data.ProperNouns)
	return s.save()
}

func (s *Store) DeleteProperNoun(word string) error {
	word = strings.TrimSpace(word)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.data.ProperNouns {
		if strings.EqualFold(existing, word) {
			s.data.ProperNouns = append(s.data.ProperNouns[:i], s.data.ProperNouns[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

// AddPhrase records a phrase fed to providers that accept a phrase
// hint list. The list stays sorted and free of duplicates.
func (s *Store) AddPhrase(phrase string) error {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return errors.New("dictionary: phrase is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.CustomPhrases {
		if existing == phrase {
			return nil
		}
	}
	s.data.CustomPhrases = append(s.data.CustomPhrases, phrase)
	sort.Strings(s.data.CustomPhrases)
	return s.save()
}

func (s *Store) DeletePhrase(phrase string) error {
	phrase = strings.TrimSpace(phrase)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.data.CustomPhrases {
		if existing == phrase {
			s.data.CustomPhrases = append(s.data.CustomPhrases[:i], s.data.CustomPhrases[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

// SetLanguages replaces the selectable caption languages.
func (s *Store) SetLanguages(langs []Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.SupportedLanguages = append([]Language{}, langs...)
	return s.save()
}

// save writes the dictionary back to disk. Callers hold s.mu.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("dictionary: encoding: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("dictionary: writing %s: %w", s.path, err)
	}
	return nil
}
