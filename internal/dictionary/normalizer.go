package dictionary

import (
	"strings"
	"sync/atomic"
)

// Normalizer applies the correction table to recognized text. It works
// from an immutable snapshot of the store, so dictionary edits become
// visible only after Reload. Normalize itself is lock-free and safe to
// call from provider callbacks.
type Normalizer struct {
	store *Store
	snap  atomic.Pointer[correctionSnapshot]
}

type correctionSnapshot struct {
	spelling map[string]string
	proper   map[string]string
}

func NewNormalizer(store *Store) *Normalizer {
	n := &Normalizer{store: store}
	n.Reload()
	return n
}

// Reload rebuilds the lookup tables from the store's current contents.
func (n *Normalizer) Reload() {
	contents := n.store.Get()

	snap := &correctionSnapshot{
		spelling: make(map[string]string, len(contents.SpellingCorrections)),
		proper:   make(map[string]string, len(contents.ProperNouns)),
	}
	for wrong, right := range contents.SpellingCorrections {
		snap.spelling[strings.ToLower(wrong)] = right
	}
	for _, noun := range contents.ProperNouns {
		snap.proper[strings.ToLower(noun)] = noun
	}
	n.snap.Store(snap)
}

// Normalize rewrites text word by word: misspellings are replaced via
// the correction map, then words matching a proper noun take its
// canonical casing. Unknown words pass through unchanged.
func (n *Normalizer) Normalize(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	snap := n.snap.Load()
	for i, word := range words {
		if right, ok := snap.spelling[strings.ToLower(word)]; ok {
			word = right
		}
		if canonical, ok := snap.proper[strings.ToLower(word)]; ok {
			word = canonical
		}
		words[i] = word
	}
	return strings.Join(words, " ")
}
