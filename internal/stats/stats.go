// Package stats computes summary figures for archived caption sessions.
package stats

import (
	"strings"
	"time"
)

// SessionMetrics contains the raw numbers from an archived session.
type SessionMetrics struct {
	StartedAt  time.Time
	EndedAt    time.Time
	FinalCount int // Finalized caption lines
	WordCount  int // Words across all finalized lines
}

// SessionStats contains the derived figures shown on the dashboard.
type SessionStats struct {
	DurationSeconds int     `json:"duration_seconds"`
	FinalCount      int     `json:"final_count"`
	WordCount       int     `json:"word_count"`
	WordsPerMinute  float64 `json:"words_per_minute"`
}

// Calculate computes the statistics for a finished session. A session
// with no usable duration reports zero words per minute rather than
// dividing by it.
func Calculate(m SessionMetrics) SessionStats {
	duration := m.EndedAt.Sub(m.StartedAt)
	if duration < 0 {
		duration = 0
	}

	wpm := 0.0
	if duration > 0 {
		wpm = float64(m.WordCount) / duration.Minutes()
	}

	return SessionStats{
		DurationSeconds: roundToInt(duration.Seconds()),
		FinalCount:      m.FinalCount,
		WordCount:       m.WordCount,
		WordsPerMinute:  roundToTenth(wpm),
	}
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// roundToTenth rounds a float to one decimal place.
func roundToTenth(f float64) float64 {
	return float64(roundToInt(f*10)) / 10
}

// roundToInt rounds a float to the nearest integer.
func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}
