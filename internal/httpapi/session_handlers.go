package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/joyfuladam/voskcaption/internal/archive"
	"github.com/joyfuladam/voskcaption/internal/stats"
)

// handleListSessions returns archived caption sessions, newest first
func (r *Router) handleListSessions(w http.ResponseWriter, req *http.Request) {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	sessions, err := r.arch.ListSessions(req.Context(), limit)
	if err != nil {
		r.logger.Printf("httpapi: list sessions failed: %v", err)
		captureError(req, err, "list sessions failed")
		http.Error(w, `{"error": "failed to list sessions"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// handleGetSession returns one session with its transcript and stats
func (r *Router) handleGetSession(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")

	session, err := r.arch.GetSession(req.Context(), id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			http.Error(w, `{"error": "session not found"}`, http.StatusNotFound)
			return
		}
		r.logger.Printf("httpapi: get session %s failed: %v", id, err)
		captureError(req, err, "get session failed")
		http.Error(w, `{"error": "failed to load session"}`, http.StatusInternalServerError)
		return
	}

	lines, err := r.arch.SessionLines(req.Context(), id)
	if err != nil {
		r.logger.Printf("httpapi: session lines for %s failed: %v", id, err)
		captureError(req, err, "session lines failed")
		http.Error(w, `{"error": "failed to load transcript"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"lines":   lines,
		"stats":   sessionStats(session),
	})
}

// handleSessionEvents returns the lifecycle events of a session
func (r *Router) handleSessionEvents(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	if _, err := r.arch.GetSession(req.Context(), id); err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			http.Error(w, `{"error": "session not found"}`, http.StatusNotFound)
			return
		}
		r.logger.Printf("httpapi: get session %s failed: %v", id, err)
		http.Error(w, `{"error": "failed to load session"}`, http.StatusInternalServerError)
		return
	}

	events, err := r.arch.SessionEvents(req.Context(), id, limit)
	if err != nil {
		r.logger.Printf("httpapi: session events for %s failed: %v", id, err)
		captureError(req, err, "session events failed")
		http.Error(w, `{"error": "failed to load events"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// sessionStats derives duration and pace figures for a session. A
// still-running session is measured up to now.
func sessionStats(s *archive.Session) stats.SessionStats {
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
