package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joyfuladam/voskcaption/internal/schedule"
)

// handleGetSchedule returns every schedule entry
func (r *Router) handleGetSchedule(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.sched.List())
}

// handleSetSchedule adds or replaces the entry for a date
func (r *Router) handleSetSchedule(w http.ResponseWriter, req *http.Request) {
	var entry schedule.Entry
	if err := json.NewDecoder(req.Body).Decode(&entry); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := r.sched.Upsert(entry); err != nil {
		r.logger.Printf("httpapi: rejected schedule for %s: %v", entry.Date, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	r.logger.Printf("httpapi: schedule set for %s (%s-%s, %s)",
		entry.Date, entry.StartTime, entry.StopTime, entry.RecurrenceType)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Schedule set for " + entry.Date,
	})
}

// handleDeleteSchedule removes the entry for a date
func (r *Router) handleDeleteSchedule(w http.ResponseWriter, req *http.Request) {
	date := req.URL.Query().Get("date")

	if err := r.sched.Delete(date); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "no schedule found for " + date,
			})
			return
		}
		r.logger.Printf("httpapi: delete schedule failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	r.logger.Printf("httpapi: schedule deleted for %s", date)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleRecurrenceOptions lists the values the schedule editor offers
func (r *Router) handleRecurrenceOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"recurrence_types": schedule.RecurrenceTypes,
		"ending_types":     schedule.EndingTypes,
	})
}
