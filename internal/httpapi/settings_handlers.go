package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/joyfuladam/voskcaption/internal/settings"
)

// handleGetSettings returns the production display settings
func (r *Router) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.display.Get())
}

// handleSetSettings applies a production display settings patch and
// pushes the applied keys to connected viewers
func (r *Router) handleSetSettings(w http.ResponseWriter, req *http.Request) {
	r.updateSettings(w, req, r.display, "settings")
}

// handleGetUserSettings returns the audience view settings. Served on
// both the admin and the public path; the audience page tunes its own
// display.
func (r *Router) handleGetUserSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.userPref.Get())
}

// handleSetUserSettings applies an audience settings patch
func (r *Router) handleSetUserSettings(w http.ResponseWriter, req *http.Request) {
	r.updateSettings(w, req, r.userPref, "user_settings")
}

// updateSettings filters a patch through the store and broadcasts the
// applied subset under the given payload type. Unknown keys are
// dropped, not rejected.
func (r *Router) updateSettings(w http.ResponseWriter, req *http.Request, store *settings.Store, kind string) {
	var patch map[string]any
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	applied, err := store.Update(patch)
	if err != nil {
		r.logger.Printf("httpapi: failed to update %s: %v", kind, err)
		captureError(req, err, "settings update failed")
		http.Error(w, `{"error": "failed to save settings"}`, http.StatusInternalServerError)
		return
	}

	if len(applied) > 0 {
		r.logger.Printf("httpapi: %s updated: %v", kind, applied)
		payload, _ := json.Marshal(map[string]any{"type": kind, "settings": applied})
		r.hub.Broadcast(payload)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
