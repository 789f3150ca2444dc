package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// handleStartRecognition brings the speech provider up
func (r *Router) handleStartRecognition(w http.ResponseWriter, req *http.Request) {
	r.logger.Printf("httpapi: start recognition requested")

	if err := r.captions.Start(req.Context()); err != nil {
		r.logger.Printf("httpapi: start recognition failed: %v", err)
		captureError(req, err, "start recognition failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to start recognition: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Speech recognition started",
	})
}

// handleStopRecognition shuts the speech provider down
func (r *Router) handleStopRecognition(w http.ResponseWriter, req *http.Request) {
	r.logger.Printf("httpapi: stop recognition requested")
	r.captions.Stop()

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Speech recognition stopped",
	})
}

// handleClearCaptions blanks both viewer projections
func (r *Router) handleClearCaptions(w http.ResponseWriter, _ *http.Request) {
	r.captions.Clear()
	r.logger.Printf("httpapi: captions cleared")

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "All captions cleared",
	})
}

// handleRecognitionStatus reports the recognizer state and how many
// viewers are connected
func (r *Router) handleRecognitionStatus(w http.ResponseWriter, _ *http.Request) {
	status := r.captions.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"is_recognizing":        status.IsRecognizing,
		"should_be_recognizing": status.ShouldBeRecognizing,
		"viewer_count":          r.hub.Count(),
	})
}

// handleSetUserLanguage switches the audience caption language
func (r *Router) handleSetUserLanguage(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Language string `json:"language"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if body.Language == "" {
		body.Language = r.cfg.PrimaryLanguage
	}

	if err := r.captions.SetDisplayLanguage(body.Language); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown language: " + body.Language,
		})
		return
	}

	r.logger.Printf("httpapi: user language changed to %s", r.captions.DisplayLanguage())
	writeJSON(w, http.StatusOK, map[string]string{
		"status":           "success",
		"current_language": r.captions.DisplayLanguage(),
	})
}

// handleGetTranscript returns the finalized lines of the current session
func (r *Router) handleGetTranscript(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"lines": r.captions.Transcript(),
	})
}

// handleSaveTranscript writes the current transcript to a timestamped
// text file in the data directory
func (r *Router) handleSaveTranscript(w http.ResponseWriter, req *http.Request) {
	name := "transcript_" + time.Now().Format("20060102_150405") + ".txt"
	path := filepath.Join(r.cfg.DataDir, name)

	content := strings.Join(r.captions.Transcript(), "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.logger.Printf("httpapi: failed to save transcript: %v", err)
		captureError(req, err, "save transcript failed")
		http.Error(w, `{"error": "failed to save transcript"}`, http.StatusInternalServerError)
		return
	}

	r.logger.Printf("httpapi: transcript saved to %s", path)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"file_path": path,
	})
}
