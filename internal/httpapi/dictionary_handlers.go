package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/joyfuladam/voskcaption/internal/dictionary"
)

// handleGetDictionary returns the full correction table
func (r *Router) handleGetDictionary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, r.dict.Get())
}

// handleAddSpelling adds or updates a spelling correction
func (r *Router) handleAddSpelling(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Incorrect string `json:"incorrect"`
		Correct   string `json:"correct"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := r.dict.SetSpelling(body.Incorrect, body.Correct); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "incorrect and correct fields are required",
		})
		return
	}

	r.norm.Reload()
	r.logger.Printf("httpapi: added spelling correction %q -> %q", body.Incorrect, body.Correct)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleDeleteSpelling removes a spelling correction by its incorrect form
func (r *Router) handleDeleteSpelling(w http.ResponseWriter, req *http.Request) {
	incorrect := req.URL.Query().Get("incorrect")

	if err := r.dict.DeleteSpelling(incorrect); err != nil {
		r.dictionaryError(w, err, "spelling correction not found: "+incorrect)
		return
	}

	r.norm.Reload()
	r.logger.Printf("httpapi: deleted spelling correction %q", incorrect)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleAddPhrase adds a phrase to the recognizer hint list
func (r *Router) handleAddPhrase(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Phrase string `json:"phrase"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := r.dict.AddPhrase(body.Phrase); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "phrase field is required",
		})
		return
	}

	r.norm.Reload()
	r.logger.Printf("httpapi: added custom phrase %q", body.Phrase)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleDeletePhrase removes a phrase from the hint list
func (r *Router) handleDeletePhrase(w http.ResponseWriter, req *http.Request) {
	phrase := req.URL.Query().Get("phrase")

	if err := r.dict.DeletePhrase(phrase); err != nil {
		r.dictionaryError(w, err, "custom phrase not found: "+phrase)
		return
	}

	r.norm.Reload()
	r.logger.Printf("httpapi: deleted custom phrase %q", phrase)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleAddProperNoun records the canonical casing of a name
func (r *Router) handleAddProperNoun(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Word string `json:"word"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := r.dict.AddProperNoun(body.Word); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "word field is required",
		})
		return
	}

	r.norm.Reload()
	r.logger.Printf("httpapi: added proper noun %q", body.Word)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleDeleteProperNoun removes a proper noun
func (r *Router) handleDeleteProperNoun(w http.ResponseWriter, req *http.Request) {
	word := req.URL.Query().Get("word")

	if err := r.dict.DeleteProperNoun(word); err != nil {
		r.dictionaryError(w, err, "proper noun not found: "+word)
		return
	}

	r.norm.Reload()
	r.logger.Printf("httpapi: deleted proper noun %q", word)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleReloadDictionary re-reads the dictionary file and refreshes the
// normalizer snapshot, picking up edits made directly on disk
func (r *Router) handleReloadDictionary(w http.ResponseWriter, req *http.Request) {
	if err := r.dict.Reload(); err != nil {
		r.logger.Printf("httpapi: dictionary reload failed: %v", err)
		captureError(req, err, "dictionary reload failed")
		http.Error(w, `{"error": "failed to reload dictionary"}`, http.StatusInternalServerError)
		return
	}

	r.norm.Reload()
	r.logger.Printf("httpapi: dictionary reloaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// dictionaryError maps store errors to API responses
func (r *Router) dictionaryError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, dictionary.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFoundMsg})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
