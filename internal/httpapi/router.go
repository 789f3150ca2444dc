// Package httpapi serves the admin API, the viewer pages and the
// caption websocket.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joyfuladam/voskcaption/internal/archive"
	"github.com/joyfuladam/voskcaption/internal/broadcast"
	"github.com/joyfuladam/voskcaption/internal/caption"
	"github.com/joyfuladam/voskcaption/internal/dictionary"
	"github.com/joyfuladam/voskcaption/internal/schedule"
	"github.com/joyfuladam/voskcaption/internal/settings"
)

type RouterConfig struct {
	// Admin access (HTTP basic or a minted bearer token)
	AdminUsername string
	AdminPassword string

	// Viewer websocket access. Empty means the socket is open.
	WebsocketToken string

	// JWT authentication for the dashboard clients
	JWTSecret string
	JWTExpiry time.Duration

	// Saved transcripts land here
	DataDir string

	// Audio device listing command (arecord -l style output)
	AudioListCommand string

	// Shown on the setup page
	Provider        string
	PrimaryLanguage string
}

// CaptionService drives the live caption engine. The app layer wraps
// the engine so session recording and notifications ride along with
// start and stop.
type CaptionService interface {
	Start(ctx context.Context) error
	Stop()
	Clear()
	Status() caption.Status
	SetDisplayLanguage(lang string) error
	DisplayLanguage() string
	Transcript() []string
}

// Deps are the collaborators the handlers talk to.
type Deps struct {
	Captions   CaptionService
	Hub        *broadcast.Hub
	Dictionary *dictionary.Store
	Normalizer *dictionary.Normalizer
	Display    *settings.Store
	UserPrefs  *settings.Store
	Schedules  *schedule.Store
	Archive    *archive.Store
}

type Router struct {
	cfg      RouterConfig
	logger   *log.Logger
	captions CaptionService
	hub      *broadcast.Hub
	dict     *dictionary.Store
	norm     *dictionary.Normalizer
	display  *settings.Store
	userPref *settings.Store
	sched    *schedule.Store
	arch     *archive.Store
	mux      *http.ServeMux
}

func NewRouter(cfg RouterConfig, deps Deps, logger *log.Logger) http.Handler {
	r := &Router{
		cfg:      cfg,
		logger:   logger,
		captions: deps.Captions,
		hub:      deps.Hub,
		dict:     deps.Dictionary,
		norm:     deps.Normalizer,
		display:  deps.Display,
		userPref: deps.UserPrefs,
		sched:    deps.Schedules,
		arch:     deps.Archive,
		mux:      http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Viewer pages and helpers (no auth)
	r.mux.HandleFunc("GET /{$}", r.handleProductionPage)
	r.mux.HandleFunc("GET /user", r.handleUserPage)
	r.mux.HandleFunc("GET /setup", r.handleSetupPage)
	r.mux.HandleFunc("GET /get_ip", r.handleGetIP)
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	r.mux.HandleFunc("GET /favicon.ico", r.handleFavicon)
	r.mux.HandleFunc("GET /audio_devices", r.handleAudioDevices)

	// Admin pages
	r.mux.HandleFunc("GET /dashboard", r.withAdmin(r.handleDashboardPage))
	r.mux.HandleFunc("GET /dictionary_page", r.withAdmin(r.handleDictionaryPage))

	// Auth
	r.mux.HandleFunc("POST /auth/token", r.handleMintToken)

	// Caption stream and viewer endpoints (no auth)
	r.mux.HandleFunc("GET /ws/captions", r.handleCaptionsWS)
	r.mux.HandleFunc("POST /set_user_language", r.handleSetUserLanguage)
	r.mux.HandleFunc("POST /save_transcript", r.handleSaveTranscript)
	r.mux.HandleFunc("GET /user_settings_public", r.handleGetUserSettings)
	r.mux.HandleFunc("POST /user_settings_public", r.handleSetUserSettings)

	// Caption control (admin)
	r.mux.HandleFunc("POST /start_recognition", r.withAdmin(r.handleStartRecognition))
	r.mux.HandleFunc("POST /stop_recognition", r.withAdmin(r.handleStopRecognition))
	r.mux.HandleFunc("POST /clear_production_captions", r.withAdmin(r.handleClearCaptions))
	r.mux.HandleFunc("GET /recognition_status", r.withAdmin(r.handleRecognitionStatus))
	r.mux.HandleFunc("GET /transcript", r.withAdmin(r.handleGetTranscript))

	// Display settings (admin)
	r.mux.HandleFunc("GET /settings", r.withAdmin(r.handleGetSettings))
	r.mux.HandleFunc("POST /settings", r.withAdmin(r.handleSetSettings))
	r.mux.HandleFunc("GET /user_settings", r.withAdmin(r.handleGetUserSettings))
	r.mux.HandleFunc("POST /user_settings", r.withAdmin(r.handleSetUserSettings))

	// Dictionary (admin)
	r.mux.HandleFunc("GET /dictionary", r.withAdmin(r.handleGetDictionary))
	r.mux.HandleFunc("POST /dictionary/spelling", r.withAdmin(r.handleAddSpelling))
	r.mux.HandleFunc("DELETE /dictionary/spelling", r.withAdmin(r.handleDeleteSpelling))
	r.mux.HandleFunc("POST /dictionary/phrase", r.withAdmin(r.handleAddPhrase))
	r.mux.HandleFunc("DELETE /dictionary/phrase", r.withAdmin(r.handleDeletePhrase))
	r.mux.HandleFunc("POST /dictionary/proper_noun", r.withAdmin(r.handleAddProperNoun))
	r.mux.HandleFunc("DELETE /dictionary/proper_noun", r.withAdmin(r.handleDeleteProperNoun))
	r.mux.HandleFunc("POST /dictionary/reload", r.withAdmin(r.handleReloadDictionary))

	// Schedule (admin)
	r.mux.HandleFunc("GET /schedule", r.withAdmin(r.handleGetSchedule))
	r.mux.HandleFunc("POST /schedule", r.withAdmin(r.handleSetSchedule))
	r.mux.HandleFunc("DELETE /schedule", r.withAdmin(r.handleDeleteSchedule))
	r.mux.HandleFunc("GET /schedule/recurrence_options", r.withAdmin(r.handleRecurrenceOptions))

	// Session archive (admin)
	r.mux.HandleFunc("GET /admin/sessions", r.withAdmin(r.handleListSessions))
	r.mux.HandleFunc("GET /admin/sessions/{id}", r.withAdmin(r.handleGetSession))
	r.mux.HandleFunc("GET /admin/sessions/{id}/events", r.withAdmin(r.handleSessionEvents))
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
