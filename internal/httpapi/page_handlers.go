package httpapi

import (
	"net"
	"net/http"

	"github.com/joyfuladam/voskcaption/internal/audio"
	"github.com/joyfuladam/voskcaption/internal/web"
)

// handleProductionPage serves the chroma-key overlay view
func (r *Router) handleProductionPage(w http.ResponseWriter, req *http.Request) {
	r.renderPage(w, req, "production")
}

// handleUserPage serves the audience view. The no-store headers keep
// phones from showing a stale page when viewers rejoin mid-service.
func (r *Router) handleUserPage(w http.ResponseWriter, req *http.Request) {
	h := w.Header()
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-XSS-Protection", "1; mode=block")

	r.renderPage(w, req, "user")
}

// handleDashboardPage serves the admin control panel
func (r *Router) handleDashboardPage(w http.ResponseWriter, req *http.Request) {
	r.renderPage(w, req, "dashboard")
}

// handleSetupPage serves the provider and audio device overview
func (r *Router) handleSetupPage(w http.ResponseWriter, req *http.Request) {
	r.renderPage(w, req, "setup")
}

// handleDictionaryPage serves the correction table editor
func (r *Router) handleDictionaryPage(w http.ResponseWriter, req *http.Request) {
	r.renderPage(w, req, "dictionary")
}

func (r *Router) renderPage(w http.ResponseWriter, req *http.Request, page string) {
	data := web.PageData{
		WebsocketToken:  r.cfg.WebsocketToken,
		PrimaryLanguage: r.cfg.PrimaryLanguage,
		Provider:        r.cfg.Provider,
		Languages:       r.languageOptions(),
		DisplaySettings: r.display.Get(),
		UserSettings:    r.userPref.Get(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Render(w, page, data); err != nil {
		r.logger.Printf("httpapi: rendering %s page: %v", page, err)
		captureError(req, err, "page render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// languageOptions builds the viewer language selector from the
// dictionary, marking the current display language selected.
func (r *Router) languageOptions() []web.LanguageOption {
	current := r.captions.DisplayLanguage()

	langs := r.dict.Languages()
	if len(langs) == 0 {
		return []web.LanguageOption{{Code: current, Name: current, Selected: true}}
	}

	opts := make([]web.LanguageOption, 0, len(langs))
	for _, lang := range langs {
		opts = append(opts, web.LanguageOption{
			Code:     lang.Code,
			Name:     lang.Name,
			Selected: lang.Code == current,
		})
	}
	return opts
}

// handleGetIP reports the LAN address viewers should point at
func (r *Router) handleGetIP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"ip": outboundIP()})
}

// outboundIP finds the local address used for outgoing traffic. The
// dial never sends a packet; UDP connect just picks a route.
func outboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// handleAudioDevices lists the capture devices the recorder can use
func (r *Router) handleAudioDevices(w http.ResponseWriter, req *http.Request) {
	devices, err := audio.ListDevices(req.Context(), r.cfg.AudioListCommand)
	if err != nil {
		r.logger.Printf("httpapi: listing audio devices: %v", err)
		http.Error(w, `{"error": "failed to list audio devices"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}
