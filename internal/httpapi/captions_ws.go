package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/joyfuladam/voskcaption/internal/broadcast"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleCaptionsWS upgrades a viewer connection and registers it with
// the broadcast hub. The socket is write-mostly: the hub pushes caption
// and settings payloads, and the read loop exists to notice disconnects
// and relay the occasional viewer message.
func (r *Router) handleCaptionsWS(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("httpapi: websocket upgrade failed: %v", err)
		return
	}

	if !r.viewerTokenValid(token) {
		r.logger.Printf("httpapi: websocket rejected: invalid token %q", token)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Invalid token")
		_ = conn.WriteMessage(websocket.CloseMessage, msg)
		_ = conn.Close()
		return
	}

	client := broadcast.NewClient(conn)
	r.hub.Register(client)
	r.logger.Printf("httpapi: websocket client connected: %s", client.ID())

	defer func() {
		r.hub.Unregister(client)
		r.logger.Printf("httpapi: websocket client disconnected: %s", client.ID())
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		r.handleViewerMessage(client, data)
	}
}

// viewerTokenValid accepts the static viewer token or a minted admin
// token. An empty configured token leaves the socket open.
func (r *Router) viewerTokenValid(token string) bool {
	if r.cfg.WebsocketToken == "" {
		return true
	}
	if equalSecret(token, r.cfg.WebsocketToken) {
		return true
	}
	_, err := r.parseToken(token)
	return err == nil
}

// handleViewerMessage relays a viewer-sent message to every connected
// client as a plain caption. Language change requests are logged and
// ignored; the display language only moves through the REST endpoint.
func (r *Router) handleViewerMessage(client *broadcast.Client, data []byte) {
	var msg struct {
		Type     string `json:"type"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(data, &msg); err == nil && msg.Type == "language" {
		r.logger.Printf("httpapi: ignoring language change from viewer %s: %s", client.ID(), msg.Language)
		return
	}

	payload := map[string]any{"type": "caption"}
	if json.Valid(data) {
		payload["text"] = json.RawMessage(data)
	} else {
		payload["text"] = string(data)
	}
	out, _ := json.Marshal(payload)
	r.hub.Broadcast(out)
}
