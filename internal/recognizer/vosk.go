package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// VoskConfig holds the settings for a vosk-server connection.
type VoskConfig struct {
	URL        string // websocket endpoint, e.g. ws://127.0.0.1:2700
	Language   string // language tag stamped on emitted events
	SampleRate int
	ChunkSize  int      // bytes of audio per websocket frame
	Phrases    []string // phrase hints sent with the handshake
}

func (c VoskConfig) withDefaults() VoskConfig {
	if c.URL == "" {
		c.URL = "ws://127.0.0.1:2700"
	}
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 4000
	}
	return c
}

// voskHandshake is the configuration message vosk-server expects as
// the first frame of a session.
type voskHandshake struct {
	Config voskHandshakeConfig `json:"config"`
}

type voskHandshakeConfig struct {
	SampleRate int      `json:"sample_rate"`
	PhraseList []string `json:"phrase_list,omitempty"`
}

type voskResult struct {
	Partial string `json:"partial"`
	Text    string `json:"text"`
}

// Vosk streams capture audio to a vosk-server instance and relays its
// partial and final results. A session that dies mid-recognition is
// dropped so a later Start builds a fresh one.
type Vosk struct {
	cfg    VoskConfig
	source AudioSource
	cb     Callbacks
	logger *log.Logger

	mu     sync.Mutex
	stream *audioStream
}

func NewVosk(cfg VoskConfig, source AudioSource, cb Callbacks, logger *log.Logger) *Vosk {
	return &Vosk{cfg: cfg.withDefaults(), source: source, cb: cb, logger: logger}
}

func (v *Vosk) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.stream != nil {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, v.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("recognizer: connecting to vosk at %s: %w", v.cfg.URL, err)
	}

	handshake := voskHandshake{}
	handshake.Config.SampleRate = v.cfg.SampleRate
	handshake.Config.PhraseList = v.cfg.Phrases
	if err := conn.WriteJSON(handshake); err != nil {
		_ = conn.Close()
		return fmt.Errorf("recognizer: sending vosk handshake: %w", err)
	}

	audio, err := v.source.Open(ctx)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("recognizer: opening audio source: %w", err)
	}

	var s *audioStream
	s = newAudioStream(conn, audio, v.cfg.ChunkSize, []byte(`{"eof" : 1}`), v.handleFrame, func(err error) {
		v.drop(s)
		v.cb.emitError(err)
	})

	v.mu.Lock()
	v.stream = s
	v.mu.Unlock()

	s.start()
	v.logger.Printf("recognizer: vosk session started (%s)", v.cfg.URL)
	return nil
}

// Stop ends the session. No callback fires after Stop returns.
func (v *Vosk) Stop() {
	v.mu.Lock()
	s := v.stream
	v.stream = nil
	v.mu.Unlock()

	if s != nil {
		s.shutdown()
		v.logger.Printf("recognizer: vosk session stopped")
	}
}

func (v *Vosk) drop(s *audioStream) {
	v.mu.Lock()
	if v.stream == s {
		v.stream = nil
	}
	v.mu.Unlock()
}

func (v *Vosk) handleFrame(frame []byte) {
	var res voskResult
	if err := json.Unmarshal(frame, &res); err != nil {
		v.logger.Printf("recognizer: dropping unparseable vosk frame: %v", err)
		return
	}
	switch {
	case res.Text != "":
		v.cb.emitFinal(v.cfg.Language, res.Text)
	case res.Partial != "":
		v.cb.emitInterim(v.cfg.Language, res.Partial)
	}
}
