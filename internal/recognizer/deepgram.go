package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

const deepgramWSURL = "wss://api.deepgram.com/v1/listen"

// DeepgramConfig holds the settings for Deepgram's streaming API.
type DeepgramConfig struct {
	APIKey     string
	Language   string
	Model      string // e.g. "nova-2"
	SampleRate int
	ChunkSize  int
	Keywords   []string // recognition hints, fed from the custom phrase list
}

func (c DeepgramConfig) withDefaults() DeepgramConfig {
	if c.Language == "" {
		c.Language = "en-US"
	}
	if c.Model == "" {
		c.Model = "nova-2"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 4000
	}
	return c
}

type deepgramResponse struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal     bool `json:"is_final"`
	SpeechFinal bool `json:"speech_final"`
}

// Deepgram streams capture audio to Deepgram and relays its interim
// and final results.
type Deepgram struct {
	cfg    DeepgramConfig
	source AudioSource
	cb     Callbacks
	logger *log.Logger

	mu     sync.Mutex
	stream *audioStream
}

func NewDeepgram(cfg DeepgramConfig, source AudioSource, cb Callbacks, logger *log.Logger) *Deepgram {
	return &Deepgram{cfg: cfg.withDefaults(), source: source, cb: cb, logger: logger}
}

func (d *Deepgram) Start(ctx context.Context) error {
	if d.cfg.APIKey == "" {
		return fmt.Errorf("recognizer: deepgram API key is not set")
	}

	d.mu.Lock()
	if d.stream != nil {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.streamURL(), headers)
	if err != nil {
		return fmt.Errorf("recognizer: connecting to deepgram: %w", err)
	}

	audio, err := d.source.Open(ctx)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("recognizer: opening audio source: %w", err)
	}

	var s *audioStream
	s = newAudioStream(conn, audio, d.cfg.ChunkSize, []byte(`{"type": "CloseStream"}`), d.handleFrame, func(err error) {
		d.drop(s)
		d.cb.emitError(err)
	})

	d.mu.Lock()
	d.stream = s
	d.mu.Unlock()

	s.start()
	d.logger.Printf("recognizer: deepgram session started (model %s)", d.cfg.Model)
	return nil
}

// Stop ends the session. No callback fires after Stop returns.
func (d *Deepgram) Stop() {
	d.mu.Lock()
	s := d.stream
	d.stream = nil
	d.mu.Unlock()

	if s != nil {
		s.shutdown()
		d.logger.Printf("recognizer: deepgram session stopped")
	}
}

func (d *Deepgram) drop(s *audioStream) {
	d.mu.Lock()
	if d.stream == s {
		d.stream = nil
	}
	d.mu.Unlock()
}

func (d *Deepgram) streamURL() string {
	u := fmt.Sprintf("%s?model=%s&language=%s&encoding=linear16&sample_rate=%d&channels=1&punctuate=true&interim_results=true",
		deepgramWSURL,
		url.QueryEscape(d.cfg.Model),
		url.QueryEscape(d.cfg.Language),
		d.cfg.SampleRate,
	)
	for _, keyword := range d.cfg.Keywords {
		u += "&keywords=" + url.QueryEscape(keyword)
	}
	return u
}

func (d *Deepgram) handleFrame(frame []byte) {
	var resp deepgramResponse
	if err := json.Unmarshal(frame, &resp); err != nil {
		d.logger.Printf("recognizer: dropping unparseable deepgram frame: %v", err)
		return
	}
	if resp.Type != "Results" || len(resp.Channel.Alternatives) == 0 {
		return
	}
	text := resp.Channel.Alternatives[0].Transcript
	if text == "" {
		return
	}
	if resp.IsFinal {
		d.cb.emitFinal(d.cfg.Language, text)
	} else {
		d.cb.emitInterim(d.cfg.Language, text)
	}
}
