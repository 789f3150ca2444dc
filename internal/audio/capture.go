// Package audio captures raw microphone PCM through an external
// capture command, arecord by default.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"
)

// Config holds the capture command settings.
type Config struct {
	Command    string // capture binary, default arecord
	Device     string // ALSA device name, empty for the system default
	SampleRate int
}

func (c Config) withDefaults() Config {
	if c.Command == "" {
		c.Command = "arecord"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	return c
}

// Recorder opens capture streams for the speech providers. It
// satisfies their AudioSource dependency.
type Recorder struct {
	cfg    Config
	logger *log.Logger
}

func NewRecorder(cfg Config, logger *log.Logger) *Recorder {
	return &Recorder{cfg: cfg.withDefaults(), logger: logger}
}

// Open starts the capture command and returns its raw PCM output:
// signed 16-bit little-endian mono at the configured rate. Closing the
// stream kills the process.
func (r *Recorder) Open(ctx context.Context) (io.ReadCloser, error) {
	args := []string{"-q", "-f", "S16_LE", "-r", strconv.Itoa(r.cfg.SampleRate), "-c", "1", "-t", "raw"}
	if r.cfg.Device != "" {
		args = append(args, "-D", r.cfg.Device)
	}

	// The capture process outlives the request that started
	// recognition, so it carries its own cancellation.
	runCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(runCtx, r.cfg.Command, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("audio: piping %s: %w", r.cfg.Command, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("audio: starting %s: %w", r.cfg.Command, err)
	}

	r.logger.Printf("audio: capture started (%s, %d Hz, device %q)", r.cfg.Command, r.cfg.SampleRate, r.cfg.Device)
	return &captureStream{out: stdout, cmd: cmd, cancel: cancel}, nil
}

type captureStream struct {
	out    io.ReadCloser
	cmd    *exec.Cmd
	cancel context.CancelFunc
	once   sync.Once
}

func (s *captureStream) Read(p []byte) (int, error) {
	return s.out.Read(p)
}

func (s *captureStream) Close() error {
	s.once.Do(func() {
		s.cancel()
		_ = s.cmd.Wait()
	})
	return nil
}
