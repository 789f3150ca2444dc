package caption

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeProvider struct {
	mu       sync.Mutex
	startErr error
	starts   int
	stops    int
}

func (p *fakeProvider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts++
	return p.startErr
}

func (p *fakeProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *fakeProvider) counts() (starts, stops int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.starts, p.stops
}

type replaceNorm struct{ old, new string }

func (n replaceNorm) Normalize(s string) string { return strings.ReplaceAll(s, n.old, n.new) }

func newTestEngine(t *testing.T, norm Normalizer, bc *captureBC) *Engine {
	t.Helper()
	e := NewEngine(Config{
		PauseThreshold:    time.Hour,
		AutoFinalizeDelay: time.Hour,
		DebounceInterval:  10 * time.Millisecond,
	}, norm, bc, testLogger())
	t.Cleanup(e.Close)
	return e
}

func TestEngineStartStop(t *testing.T) {
	bc := &captureBC{}
	e := newTestEngine(t, nil, bc)
	p := &fakeProvider{}
	e.SetProvider(p)

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if got := e.Status(); !got.IsRecognizing || !got.ShouldBeRecognizing {
		t.Errorf("status after start = %+v, want both true", got)
	}
	if !containsProduction(t, bc, "en-US", "Listening...") {
		t.Error("start did not announce Listening...")
	}

	// Starting while already running is a no-op.
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("second Start() = %v", err)
	}
	if starts, _ := p.counts(); starts != 1 {
		t.Errorf("provider starts = %d, want 1", starts)
	}

	e.Stop()
	if got := e.Status(); got.IsRecognizing || got.ShouldBeRecognizing {
		t.Errorf("status after stop = %+v, want both false", got)
	}
	if _, stops := p.counts(); stops == 0 {
		t.Error("provider was not stopped")
	}
	if !containsProduction(t, bc, "en-US", "Recognition stopped.") {
		t.Error("stop did not announce Recognition stopped.")
	}
}

func TestEngineStartRetriesThenFails(t *testing.T) {
	bc := &captureBC{}
	e := newTestEngine(t, nil, bc)
	startErr := errors.New("connection refused")
	p := &fakeProvider{startErr: startErr}
	e.SetProvider(p)

	err := e.Start(context.Background())
	if err == nil {
		t.Fatal("Start() = nil, want error")
	}
	if !errors.Is(err, startErr) {
		t.Errorf("Start() = %v, want wrapped %v", err, startErr)
	}
	if starts, _ := p.counts(); starts != 3 {
		t.Errorf("provider starts = %d, want 3", starts)
	}
	if got := e.Status(); got.IsRecognizing || got.ShouldBeRecognizing {
		t.Errorf("status after failed start = %+v, want both false", got)
	}
	if !containsProduction(t, bc, "en-US", "Error: Failed to start speech recognition.") {
		t.Error("failed start did not announce the error")
	}
}

func TestEngineStartWithoutProvider(t *testing.T) {
	e := newTestEngine(t, nil, &captureBC{})
	if err := e.Start(context.Background()); err == nil {
		t.Fatal("Start() without provider = nil, want error")
	}
}

func TestEngineProviderErrorKeepsIntent(t *testing.T) {
	bc := &captureBC{}
	e := newTestEngine(t, nil, bc)
	e.SetProvider(&fakeProvider{})

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}

	e.HandleProviderError(errors.New("socket closed"))

	got := e.Status()
	if got.IsRecognizing {
		t.Error("IsRecognizing = true after provider error, want false")
	}
	if !got.ShouldBeRecognizing {
		t.Error("ShouldBeRecognizing = false after provider error, want true")
	}
	if !containsProduction(t, bc, "en-US", "Recognition error: socket closed") {
		t.Error("provider error was not announced")
	}
}

func TestEngineRoutesAudienceByDisplayLanguage(t *testing.T) {
	bc := &captureBC{}
	e := newTestEngine(t, nil, bc)

	e.HandleFinal("en-US", "hello")
	waitFor(t, 2*time.Second, func() bool {
		text, ok := lastUser(t, bc, "en-US")
		return ok && text == "hello"
	})

	// A language other than the selected one reaches production only.
	e.HandleFinal("fr-FR", "bonjour")
	waitFor(t, 2*time.Second, func() bool {
		return containsProduction(t, bc, "en-US", "bonjour")
	})
	time.Sleep(100 * time.Millisecond)
	if _, ok := lastUser(t, bc, "fr-FR"); ok {
		t.Error("fr-FR reached the audience view while en-US was selected")
	}

	if err := e.SetDisplayLanguage("fr-FR"); err != nil {
		t.Fatalf("SetDisplayLanguage(fr-FR) = %v", err)
	}
	e.HandleFinal("fr-FR", "bonjour encore")
	waitFor(t, 2*time.Second, func() bool {
		text, ok := lastUser(t, bc, "fr-FR")
		return ok && text == "bonjour encore"
	})
}

func TestEngineSetDisplayLanguage(t *testing.T) {
	e := newTestEngine(t, nil, &captureBC{})

	if err := e.SetDisplayLanguage("not a language"); err == nil {
		t.Error("SetDisplayLanguage(invalid) = nil, want error")
	}
	if got := e.DisplayLanguage(); got != "en-US" {
		t.Errorf("display language after invalid set = %q, want en-US", got)
	}

	if err := e.SetDisplayLanguage("es-es"); err != nil {
		t.Fatalf("SetDisplayLanguage(es-es) = %v", err)
	}
	if got := e.DisplayLanguage(); got != "es-ES" {
		t.Errorf("display language = %q, want canonical es-ES", got)
	}
}

func TestEngineNormalizesText(t *testing.T) {
	bc := &captureBC{}
	e := newTestEngine(t, replaceNorm{old: "teh", new: "the"}, bc)

	e.HandleFinal("", "teh word")
	waitFor(t, 2*time.Second, func() bool {
		return containsProduction(t, bc, "en-US", "the word")
	})
}

func TestEngineDropsBlankText(t *testing.T) {
	bc := &captureBC{}
	e := newTestEngine(t, nil, bc)

	e.HandleFinal("", "   ")
	e.HandleInterim("", "")

	time.Sleep(100 * time.Millisecond)
	if got := bc.count(); got != 0 {
		t.Errorf("broadcast count = %d, want 0", got)
	}
}

func TestEngineTranscriptSurvivesRestart(t *testing.T) {
	bc := &captureBC{}
	e := newTestEngine(t, nil, bc)
	e.SetProvider(&fakeProvider{})

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	e.HandleFinal("", "first line")
	waitFor(t, 2*time.Second, func() bool { return len(e.Transcript()) == 1 })

	e.Stop()
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("restart = %v", err)
	}
	e.HandleFinal("", "second line")
	waitFor(t, 2*time.Second, func() bool { return len(e.Transcript()) == 2 })

	want := []string{"first line", "second line"}
	if got := e.Transcript(); !reflect.DeepEqual(got, want) {
		t.Errorf("transcript = %v, want %v", got, want)
	}
	if got, want := e.Context(), "first line second line"; got != want {
		t.Errorf("context = %q, want %q", got, want)
	}
}
