package recognizer

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

type recEvent struct {
	lang string
	text string
}

// recorder collects provider callbacks for inspection.
type recorder struct {
	mu       sync.Mutex
	interims []recEvent
	finals   []recEvent
	errs     []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnInterim: func(lang, text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.interims = append(r.interims, recEvent{lang: lang, text: text})
		},
		OnFinal: func(lang, text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.finals = append(r.finals, recEvent{lang: lang, text: text})
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) interimTexts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.interims {
		out = append(out, ev.text)
	}
	return out
}

func (r *recorder) finalTexts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, ev := range r.finals {
		out = append(out, ev.text)
	}
	return out
}

func (r *recorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func (r *recorder) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.interims) + len(r.finals)
}

// blockingReader blocks Read until closed, standing in for a silent
// microphone.
type blockingReader struct {
	done chan struct{}
	once sync.Once
}

func newBlockingReader() *blockingReader {
	return &blockingReader{done: make(chan struct{})}
}

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.done
	return 0, io.EOF
}

func (b *blockingReader) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", d)
}
