package caption

import (
	"log"
	"strings"
	"sync"
	"time"
)

// audienceView is the rolling multilingual projection behind the audience
// page. One run goroutine owns all state; timers hand their firings back
// to it as messages instead of mutating anything themselves.
//
// The auto-finalize timer is shared by every language: each interim event
// restarts the single timer, and when it fires every language holding
// interim text has that text promoted to history at once.
type audienceView struct {
	cfg    Config
	bc     Broadcaster
	logger *log.Logger

	events    chan Event
	clears    chan chan struct{}
	snaps     chan chan audienceSnapshot
	autoFires chan struct{}
	flushes   chan struct{}

	stopCh chan struct{}
	wg     sync.WaitGroup

	// state below is touched only by run.
	langs         map[string]*langState
	order         []string
	autoTimer     *time.Timer
	debounceTimer *time.Timer
	flushPending  bool
}

type langState struct {
	history       []string
	interim       string
	speechStarted time.Time
}

type audienceSnapshot struct {
	History map[string][]string
	Interim map[string]string
	Display map[string]string
}

func newAudienceView(cfg Config, bc Broadcaster, logger *log.Logger) *audienceView {
	v := &audienceView{
		cfg:       cfg,
		bc:        bc,
		logger:    logger,
		events:    make(chan Event, 64),
		clears:    make(chan chan struct{}),
		snaps:     make(chan chan audienceSnapshot),
		autoFires: make(chan struct{}, 1),
		flushes:   make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		langs:     make(map[string]*langState),
	}
	v.wg.Add(1)
	go v.run()
	return v
}

func (v *audienceView) stop() {
	close(v.stopCh)
	v.wg.Wait()
}

func (v *audienceView) enqueue(ev Event) {
	select {
	case v.events <- ev:
	case <-v.stopCh:
	}
}

func (v *audienceView) clear() {
	ack := make(chan struct{})
	select {
	case v.clears <- ack:
		<-ack
	case <-v.stopCh:
	}
}

func (v *audienceView) snapshot() audienceSnapshot {
	reply := make(chan audienceSnapshot, 1)
	select {
	case v.snaps <- reply:
		return <-reply
	case <-v.stopCh:
		return audienceSnapshot{}
	}
}

func (v *audienceView) run() {
	defer v.wg.Done()
	defer v.stopTimers()

	for {
		select {
		case ev := <-v.events:
			v.apply(ev)
		case <-v.autoFires:
			v.autoFinalize()
		case <-v.flushes:
			v.flush()
		case ack := <-v.clears:
			v.reset()
			close(ack)
		case reply := <-v.snaps:
			reply <- v.buildSnapshot()
		case <-v.stopCh:
			return
		}
	}
}

func (v *audienceView) apply(ev Event) {
	st := v.ensure(ev.Language)

	if ev.Final {
		v.promote(st, ev.Text)
		// An explicit final supersedes the pending auto-finalize.
		if v.autoTimer != nil {
			v.autoTimer.Stop()
			v.autoTimer = nil
		}
	} else {
		at := ev.At
		if at.IsZero() {
			at = time.Now()
		}
		st.interim = ev.Text
		if st.speechStarted.IsZero() {
			st.speechStarted = at
		}
		v.rescheduleAutoFinalize()
	}

	v.scheduleFlush()
}

// promote appends text to the language history unless it repeats the
// newest entry, then clears the in-flight interim line.
func (v *audienceView) promote(st *langState, text string) {
	if strings.TrimSpace(text) != "" {
		if n := len(st.history); n == 0 || st.history[n-1] != text {
			st.history = append(st.history, text)
			if n := len(st.history); n > v.cfg.AudienceMaxLines {
				st.history = st.history[n-v.cfg.AudienceMaxLines:]
			}
		}
	}
	st.interim = ""
	st.speechStarted = time.Time{}
}

// autoFinalize promotes the pending interim text of every language after
// the silence delay elapsed without an explicit final.
func (v *audienceView) autoFinalize() {
	v.autoTimer = nil
	promoted := false
	for _, lang := range v.order {
		st := v.langs[lang]
		if strings.TrimSpace(st.interim) == "" {
			continue
		}
		v.logger.Printf("caption: auto-finalizing %s after %s of silence", lang, v.cfg.AutoFinalizeDelay)
		v.promote(st, st.interim)
		promoted = true
	}
	if promoted {
		v.scheduleFlush()
	}
}

func (v *audienceView) rescheduleAutoFinalize() {
	if v.autoTimer != nil {
		v.autoTimer.Stop()
	}
	v.autoTimer = time.AfterFunc(v.cfg.AutoFinalizeDelay, func() {
		select {
		case v.autoFires <- struct{}{}:
		default:
		}
	})
}

// scheduleFlush arms the debounce timer unless a broadcast is already
// pending, so bursts of updates collapse into one send.
func (v *audienceView) scheduleFlush() {
	if v.flushPending {
		return
	}
	v.flushPending = true
	v.debounceTimer = time.AfterFunc(v.cfg.DebounceInterval, func() {
		select {
		case v.flushes <- struct{}{}:
		case <-v.stopCh:
		}
	})
}

// flush broadcasts the wrapped display text of every language holding
// history or interim text.
func (v *audienceView) flush() {
	v.flushPending = false
	v.debounceTimer = nil

	texts := make(map[string]string)
	var langs []string
	for _, lang := range v.order {
		st := v.langs[lang]
		if len(st.history) == 0 && st.interim == "" {
			continue
		}
		texts[lang] = displayText(st.history, st.interim, v.cfg.AudienceLineWidth)
		langs = append(langs, lang)
	}
	if len(texts) == 0 {
		return
	}
	v.bc.Broadcast(marshalAudience(texts, langs))
}

// reset drops all per-language state and tells viewers to blank every
// language that was on display.
func (v *audienceView) reset() {
	v.stopTimers()
	v.flushPending = false

	texts := make(map[string]string, len(v.order))
	for _, lang := range v.order {
		texts[lang] = ""
	}
	langs := v.order

	v.langs = make(map[string]*langState)
	v.order = nil

	v.bc.Broadcast(marshalAudience(texts, langs))
}

func (v *audienceView) stopTimers() {
	if v.autoTimer != nil {
		v.autoTimer.Stop()
		v.autoTimer = nil
	}
	if v.debounceTimer != nil {
		v.debounceTimer.Stop()
		v.debounceTimer = nil
	}
}

func (v *audienceView) ensure(lang string) *langState {
	if st, ok := v.langs[lang]; ok {
		return st
	}
	st := &langState{}
	v.langs[lang] = st
	v.order = append(v.order, lang)
	return st
}

func (v *audienceView) buildSnapshot() audienceSnapshot {
	snap := audienceSnapshot{
		History: make(map[string][]string, len(v.langs)),
		Interim: make(map[string]string, len(v.langs)),
		Display: make(map[string]string, len(v.langs)),
	}
	for _, lang := range v.order {
		st := v.langs[lang]
		snap.History[lang] = append([]string(nil), st.history...)
		snap.Interim[lang] = st.interim
		snap.Display[lang] = displayText(st.history, st.interim, v.cfg.AudienceLineWidth)
	}
	return snap
}
