package caption

import (
	"log"
	"sync"
	"time"
)

// productionView is the fresh-line projection driving the broadcast
// overlay. All state is owned by its run goroutine; provider callbacks,
// the pause check and control calls reach it as messages, so mutations
// never race.
type productionView struct {
	cfg    Config
	bc     Broadcaster
	logger *log.Logger

	events chan Event
	clears chan chan struct{}
	snaps  chan chan productionSnapshot

	stopCh chan struct{}
	wg     sync.WaitGroup

	// state below is touched only by run.
	currentLine string
	context     string
	transcript  []string
	lastEventAt time.Time
}

type productionSnapshot struct {
	CurrentLine string
	Context     string
	Transcript  []string
}

func newProductionView(cfg Config, bc Broadcaster, logger *log.Logger) *productionView {
	v := &productionView{
		cfg:    cfg,
		bc:     bc,
		logger: logger,
		events: make(chan Event, 64),
		clears: make(chan chan struct{}),
		snaps:  make(chan chan productionSnapshot),
		stopCh: make(chan struct{}),
	}
	v.wg.Add(1)
	go v.run()
	return v
}

func (v *productionView) stop() {
	close(v.stopCh)
	v.wg.Wait()
}

func (v *productionView) enqueue(ev Event) {
	select {
	case v.events <- ev:
	case <-v.stopCh:
	}
}

// clear empties the projection and returns once the worker has processed
// the request and told viewers to blank the line.
func (v *productionView) clear() {
	ack := make(chan struct{})
	select {
	case v.clears <- ack:
		<-ack
	case <-v.stopCh:
	}
}

func (v *productionView) snapshot() productionSnapshot {
	reply := make(chan productionSnapshot, 1)
	select {
	case v.snaps <- reply:
		return <-reply
	case <-v.stopCh:
		return productionSnapshot{}
	}
}

func (v *productionView) run() {
	defer v.wg.Done()

	ticker := time.NewTicker(pauseCheckInterval(v.cfg.PauseThreshold))
	defer ticker.Stop()

	for {
		select {
		case ev := <-v.events:
			v.apply(ev)
		case <-ticker.C:
			v.checkPause()
		case ack := <-v.clears:
			v.reset()
			v.bc.Broadcast(marshalProduction(v.cfg.PrimaryLanguage, ""))
			close(ack)
		case reply := <-v.snaps:
			reply <- productionSnapshot{
				CurrentLine: v.currentLine,
				Context:     v.context,
				Transcript:  append([]string(nil), v.transcript...),
			}
		case <-v.stopCh:
			return
		}
	}
}

// apply shows the tail line of the utterance and, for finals, records the
// full text in the transcript and the running context.
func (v *productionView) apply(ev Event) {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	v.lastEventAt = at
	v.currentLine = lastLine(ev.Text, v.cfg.ProductionLineWidth)

	if ev.Final {
		v.transcript = append(v.transcript, ev.Text)
		if n := len(v.transcript); n > v.cfg.MaxTranscriptLines {
			v.transcript = v.transcript[n-v.cfg.MaxTranscriptLines:]
		}
		if v.context == "" {
			v.context = ev.Text
		} else {
			v.context += " " + ev.Text
		}
	}

	v.bc.Broadcast(marshalProduction(v.cfg.PrimaryLanguage, v.currentLine))
}

// checkPause blanks the displayed line after a silence gap. The transcript
// and context are kept; only the on-screen line goes away.
func (v *productionView) checkPause() {
	if v.currentLine == "" {
		return
	}
	if time.Since(v.lastEventAt) <= v.cfg.PauseThreshold {
		return
	}
	v.logger.Printf("caption: pause detected, clearing production line")
	v.currentLine = ""
	v.bc.Broadcast(marshalProduction(v.cfg.PrimaryLanguage, ""))
}

func (v *productionView) reset() {
	v.currentLine = ""
	v.context = ""
	v.transcript = nil
	v.lastEventAt = time.Time{}
}

func pauseCheckInterval(threshold time.Duration) time.Duration {
	interval := threshold / 4
	if interval < 25*time.Millisecond {
		interval = 25 * time.Millisecond
	}
	if interval > time.Second {
		interval = time.Second
	}
	return interval
}
