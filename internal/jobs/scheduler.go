// Package jobs holds the background loops that drive the caption
// engine: the schedule matcher and the recognition health monitor.
package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/joyfuladam/voskcaption/internal/caption"
	"github.com/joyfuladam/voskcaption/internal/schedule"
)

// CaptionControl is the slice of the caption engine the background
// jobs drive.
type CaptionControl interface {
	Start(ctx context.Context) error
	Stop()
	Status() caption.Status
}

// SchedulerJob walks the schedule store once per tick and starts or
// stops recognition when an entry's start or stop minute arrives.
type SchedulerJob struct {
	schedules *schedule.Store
	engine    CaptionControl
	logger    *log.Logger
	interval  time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// lastMinute dedupes ticks that land in the same minute, so an
	// entry fires once even though the interval is shorter than the
	// match resolution.
	lastMinute string
}

// NewSchedulerJob creates a new scheduler job.
func NewSchedulerJob(schedules *schedule.Store, engine CaptionControl, logger *log.Logger, interval time.Duration) *SchedulerJob {
	if interval == 0 {
		interval = 20 * time.Second
	}
	return &SchedulerJob{
		schedules: schedules,
		engine:    engine,
		logger:    logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background job.
func (j *SchedulerJob) Start() {
	j.wg.Add(1)
	go j.run()
	j.logger.Printf("SchedulerJob: started (interval=%v)", j.interval)
}

// Stop gracefully stops the background job.
func (j *SchedulerJob) Stop() {
	close(j.stopCh)
	j.wg.Wait()
	j.logger.Println("SchedulerJob: stopped")
}

func (j *SchedulerJob) run() {
	defer j.wg.Done()

	j.tick(time.Now())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.tick(time.Now())
		case <-j.stopCh:
			return
		}
	}
}

func (j *SchedulerJob) tick(now time.Time) {
	minute := now.Format("2006-01-02 15:04")
	if minute == j.lastMinute {
		return
	}
	j.lastMinute = minute

	for _, entry := range j.schedules.List() {
		action, due := entry.DueAt(now)
		if !due {
			continue
		}
		switch action {
		case schedule.ActionStart:
			j.logger.Printf("SchedulerJob: starting recognition for %s at %s", entry.Date, entry.StartTime)
			if err := j.engine.Start(context.Background()); err != nil {
				j.logger.Printf("SchedulerJob: scheduled start failed: %v", err)
			}
		case schedule.ActionStop:
			j.logger.Printf("SchedulerJob: stopping recognition for %s at %s", entry.Date, entry.StopTime)
			j.engine.Stop()
		}
	}
}
