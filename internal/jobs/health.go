package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// HealthJob restarts recognition when the engine is supposed to be
// running but its provider session has died.
type HealthJob struct {
	engine   CaptionControl
	logger   *log.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewHealthJob creates a new health monitor job.
func NewHealthJob(engine CaptionControl, logger *log.Logger, interval time.Duration) *HealthJob {
	if interval == 0 {
		interval = time.Minute
	}
	return &HealthJob{
		engine:   engine,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background job.
func (j *HealthJob) Start() {
	j.wg.Add(1)
	go j.run()
	j.logger.Printf("HealthJob: started (interval=%v)", j.interval)
}

// Stop gracefully stops the background job.
func (j *HealthJob) Stop() {
	close(j.stopCh)
	j.wg.Wait()
	j.logger.Println("HealthJob: stopped")
}

func (j *HealthJob) run() {
	defer j.wg.Done()

	j.check()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.check()
		case <-j.stopCh:
			return
		}
	}
}

func (j *HealthJob) check() {
	status := j.engine.Status()
	if status.IsRecognizing || !status.ShouldBeRecognizing {
		return
	}
	j.logger.Println("HealthJob: recognition down but expected up; restarting")
	if err := j.engine.Start(context.Background()); err != nil {
		j.logger.Printf("HealthJob: restart failed: %v", err)
	}
}
