package jobs

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

// LiveSessions reports the session currently being recorded, if any.
type LiveSessions interface {
	Live() *session.Session
}

// ProgressTicker periodically republishes the live session's snapshot so
// observers see elapsed time and stage timing move between audio windows.
type ProgressTicker struct {
	sessions LiveSessions
	logger   *log.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewProgressTicker creates a new ticker. A zero interval defaults to 15s.
func NewProgressTicker(sessions LiveSessions, logger *log.Logger, interval time.Duration) *ProgressTicker {
	if interval == 0 {
		interval = 15 * time.Second
	}
	return &ProgressTicker{
		sessions: sessions,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background job.
func (j *ProgressTicker) Start() {
	j.wg.Add(1)
	go j.run()
	j.logger.Printf("ProgressTicker: started (interval=%v)", j.interval)
}

// Stop gracefully stops the background job.
func (j *ProgressTicker) Stop() {
	close(j.stopCh)
	j.wg.Wait()
	j.logger.Println("ProgressTicker: stopped")
}

func (j *ProgressTicker) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.tick()
		case <-j.stopCh:
			return
		}
	}
}

// tick queues a refresh on the live session. A worker with queued jobs is
// about to publish anyway, so the tick is skipped.
func (j *ProgressTicker) tick() {
	live := j.sessions.Live()
	if live == nil || live.Pending() > 0 {
		return
	}
	_, err := live.Refresh()
	switch {
	case err == nil, errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrClosed):
	default:
		j.logger.Printf("ProgressTicker: refresh failed for session %s: %v", live.ID(), err)
	}
}
