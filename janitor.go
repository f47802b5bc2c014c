package objpool

import (
	"log/slog"
	"sync"
	"time"
)

// synchronizedPool is the subset of syncpool.SynchronizedPool's surface a
// Janitor needs. Defined here, rather than importing the syncpool
// subpackage, to avoid a dependency cycle (syncpool already imports objpool).
type synchronizedPool interface {
	FreeEmptyPages() int
}

// Janitor periodically reclaims empty pages from a synchronized pool in
// the background, grounded on the teacher's bucketCompactionWorker sketch:
// a ticker-driven loop that calls FreeEmptyPages on every tick and logs
// only when that released at least one page.
type Janitor struct {
	pool     synchronizedPool
	interval time.Duration
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewJanitor starts a background goroutine calling pool.FreeEmptyPages
// every interval. logger may be nil, in which case slog.Default is used.
func NewJanitor(pool synchronizedPool, interval time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Janitor{
		pool:     pool,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go j.run()
	return j
}

func (j *Janitor) run() {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ticker.C:
			if released := j.pool.FreeEmptyPages(); released > 0 {
				j.logger.Debug("objpool: janitor reclaimed empty pages", "released", released)
			}
		}
	}
}

// Stop terminates the background goroutine and waits for it to exit. It is
// idempotent.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopCh)
	})
	<-j.doneCh
}
