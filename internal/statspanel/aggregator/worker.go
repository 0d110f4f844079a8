package aggregator

import (
	"context"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/statspanel/statspanel/internal/statspanel/domain"
	"github.com/statspanel/statspanel/internal/statspanel/metrics"
	"github.com/statspanel/statspanel/internal/statspanel/queue"
)

// Processor runs one event through aggregation to completion.
type Processor interface {
	Process(ctx context.Context, event *domain.ResultEvent) error
}

// Worker is the single consumer of the ingestion queue. It is driven by a
// fixed-period tick and processes at most one event at a time: a CAS on the
// busy flag is the exclusion mechanism, and the watchdog counter only exists
// to force a dead cycle back to idle so the pipeline keeps moving. An event
// popped while a cycle is still in flight goes back to the tail of the queue.
//
// A failed or panicked cycle drops its event: there is no retry and no dead
// letter, only a log line and a counter.
type Worker struct {
	queue         *queue.Queue
	processor     Processor
	watchdogLimit int32
	busy          int32
	watchdog      int32
}

func NewWorker(q *queue.Queue, processor Processor, watchdogLimit int) *Worker {
	return &Worker{
		queue:         q,
		processor:     processor,
		watchdogLimit: int32(watchdogLimit),
		watchdog:      int32(watchdogLimit),
	}
}

// Tick runs one worker cycle. Safe to call from a single scheduling goroutine
// while a previous cycle's processing is still in flight.
func (w *Worker) Tick() {
	if event, ok := w.queue.TryDequeue(); ok {
		if atomic.CompareAndSwapInt32(&w.busy, 0, 1) {
			go w.run(event)
		} else {
			// a cycle is still in flight; give the event back and count down
			// towards a forced reset
			w.queue.Enqueue(event)
			metrics.RecordEventRequeued()
			atomic.AddInt32(&w.watchdog, -1)
		}
	}

	if atomic.LoadInt32(&w.watchdog) <= 0 {
		log.Warn("Aggregation worker appears stuck, forcing it back to idle")
		metrics.RecordWatchdogReset()
		atomic.StoreInt32(&w.watchdog, w.watchdogLimit)
		atomic.StoreInt32(&w.busy, 0)
	}
}

func (w *Worker) run(event *domain.ResultEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Aggregation of event %s panicked: %v", event.Hash, r)
			metrics.RecordEventFailed()
		}
		atomic.StoreInt32(&w.watchdog, w.watchdogLimit)
		atomic.StoreInt32(&w.busy, 0)
	}()

	if err := w.processor.Process(context.Background(), event); err != nil {
		log.WithError(err).Errorf("Dropping result event for user %s with hash %s", event.Uniid, event.Hash)
		metrics.RecordEventFailed()
		return
	}
	metrics.RecordEventProcessed()
}
