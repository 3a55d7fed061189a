package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/onekingdom/assessment-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
	sendTimeout    = 15 * time.Second
)

// Dispatcher routes accepted coach notifications to a fixed set of workers
// using consistent hashing on the assessment id, guaranteeing per-assessment
// delivery ordering. Notifications reach the dispatcher only after the
// throttle gate accepted them; a failed delivery is logged, not retried —
// the cooldown window was already claimed.
type Dispatcher struct {
	workers  []chan ports.Notification
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.Notification, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Configured reports whether the underlying transport is available.
func (d *Dispatcher) Configured() bool {
	return d.notifier.Configured()
}

// Enqueue hands a notification to the worker responsible for its assessment.
// Never blocks the caller: when the shard's buffer is full the notification
// is dropped and logged, matching the delivery policy — the cooldown window
// is already claimed either way.
func (d *Dispatcher) Enqueue(n ports.Notification) {
	select {
	case d.workers[d.shardIndex(n.AssessmentID)] <- n:
	default:
		d.log.Warn().
			Str("assessment_id", n.AssessmentID).
			Msg("notification queue full, dropping")
	}
}

// shardIndex maps an assessment id deterministically to a worker index.
func (d *Dispatcher) shardIndex(assessmentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(assessmentID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			err := d.notifier.Send(sendCtx, n)
			cancel()
			if err != nil {
				d.log.Error().Err(err).
					Str("assessment_id", n.AssessmentID).
					Int("worker_id", id).
					Msg("notification delivery failed")
			}
		}
	}
}
