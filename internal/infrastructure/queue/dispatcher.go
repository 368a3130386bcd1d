package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/frs/profile-directory/internal/core/ports"
	"github.com/frs/profile-directory/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrQueueStopped is returned when ids are enqueued before Start or after the
// workers have exited.
var ErrQueueStopped = errors.New("resync queue is not running")

// ResyncQueue routes profile ids to a fixed set of workers using consistent
// hashing on the id, so two resyncs of the same profile never run concurrently.
type ResyncQueue struct {
	workers  []chan string
	resyncer ports.ProfileResyncer
	log      zerolog.Logger

	mu     sync.Mutex
	runCtx context.Context
}

// NewResyncQueue creates a queue with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewResyncQueue(numWorkers int, resyncer ports.ProfileResyncer, log zerolog.Logger) *ResyncQueue {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	q := &ResyncQueue{
		workers:  make([]chan string, numWorkers),
		resyncer: resyncer,
		log:      log,
	}
	for i := range q.workers {
		q.workers[i] = make(chan string, channelBuffer)
	}
	return q
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (q *ResyncQueue) Start(ctx context.Context) {
	q.mu.Lock()
	q.runCtx = ctx
	q.mu.Unlock()

	for i, ch := range q.workers {
		go q.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a profile id to the worker responsible for it. It waits for
// buffer space until ctx is done or the workers stop.
func (q *ResyncQueue) Enqueue(ctx context.Context, profileID string) error {
	run, ok := q.running()
	if !ok {
		return ErrQueueStopped
	}

	idx := q.shardIndex(profileID)
	select {
	case q.workers[idx] <- profileID:
		metrics.ResyncQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-run.Done():
		return ErrQueueStopped
	}
}

// EnqueueBatch hands the ids to the workers in the background and returns at
// once. The feed stops early when the workers stop.
func (q *ResyncQueue) EnqueueBatch(profileIDs []string) error {
	run, ok := q.running()
	if !ok {
		return ErrQueueStopped
	}

	go func() {
		for i, id := range profileIDs {
			if err := q.Enqueue(run, id); err != nil {
				q.log.Warn().Err(err).
					Int("dropped", len(profileIDs)-i).
					Msg("resync batch interrupted")
				return
			}
		}
	}()
	return nil
}

func (q *ResyncQueue) running() (context.Context, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.runCtx == nil || q.runCtx.Err() != nil {
		return nil, false
	}
	return q.runCtx, true
}

// shardIndex maps a profile id deterministically to a worker index.
func (q *ResyncQueue) shardIndex(profileID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(profileID))
	return int(h.Sum32() % uint32(len(q.workers)))
}

func (q *ResyncQueue) runWorker(ctx context.Context, id int, ch <-chan string) {
	depth := metrics.ResyncQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case profileID, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			if err := q.resyncer.Resync(ctx, profileID); err != nil {
				q.log.Error().Err(err).
					Str("profile_id", profileID).
					Int("worker_id", id).
					Msg("profile resync failed")
			}
		}
	}
}
