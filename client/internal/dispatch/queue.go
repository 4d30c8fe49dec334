// Package dispatch provides a lane-partitioned work queue that
// guarantees FIFO order per key while allowing parallelism across
// lanes. The realtime supervisor uses it to apply push events in
// emission order per topic without blocking the stream reader.
//
// Contract: callers must not invoke Submit concurrently for the same
// key. FIFO ordering relies on that external serialisation; the
// supervisor satisfies it by submitting from a single reader loop.
package dispatch

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/udinmoInc/law/client/internal/errs"
)

type queuedJob struct {
	ctx context.Context
	job Job
}

// Queue executes Jobs on worker goroutines partitioned by a stable
// hash of the key (a topic key such as "messages:chat_id=eq.X").
// FIFO ordering is preserved within a lane; jobs with different keys
// may run in parallel.
type Queue struct {
	cfg   Config
	lanes []chan queuedJob
	log   zerolog.Logger

	done   chan struct{}
	closed uint32

	wg sync.WaitGroup
}

// NewQueue constructs the queue and starts its lane workers.
func NewQueue(cfg Config, log zerolog.Logger) *Queue {
	cfg.applyDefaults()

	q := &Queue{
		cfg:   cfg,
		lanes: make([]chan queuedJob, cfg.Lanes),
		log:   log.With().Str("component", "dispatch").Logger(),
		done:  make(chan struct{}),
	}
	for i := 0; i < cfg.Lanes; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		q.lanes[i] = ch
		q.wg.Add(1)
		go q.runWorker(i, ch)
	}
	return q
}

// Submit enqueues job on the lane derived from key.
//
//   - Returns nil on success.
//   - Returns ErrClosed if the queue is stopped.
//   - Returns ErrQueueFull (wrapped in *QueueFullError) if the lane is
//     still full after EnqueueTimeout.
//   - Returns ctx.Err() if the caller's context is cancelled first.
func (q *Queue) Submit(ctx context.Context, key string, job Job) error {
	if atomic.LoadUint32(&q.closed) == 1 {
		return ErrClosed
	}
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	lane := q.laneFor(key)
	ch := q.lanes[lane]

	timer := time.NewTimer(q.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, job: job}:
		submissionsTotal.WithLabelValues(laneLabel(lane)).Inc()
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(laneLabel(lane)).Inc()
		return &QueueFullError{Lane: lane, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier enqueues a no-op job on the lane for key and waits until it
// runs, guaranteeing all previously submitted jobs for that key have
// completed.
func (q *Queue) Barrier(ctx context.Context, key string) error {
	done := make(chan struct{})
	j := JobFunc(func(context.Context) error {
		close(done)
		return nil
	})
	if err := q.Submit(ctx, key, j); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop signals every worker to drain its lane, waits for them to
// terminate, and returns. Idempotent and safe for concurrent use.
func (q *Queue) Stop() {
	if !atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		return
	}
	close(q.done)
	q.wg.Wait()
	q.log.Debug().Msg("queue stopped, all lanes drained")
}

func (q *Queue) runWorker(idx int, ch <-chan queuedJob) {
	defer q.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Int("lane", idx).Msg("worker panic")
		}
	}()

	label := laneLabel(idx)

	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				continue
			}
			q.runJob(label, qj)
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-q.done:
			// Drain remaining jobs, preserving FIFO, then exit.
			for {
				select {
				case qj := <-ch:
					if qj.job != nil {
						_ = qj.job.Run(qj.ctx)
					}
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

func (q *Queue) runJob(label string, qj queuedJob) {
	// Honour caller context so a cancelled job doesn't stall the lane.
	select {
	case <-qj.ctx.Done():
		q.safeHandleError(qj.ctx.Err())
		return
	default:
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = q.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = q.cfg.MaxInterval
	exp.Reset()

	attempts := 0
	for {
		start := time.Now()
		err := qj.job.Run(qj.ctx)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil {
			return
		}
		if errs.IsTerminal(err) {
			q.safeHandleError(err)
			return
		}
		if attempts >= q.cfg.MaxAttempts-1 {
			q.safeHandleError(err)
			return
		}

		attempts++
		select {
		case <-time.After(exp.NextBackOff()):
		case <-q.done:
			return
		case <-qj.ctx.Done():
			q.safeHandleError(qj.ctx.Err())
			return
		}
	}
}

func (q *Queue) safeHandleError(err error) {
	if err == nil || q.cfg.ErrorHandler == nil {
		return
	}
	func() {
		// Guard against panics in the user-supplied handler.
		defer func() {
			if r := recover(); r != nil {
				q.log.Error().Interface("panic", r).Msg("error handler panic")
			}
		}()
		q.cfg.ErrorHandler(err)
	}()
}

func (q *Queue) laneFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % q.cfg.Lanes
}
