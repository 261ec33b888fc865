// Copyright 2025 The Synapse Authors.
//
// Package shardqueue provides a lightweight sharded work‑queue that guarantees
// FIFO order *per key* while allowing parallelism across shards.
//
// The stores use it as the single writer for each persisted key: every write
// of a collection blob is a Job submitted under that blob's storage key, so two
// overlapping mutations can never interleave their writes.
//
// **Contract**: Callers **must not** invoke Submit concurrently for the *same*
// key.  FIFO ordering relies on that external serialisation.
package shardqueue

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/errors"
)

// Claim states for jobs submitted through SubmitWait.
const (
	jobPending int32 = iota
	jobRunning
	jobAbandoned
)

type queuedJob struct {
	ctx   context.Context
	job   Job
	done  chan error // nil for fire-and-forget submissions
	state *int32     // nil for fire-and-forget submissions
}

func (qj queuedJob) finish(err error) {
	if qj.done != nil {
		qj.done <- err
	}
}

// claim marks qj as running. It fails when the waiting caller already gave
// up, in which case the job must not run.
func (qj queuedJob) claim() bool {
	return qj.state == nil || atomic.CompareAndSwapInt32(qj.state, jobPending, jobRunning)
}

// ShardExecutor executes Jobs on worker goroutines partitioned by a stable hash
// of the key (e.g. a storage key).  FIFO ordering is preserved within a shard;
// jobs with different keys may run in parallel.
type ShardExecutor struct {
	cfg    Config
	log    zerolog.Logger
	queues []chan queuedJob // len == cfg.Shards

	done   chan struct{} // closed in Stop()
	closed uint32        // 0 → running, 1 → closed

	wg sync.WaitGroup
}

// NewShardExecutor constructs the executor and starts its shard workers.
func NewShardExecutor(cfg Config) *ShardExecutor {
	// Apply zero‑value defaults.
	if cfg.Shards <= 0 {
		cfg.Shards = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 20 * time.Second
	}

	lg := zerolog.Nop()
	if cfg.Logger != nil {
		lg = cfg.Logger.With().Str("component", "shardqueue").Logger()
	}

	p := &ShardExecutor{
		cfg:    cfg,
		log:    lg,
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
	}

	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// Submit enqueues job for the shard derived from key.
//
//   - Returns nil on success.
//   - Returns ErrExecutorClosed if the executor is stopped.
//   - Returns ErrQueueFull (wrapped in *QueueFullError) if the shard is full
//     after EnqueueTimeout elapses.
//   - Returns ctx.Err() if the caller‑provided context is cancelled first.
func (p *ShardExecutor) Submit(ctx context.Context, key string, job Job) error {
	return p.enqueue(queuedJob{ctx: ctx, job: job}, key)
}

// SubmitWait enqueues job like Submit and then blocks until the worker has
// finished with it, returning the job's final error after retries. A panic
// inside job is reported as an error instead of killing the shard worker.
//
// Cancelling ctx abandons the job only while it is still queued. Once a
// worker has started it, SubmitWait waits for the outcome, so a nil error
// always means the job ran to success and an error means it did not.
func (p *ShardExecutor) SubmitWait(ctx context.Context, key string, job Job) error {
	done := make(chan error, 1)
	state := new(int32)
	guarded := JobFunc(func(jobCtx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("shardqueue: job panic: %v", r)
			}
		}()
		return job.Run(jobCtx)
	})
	if err := p.enqueue(queuedJob{ctx: ctx, job: guarded, done: done, state: state}, key); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		if atomic.CompareAndSwapInt32(state, jobPending, jobAbandoned) {
			return ctx.Err()
		}
		return <-done
	case err := <-done:
		return err
	}
}

func (p *ShardExecutor) enqueue(qj queuedJob, key string) error {
	// Fast checks to avoid accepting work after Stop().
	// 1. If Stop() has set the flag but not yet closed p.done we still reject.
	if atomic.LoadUint32(&p.closed) == 1 {
		return ErrExecutorClosed
	}
	// 2. Complementary check: p.done may already be closed even if we missed
	// the flag change.
	select {
	case <-p.done:
		return ErrExecutorClosed
	default:
	}

	shard := p.shardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- qj:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-p.done: // Stop() may be called while waiting for space
		return ErrExecutorClosed
	case <-qj.ctx.Done():
		return qj.ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{
			Shard:    shard,
			Length:   len(ch),
			Capacity: cap(ch),
		}
	}
}

// Barrier enqueues a no-op job on the shard for key and waits until it runs,
// ensuring all previously submitted jobs for that key have completed.
func (p *ShardExecutor) Barrier(ctx context.Context, key string) error {
	return p.SubmitWait(ctx, key, JobFunc(func(context.Context) error { return nil }))
}

// Stop signals every worker to finish draining its current queue, waits for
// them to terminate, and then returns.  It is idempotent and safe for
// concurrent use.
func (p *ShardExecutor) Stop() {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return // already closed
	}

	p.log.Debug().Int("shards", p.cfg.Shards).Msg("stopping executor, draining shards")
	close(p.done)
	p.wg.Wait()
	p.log.Debug().Msg("executor stopped, all queues drained")
}

// Close lets ShardExecutor satisfy io.Closer.
func (p *ShardExecutor) Close() error {
	p.Stop()
	return nil
}

// ------------------------- internals -------------------------

func (p *ShardExecutor) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()

	// Protect worker from crashing the entire executor.
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", idx).Interface("panic", r).Msg("worker panic")
		}
	}()

	label := labelFor(idx)

	for {
		select {
		case qj := <-ch:
			if qj.job == nil {
				qj.finish(nil)
				continue
			}
			// Honour caller context so a cancelled job doesn't stall the shard.
			select {
			case <-qj.ctx.Done():
				p.safeHandleError(qj.ctx.Err())
				qj.finish(qj.ctx.Err())
			default:
				if !qj.claim() {
					qj.finish(qj.ctx.Err())
					break
				}
				err, stopped := p.runWithRetry(qj, label)
				qj.finish(err)
				if stopped {
					return
				}
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.done:
			// Drain remaining jobs, preserving FIFO, then exit.
			remaining := len(ch)
			if remaining > 0 {
				p.log.Debug().Int("worker", idx).Int("jobs", remaining).Msg("draining remaining jobs")
			}
			for {
				select {
				case qj := <-ch:
					if qj.job == nil {
						qj.finish(nil)
						continue
					}
					if !qj.claim() {
						qj.finish(qj.ctx.Err())
						continue
					}
					qj.finish(qj.job.Run(qj.ctx))
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// runWithRetry runs qj until it succeeds, fails irrecoverably or exhausts
// MaxAttempts. stopped is true when the executor shut down mid-backoff.
func (p *ShardExecutor) runWithRetry(qj queuedJob, label string) (err error, stopped bool) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = p.cfg.MaxInterval
	exp.Reset()

	for attempts := 0; ; attempts++ {
		start := time.Now()
		err = qj.job.Run(qj.ctx)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil, false
		}
		if errors.IsIrrecoverable(err) || attempts >= p.cfg.MaxAttempts-1 {
			p.safeHandleError(err)
			return err, false
		}
		retriesTotal.WithLabelValues(label).Inc()

		select {
		case <-time.After(exp.NextBackOff()):
		case <-p.done:
			return err, true
		case <-qj.ctx.Done():
			p.safeHandleError(qj.ctx.Err())
			return qj.ctx.Err(), false
		}
	}
}

func (p *ShardExecutor) safeHandleError(err error) {
	if err == nil || p.cfg.ErrorHandler == nil {
		return
	}
	func() {
		// Guard against panics in the user‑supplied handler.
		defer func() {
			if r := recover(); r != nil {
				p.log.Error().Interface("panic", r).Msg("error handler panic")
			}
		}()
		p.cfg.ErrorHandler(err)
	}()
}

func (p *ShardExecutor) shardFor(key string) int {
	h := fnv.New32a() // fast and sufficient at our scale
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}
