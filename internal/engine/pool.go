/*
Package engine provides the sharded worker pool that paces the lookup
pipelines. Tasks carrying the same key always land on the same worker, and
each worker holds a politeness limiter, so per-key query pacing survives any
worker count. One worker reproduces strict sequential, one-query-per-delay
behavior; more workers trade politeness granularity for throughput.
*/
package engine

/*
lookalike — bulk DNS/WHOIS reconnaissance for look-alike domains
Copyright (C) 2026  Marit Deelstra <lookalike@driftsec.dev>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/time/rate"

	"github.com/driftsec/lookalike/internal/metrics"
)

// ErrPoolShutdown is returned by Submit after Shutdown has been called.
var ErrPoolShutdown = errors.New("worker pool is shutting down")

// taskQueueSize bounds each worker's queue. Submit blocks when the shard is
// full; the input reader is the only producer, so a small buffer suffices.
const taskQueueSize = 64

// Task is one unit of work. Tasks sharing a Key are serialized onto the same
// worker and therefore share that worker's politeness limiter.
type Task struct {
	Key string
	Run func(ctx context.Context)
}

// Pool manages the worker goroutines and dispatches tasks by key hash.
type Pool struct {
	numWorkers int
	workers    []*worker
	ctx        context.Context
	cancel     context.CancelFunc
	shutdown   atomic.Bool
	taskPool   sync.Pool
	activeWork sync.WaitGroup
}

// worker encapsulates a single worker goroutine and its pacing state.
type worker struct {
	id      int
	queue   chan *Task
	pool    *Pool
	ctx     context.Context
	limiter *rate.Limiter
}

// NewPool creates and starts a pool of numWorkers workers, each pacing its
// tasks to at most one per delay. numWorkers below 1 is clamped to 1.
func NewPool(parentCtx context.Context, numWorkers int, delay time.Duration) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}

	pctx, cancel := context.WithCancel(parentCtx)
	p := &Pool{
		numWorkers: numWorkers,
		workers:    make([]*worker, numWorkers),
		ctx:        pctx,
		cancel:     cancel,
		taskPool: sync.Pool{
			New: func() interface{} {
				return &Task{}
			},
		},
	}

	for i := 0; i < numWorkers; i++ {
		w := &worker{
			id:    i,
			queue: make(chan *Task, taskQueueSize),
			pool:  p,
			ctx:   pctx,
			// Burst 1: never two back-to-back queries, even after idle time.
			limiter: rate.NewLimiter(rate.Every(delay), 1),
		}
		p.workers[i] = w
		go w.run()
	}

	return p
}

// run is the main processing loop for a single worker goroutine. It waits on
// the politeness limiter before every task.
func (w *worker) run() {
	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case task := <-w.queue:
			if task == nil {
				continue
			}

			waitStart := time.Now()
			if err := w.limiter.Wait(w.ctx); err != nil {
				// Cancelled while pacing; the task is abandoned but still
				// accounted for so Wait() can return.
				w.pool.activeWork.Done()
				w.recycle(task)
				continue
			}
			if metrics.IsMetricsEnabled() {
				metrics.GetMetrics().ObserveRateLimitDelay(w.id, time.Since(waitStart))
				metrics.GetMetrics().SetWorkerBusy(w.id, true)
			}

			status := "ok"
			func() {
				defer w.pool.activeWork.Done()
				defer func() {
					if r := recover(); r != nil {
						status = "panic"
						log.Printf("Panic recovered in worker %d processing %s: %v", w.id, task.Key, r)
						if metrics.IsMetricsEnabled() {
							metrics.GetMetrics().ObserveWorkerPanic(w.id)
						}
					}
				}()
				task.Run(w.ctx)
			}()

			if metrics.IsMetricsEnabled() {
				metrics.GetMetrics().TasksCompleted.WithLabelValues(strconv.Itoa(w.id), status).Inc()
				metrics.GetMetrics().SetWorkerBusy(w.id, false)
			}
			w.recycle(task)
		}
	}
}

// drain releases the accounting for tasks abandoned in the queue at shutdown
// so Wait() can return.
func (w *worker) drain() {
	for {
		select {
		case task := <-w.queue:
			if task != nil {
				w.pool.activeWork.Done()
				w.recycle(task)
			}
		default:
			return
		}
	}
}

// recycle returns a task to the pool with fields cleared.
func (w *worker) recycle(task *Task) {
	task.Key = ""
	task.Run = nil
	w.pool.taskPool.Put(task)
}

// Submit routes a task to the worker owning key's shard, blocking while that
// shard's queue is full. It returns ErrPoolShutdown after Shutdown and the
// context error if ctx is cancelled while blocked.
func (p *Pool) Submit(ctx context.Context, key string, run func(ctx context.Context)) error {
	if p.shutdown.Load() || p.ctx.Err() != nil {
		return ErrPoolShutdown
	}

	shard := int(xxh3.HashString(key) % uint64(p.numWorkers))
	target := p.workers[shard]

	task := p.taskPool.Get().(*Task)
	task.Key = key
	task.Run = run
	p.activeWork.Add(1)

	select {
	case target.queue <- task:
		if metrics.IsMetricsEnabled() {
			metrics.GetMetrics().TasksSubmitted.WithLabelValues(strconv.Itoa(shard)).Inc()
		}
		return nil
	case <-ctx.Done():
		p.activeWork.Done()
		target.recycle(task)
		return ctx.Err()
	case <-p.ctx.Done():
		p.activeWork.Done()
		target.recycle(task)
		return ErrPoolShutdown
	}
}

// Wait blocks until every submitted task has finished. Cancellation of the
// pool's context unblocks Wait too: queued tasks are abandoned by the workers
// and their accounting released, so shutdown never wedges on unfinished work.
func (p *Pool) Wait() {
	done := make(chan struct{})
	go func() {
		p.activeWork.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-p.ctx.Done():
	}
}

// Shutdown signals all workers to stop. It returns immediately; pair with
// Wait() for a graceful drain before calling it.
func (p *Pool) Shutdown() {
	if p.shutdown.CompareAndSwap(false, true) {
		p.cancel()
	}
}
