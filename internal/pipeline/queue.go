package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timmy/ghostline/internal/logger"
)

// WorkQueue runs queued item ids one at a time through a Processor, pausing
// for the throttle delay after each item. At most one drain runs at a time.
type WorkQueue struct {
	proc     Processor
	throttle *Throttle

	mu    sync.Mutex
	items []string

	draining  atomic.Bool
	processed atomic.Int64
	wg        sync.WaitGroup
}

func NewWorkQueue(proc Processor, throttle *Throttle) *WorkQueue {
	return &WorkQueue{proc: proc, throttle: throttle}
}

// Enqueue appends id and starts a drain if none is running. Ids are not
// deduplicated; the processor ignores items that are no longer eligible.
// ctx bounds the drain: once it is done the drain stops after the current item.
func (q *WorkQueue) Enqueue(ctx context.Context, id string) {
	q.mu.Lock()
	q.items = append(q.items, id)
	n := len(q.items)
	q.mu.Unlock()

	logger.With(logger.Fields{logger.FieldItemID: id, logger.FieldQueueLen: n}).
		Debug(ctx, "Item enqueued")
	q.startDrain(ctx)
}

func (q *WorkQueue) startDrain(ctx context.Context) bool {
	if !q.draining.CompareAndSwap(false, true) {
		return false
	}
	q.wg.Add(1)
	go q.drain(ctx)
	return true
}

func (q *WorkQueue) drain(ctx context.Context) {
	defer q.wg.Done()
	ctx = logger.SetComponent(ctx, "work_queue")
	start := time.Now()
	count := 0

	for {
		for ctx.Err() == nil {
			id, ok := q.pop()
			if !ok {
				break
			}
			q.runOne(ctx, id)
			count++
			if err := q.throttle.Wait(ctx); err != nil {
				break
			}
		}
		q.draining.Store(false)

		// An Enqueue between the last pop and the release saw draining=true
		// and did not start a drain, so pick its item up here.
		if ctx.Err() != nil || q.Len() == 0 || !q.draining.CompareAndSwap(false, true) {
			break
		}
	}

	logger.With(logger.Fields{logger.FieldCount: count}).Since(start).
		Info(ctx, "Drain finished")
}

// runOne processes id to completion. The item is not interrupted by ctx
// cancellation so a shutdown never leaves a half-written transition.
func (q *WorkQueue) runOne(ctx context.Context, id string) {
	itemCtx := logger.SetItemID(context.WithoutCancel(ctx), id)
	defer func() {
		if r := recover(); r != nil {
			logger.CtxError(itemCtx, "Processor panicked: %v", r)
		}
	}()

	outcome, err := q.proc.Process(itemCtx, id)
	q.processed.Add(1)
	if err != nil {
		logger.FromContext(itemCtx).WithError(err).Error("Failed to process item")
		return
	}
	logger.CtxDebug(itemCtx, "Item processed: %s", outcome)
}

func (q *WorkQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	id := q.items[0]
	q.items = q.items[1:]
	return id, true
}

// Len returns the number of ids waiting.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Draining reports whether a drain is running.
func (q *WorkQueue) Draining() bool {
	return q.draining.Load()
}

// Processed returns how many items the queue has handed to the processor.
func (q *WorkQueue) Processed() int64 {
	return q.processed.Load()
}

// Wait blocks until the running drain, if any, has finished. It must not be
// called concurrently with Enqueue.
func (q *WorkQueue) Wait() {
	q.wg.Wait()
}
