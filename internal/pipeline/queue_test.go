package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProcessor tracks call order, timing and overlap.
type recordingProcessor struct {
	mu      sync.Mutex
	ids     []string
	starts  []time.Time
	active  atomic.Int32
	overlap atomic.Bool
	work    time.Duration
	onCall  func(id string)
}

func (p *recordingProcessor) Process(_ context.Context, id string) (Outcome, error) {
	if p.active.Add(1) > 1 {
		p.overlap.Store(true)
	}
	defer p.active.Add(-1)

	p.mu.Lock()
	p.ids = append(p.ids, id)
	p.starts = append(p.starts, time.Now())
	p.mu.Unlock()

	if p.onCall != nil {
		p.onCall(id)
	}
	time.Sleep(p.work)
	return OutcomePublished, nil
}

func TestWorkQueueSpacesItems(t *testing.T) {
	const delay = 40 * time.Millisecond
	proc := &recordingProcessor{work: 5 * time.Millisecond}
	q := NewWorkQueue(proc, NewThrottle(delay))

	start := time.Now()
	for _, id := range []string{"a", "b", "c", "d"} {
		q.Enqueue(context.Background(), id)
	}
	q.Wait()
	elapsed := time.Since(start)

	assert.Equal(t, []string{"a", "b", "c", "d"}, proc.ids)
	assert.False(t, proc.overlap.Load(), "items never run concurrently")
	assert.GreaterOrEqual(t, elapsed, 3*delay)
	for i := 1; i < len(proc.starts); i++ {
		assert.GreaterOrEqual(t, proc.starts[i].Sub(proc.starts[i-1]), delay)
	}
	assert.False(t, q.Draining())
	assert.Zero(t, q.Len())
	assert.EqualValues(t, 4, q.Processed())
}

func TestWorkQueueConsumesItemsAddedMidDrain(t *testing.T) {
	q := (*WorkQueue)(nil)
	var once sync.Once
	proc := &recordingProcessor{}
	proc.onCall = func(id string) {
		once.Do(func() {
			q.Enqueue(context.Background(), "late")
		})
	}
	q = NewWorkQueue(proc, NewThrottle(time.Millisecond))

	q.Enqueue(context.Background(), "first")
	q.Wait()

	assert.Equal(t, []string{"first", "late"}, proc.ids)
	assert.False(t, proc.overlap.Load())
}

func TestWorkQueueConcurrentEnqueueSingleDrain(t *testing.T) {
	proc := &recordingProcessor{work: time.Millisecond}
	q := NewWorkQueue(proc, NewThrottle(0))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(context.Background(), "x")
		}()
	}
	wg.Wait()
	q.Wait()

	assert.Len(t, proc.ids, 20)
	assert.False(t, proc.overlap.Load())
}

func TestWorkQueueStopsOnCancelAfterCurrentItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	proc := &recordingProcessor{}
	proc.onCall = func(string) { cancel() }
	q := NewWorkQueue(proc, NewThrottle(time.Hour))

	q.Enqueue(ctx, "a")
	q.Enqueue(ctx, "b")
	q.Wait()

	require.Equal(t, []string{"a"}, proc.ids)
	assert.Equal(t, 1, q.Len(), "remaining items are left for the next start")
}

func TestThrottleWait(t *testing.T) {
	th := NewThrottle(20 * time.Millisecond)
	start := time.Now()
	require.NoError(t, th.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, th.Wait(ctx), context.Canceled)
}
