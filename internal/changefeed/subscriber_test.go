package changefeed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ghostline/internal/domain"
)

type fakeLister struct {
	mu    sync.Mutex
	items map[domain.ItemStatus][]domain.WorkItem
	fail  int
	calls int
}

func (f *fakeLister) ListByStatus(_ context.Context, status domain.ItemStatus, limit, offset int) ([]domain.WorkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail > 0 {
		f.fail--
		return nil, errors.New("stream reset")
	}
	all := f.items[status]
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return append([]domain.WorkItem(nil), all[offset:end]...), nil
}

func (f *fakeLister) set(status domain.ItemStatus, items ...domain.WorkItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items == nil {
		f.items = map[domain.ItemStatus][]domain.WorkItem{}
	}
	f.items[status] = items
}

func item(id string, at time.Time) domain.WorkItem {
	return domain.WorkItem{ID: id, UpdatedAt: at}
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "feed closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertQuiet(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDiff(t *testing.T) {
	t0 := time.Unix(100, 0)
	t1 := time.Unix(200, 0)
	prev := NewSnapshot([]domain.WorkItem{item("a", t0), item("b", t0)})
	next := NewSnapshot([]domain.WorkItem{item("b", t1), item("c", t0)})

	events := Diff(prev, next, domain.StatusQAPassed)
	require.Len(t, events, 3)
	assert.Equal(t, Event{Type: Modified, ID: "b", Status: domain.StatusQAPassed, UpdatedAt: t1}, events[0])
	assert.Equal(t, Added, events[1].Type)
	assert.Equal(t, "c", events[1].ID)
	assert.Equal(t, Removed, events[2].Type)
	assert.Equal(t, "a", events[2].ID)
}

func TestSubscriberDeliversOnlyAdded(t *testing.T) {
	store := &fakeLister{}
	t0 := time.Unix(100, 0)
	store.set(domain.StatusQAPassed, item("a", t0), item("b", t0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := NewSubscriber(store, Config{PollInterval: 10 * time.Millisecond, PageSize: 1})
	ch := sub.Subscribe(ctx, domain.StatusQAPassed)

	assert.Equal(t, "a", recv(t, ch).ID, "initial snapshot reports existing documents")
	assert.Equal(t, "b", recv(t, ch).ID)

	// A modification and a removal are not delivered.
	store.set(domain.StatusQAPassed, item("a", time.Unix(200, 0)))
	assertQuiet(t, ch)

	// A document re-entering the view is added again.
	store.set(domain.StatusQAPassed, item("a", time.Unix(200, 0)), item("b", time.Unix(300, 0)), item("c", t0))
	got := []string{recv(t, ch).ID, recv(t, ch).ID}
	assert.ElementsMatch(t, []string{"b", "c"}, got)

	cancel()
	for range ch {
	}
}

func TestSubscriberSurvivesErrors(t *testing.T) {
	store := &fakeLister{fail: 3}
	store.set(domain.StatusPending, item("x", time.Unix(1, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := NewSubscriber(store, Config{PollInterval: 5 * time.Millisecond, RetryInterval: 5 * time.Millisecond})

	ev := recv(t, sub.Subscribe(ctx, domain.StatusPending))
	assert.Equal(t, "x", ev.ID)
	assert.Equal(t, domain.StatusPending, ev.Status)
}

func TestIDsClosesOnCancel(t *testing.T) {
	store := &fakeLister{}
	store.set(domain.StatusDraft, item("d1", time.Unix(1, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	sub := NewSubscriber(store, Config{PollInterval: 5 * time.Millisecond})
	ids := sub.IDs(ctx, domain.StatusDraft)

	select {
	case id := <-ids:
		assert.Equal(t, "d1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	cancel()
	select {
	case _, ok := <-ids:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("ids channel not closed")
	}
}
