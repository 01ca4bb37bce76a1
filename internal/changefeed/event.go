package changefeed

import (
	"time"

	"github.com/timmy/ghostline/internal/domain"
)

// EventType classifies a change between two snapshots of a view.
type EventType string

const (
	Added    EventType = "added"
	Modified EventType = "modified"
	Removed  EventType = "removed"
)

// Event is one document change within a status view.
type Event struct {
	Type      EventType
	ID        string
	Status    domain.ItemStatus
	UpdatedAt time.Time
}

// Snapshot is a view's documents keyed by id, in store order.
type Snapshot struct {
	order   []string
	updated map[string]time.Time
}

// NewSnapshot indexes items.
func NewSnapshot(items []domain.WorkItem) Snapshot {
	s := Snapshot{order: make([]string, 0, len(items)), updated: make(map[string]time.Time, len(items))}
	for _, it := range items {
		if _, dup := s.updated[it.ID]; dup {
			continue
		}
		s.order = append(s.order, it.ID)
		s.updated[it.ID] = it.UpdatedAt
	}
	return s
}

func (s Snapshot) Len() int { return len(s.order) }

// Diff classifies every difference from prev to next. Added and modified
// follow next's order, removed follows prev's order.
func Diff(prev, next Snapshot, status domain.ItemStatus) []Event {
	var events []Event
	for _, id := range next.order {
		at := next.updated[id]
		before, ok := prev.updated[id]
		switch {
		case !ok:
			events = append(events, Event{Type: Added, ID: id, Status: status, UpdatedAt: at})
		case !before.Equal(at):
			events = append(events, Event{Type: Modified, ID: id, Status: status, UpdatedAt: at})
		}
	}
	for _, id := range prev.order {
		if _, ok := next.updated[id]; !ok {
			events = append(events, Event{Type: Removed, ID: id, Status: status, UpdatedAt: prev.updated[id]})
		}
	}
	return events
}
