package domain

// ItemStatus is the lifecycle state of a WorkItem.
type ItemStatus string

const (
	StatusPending       ItemStatus = "pending"
	StatusPendingReview ItemStatus = "pending_review"
	StatusDraft         ItemStatus = "draft"
	StatusQAPassed      ItemStatus = "qa_passed"
	StatusProcessing    ItemStatus = "processing"
	StatusPublished     ItemStatus = "published"
	StatusFailed        ItemStatus = "failed"
	StatusArchivedJunk  ItemStatus = "archived_junk"
)

// ItemLifecycle is the work item state graph.
//
//	pending        -> draft | archived_junk
//	pending_review -> pending | archived_junk
//	draft          -> qa_passed | archived_junk
//	qa_passed      -> processing
//	processing     -> published | failed
//
// Resets: failed -> qa_passed, processing -> qa_passed.
var ItemLifecycle = NewLifecycle("work_item",
	[]ItemStatus{
		StatusPending, StatusPendingReview, StatusDraft, StatusQAPassed,
		StatusProcessing, StatusPublished, StatusFailed, StatusArchivedJunk,
	},
	Edges[ItemStatus]{
		StatusPending:       {StatusDraft, StatusArchivedJunk},
		StatusPendingReview: {StatusPending, StatusArchivedJunk},
		StatusDraft:         {StatusQAPassed, StatusArchivedJunk},
		StatusQAPassed:      {StatusProcessing},
		StatusProcessing:    {StatusPublished, StatusFailed},
	},
	Edges[ItemStatus]{
		StatusFailed:     {StatusQAPassed},
		StatusProcessing: {StatusQAPassed},
	},
)

// ParseItemStatus validates a raw status string.
func ParseItemStatus(raw string) (ItemStatus, error) {
	return ItemLifecycle.Parse(raw)
}

// LiveStatuses are the states that occupy a category slot and take part in
// duplicate checks.
func LiveStatuses() []ItemStatus {
	return []ItemStatus{
		StatusPending, StatusPendingReview, StatusDraft,
		StatusQAPassed, StatusProcessing, StatusPublished,
	}
}
