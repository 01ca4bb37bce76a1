package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldItemID is the catalog work item being handled
	FieldItemID = "item_id"

	// FieldRecommendationID is the recommendation being handled
	FieldRecommendationID = "recommendation_id"

	// FieldComponent is the component name (queue, executor, feed, gate...)
	FieldComponent = "component"

	// FieldStage is the executor stage (Validation, Enrichment, Publish)
	FieldStage = "stage"

	// FieldSource is the producer that created the item
	FieldSource = "source"
)

// Metric fields, attached per entry.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldStatus     = "status"
	FieldQueueLen   = "queue_len"
	FieldRule       = "rule"
	FieldSize       = "size"
)
