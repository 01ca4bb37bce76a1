package domain

import "time"

// RecommendationStatus is the lifecycle state of a Recommendation.
type RecommendationStatus string

const (
	RecommendationPending   RecommendationStatus = "pending"
	RecommendationApproved  RecommendationStatus = "approved"
	RecommendationRejected  RecommendationStatus = "rejected"
	RecommendationExecuting RecommendationStatus = "executing"
	RecommendationCompleted RecommendationStatus = "completed"
	RecommendationFailed    RecommendationStatus = "failed"
)

// RecommendationLifecycle shares the Lifecycle machinery with work items.
var RecommendationLifecycle = NewLifecycle("recommendation",
	[]RecommendationStatus{
		RecommendationPending, RecommendationApproved, RecommendationRejected,
		RecommendationExecuting, RecommendationCompleted, RecommendationFailed,
	},
	Edges[RecommendationStatus]{
		RecommendationPending:   {RecommendationApproved, RecommendationRejected},
		RecommendationApproved:  {RecommendationExecuting},
		RecommendationExecuting: {RecommendationCompleted, RecommendationFailed},
	},
	Edges[RecommendationStatus]{
		RecommendationFailed: {RecommendationApproved},
	},
)

// RecommendationKind separates marketing campaigns from design suggestions.
type RecommendationKind string

const (
	KindMarketing RecommendationKind = "marketing"
	KindDesign    RecommendationKind = "design"
)

// Recommendation is a suggested action that needs human approval before it runs.
type Recommendation struct {
	ID           string               `gorm:"type:text;primaryKey" json:"id"`
	Kind         RecommendationKind   `gorm:"type:text;index" json:"kind"`
	Title        string               `gorm:"type:text" json:"title"`
	Body         string               `gorm:"type:text" json:"body"`
	Status       RecommendationStatus `gorm:"type:text;index;default:pending" json:"status"`
	Metrics      JSONMap              `gorm:"type:text" json:"metrics,omitempty"`
	ErrorMessage string               `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
	DecidedAt    *time.Time           `json:"decidedAt,omitempty"`
	StartedAt    *time.Time           `json:"startedAt,omitempty"`
	CompletedAt  *time.Time           `json:"completedAt,omitempty"`
}

// TableName returns the database table name for Recommendation.
func (Recommendation) TableName() string {
	return "recommendations"
}
