package domain

// Candidate is a record a producer wants to create, before admission.
type Candidate struct {
	Source     string   `json:"source" binding:"required"`
	Category   Category `json:"category" binding:"required"`
	Niche      string   `json:"niche"`
	Title      string   `json:"title" binding:"required"`
	Confidence float64  `json:"confidence"`
}

// Admission rule names, cheapest first.
const (
	RuleConfidence  = "confidence"
	RulePeriodCap   = "period cap"
	RuleCategoryCap = "category cap"
	RuleSimilarity  = "similarity"
)

// AdmissionDecision is the gate's verdict for one candidate. It is never stored.
type AdmissionDecision struct {
	Admitted     bool       `json:"admitted"`
	Rule         string     `json:"rule,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	EntryStatus  ItemStatus `json:"entryStatus,omitempty"`
	Similarity   float64    `json:"similarity,omitempty"`
	MatchedTitle string     `json:"matchedTitle,omitempty"`
}
