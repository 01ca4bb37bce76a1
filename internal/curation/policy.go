package curation

import "github.com/timmy/ghostline/internal/config"

// PolicyFromConfig maps the curation section of the configuration onto a
// gate Policy.
func PolicyFromConfig(cfg config.CurationConfig) Policy {
	return Policy{
		MinConfidence:       cfg.MinConfidence,
		MaxPerPeriod:        cfg.MaxPerPeriod,
		MaxPerCategory:      cfg.MaxPerCategory,
		SimilarityThreshold: cfg.SimilarityThreshold,
		ManualReview:        cfg.ManualReview,
		Location:            cfg.Location(),
	}
}
