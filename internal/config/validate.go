package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	StaleActionFail    = "fail"
	StaleActionRequeue = "requeue"
)

// Validate checks enum values and ranges that viper cannot.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn: required for postgres"))
	}
	switch c.Generation.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("generation.provider: unsupported %q", c.Generation.Provider))
	}
	switch c.Pipeline.StaleAction {
	case StaleActionFail, StaleActionRequeue:
	default:
		errs = append(errs, fmt.Errorf("pipeline.stale_action: want %q or %q, got %q",
			StaleActionFail, StaleActionRequeue, c.Pipeline.StaleAction))
	}
	if c.Pipeline.PublishDelay < 0 {
		errs = append(errs, errors.New("pipeline.publish_delay: must not be negative"))
	}
	if c.Pipeline.StaleAfter < 0 {
		errs = append(errs, errors.New("pipeline.stale_after: must not be negative"))
	}
	if c.Pipeline.StaleAfter > 0 && c.Pipeline.SweepInterval <= 0 {
		errs = append(errs, errors.New("pipeline.sweep_interval: must be positive when stale_after is set"))
	}
	if c.Feed.PollInterval <= 0 {
		errs = append(errs, errors.New("feed.poll_interval: must be positive"))
	}
	if c.Curation.MinConfidence < 0 || c.Curation.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("curation.min_confidence: %v outside [0,1]", c.Curation.MinConfidence))
	}
	if c.Curation.SimilarityThreshold < 0 || c.Curation.SimilarityThreshold > 100 {
		errs = append(errs, fmt.Errorf("curation.similarity_threshold: %v outside [0,100]", c.Curation.SimilarityThreshold))
	}
	if _, err := time.LoadLocation(c.Curation.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("curation.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// Location returns the curation period timezone. Validate has already
// checked it loads.
func (c CurationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
