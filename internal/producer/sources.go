package producer

import (
	"fmt"
	"sort"

	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/source"
	"github.com/timmy/ghostline/internal/source/oracle"
	"github.com/timmy/ghostline/internal/source/staging"
)

// Sources builds the registry of draft sources keyed by source id: the
// oracle plus every staged manifest under cfg.StagingDir.
func Sources(cfg config.ProducerConfig) (map[string]source.Source, error) {
	sources := map[string]source.Source{
		oracle.SourceID: oracle.NewAdapter(cfg.Seed),
	}
	if cfg.StagingDir == "" {
		return sources, nil
	}

	staged, err := staging.ListStagingSources(cfg.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging sources: %w", err)
	}
	for _, id := range staged {
		src := staging.NewAdapter(cfg.StagingDir, id)
		sources[src.GetSourceID()] = src
	}
	return sources, nil
}

// Lookup returns the named source or an error listing the known ids.
func Lookup(sources map[string]source.Source, id string) (source.Source, error) {
	if src, ok := sources[id]; ok {
		return src, nil
	}
	known := make([]string, 0, len(sources))
	for k := range sources {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, fmt.Errorf("unknown source %q (available: %v)", id, known)
}
