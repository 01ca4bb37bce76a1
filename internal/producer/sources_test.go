package producer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/ghostline/internal/config"
	"github.com/timmy/ghostline/internal/source/oracle"
)

func TestSourcesIncludesStagedManifests(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "spring"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spring", "manifest.jsonl"), []byte("\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	sources, err := Sources(config.ProducerConfig{Seed: 1, StagingDir: dir})
	require.NoError(t, err)

	assert.Len(t, sources, 2)
	assert.Contains(t, sources, oracle.SourceID)
	assert.Contains(t, sources, "staging:spring")
}

func TestSourcesMissingStagingDir(t *testing.T) {
	sources, err := Sources(config.ProducerConfig{StagingDir: filepath.Join(t.TempDir(), "nope")})
	require.NoError(t, err)
	assert.Len(t, sources, 1)
}

func TestLookupUnknown(t *testing.T) {
	sources, err := Sources(config.ProducerConfig{})
	require.NoError(t, err)

	_, err = Lookup(sources, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")

	src, err := Lookup(sources, oracle.SourceID)
	require.NoError(t, err)
	assert.Equal(t, oracle.SourceID, src.GetSourceID())
}
