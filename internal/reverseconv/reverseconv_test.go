package reverseconv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func TestRecordAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	artifacts := []types.TargetArtifact{
		{Path: "/home/settings.json", Component: types.ComponentSettings, Content: []byte(`{"a":1}`)},
	}
	recorded, err := store.Record("meta-1", "dep-1", types.PlatformClaudeCode, artifacts)
	require.NoError(t, err)
	assert.Len(t, recorded.Artifacts, 1)

	loaded, found, err := store.Load("meta-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, recorded.Artifacts[0].ContentHash, loaded.Artifacts[0].ContentHash)
}

func TestLoadMissingReportsNotFoundWithoutError(t *testing.T) {
	store := New(t.TempDir())
	_, found, err := store.Load("never-recorded")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadCorruptFileReportsError(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, found, err := store.Load("bad")
	assert.False(t, found)
	assert.Error(t, err)
}

func TestComputeDeltaDetectsAddedRemovedAndChanged(t *testing.T) {
	previous := []ArtifactSnapshot{
		{Path: "a.json", Component: types.ComponentSettings, ContentHash: "hash-a"},
		{Path: "b.json", Component: types.ComponentHooks, ContentHash: "hash-b"},
	}
	current := []ArtifactSnapshot{
		{Path: "a.json", Component: types.ComponentSettings, ContentHash: "hash-a-changed"},
		{Path: "c.json", Component: types.ComponentAgents, ContentHash: "hash-c"},
	}

	delta := ComputeDelta(previous, current)
	require.Len(t, delta.Added, 1)
	assert.Equal(t, "c.json", delta.Added[0].Path)
	require.Len(t, delta.Removed, 1)
	assert.Equal(t, "b.json", delta.Removed[0].Path)
	require.Len(t, delta.Changed, 1)
	assert.Equal(t, "contentHash", delta.Changed[0].Field)
}
