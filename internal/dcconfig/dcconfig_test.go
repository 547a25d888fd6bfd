package dcconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func TestLoadWithNoFileUsesBuiltInDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(10485760), cfg.LargeFileThresholdBytes)
	assert.Equal(t, int64(209715200), cfg.MemoryThresholdBytes)
	assert.Equal(t, 30, cfg.DefaultRetentionDays)
	assert.Equal(t, 30, cfg.RetentionDaysByPlatform[types.PlatformClaudeCode])
}

func TestLoadMissingFilePathIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dcconfig.toml")
	contents := `
large_file_threshold_bytes = 1048576
default_retention_days = 7

[retention_days]
cursor = 14
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(1048576), cfg.LargeFileThresholdBytes)
	assert.Equal(t, 7, cfg.DefaultRetentionDays)
	assert.Equal(t, 7, cfg.RetentionDaysByPlatform[types.PlatformClaudeCode])
	assert.Equal(t, 14, cfg.RetentionDaysByPlatform[types.PlatformCursor])
}

func TestLoadEnvVarOverridesFileAndDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dcconfig.toml")
	require.NoError(t, os.WriteFile(path, []byte("default_retention_days = 7\n"), 0o644))

	t.Setenv("DEPLOYCORE_DEFAULT_RETENTION_DAYS", "90")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.DefaultRetentionDays)
}

func TestLoadPlatformRetentionEnvVarOverridesOnlyThatPlatform(t *testing.T) {
	t.Setenv("DEPLOYCORE_RETENTION_DAYS_KIRO", "60")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.RetentionDaysByPlatform[types.PlatformKiro])
	assert.Equal(t, 30, cfg.RetentionDaysByPlatform[types.PlatformClaudeCode])
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("DEPLOYCORE_DEPLOYMENT_TIMEOUT", "not-a-duration")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveThreshold(t *testing.T) {
	t.Setenv("DEPLOYCORE_MEMORY_THRESHOLD_BYTES", "-5")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLookupKeyReturnsNilForUnknownKey(t *testing.T) {
	assert.Nil(t, LookupKey("dcconfig.nonexistent"))
	assert.NotNil(t, LookupKey("dcconfig.default_retention_days"))
}
