package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func TestLogDeploymentLifecycleAndAuditTrail(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	logger.LogDeploymentStart("dep-1", types.PlatformClaudeCode, types.DeploymentOptions{})
	logger.LogComponentDeployment("dep-1", types.PlatformClaudeCode, types.ComponentSettings, "written")
	logger.LogDeploymentComplete("dep-1", types.DeploymentResult{Success: true, Platform: types.PlatformClaudeCode})

	trail, err := logger.GetAuditTrail("dep-1", 0)
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, "DEPLOYMENT_STARTED", trail[0].Action)
	assert.Equal(t, "COMPONENT_DEPLOYED", trail[1].Action)
	assert.Equal(t, "DEPLOYMENT_COMPLETED", trail[2].Action)
}

func TestGetRecentLogsLimit(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	for i := 0; i < 5; i++ {
		logger.LogDebug("dep-1", "tick")
	}

	recent, err := logger.GetRecentLogs(2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestLogSecurityEventRedactsSensitiveKeys(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	logger.LogSecurityEvent("dep-1", "suspicious write", map[string]interface{}{
		"apiKey": "sk-123",
		"path":   "/etc/passwd",
	})

	trail, err := logger.GetAuditTrail("dep-1", 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, redactedPlaceholder, trail[0].SecurityContext["apiKey"])
	assert.Equal(t, "/etc/passwd", trail[0].SecurityContext["path"])
}

func TestLogErrorRecordsMessage(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	logger.LogError("dep-1", errors.New("disk full"))

	trail, err := logger.GetAuditTrail("dep-1", 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "disk full", trail[0].Result)
}

func TestDeployLogFileIsHumanReadable(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)
	logger.LogWarning("dep-1", "low disk space")

	matches, err := filepath.Glob(filepath.Join(dir, "deploy-*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "low disk space")
}

func TestRedactWalksNestedMaps(t *testing.T) {
	input := map[string]interface{}{
		"token": "abc",
		"nested": map[string]interface{}{
			"Secret": "xyz",
			"fine":   "ok",
		},
	}
	out := redact(input).(map[string]interface{})
	assert.Equal(t, redactedPlaceholder, out["token"])
	nested := out["nested"].(map[string]interface{})
	assert.Equal(t, redactedPlaceholder, nested["Secret"])
	assert.Equal(t, "ok", nested["fine"])
}
