package perfmon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func TestDeploymentAndComponentTiming(t *testing.T) {
	m, err := NewMonitor(nil)
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	m.StartDeployment("dep-1")
	m.StartComponent("dep-1", types.ComponentSettings)
	time.Sleep(5 * time.Millisecond)
	m.EndComponent("dep-1", types.ComponentSettings)
	m.EndDeployment("dep-1")

	summary := m.Summary("dep-1")
	assert.Greater(t, summary.Duration, time.Duration(0))
	assert.Contains(t, summary.ComponentDurations, types.ComponentSettings)
}

func TestCheckThresholdsViolatesOnTightLimits(t *testing.T) {
	m, err := NewMonitor(&types.PerformanceThresholds{
		DeploymentTimeout: time.Nanosecond,
		ComponentTimeout:  time.Nanosecond,
		HeapThresholdBytes: 1,
	})
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	m.StartDeployment("dep-1")
	m.StartComponent("dep-1", types.ComponentSettings)
	time.Sleep(time.Millisecond)
	m.EndComponent("dep-1", types.ComponentSettings)
	m.RecordMemory("dep-1", "post-write")
	m.EndDeployment("dep-1")

	violations := m.CheckThresholds("dep-1")
	require.NotEmpty(t, violations)

	var kinds []string
	for _, v := range violations {
		kinds = append(kinds, v.Kind)
	}
	assert.Contains(t, kinds, "deployment_timeout")
	assert.Contains(t, kinds, "component_timeout")
	assert.Contains(t, kinds, "heap_threshold")
}

func TestReportIncludesSummaryAndViolations(t *testing.T) {
	m, err := NewMonitor(nil)
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	m.StartDeployment("dep-1")
	m.EndDeployment("dep-1")

	report := m.Report("dep-1")
	assert.Contains(t, report, "dep-1")
	assert.Contains(t, report, "no threshold violations")
}

func TestSummaryOfUnknownDeploymentIsZeroValue(t *testing.T) {
	m, err := NewMonitor(nil)
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	s := m.Summary("never-started")
	assert.Equal(t, time.Duration(0), s.Duration)
	assert.Equal(t, 0, s.Samples)
}
