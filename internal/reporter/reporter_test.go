package reporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func TestSummarizeReturnsResultSummaryUnchanged(t *testing.T) {
	result := types.DeploymentResult{
		Summary: types.Summary{FilesDeployed: 3, FilesSkipped: 1, ConflictsResolved: 2, Duration: 5 * time.Second},
	}
	assert.Equal(t, result.Summary, Summarize(result))
}

func TestAnalyzeFlagsHighConflictRate(t *testing.T) {
	result := types.DeploymentResult{
		Success: true,
		Summary: types.Summary{FilesDeployed: 2, FilesSkipped: 0, ConflictsResolved: 2},
	}
	findings := Analyze(result)
	require.Len(t, findings, 1)
	assert.Equal(t, "high_conflict_rate", findings[0].Code)
}

func TestAnalyzeFlagsFullySkippedComponent(t *testing.T) {
	result := types.DeploymentResult{
		Success: true,
		Summary: types.Summary{FilesDeployed: 1, FilesSkipped: 1},
		Conflicts: []types.ConflictRecord{
			{Component: types.ComponentHooks, Resolution: types.ResolutionSkipped},
		},
		DeployedComponents: []types.Component{types.ComponentSettings},
	}
	findings := Analyze(result)
	require.Len(t, findings, 1)
	assert.Equal(t, "component_fully_skipped", findings[0].Code)
}

func TestAnalyzeDoesNotFlagComponentThatAlsoDeployedSomeFiles(t *testing.T) {
	result := types.DeploymentResult{
		Success: true,
		Summary: types.Summary{FilesDeployed: 2, FilesSkipped: 1},
		Conflicts: []types.ConflictRecord{
			{Component: types.ComponentHooks, Resolution: types.ResolutionSkipped},
		},
		DeployedComponents: []types.Component{types.ComponentHooks},
	}
	findings := Analyze(result)
	assert.Empty(t, findings)
}

func TestAnalyzeFlagsRecordedErrorsAndOverallFailure(t *testing.T) {
	result := types.DeploymentResult{
		Success: false,
		Errors:  []types.ErrorDetail{{Code: "write_failed", Severity: "critical", Message: "disk full"}},
	}
	findings := Analyze(result)
	require.Len(t, findings, 2)
	assert.Equal(t, "write_failed", findings[0].Code)
	assert.Equal(t, "deployment_failed", findings[1].Code)
}

func TestRecommendMapsKnownCodesAndFallsBackForUnknownSevere(t *testing.T) {
	findings := []Finding{
		{Code: "high_conflict_rate", Severity: "medium"},
		{Code: "component_fully_skipped", Severity: "medium"},
		{Code: "deployment_failed", Severity: "high"},
		{Code: "some_unknown_code", Severity: "critical"},
		{Code: "low_severity_noise", Severity: "low"},
	}
	recommendations := Recommend(findings)
	require.Len(t, recommendations, 4)
	assert.Contains(t, recommendations[3], "some_unknown_code")
}

func TestBuildAssemblesReportFromResult(t *testing.T) {
	result := types.DeploymentResult{
		DeploymentID: "dep-1",
		Platform:     types.PlatformClaudeCode,
		Success:      true,
		Summary:      types.Summary{FilesDeployed: 1},
	}
	report := Build(result, time.Unix(0, 0).UTC())
	assert.Equal(t, "dep-1", report.DeploymentID)
	assert.Equal(t, types.PlatformClaudeCode, report.Platform)
	assert.Empty(t, report.Findings)
	assert.Empty(t, report.Recommendations)
}

func TestRenderJSONProducesValidDeploymentID(t *testing.T) {
	report := Build(types.DeploymentResult{DeploymentID: "dep-2", Success: true}, time.Unix(0, 0).UTC())
	data, err := RenderJSON(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dep-2")
}

func TestRenderMarkdownIncludesSummaryAndFindings(t *testing.T) {
	result := types.DeploymentResult{
		DeploymentID: "dep-3",
		Success:      false,
		Summary:      types.Summary{FilesDeployed: 2, FilesSkipped: 1},
		Errors:       []types.ErrorDetail{{Code: "write_failed", Severity: "critical", Message: "disk full"}},
	}
	report := Build(result, time.Unix(0, 0).UTC())
	md, err := RenderMarkdown(report)
	require.NoError(t, err)
	assert.Contains(t, md, "dep-3")
	assert.Contains(t, md, "write_failed")
	assert.Contains(t, md, "Files deployed: 2")
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	report := Build(types.DeploymentResult{
		DeploymentID: "dep-4",
		Errors:       []types.ErrorDetail{{Code: "x", Severity: "high", Message: "<script>alert(1)</script>"}},
	}, time.Unix(0, 0).UTC())
	html, err := RenderHTML(report)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "dep-4")
}

func TestWriteAllWritesThreeReportFiles(t *testing.T) {
	dir := t.TempDir()
	report := Build(types.DeploymentResult{DeploymentID: "dep-5", Success: true}, time.Unix(0, 0).UTC())

	require.NoError(t, WriteAll(dir, report))

	base := filepath.Join(dir, "deployment-report-dep-5")
	for _, ext := range []string{".json", ".html", ".md"} {
		info, err := os.Stat(base + ext)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
