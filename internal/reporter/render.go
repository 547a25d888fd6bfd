package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Report is the structured payload every rendered format shares.
type Report struct {
	DeploymentID    string
	Platform        types.Platform
	Success         bool
	Summary         types.Summary
	Findings        []Finding
	Recommendations []string
	Errors          []types.ErrorDetail
	Warnings        []types.WarningDetail
	GeneratedAt     time.Time
}

// Build assembles a Report from a completed deployment result.
func Build(result types.DeploymentResult, generatedAt time.Time) Report {
	findings := Analyze(result)
	return Report{
		DeploymentID:    result.DeploymentID,
		Platform:        result.Platform,
		Success:         result.Success,
		Summary:         Summarize(result),
		Findings:        findings,
		Recommendations: Recommend(findings),
		Errors:          result.Errors,
		Warnings:        result.Warnings,
		GeneratedAt:     generatedAt,
	}
}

const markdownTemplate = `# Deployment Report: {{.DeploymentID}}

**Platform:** {{.Platform}}
**Success:** {{.Success}}
**Generated:** {{.GeneratedAt.Format "2006-01-02T15:04:05Z07:00"}}

## Summary

- Files deployed: {{.Summary.FilesDeployed}}
- Files skipped: {{.Summary.FilesSkipped}}
- Conflicts resolved: {{.Summary.ConflictsResolved}}
- Duration: {{.Summary.Duration}}

## Findings
{{if .Findings}}{{range .Findings}}
- **{{.Severity}}** ({{.Code}}): {{.Message}}
{{end}}{{else}}
none
{{end}}
## Recommendations
{{if .Recommendations}}{{range .Recommendations}}
- {{.}}
{{end}}{{else}}
none
{{end}}`

const htmlTemplateSource = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Deployment Report: {{.DeploymentID}}</title></head>
<body>
<h1>Deployment Report: {{.DeploymentID}}</h1>
<p>Platform: {{.Platform}} &mdash; Success: {{.Success}} &mdash; Generated: {{.GeneratedAt}}</p>
<h2>Summary</h2>
<ul>
<li>Files deployed: {{.Summary.FilesDeployed}}</li>
<li>Files skipped: {{.Summary.FilesSkipped}}</li>
<li>Conflicts resolved: {{.Summary.ConflictsResolved}}</li>
<li>Duration: {{.Summary.Duration}}</li>
</ul>
<h2>Findings</h2>
<ul>
{{range .Findings}}<li><strong>{{.Severity}}</strong> ({{.Code}}): {{.Message}}</li>
{{end}}
</ul>
<h2>Recommendations</h2>
<ul>
{{range .Recommendations}}<li>{{.}}</li>
{{end}}
</ul>
</body>
</html>
`

var mdTmpl = texttemplate.Must(texttemplate.New("report.md").Parse(markdownTemplate))
var htmlTmpl = htmltemplate.Must(htmltemplate.New("report.html").Parse(htmlTemplateSource))

// RenderMarkdown renders report as the §6 Markdown report body.
func RenderMarkdown(report Report) (string, error) {
	var buf bytes.Buffer
	if err := mdTmpl.Execute(&buf, report); err != nil {
		return "", deployerr.Wrap(deployerr.InternalInvariant, "render markdown report", err)
	}
	return buf.String(), nil
}

// RenderHTML renders report as the §6 HTML report body.
func RenderHTML(report Report) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, report); err != nil {
		return "", deployerr.Wrap(deployerr.InternalInvariant, "render html report", err)
	}
	return buf.String(), nil
}

// RenderJSON renders report as the §6 JSON report body.
func RenderJSON(report Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, deployerr.Wrap(deployerr.InternalInvariant, "render json report", err)
	}
	return data, nil
}

// WriteAll renders and writes all three report formats under dir, named
// "deployment-report-<id>.{json,html,md}" per spec.md §6.
func WriteAll(dir string, report Report) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return deployerr.Wrap(deployerr.InternalInvariant, "create reports directory", err)
	}

	jsonData, err := RenderJSON(report)
	if err != nil {
		return err
	}
	htmlData, err := RenderHTML(report)
	if err != nil {
		return err
	}
	mdData, err := RenderMarkdown(report)
	if err != nil {
		return err
	}

	base := filepath.Join(dir, "deployment-report-"+report.DeploymentID)
	if err := os.WriteFile(base+".json", jsonData, 0o640); err != nil {
		return deployerr.Wrap(deployerr.InternalInvariant, "write json report", err)
	}
	if err := os.WriteFile(base+".html", []byte(htmlData), 0o640); err != nil {
		return deployerr.Wrap(deployerr.InternalInvariant, "write html report", err)
	}
	if err := os.WriteFile(base+".md", []byte(mdData), 0o640); err != nil {
		return deployerr.Wrap(deployerr.InternalInvariant, "write markdown report", err)
	}
	return nil
}
