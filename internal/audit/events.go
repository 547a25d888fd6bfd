package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

func (l *Logger) entry(level types.AuditLevel, operation, action, result, configID string, platform types.Platform, context map[string]interface{}) types.AuditEntry {
	return types.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Level:     level,
		Operation: operation,
		Action:    action,
		Result:    result,
		ConfigID:  configID,
		Platform:  platform,
		Context:   context,
	}
}

// LogDeploymentStart records the start of a deployment. Per spec.md §5's
// ordering guarantee (c), this must be emitted before any component
// record for the same deployment.
func (l *Logger) LogDeploymentStart(deploymentID string, platform types.Platform, options types.DeploymentOptions) {
	l.write(l.entry(types.AuditInfo, "deployment", "DEPLOYMENT_STARTED", "in_progress", deploymentID, platform,
		map[string]interface{}{"dryRun": options.DryRun, "conflictStrategy": string(options.ConflictStrategy)}))
}

// LogDeploymentComplete records the end of a deployment.
func (l *Logger) LogDeploymentComplete(deploymentID string, result types.DeploymentResult) {
	res := "success"
	if !result.Success {
		res = "failure"
	}
	l.write(l.entry(types.AuditInfo, "deployment", "DEPLOYMENT_COMPLETED", res, deploymentID, result.Platform,
		map[string]interface{}{
			"filesDeployed":     result.Summary.FilesDeployed,
			"filesSkipped":      result.Summary.FilesSkipped,
			"conflictsResolved": result.Summary.ConflictsResolved,
		}))
}

// LogComponentDeployment records one component's deployment outcome.
func (l *Logger) LogComponentDeployment(deploymentID string, platform types.Platform, component types.Component, outcome string) {
	l.write(l.entry(types.AuditInfo, "component", "COMPONENT_DEPLOYED", outcome, deploymentID, platform,
		map[string]interface{}{"component": string(component)}))
}

// LogComponentDeploymentWithChanges records a component's deployment
// outcome together with the tree diff the Diff Engine computed between
// the target's prior and new content.
func (l *Logger) LogComponentDeploymentWithChanges(deploymentID string, platform types.Platform, component types.Component, outcome string, changes types.DiffResult) {
	e := l.entry(types.AuditInfo, "component", "COMPONENT_DEPLOYED", outcome, deploymentID, platform,
		map[string]interface{}{"component": string(component)})
	e.Changes = &changes
	l.write(e)
}

// LogSecurityEvent records a security-relevant event with a dedicated
// securityContext payload (always redacted before serialization).
func (l *Logger) LogSecurityEvent(deploymentID, message string, securityContext map[string]interface{}) {
	e := l.entry(types.AuditWarning, "security", "SECURITY_EVENT", message, deploymentID, "", nil)
	e.SecurityContext = securityContext
	l.write(e)
}

// LogRollback records that a rollback occurred and why.
func (l *Logger) LogRollback(deploymentID, reason string) {
	l.write(l.entry(types.AuditWarning, "recovery", "ROLLBACK", reason, deploymentID, "", nil))
}

// LogError records an operation-level error.
func (l *Logger) LogError(deploymentID string, err error) {
	l.write(l.entry(types.AuditError, "error", "ERROR", err.Error(), deploymentID, "", nil))
}

// LogWarning records a non-fatal warning.
func (l *Logger) LogWarning(deploymentID, message string) {
	l.write(l.entry(types.AuditWarning, "warning", "WARNING", message, deploymentID, "", nil))
}

// LogDebug records a debug-level trace message.
func (l *Logger) LogDebug(deploymentID, message string) {
	l.write(l.entry(types.AuditDebug, "debug", "DEBUG", message, deploymentID, "", nil))
}
