// Package perfmon implements the deployment core's Performance Monitor
// (spec.md §4.7): per-deployment and per-component timing, memory
// snapshots, threshold checks, and a human-readable report. Metrics are
// additionally exported through the OpenTelemetry metrics SDK's stdout
// exporter so the same numbers are printed periodically, following the
// teacher's pattern of attaching observability alongside, never inside,
// control flow (internal/hooks/hooks_otel.go).
package perfmon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/streamer"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Default thresholds (spec.md §4.7), used whenever a Monitor is built
// without overrides.
const (
	DefaultDeploymentTimeout = 30 * time.Second
	DefaultComponentTimeout  = 10 * time.Second
	DefaultHeapThresholdBytes int64 = 200 * 1024 * 1024
)

// Violation is one threshold breach CheckThresholds reports.
type Violation struct {
	Kind      string // "deployment_timeout" | "component_timeout" | "heap_threshold"
	Component types.Component
	Observed  time.Duration
	ObservedBytes int64
	Limit     time.Duration
	LimitBytes int64
}

type componentStats struct {
	Start time.Time
	End   time.Time
	Done  bool
}

type deploymentStats struct {
	Start      time.Time
	End        time.Time
	Done       bool
	Components map[types.Component]*componentStats
	Memory     []streamer.MemorySnapshot
	Stages     []string
}

// Monitor tracks timing and memory for concurrently in-flight
// deployments, keyed by deployment id.
type Monitor struct {
	mu          sync.Mutex
	deployments map[string]*deploymentStats
	thresholds  types.PerformanceThresholds

	provider           *sdkmetric.MeterProvider
	deploymentDuration metric.Float64Histogram
	componentDuration  metric.Float64Histogram
	heapUsage          metric.Int64Histogram
}

// NewMonitor builds a Monitor. A nil thresholds uses the package
// defaults. The OTel stdout metric exporter is wired so every recorded
// duration/memory sample is also written to stdout on its periodic
// export tick; reporting to the caller (Summary, Report)
// never depends on that export succeeding.
func NewMonitor(thresholds *types.PerformanceThresholds) (*Monitor, error) {
	resolved := types.PerformanceThresholds{
		DeploymentTimeout:  DefaultDeploymentTimeout,
		ComponentTimeout:   DefaultComponentTimeout,
		HeapThresholdBytes: DefaultHeapThresholdBytes,
	}
	if thresholds != nil {
		if thresholds.DeploymentTimeout > 0 {
			resolved.DeploymentTimeout = thresholds.DeploymentTimeout
		}
		if thresholds.ComponentTimeout > 0 {
			resolved.ComponentTimeout = thresholds.ComponentTimeout
		}
		if thresholds.HeapThresholdBytes > 0 {
			resolved.HeapThresholdBytes = thresholds.HeapThresholdBytes
		}
	}

	exporter, err := stdoutmetric.New(stdoutmetric.WithoutTimestamps())
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(time.Minute))),
	)
	meter := provider.Meter("taptik-deploy-core/perfmon")

	deploymentDuration, err := meter.Float64Histogram("deployment.duration_ms")
	if err != nil {
		return nil, err
	}
	componentDuration, err := meter.Float64Histogram("component.duration_ms")
	if err != nil {
		return nil, err
	}
	heapUsage, err := meter.Int64Histogram("deployment.heap_used_bytes")
	if err != nil {
		return nil, err
	}

	return &Monitor{
		deployments:        make(map[string]*deploymentStats),
		thresholds:         resolved,
		provider:           provider,
		deploymentDuration: deploymentDuration,
		componentDuration:  componentDuration,
		heapUsage:          heapUsage,
	}, nil
}

// Shutdown flushes and stops the OTel meter provider.
func (m *Monitor) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

func (m *Monitor) stats(id string) *deploymentStats {
	d, ok := m.deployments[id]
	if !ok {
		d = &deploymentStats{Components: make(map[types.Component]*componentStats)}
		m.deployments[id] = d
	}
	return d
}

// StartDeployment begins timing deployment id.
func (m *Monitor) StartDeployment(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats(id).Start = time.Now()
}

// EndDeployment stops timing deployment id and records its duration.
func (m *Monitor) EndDeployment(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.stats(id)
	d.End = time.Now()
	d.Done = true
	m.deploymentDuration.Record(context.Background(), float64(d.End.Sub(d.Start).Milliseconds()),
		metric.WithAttributes(attribute.String("deployment_id", id)))
}

// StartComponent begins timing component c within deployment id.
func (m *Monitor) StartComponent(id string, c types.Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.stats(id)
	d.Components[c] = &componentStats{Start: time.Now()}
}

// EndComponent stops timing component c within deployment id.
func (m *Monitor) EndComponent(id string, c types.Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.stats(id)
	cs, ok := d.Components[c]
	if !ok {
		cs = &componentStats{Start: time.Now()}
		d.Components[c] = cs
	}
	cs.End = time.Now()
	cs.Done = true
	m.componentDuration.Record(context.Background(), float64(cs.End.Sub(cs.Start).Milliseconds()),
		metric.WithAttributes(attribute.String("deployment_id", id), attribute.String("component", string(c))))
}

// RecordMemory captures a memory snapshot labeled with stage for
// deployment id.
func (m *Monitor) RecordMemory(id, stage string) {
	snap := streamer.Snapshot()

	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.stats(id)
	d.Memory = append(d.Memory, snap)
	d.Stages = append(d.Stages, stage)

	m.heapUsage.Record(context.Background(), int64(snap.HeapUsed),
		metric.WithAttributes(attribute.String("deployment_id", id), attribute.String("stage", stage)))
}

// Summary is Summary(id)'s aggregated view of one deployment.
type Summary struct {
	Duration           time.Duration
	ComponentDurations map[types.Component]time.Duration
	PeakHeapUsed        uint64
	Samples            int
}

// Summary aggregates everything recorded for deployment id so far.
func (m *Monitor) Summary(id string) Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deployments[id]
	if !ok {
		return Summary{}
	}

	end := d.End
	if !d.Done {
		end = time.Now()
	}

	componentDurations := make(map[types.Component]time.Duration, len(d.Components))
	var peak uint64
	for c, cs := range d.Components {
		componentEnd := cs.End
		if !cs.Done {
			componentEnd = time.Now()
		}
		componentDurations[c] = componentEnd.Sub(cs.Start)
	}
	for _, snap := range d.Memory {
		if snap.HeapUsed > peak {
			peak = snap.HeapUsed
		}
	}

	return Summary{
		Duration:           end.Sub(d.Start),
		ComponentDurations: componentDurations,
		PeakHeapUsed:       peak,
		Samples:            len(d.Memory),
	}
}

// CheckThresholds reports every threshold breach observed so far for
// deployment id. Violations are informational only; they never abort a
// deployment.
func (m *Monitor) CheckThresholds(id string) []Violation {
	s := m.Summary(id)

	var violations []Violation
	if s.Duration > m.thresholds.DeploymentTimeout {
		violations = append(violations, Violation{
			Kind: "deployment_timeout", Observed: s.Duration, Limit: m.thresholds.DeploymentTimeout,
		})
	}
	for c, dur := range s.ComponentDurations {
		if dur > m.thresholds.ComponentTimeout {
			violations = append(violations, Violation{
				Kind: "component_timeout", Component: c, Observed: dur, Limit: m.thresholds.ComponentTimeout,
			})
		}
	}
	if int64(s.PeakHeapUsed) > m.thresholds.HeapThresholdBytes {
		violations = append(violations, Violation{
			Kind: "heap_threshold", ObservedBytes: int64(s.PeakHeapUsed), LimitBytes: m.thresholds.HeapThresholdBytes,
		})
	}
	return violations
}

// Report renders a human-readable performance report for deployment id.
func (m *Monitor) Report(id string) string {
	s := m.Summary(id)
	violations := m.CheckThresholds(id)

	report := fmt.Sprintf("Deployment %s: duration=%s peakHeap=%d bytes samples=%d\n", id, s.Duration, s.PeakHeapUsed, s.Samples)
	for c, dur := range s.ComponentDurations {
		report += fmt.Sprintf("  component %s: %s\n", c, dur)
	}
	if len(violations) == 0 {
		report += "  no threshold violations\n"
		return report
	}
	report += "  threshold violations:\n"
	for _, v := range violations {
		switch v.Kind {
		case "heap_threshold":
			report += fmt.Sprintf("    - %s: %d bytes (limit %d)\n", v.Kind, v.ObservedBytes, v.LimitBytes)
		default:
			report += fmt.Sprintf("    - %s %s: %s (limit %s)\n", v.Kind, v.Component, v.Observed, v.Limit)
		}
	}
	return report
}
