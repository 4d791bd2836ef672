package insight

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

// BuiltinRules returns the fixed, ordered rule set. Order matters: when two
// rules emit the same insight type in one pass, the first one wins.
func BuiltinRules(thresholds Thresholds) []Rule {
	return []Rule{
		&cpuSaturationRule{thresholds: thresholds},
		&memoryPressureRule{},
		&diskIORule{thresholds: thresholds},
		&thermalRule{},
	}
}

func newInsight(t model.InsightType, severity model.Severity, at time.Time) model.Insight {
	return model.Insight{
		ID:        uuid.New().String(),
		Type:      t,
		Severity:  severity,
		Timestamp: at,
	}
}

// cpuSaturationRule fires when total CPU usage crosses the warning
// threshold, escalating to critical past the critical threshold.
type cpuSaturationRule struct {
	thresholds Thresholds
}

func (r *cpuSaturationRule) Name() string { return "cpu_saturation" }

func (r *cpuSaturationRule) Evaluate(ctx *Context) *model.Insight {
	usage := ctx.Snapshot.CPU.Usage
	if usage <= r.thresholds.CPUWarning {
		return nil
	}

	severity := model.SeverityWarning
	if usage > r.thresholds.CPUCritical {
		severity = model.SeverityCritical
	}

	ins := newInsight(model.InsightCPUSaturation, severity, ctx.Snapshot.Timestamp)
	ins.Title = "CPU is saturated"
	ins.Description = fmt.Sprintf("Total CPU usage is at %.0f%%.", usage)
	ins.Cause = "Overall processor demand exceeds capacity."
	ins.Metric = model.MetricCPUUsage
	ins.MetricValue = usage

	if top, ok := topProcessBy(ctx.Processes, func(p model.ProcessSample) float64 { return p.CPUPercent }); ok {
		ins.AffectedProcesses = []model.ProcessSample{top}
		ins.Cause = fmt.Sprintf("%s alone accounts for %.0f%% CPU.", top.Name, top.CPUPercent)
		ins.SuggestedActions = append(ins.SuggestedActions, model.SuggestedAction{
			Action: fmt.Sprintf("Quit %s", top.Name),
			Detail: fmt.Sprintf("Frees an estimated %.0f%% of CPU capacity.", top.CPUPercent),
			Impact: top.CPUPercent,
		})
	}
	ins.SuggestedActions = append(ins.SuggestedActions, model.SuggestedAction{
		Action: "Close applications you are not actively using",
		Impact: 10,
	})

	return &ins
}

// memoryPressureRule fires whenever the platform reports elevated memory
// pressure. Critical pressure escalates the severity.
type memoryPressureRule struct{}

func (r *memoryPressureRule) Name() string { return "memory_pressure" }

func (r *memoryPressureRule) Evaluate(ctx *Context) *model.Insight {
	pressure := ctx.Snapshot.Memory.Pressure
	if pressure == model.PressureNormal || pressure == "" {
		return nil
	}

	severity := model.SeverityWarning
	if pressure == model.PressureCritical {
		severity = model.SeverityCritical
	}

	totalGB := float64(ctx.Snapshot.Memory.Total) / (1024 * 1024 * 1024)

	ins := newInsight(model.InsightMemoryPressure, severity, ctx.Snapshot.Timestamp)
	ins.Title = "Memory pressure is elevated"
	ins.Description = fmt.Sprintf("Memory pressure is %s with %.0f%% of memory in use.",
		pressure, ctx.Snapshot.MemoryUsagePercent())
	ins.Cause = "Working set no longer fits comfortably in physical memory."
	ins.Metric = model.MetricMemoryUsage
	ins.MetricValue = ctx.Snapshot.MemoryUsagePercent()

	if top, ok := topProcessBy(ctx.Processes, func(p model.ProcessSample) float64 { return float64(p.MemoryBytes) }); ok {
		topGB := float64(top.MemoryBytes) / (1024 * 1024 * 1024)
		ins.AffectedProcesses = []model.ProcessSample{top}
		if totalGB > 0 {
			ins.Description = fmt.Sprintf("Memory pressure is %s; %s is holding %.1f GB of %.0f GB.",
				pressure, top.Name, topGB, totalGB)
		}
		ins.Cause = fmt.Sprintf("%s is the largest memory consumer at %.1f GB.", top.Name, topGB)
		impact := 0.0
		if ctx.Snapshot.Memory.Total > 0 {
			impact = float64(top.MemoryBytes) / float64(ctx.Snapshot.Memory.Total) * 100
		}
		ins.SuggestedActions = append(ins.SuggestedActions, model.SuggestedAction{
			Action: fmt.Sprintf("Quit %s", top.Name),
			Detail: fmt.Sprintf("Releases about %.1f GB of memory.", topGB),
			Impact: impact,
		})
	}
	ins.SuggestedActions = append(ins.SuggestedActions, model.SuggestedAction{
		Action: "Close browser tabs and idle applications",
		Impact: 5,
	})

	return &ins
}

// diskIORule fires on sustained combined disk throughput above the warning
// threshold, escalating past the critical threshold.
type diskIORule struct {
	thresholds Thresholds
}

func (r *diskIORule) Name() string { return "disk_io" }

func (r *diskIORule) Evaluate(ctx *Context) *model.Insight {
	combined := ctx.Snapshot.CombinedDiskMBps()
	if combined <= r.thresholds.DiskIOWarning {
		return nil
	}

	severity := model.SeverityWarning
	if combined >= r.thresholds.DiskIOCritical {
		severity = model.SeverityCritical
	}

	ins := newInsight(model.InsightDiskIO, severity, ctx.Snapshot.Timestamp)
	ins.Title = "Heavy disk I/O"
	ins.Description = fmt.Sprintf("Combined disk throughput is %.0f MB/s (%.0f read, %.0f write).",
		combined, ctx.Snapshot.Disk.ReadMBps, ctx.Snapshot.Disk.WriteMBps)
	ins.Cause = "A task is reading or writing large amounts of data."
	ins.Metric = model.MetricDiskReadMBps
	ins.MetricValue = combined

	if top, ok := topProcessBy(ctx.Processes, func(p model.ProcessSample) float64 { return float64(p.DiskBytes) }); ok {
		ins.AffectedProcesses = []model.ProcessSample{top}
		ins.Cause = fmt.Sprintf("%s has moved the most disk data of any process.", top.Name)
		ins.SuggestedActions = append(ins.SuggestedActions, model.SuggestedAction{
			Action: fmt.Sprintf("Pause or reschedule %s", top.Name),
			Detail: "Defer the heavy I/O task to an idle period.",
			Impact: 50,
		})
	}
	ins.SuggestedActions = append(ins.SuggestedActions, model.SuggestedAction{
		Action: "Avoid launching additional disk-heavy tasks until throughput drops",
		Impact: 10,
	})

	return &ins
}

// thermalRule fires when the platform thermal state reaches serious or
// critical.
type thermalRule struct{}

func (r *thermalRule) Name() string { return "thermal" }

func (r *thermalRule) Evaluate(ctx *Context) *model.Insight {
	state := ctx.Snapshot.Thermal.State
	if state != model.ThermalSerious && state != model.ThermalCritical {
		return nil
	}

	severity := model.SeverityWarning
	if state == model.ThermalCritical {
		severity = model.SeverityCritical
	}

	ins := newInsight(model.InsightThermal, severity, ctx.Snapshot.Timestamp)
	ins.Title = "System is running hot"
	ins.Description = fmt.Sprintf("Thermal state is %s at %.0f°C CPU temperature.",
		state, ctx.Snapshot.Thermal.CPUTemperature)
	ins.Cause = "Sustained load is outpacing the cooling system."
	ins.Metric = model.MetricCPUTemperature
	ins.MetricValue = ctx.Snapshot.Thermal.CPUTemperature

	if top, ok := topProcessBy(ctx.Processes, func(p model.ProcessSample) float64 { return p.CPUPercent }); ok {
		ins.AffectedProcesses = []model.ProcessSample{top}
		ins.SuggestedActions = append(ins.SuggestedActions, model.SuggestedAction{
			Action: fmt.Sprintf("Reduce the workload of %s", top.Name),
			Detail: "Lower CPU demand lets the machine shed heat.",
			Impact: top.CPUPercent,
		})
	}
	ins.SuggestedActions = append(ins.SuggestedActions, model.SuggestedAction{
		Action: "Check that vents and fans are unobstructed",
		Impact: 15,
	})

	return &ins
}
