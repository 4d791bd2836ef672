// Package correlation attributes elevated aggregate metrics to the specific
// processes most likely responsible for them.
package correlation

import (
	"fmt"
	"sort"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

// Category trigger thresholds: correlation only runs for a category when
// its aggregate metric is elevated enough to be worth explaining.
const (
	cpuTriggerPercent = 50.0
	diskTriggerMBps   = 50.0
	topKCPU           = 5
	topKMemory        = 5
	topKDisk          = 3
	cpuFloorPercent   = 10.0
	memoryFloorShare  = 0.05 // of total physical memory
	diskFloorBytes    = 10 * 1024 * 1024
)

// Engine ranks offending processes per triggered category.
type Engine struct {
	logger *logger.Logger
}

// NewEngine 创建关联分析引擎
func NewEngine(logger *logger.Logger) *Engine {
	return &Engine{logger: logger}
}

// Correlate returns the process attributions for every triggered category.
// With no trigger crossed it returns nothing; that is the normal state.
func (e *Engine) Correlate(snapshot *model.Snapshot, processes []model.ProcessSample) []model.Correlation {
	if snapshot == nil || len(processes) == 0 {
		return nil
	}

	var result []model.Correlation
	if snapshot.CPU.Usage > cpuTriggerPercent {
		result = append(result, e.correlateCPU(snapshot, processes)...)
	}
	if snapshot.Memory.Pressure != model.PressureNormal {
		result = append(result, e.correlateMemory(snapshot, processes)...)
	}
	if snapshot.CombinedDiskMBps() > diskTriggerMBps {
		result = append(result, e.correlateDisk(snapshot, processes)...)
	}
	return result
}

func (e *Engine) correlateCPU(snapshot *model.Snapshot, processes []model.ProcessSample) []model.Correlation {
	ranked := topProcesses(processes, topKCPU, func(p model.ProcessSample) float64 {
		return p.CPUPercent
	})

	var out []model.Correlation
	for _, proc := range ranked {
		if proc.CPUPercent < cpuFloorPercent {
			continue
		}
		strength := clampStrength(proc.CPUPercent / snapshot.CPU.Usage)
		out = append(out, model.Correlation{
			SourceMetric: model.MetricCPUUsage,
			PID:          proc.PID,
			ProcessName:  proc.Name,
			Strength:     strength,
			Description:  describeCPU(proc),
		})
	}
	return out
}

func (e *Engine) correlateMemory(snapshot *model.Snapshot, processes []model.ProcessSample) []model.Correlation {
	total := snapshot.Memory.Total
	if total == 0 {
		return nil
	}

	ranked := topProcesses(processes, topKMemory, func(p model.ProcessSample) float64 {
		return float64(p.MemoryBytes)
	})

	var out []model.Correlation
	for _, proc := range ranked {
		share := float64(proc.MemoryBytes) / float64(total)
		if share < memoryFloorShare {
			continue
		}
		used := snapshot.Memory.Used
		if used == 0 {
			used = total
		}
		strength := clampStrength(float64(proc.MemoryBytes) / float64(used))
		out = append(out, model.Correlation{
			SourceMetric: model.MetricMemoryUsage,
			PID:          proc.PID,
			ProcessName:  proc.Name,
			Strength:     strength,
			Description:  describeMemory(proc),
		})
	}
	return out
}

func (e *Engine) correlateDisk(snapshot *model.Snapshot, processes []model.ProcessSample) []model.Correlation {
	var totalBytes uint64
	for _, proc := range processes {
		totalBytes += proc.DiskBytes
	}
	if totalBytes == 0 {
		return nil
	}

	ranked := topProcesses(processes, topKDisk, func(p model.ProcessSample) float64 {
		return float64(p.DiskBytes)
	})

	// Attribute to whichever direction carries more of the throughput.
	metric := model.MetricDiskReadMBps
	if snapshot.Disk.WriteMBps > snapshot.Disk.ReadMBps {
		metric = model.MetricDiskWriteMBps
	}

	var out []model.Correlation
	for _, proc := range ranked {
		if proc.DiskBytes < diskFloorBytes {
			continue
		}
		strength := clampStrength(float64(proc.DiskBytes) / float64(totalBytes))
		out = append(out, model.Correlation{
			SourceMetric: metric,
			PID:          proc.PID,
			ProcessName:  proc.Name,
			Strength:     strength,
			Description:  describeDisk(proc),
		})
	}
	return out
}

// topProcesses returns the k processes with the highest value of dim,
// descending. The input slice is not modified.
func topProcesses(processes []model.ProcessSample, k int, dim func(model.ProcessSample) float64) []model.ProcessSample {
	sorted := make([]model.ProcessSample, len(processes))
	copy(sorted, processes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return dim(sorted[i]) > dim(sorted[j])
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

func clampStrength(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func describeCPU(proc model.ProcessSample) string {
	switch proc.Category {
	case model.CategoryBrowser:
		return fmt.Sprintf("Browser %s is using %.0f%% CPU, likely a heavy page or too many tabs", proc.Name, proc.CPUPercent)
	case model.CategoryDevTool:
		return fmt.Sprintf("Developer tool %s is using %.0f%% CPU, possibly a build or indexing run", proc.Name, proc.CPUPercent)
	case model.CategorySystemProcess:
		return fmt.Sprintf("System process %s is using %.0f%% CPU", proc.Name, proc.CPUPercent)
	default:
		return fmt.Sprintf("%s is using %.0f%% CPU", proc.Name, proc.CPUPercent)
	}
}

func describeMemory(proc model.ProcessSample) string {
	gb := float64(proc.MemoryBytes) / (1024 * 1024 * 1024)
	switch proc.Category {
	case model.CategoryBrowser:
		return fmt.Sprintf("Browser %s is holding %.1f GB of memory across its tabs", proc.Name, gb)
	case model.CategoryDevTool:
		return fmt.Sprintf("Developer tool %s is holding %.1f GB of memory", proc.Name, gb)
	case model.CategorySystemProcess:
		return fmt.Sprintf("System process %s is holding %.1f GB of memory", proc.Name, gb)
	default:
		return fmt.Sprintf("%s is holding %.1f GB of memory", proc.Name, gb)
	}
}

func describeDisk(proc model.ProcessSample) string {
	mb := float64(proc.DiskBytes) / (1024 * 1024)
	switch proc.Category {
	case model.CategoryDevTool:
		return fmt.Sprintf("Developer tool %s has moved %.0f MB of disk data, possibly a build or checkout", proc.Name, mb)
	case model.CategoryMedia:
		return fmt.Sprintf("Media app %s has moved %.0f MB of disk data", proc.Name, mb)
	default:
		return fmt.Sprintf("%s has moved %.0f MB of disk data", proc.Name, mb)
	}
}
