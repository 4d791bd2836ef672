package probe

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

// ProcessSampler is the gopsutil-backed ProcessProbe. Per-process readings
// that the platform refuses (permissions, zombie processes) degrade to zero
// for that field rather than dropping the sample.
type ProcessSampler struct {
	logger *logger.Logger
}

// NewProcessSampler 创建进程采样器
func NewProcessSampler(logger *logger.Logger) *ProcessSampler {
	return &ProcessSampler{logger: logger}
}

// Processes returns one sample per visible process. Processes whose name
// cannot be read are skipped entirely; everything else degrades per field.
func (p *ProcessSampler) Processes(ctx context.Context) ([]model.ProcessSample, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	samples := make([]model.ProcessSample, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}

		sample := model.ProcessSample{
			PID:      proc.Pid,
			Name:     name,
			Category: Classify(name),
		}

		if cpuPct, err := proc.CPUPercentWithContext(ctx); err == nil {
			sample.CPUPercent = cpuPct
		}
		if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
			sample.MemoryBytes = memInfo.RSS
		}
		if ioStat, err := proc.IOCountersWithContext(ctx); err == nil && ioStat != nil {
			sample.DiskBytes = ioStat.ReadBytes + ioStat.WriteBytes
		}

		samples = append(samples, sample)
	}

	return samples, nil
}

// categoryPatterns is checked in order; the first matching category wins.
var categoryPatterns = []struct {
	category model.ProcessCategory
	patterns []string
}{
	{model.CategoryBrowser, []string{
		"chrome", "chromium", "safari", "firefox", "edge", "brave", "opera",
		"webkit", "renderer",
	}},
	{model.CategorySystemProcess, []string{
		"kernel_task", "launchd", "windowserver", "systemd", "kworker",
		"mdworker", "mds_stores", "spotlight", "syslogd", "logd", "kthreadd",
	}},
	{model.CategoryMedia, []string{
		"spotify", "music", "vlc", "quicktime", "obs", "ffmpeg", "photos",
	}},
	{model.CategoryDevTool, []string{
		"code", "goland", "intellij", "pycharm", "xcode", "clion", "vim",
		"node", "java", "python", "cargo", "rustc", "clang", "gcc",
		"make", "cmake", "gradle", "docker", "containerd", "kubectl",
	}},
}

// Classify buckets a process by name pattern. Matching is substring based
// and case insensitive; unknown names land in CategoryOther.
func Classify(name string) model.ProcessCategory {
	lower := strings.ToLower(name)
	for _, entry := range categoryPatterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(lower, pattern) {
				return entry.category
			}
		}
	}
	return model.CategoryOther
}
