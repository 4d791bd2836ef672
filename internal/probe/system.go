package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

// SystemSampler is the gopsutil-backed SystemProbe. Disk and network
// throughput are computed as deltas between successive counter readings,
// so the first reading after startup reports zero rates.
//
// GPU usage/memory and fan speed have no portable gopsutil source; this
// sampler reports zero values for them and leaves richer readings to
// platform-specific SystemProbe implementations.
type SystemSampler struct {
	logger *logger.Logger
	mutex  sync.Mutex

	lastNetIO   *net.IOCountersStat
	lastNetTime time.Time

	lastDiskIO   map[string]disk.IOCountersStat
	lastDiskTime time.Time
}

// NewSystemSampler 创建系统采样器
func NewSystemSampler(logger *logger.Logger) *SystemSampler {
	return &SystemSampler{logger: logger}
}

// CPU reads total CPU usage since the previous call plus the core count.
// The performance/efficiency split is approximated from per-core readings:
// the busiest half of the cores is reported as the performance class.
func (s *SystemSampler) CPU(ctx context.Context) (model.CPUMetrics, error) {
	var m model.CPUMetrics

	percentages, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return m, fmt.Errorf("failed to get CPU percentage: %w", err)
	}
	if len(percentages) > 0 {
		m.Usage = percentages[0]
	}

	cores, err := cpu.CountsWithContext(ctx, true)
	if err == nil {
		m.CoreCount = cores
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err == nil && len(perCore) > 1 {
		m.PerformanceCoreUsage, m.EfficiencyCoreUsage = splitCoreClasses(perCore)
	} else {
		m.PerformanceCoreUsage = m.Usage
		m.EfficiencyCoreUsage = m.Usage
	}

	return m, nil
}

// splitCoreClasses averages the busier half of the cores as the performance
// class and the rest as the efficiency class.
func splitCoreClasses(perCore []float64) (perf, eff float64) {
	sorted := make([]float64, len(perCore))
	copy(sorted, perCore)
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j] > sorted[i] {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	half := len(sorted) / 2
	if half == 0 {
		half = 1
	}
	var hi, lo float64
	for i, v := range sorted {
		if i < half {
			hi += v
		} else {
			lo += v
		}
	}
	perf = hi / float64(half)
	if rest := len(sorted) - half; rest > 0 {
		eff = lo / float64(rest)
	}
	return perf, eff
}

// Memory reads virtual memory and swap usage. The pressure level is derived
// from the used percentage when the platform does not report one directly.
func (s *SystemSampler) Memory(ctx context.Context) (model.MemoryMetrics, error) {
	var m model.MemoryMetrics

	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return m, fmt.Errorf("failed to get memory info: %w", err)
	}

	m.Used = memInfo.Used
	m.Total = memInfo.Total
	m.Wired = memInfo.Wired
	m.Pressure = pressureFromPercent(memInfo.UsedPercent)

	swapInfo, err := mem.SwapMemoryWithContext(ctx)
	if err == nil {
		m.Swap = swapInfo.Used
	}

	return m, nil
}

func pressureFromPercent(usedPercent float64) model.MemoryPressure {
	switch {
	case usedPercent >= 90:
		return model.PressureCritical
	case usedPercent >= 75:
		return model.PressureWarning
	default:
		return model.PressureNormal
	}
}

// GPU has no portable reading; report zeros so the tick never fails.
func (s *SystemSampler) GPU(ctx context.Context) (model.GPUMetrics, error) {
	return model.GPUMetrics{}, nil
}

// Disk reads throughput as the delta between successive IO counter sums.
func (s *SystemSampler) Disk(ctx context.Context) (model.DiskMetrics, error) {
	var m model.DiskMetrics

	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return m, fmt.Errorf("failed to get disk IO counters: %w", err)
	}

	var readBytes, writeBytes, readOps, writeOps uint64
	for _, io := range counters {
		readBytes += io.ReadBytes
		writeBytes += io.WriteBytes
		readOps += io.ReadCount
		writeOps += io.WriteCount
	}
	m.ReadOps = readOps
	m.WriteOps = writeOps

	now := time.Now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.lastDiskIO != nil && !s.lastDiskTime.IsZero() {
		elapsed := now.Sub(s.lastDiskTime).Seconds()
		if elapsed > 0 {
			var lastRead, lastWrite uint64
			for _, io := range s.lastDiskIO {
				lastRead += io.ReadBytes
				lastWrite += io.WriteBytes
			}
			if readBytes >= lastRead {
				m.ReadMBps = float64(readBytes-lastRead) / elapsed / 1024 / 1024
			}
			if writeBytes >= lastWrite {
				m.WriteMBps = float64(writeBytes-lastWrite) / elapsed / 1024 / 1024
			}
		}
	}

	s.lastDiskIO = counters
	s.lastDiskTime = now

	return m, nil
}

// Thermal reads sensor temperatures where available. The thermal state is
// derived from the hottest CPU sensor; fan speed is not portably readable.
func (s *SystemSampler) Thermal(ctx context.Context) (model.ThermalMetrics, error) {
	m := model.ThermalMetrics{State: model.ThermalNominal}

	sensors, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		// Sensor access commonly needs privileges; degrade quietly.
		return m, fmt.Errorf("failed to get sensor temperatures: %w", err)
	}

	for _, sensor := range sensors {
		key := strings.ToLower(sensor.SensorKey)
		switch {
		case strings.Contains(key, "cpu") || strings.Contains(key, "core") || strings.Contains(key, "package"):
			if sensor.Temperature > m.CPUTemperature {
				m.CPUTemperature = sensor.Temperature
			}
		case strings.Contains(key, "gpu"):
			if sensor.Temperature > m.GPUTemperature {
				m.GPUTemperature = sensor.Temperature
			}
		}
	}

	m.State = thermalStateForTemperature(m.CPUTemperature)
	return m, nil
}

func thermalStateForTemperature(cpuTemp float64) model.ThermalState {
	switch {
	case cpuTemp >= 95:
		return model.ThermalCritical
	case cpuTemp >= 85:
		return model.ThermalSerious
	case cpuTemp >= 70:
		return model.ThermalFair
	default:
		return model.ThermalNominal
	}
}

// Network reads throughput as the delta between successive IO counters.
func (s *SystemSampler) Network(ctx context.Context) (model.NetworkMetrics, error) {
	var m model.NetworkMetrics

	netIO, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return m, fmt.Errorf("failed to get network IO counters: %w", err)
	}
	if len(netIO) == 0 {
		return m, fmt.Errorf("no network interfaces found")
	}

	current := &netIO[0]
	now := time.Now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.lastNetIO != nil && !s.lastNetTime.IsZero() {
		elapsed := now.Sub(s.lastNetTime).Seconds()
		if elapsed > 0 {
			if current.BytesRecv >= s.lastNetIO.BytesRecv {
				m.InBytesPerSec = float64(current.BytesRecv-s.lastNetIO.BytesRecv) / elapsed
			}
			if current.BytesSent >= s.lastNetIO.BytesSent {
				m.OutBytesPerSec = float64(current.BytesSent-s.lastNetIO.BytesSent) / elapsed
			}
		}
	}

	s.lastNetIO = current
	s.lastNetTime = now

	return m, nil
}
