package model

import "time"

// Metric stream names used by the anomaly detector, the persistence store
// and the trend analyzer. One name per scalar column in the snapshots table.
const (
	MetricCPUUsage       = "cpu_usage"
	MetricMemoryUsage    = "memory_usage"
	MetricGPUUsage       = "gpu_usage"
	MetricDiskReadMBps   = "disk_read_mbps"
	MetricDiskWriteMBps  = "disk_write_mbps"
	MetricNetworkInBps   = "network_in_bps"
	MetricNetworkOutBps  = "network_out_bps"
	MetricCPUTemperature = "cpu_temperature"
)

// MemoryPressure 内存压力等级
type MemoryPressure string

const (
	PressureNormal   MemoryPressure = "normal"
	PressureWarning  MemoryPressure = "warning"
	PressureCritical MemoryPressure = "critical"
)

// ThermalState 散热状态等级
type ThermalState string

const (
	ThermalNominal  ThermalState = "nominal"
	ThermalFair     ThermalState = "fair"
	ThermalSerious  ThermalState = "serious"
	ThermalCritical ThermalState = "critical"
)

// CPUMetrics holds per-tick CPU readings, including the split between
// performance and efficiency core classes where the platform reports it.
type CPUMetrics struct {
	Usage                float64 `json:"usage"`
	PerformanceCoreUsage float64 `json:"performance_core_usage"`
	EfficiencyCoreUsage  float64 `json:"efficiency_core_usage"`
	CoreCount            int     `json:"core_count"`
}

// MemoryMetrics holds per-tick memory readings in bytes.
type MemoryMetrics struct {
	Used       uint64         `json:"used_bytes"`
	Total      uint64         `json:"total_bytes"`
	Swap       uint64         `json:"swap_bytes"`
	Wired      uint64         `json:"wired_bytes"`
	Compressed uint64         `json:"compressed_bytes"`
	Pressure   MemoryPressure `json:"pressure"`
}

// GPUMetrics holds per-tick GPU readings.
type GPUMetrics struct {
	Usage       float64 `json:"usage"`
	MemoryUsed  uint64  `json:"memory_used_bytes"`
	Temperature float64 `json:"temperature_c"`
}

// DiskMetrics holds per-tick disk throughput in MB/s plus operation counts.
type DiskMetrics struct {
	ReadMBps  float64 `json:"read_mbps"`
	WriteMBps float64 `json:"write_mbps"`
	ReadOps   uint64  `json:"read_ops"`
	WriteOps  uint64  `json:"write_ops"`
}

// ThermalMetrics holds per-tick thermal readings.
type ThermalMetrics struct {
	State          ThermalState `json:"state"`
	FanRPM         float64      `json:"fan_rpm"`
	CPUTemperature float64      `json:"cpu_temperature_c"`
	GPUTemperature float64      `json:"gpu_temperature_c"`
}

// NetworkMetrics holds per-tick network throughput in bytes per second.
type NetworkMetrics struct {
	InBytesPerSec  float64 `json:"in_bytes_per_sec"`
	OutBytesPerSec float64 `json:"out_bytes_per_sec"`
}

// Snapshot is one immutable point-in-time bundle of system metrics,
// produced once per collection tick. Consumers must never mutate it.
type Snapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	CPU       CPUMetrics     `json:"cpu"`
	Memory    MemoryMetrics  `json:"memory"`
	GPU       GPUMetrics     `json:"gpu"`
	Disk      DiskMetrics    `json:"disk"`
	Thermal   ThermalMetrics `json:"thermal"`
	Network   NetworkMetrics `json:"network"`
}

// MemoryUsagePercent returns used/total as a percentage clamped to [0,100].
// Returns 0 when the total is unknown (failed probe).
func (s *Snapshot) MemoryUsagePercent() float64 {
	if s.Memory.Total == 0 {
		return 0
	}
	pct := float64(s.Memory.Used) / float64(s.Memory.Total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// CombinedDiskMBps returns the total disk throughput for I/O triggers.
func (s *Snapshot) CombinedDiskMBps() float64 {
	return s.Disk.ReadMBps + s.Disk.WriteMBps
}

// Metric returns the scalar value for a named metric stream. The boolean is
// false for unknown stream names.
func (s *Snapshot) Metric(name string) (float64, bool) {
	switch name {
	case MetricCPUUsage:
		return s.CPU.Usage, true
	case MetricMemoryUsage:
		return s.MemoryUsagePercent(), true
	case MetricGPUUsage:
		return s.GPU.Usage, true
	case MetricDiskReadMBps:
		return s.Disk.ReadMBps, true
	case MetricDiskWriteMBps:
		return s.Disk.WriteMBps, true
	case MetricNetworkInBps:
		return s.Network.InBytesPerSec, true
	case MetricNetworkOutBps:
		return s.Network.OutBytesPerSec, true
	case MetricCPUTemperature:
		return s.Thermal.CPUTemperature, true
	default:
		return 0, false
	}
}
