package model

// ProcessCategory 进程分类
type ProcessCategory string

const (
	CategoryBrowser       ProcessCategory = "browser"
	CategoryDevTool       ProcessCategory = "dev_tool"
	CategoryMedia         ProcessCategory = "media"
	CategorySystemProcess ProcessCategory = "system"
	CategoryOther         ProcessCategory = "other"
)

// ProcessSample is one per-process resource reading supplied by the probe
// set. It is input only; this core never mutates or owns process state.
type ProcessSample struct {
	PID          int32           `json:"pid"`
	Name         string          `json:"name"`
	Category     ProcessCategory `json:"category"`
	CPUPercent   float64         `json:"cpu_percent"`
	MemoryBytes  uint64          `json:"memory_bytes"`
	DiskBytes    uint64          `json:"disk_bytes"`
	NetworkBytes uint64          `json:"network_bytes"`
}
