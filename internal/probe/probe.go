package probe

import (
	"context"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

// SystemProbe supplies one group of raw metric readings per call. A failed
// reading returns an error and the zero value; the collector substitutes
// the zero value and continues, so a probe failure never aborts a tick.
type SystemProbe interface {
	CPU(ctx context.Context) (model.CPUMetrics, error)
	Memory(ctx context.Context) (model.MemoryMetrics, error)
	GPU(ctx context.Context) (model.GPUMetrics, error)
	Disk(ctx context.Context) (model.DiskMetrics, error)
	Thermal(ctx context.Context) (model.ThermalMetrics, error)
	Network(ctx context.Context) (model.NetworkMetrics, error)
}

// ProcessProbe supplies per-process resource samples. The core never
// enumerates processes itself.
type ProcessProbe interface {
	Processes(ctx context.Context) ([]model.ProcessSample, error)
}
