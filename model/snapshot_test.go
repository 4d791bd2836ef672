package model

import (
	"testing"
	"time"
)

func TestMemoryUsagePercent(t *testing.T) {
	tests := []struct {
		name     string
		used     uint64
		total    uint64
		expected float64
	}{
		{"half used", 8, 16, 50},
		{"fully used", 16, 16, 100},
		{"empty", 0, 16, 0},
		{"unknown total", 4, 0, 0},
		{"over total clamps to 100", 20, 16, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Snapshot{Memory: MemoryMetrics{Used: tt.used, Total: tt.total}}
			got := snap.MemoryUsagePercent()
			if got != tt.expected {
				t.Fatalf("Expected %.1f%%, got %.1f%%", tt.expected, got)
			}
			if got < 0 || got > 100 {
				t.Fatalf("Percentage out of [0,100]: %f", got)
			}
		})
	}
}

func TestSnapshotMetricLookup(t *testing.T) {
	snap := Snapshot{
		Timestamp: time.Now(),
		CPU:       CPUMetrics{Usage: 42.5},
		Memory:    MemoryMetrics{Used: 4, Total: 16},
		Disk:      DiskMetrics{ReadMBps: 12, WriteMBps: 8},
		Network:   NetworkMetrics{InBytesPerSec: 1000, OutBytesPerSec: 500},
	}

	if v, ok := snap.Metric(MetricCPUUsage); !ok || v != 42.5 {
		t.Fatalf("Expected cpu_usage 42.5, got %f (ok=%v)", v, ok)
	}
	if v, ok := snap.Metric(MetricMemoryUsage); !ok || v != 25 {
		t.Fatalf("Expected memory_usage 25, got %f (ok=%v)", v, ok)
	}
	if v, ok := snap.Metric(MetricDiskWriteMBps); !ok || v != 8 {
		t.Fatalf("Expected disk_write_mbps 8, got %f (ok=%v)", v, ok)
	}
	if _, ok := snap.Metric("no_such_metric"); ok {
		t.Fatal("Unknown metric name should not resolve")
	}
}

func TestCombinedDiskMBps(t *testing.T) {
	snap := Snapshot{Disk: DiskMetrics{ReadMBps: 30, WriteMBps: 25}}
	if got := snap.CombinedDiskMBps(); got != 55 {
		t.Fatalf("Expected combined 55 MB/s, got %f", got)
	}
}
