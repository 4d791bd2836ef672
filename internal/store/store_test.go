package store

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "xinsight_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s := New(filepath.Join(tmpDir, "test.db"), 16, logger.New())
	if s.Ready() {
		t.Fatal("Store should not be ready before initialization")
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	if !s.Ready() {
		t.Fatal("Store should be ready after initialization")
	}
	return s
}

func testSnapshot(ts time.Time, cpuUsage float64) *model.Snapshot {
	return &model.Snapshot{
		Timestamp: ts,
		CPU: model.CPUMetrics{
			Usage:                cpuUsage,
			PerformanceCoreUsage: cpuUsage + 5,
			EfficiencyCoreUsage:  cpuUsage - 5,
			CoreCount:            8,
		},
		Memory: model.MemoryMetrics{
			Used:     8 << 30,
			Total:    16 << 30,
			Swap:     1 << 30,
			Pressure: model.PressureWarning,
		},
		Disk: model.DiskMetrics{
			ReadMBps:  12.5,
			WriteMBps: 3.25,
			ReadOps:   100,
			WriteOps:  40,
		},
		Thermal: model.ThermalMetrics{
			State:          model.ThermalFair,
			CPUTemperature: 61.5,
		},
		Network: model.NetworkMetrics{
			InBytesPerSec:  1024,
			OutBytesPerSec: 512,
		},
	}
}

// waitForRows polls QueryRange until the writer goroutine has drained the
// expected number of snapshots.
func waitForRows(t *testing.T, s *Store, start, end time.Time, want int) []model.Snapshot {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		rows, err := s.QueryRange(start, end)
		if err != nil {
			t.Fatalf("Failed to query snapshots: %v", err)
		}
		if len(rows) >= want {
			return rows
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d rows, got %d before deadline", want, len(rows))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSaveAndQueryRangeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	base := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	// Enqueue out of order on the timeline; the query sorts by timestamp.
	s.Save(testSnapshot(base.Add(10*time.Second), 30))
	s.Save(testSnapshot(base, 20))
	s.Save(testSnapshot(base.Add(20*time.Second), 40))

	rows := waitForRows(t, s, base.Add(-time.Minute), base.Add(time.Minute), 3)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	for i := 1; i < len(rows); i++ {
		if rows[i].Timestamp.Before(rows[i-1].Timestamp) {
			t.Fatalf("Rows not ascending: %v before %v", rows[i].Timestamp, rows[i-1].Timestamp)
		}
	}

	first := rows[0]
	if first.CPU.Usage != 20 {
		t.Fatalf("Expected earliest row cpu usage 20, got %f", first.CPU.Usage)
	}
	if first.CPU.CoreCount != 8 {
		t.Fatalf("Expected core count 8, got %d", first.CPU.CoreCount)
	}
	if first.Memory.Used != 8<<30 || first.Memory.Total != 16<<30 {
		t.Fatalf("Memory sizes did not survive the round trip: %+v", first.Memory)
	}
	if first.Memory.Pressure != model.PressureWarning {
		t.Fatalf("Expected pressure warning, got %s", first.Memory.Pressure)
	}
	if math.Abs(first.Disk.ReadMBps-12.5) > 1e-9 {
		t.Fatalf("Expected read rate 12.5, got %f", first.Disk.ReadMBps)
	}
	if first.Thermal.State != model.ThermalFair {
		t.Fatalf("Expected thermal state fair, got %s", first.Thermal.State)
	}
	if first.Network.InBytesPerSec != 1024 {
		t.Fatalf("Expected inbound rate 1024, got %f", first.Network.InBytesPerSec)
	}
}

func TestHourlyAveragesBucketsByHour(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	base := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	// Hour 10: 20 and 40. Hour 11: 60.
	s.Save(testSnapshot(base, 20))
	s.Save(testSnapshot(base.Add(10*time.Minute), 40))
	s.Save(testSnapshot(base.Add(time.Hour), 60))
	waitForRows(t, s, base.Add(-time.Minute), base.Add(2*time.Hour), 3)

	rows, err := s.HourlyAverages(model.MetricCPUUsage, base.Add(-time.Minute), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Failed to aggregate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 hour buckets, got %d", len(rows))
	}

	if rows[0].Avg != 30 || rows[0].Max != 40 || rows[0].Count != 2 {
		t.Fatalf("Unexpected first bucket: %+v", rows[0])
	}
	if rows[1].Avg != 60 || rows[1].Count != 1 {
		t.Fatalf("Unexpected second bucket: %+v", rows[1])
	}
	if !rows[1].Bucket.After(rows[0].Bucket) {
		t.Fatalf("Buckets not ascending: %v, %v", rows[0].Bucket, rows[1].Bucket)
	}
}

func TestDailyAveragesBucketsByDay(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	day1 := time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	s.Save(testSnapshot(day1, 10))
	s.Save(testSnapshot(day1.Add(6*time.Hour), 30))
	s.Save(testSnapshot(day2, 50))
	waitForRows(t, s, day1.Add(-time.Hour), day2.Add(time.Hour), 3)

	rows, err := s.DailyAverages(model.MetricCPUUsage, day1.Add(-time.Hour), day2.Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to aggregate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 day buckets, got %d", len(rows))
	}
	if rows[0].Avg != 20 || rows[0].Count != 2 {
		t.Fatalf("Unexpected first day: %+v", rows[0])
	}
	if rows[1].Avg != 50 || rows[1].Count != 1 {
		t.Fatalf("Unexpected second day: %+v", rows[1])
	}
}

func TestAggregateRejectsUnknownMetric(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, err := s.HourlyAverages("no_such_metric", time.Now().Add(-time.Hour), time.Now()); err == nil {
		t.Fatal("Expected an error for an unknown metric")
	}
}

func TestCleanupRemovesExpiredRows(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	old := time.Now().AddDate(0, 0, -40)
	recent := time.Now().Add(-time.Hour)
	s.Save(testSnapshot(old, 10))
	s.Save(testSnapshot(old.Add(time.Minute), 15))
	s.Save(testSnapshot(recent, 50))
	waitForRows(t, s, old.Add(-time.Hour), time.Now(), 3)

	removed, err := s.Cleanup(30)
	if err != nil {
		t.Fatalf("Failed to clean up: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Expected 2 rows removed, got %d", removed)
	}

	rows, err := s.QueryRange(old.Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Failed to query snapshots: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 surviving row, got %d", len(rows))
	}
	if rows[0].CPU.Usage != 50 {
		t.Fatalf("Wrong row survived: %+v", rows[0])
	}
}

func TestCloseDrainsQueueAndRejectsLaterWrites(t *testing.T) {
	s := newTestStore(t)

	ts := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	s.Save(testSnapshot(ts, 33))

	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}
	// Closing twice is a no-op, and writes after close are silently dropped.
	if err := s.Close(); err != nil {
		t.Fatalf("Second close should be a no-op: %v", err)
	}
	s.Save(testSnapshot(ts.Add(time.Second), 99))

	reopened := New(s.dbPath, 16, logger.New())
	if err := reopened.Initialize(); err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	rows, err := reopened.QueryRange(ts.Add(-time.Minute), ts.Add(time.Minute))
	if err != nil {
		t.Fatalf("Failed to query snapshots: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected exactly the pre-close snapshot, got %d rows", len(rows))
	}
	if rows[0].CPU.Usage != 33 {
		t.Fatalf("Unexpected surviving snapshot: %+v", rows[0])
	}
}
