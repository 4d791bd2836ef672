package anomaly

import (
	"testing"
	"time"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

func cpuSnapshot(usage float64) *model.Snapshot {
	return &model.Snapshot{
		Timestamp: time.Now(),
		CPU:       model.CPUMetrics{Usage: usage},
	}
}

func TestDetectorFlagsSpikeAfterConstantStream(t *testing.T) {
	d := NewDetector(60, 10, 2.0, logger.New())

	// Ten ticks of a constant value: no verdict, the signal is flat.
	for i := 0; i < 10; i++ {
		anomalies := d.Observe(cpuSnapshot(5))
		if len(anomalies) != 0 {
			t.Fatalf("Constant stream produced anomalies at tick %d: %v", i, anomalies)
		}
	}

	// One value at 10x must be flagged exactly once.
	anomalies := d.Observe(cpuSnapshot(50))
	if len(anomalies) != 1 {
		t.Fatalf("Expected exactly one anomaly for the spike, got %d", len(anomalies))
	}

	a := anomalies[0]
	if a.Metric != model.MetricCPUUsage {
		t.Fatalf("Expected anomaly on %s, got %s", model.MetricCPUUsage, a.Metric)
	}
	if a.Deviation <= 2.0 {
		t.Fatalf("Expected deviation above threshold, got %f", a.Deviation)
	}
	if a.Value != 50 {
		t.Fatalf("Expected anomaly value 50, got %f", a.Value)
	}

	// The stream settling back must not flag the baseline values.
	for i := 0; i < 5; i++ {
		if got := d.Observe(cpuSnapshot(5)); len(got) != 0 {
			t.Fatalf("Baseline value flagged after spike: %v", got)
		}
	}
}

func TestDetectorWithholdsVerdictBelowMinSamples(t *testing.T) {
	d := NewDetector(60, 10, 2.0, logger.New())

	// Even wild swings produce no verdict before minSamples ticks.
	values := []float64{1, 90, 2, 80, 3, 70, 4, 60, 5}
	for i, v := range values {
		if got := d.Observe(cpuSnapshot(v)); len(got) != 0 {
			t.Fatalf("Anomaly emitted with only %d samples: %v", i+1, got)
		}
	}
}

func TestDetectorIgnoresNegativeDirection(t *testing.T) {
	d := NewDetector(60, 10, 2.0, logger.New())

	for i := 0; i < 15; i++ {
		// Alternate to build a non-degenerate baseline.
		v := 50.0
		if i%2 == 0 {
			v = 60.0
		}
		d.Observe(cpuSnapshot(v))
	}

	// Drops are not anomalies in this domain.
	if got := d.Observe(cpuSnapshot(1)); len(got) != 0 {
		t.Fatalf("Low value should not be flagged: %v", got)
	}
}

func TestDetectorThresholdReloadDuringObserve(t *testing.T) {
	d := NewDetector(60, 10, 2.0, logger.New())

	// Hammer threshold updates from another goroutine, the way a config
	// reload does, while the analysis path keeps observing. The race
	// detector fails this test if the threshold is read unguarded.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			d.SetThreshold(2.0 + float64(i%3))
		}
	}()

	for i := 0; i < 500; i++ {
		d.Observe(cpuSnapshot(float64(i % 20)))
	}
	<-done

	if got := d.Threshold(); got < 2.0 || got > 4.0 {
		t.Fatalf("Threshold outside the written range: %f", got)
	}

	// Non-positive updates are ignored.
	d.SetThreshold(0)
	d.SetThreshold(-1)
	if got := d.Threshold(); got < 2.0 || got > 4.0 {
		t.Fatalf("Invalid threshold accepted: %f", got)
	}
}

func TestDetectorReset(t *testing.T) {
	d := NewDetector(60, 10, 2.0, logger.New())

	for i := 0; i < 10; i++ {
		d.Observe(cpuSnapshot(5))
	}
	d.Reset()

	// After reset the windows are empty again: the spike is withheld.
	if got := d.Observe(cpuSnapshot(50)); len(got) != 0 {
		t.Fatalf("Detector kept state across Reset: %v", got)
	}
}
