package anomaly

import (
	"math"
	"testing"
)

func TestRollingWindowEviction(t *testing.T) {
	w := NewRollingWindow(5)

	// Insert more than capacity; the oldest values must go first.
	for i := 1; i <= 12; i++ {
		w.Push(float64(i))
	}

	if w.Count() != 5 {
		t.Fatalf("Expected count 5 after overflow, got %d", w.Count())
	}

	values := w.Values()
	expected := []float64{8, 9, 10, 11, 12}
	for i, v := range expected {
		if values[i] != v {
			t.Fatalf("Expected values %v, got %v", expected, values)
		}
	}
}

func TestRollingWindowStatistics(t *testing.T) {
	w := NewRollingWindow(10)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		w.Push(v)
	}

	if mean := w.Mean(); math.Abs(mean-5) > 1e-9 {
		t.Fatalf("Expected mean 5, got %f", mean)
	}

	// Sample variance of the series is 32/7.
	if variance := w.Variance(); math.Abs(variance-32.0/7.0) > 1e-9 {
		t.Fatalf("Expected variance %f, got %f", 32.0/7.0, variance)
	}

	if stdDev := w.StdDev(); math.Abs(stdDev-math.Sqrt(32.0/7.0)) > 1e-9 {
		t.Fatalf("Unexpected stddev %f", stdDev)
	}
}

func TestRollingWindowEmptyAndReset(t *testing.T) {
	w := NewRollingWindow(4)

	if w.Mean() != 0 || w.StdDev() != 0 {
		t.Fatal("Empty window should report zero statistics")
	}

	w.Push(3)
	if w.Variance() != 0 {
		t.Fatal("Single-value window should report zero variance")
	}

	w.Push(7)
	w.Reset()
	if w.Count() != 0 {
		t.Fatalf("Expected empty window after reset, got count %d", w.Count())
	}
	if len(w.Values()) != 0 {
		t.Fatal("Expected no values after reset")
	}
}
