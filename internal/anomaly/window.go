package anomaly

import "math"

// RollingWindow is a fixed-capacity FIFO of recent scalar values for one
// metric stream. Oldest values are evicted first. Not safe for concurrent
// use; each window is owned exclusively by the detector.
type RollingWindow struct {
	values   []float64
	capacity int
	head     int
	count    int
}

// NewRollingWindow 创建固定容量的滑动窗口
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity <= 0 {
		capacity = 60
	}
	return &RollingWindow{
		values:   make([]float64, capacity),
		capacity: capacity,
	}
}

// Push appends a value, evicting the oldest when the window is full.
func (w *RollingWindow) Push(v float64) {
	w.values[w.head] = v
	w.head = (w.head + 1) % w.capacity
	if w.count < w.capacity {
		w.count++
	}
}

// Count returns the number of stored values (≤ capacity).
func (w *RollingWindow) Count() int {
	return w.count
}

// Values returns the stored values oldest-first.
func (w *RollingWindow) Values() []float64 {
	out := make([]float64, 0, w.count)
	start := w.head - w.count
	if start < 0 {
		start += w.capacity
	}
	for i := 0; i < w.count; i++ {
		out = append(out, w.values[(start+i)%w.capacity])
	}
	return out
}

// Mean returns the arithmetic mean, or 0 for an empty window.
func (w *RollingWindow) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.Values() {
		sum += v
	}
	return sum / float64(w.count)
}

// Variance returns the sample variance (n−1 denominator), or 0 when fewer
// than two values are stored.
func (w *RollingWindow) Variance() float64 {
	if w.count < 2 {
		return 0
	}
	mean := w.Mean()
	var sum float64
	for _, v := range w.Values() {
		d := v - mean
		sum += d * d
	}
	return sum / float64(w.count-1)
}

// StdDev returns the sample standard deviation.
func (w *RollingWindow) StdDev() float64 {
	return math.Sqrt(w.Variance())
}

// Reset discards all stored values.
func (w *RollingWindow) Reset() {
	w.head = 0
	w.count = 0
}
