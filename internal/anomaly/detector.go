// Package anomaly flags statistically unusual spikes in metric streams
// using a rolling mean and sample standard deviation per stream.
package anomaly

import (
	"sync"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/telemetry"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

const (
	// DefaultMinSamples is the window size below which the detector
	// withholds a verdict. Not enough history is a valid quiet state.
	DefaultMinSamples = 10

	// DefaultZScoreThreshold is the deviation above which a value is
	// flagged.
	DefaultZScoreThreshold = 2.0

	// stdDevEpsilon suppresses detection on near-constant signals, where
	// a tiny stddev would turn any wobble into a huge z-score.
	stdDevEpsilon = 1e-6
)

// trackedStreams are the metric streams the detector maintains windows for.
var trackedStreams = []string{
	model.MetricCPUUsage,
	model.MetricMemoryUsage,
	model.MetricGPUUsage,
	model.MetricDiskReadMBps,
	model.MetricDiskWriteMBps,
	model.MetricNetworkInBps,
	model.MetricNetworkOutBps,
	model.MetricCPUTemperature,
}

// Detector owns one rolling window per metric stream. It expects strictly
// time-ordered, single-producer arrival: only the analysis path calls
// Observe, never concurrently. The threshold alone is mutex-guarded because
// config hot reloads update it from the watcher goroutine.
type Detector struct {
	logger     *logger.Logger
	windows    map[string]*RollingWindow
	capacity   int
	minSamples int

	mutex     sync.RWMutex
	threshold float64
}

// NewDetector creates a detector with the given window capacity, minimum
// sample count and z-score threshold. Zero values select the defaults.
func NewDetector(capacity, minSamples int, threshold float64, logger *logger.Logger) *Detector {
	if capacity <= 0 {
		capacity = 60
	}
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if threshold <= 0 {
		threshold = DefaultZScoreThreshold
	}

	d := &Detector{
		logger:     logger,
		windows:    make(map[string]*RollingWindow, len(trackedStreams)),
		capacity:   capacity,
		minSamples: minSamples,
		threshold:  threshold,
	}
	for _, stream := range trackedStreams {
		d.windows[stream] = NewRollingWindow(capacity)
	}
	return d
}

// SetThreshold updates the z-score threshold (config hot reload).
func (d *Detector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	d.mutex.Lock()
	d.threshold = threshold
	d.mutex.Unlock()
}

// Threshold returns the current z-score threshold.
func (d *Detector) Threshold() float64 {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.threshold
}

// Observe pushes every tracked stream of the snapshot into its window and
// returns the anomalies detected in this pass. Only positive-direction
// spikes are flagged: an unusually idle machine is not a problem.
func (d *Detector) Observe(snapshot *model.Snapshot) []model.Anomaly {
	if snapshot == nil {
		return nil
	}

	threshold := d.Threshold()

	var anomalies []model.Anomaly
	for _, stream := range trackedStreams {
		value, ok := snapshot.Metric(stream)
		if !ok {
			continue
		}
		if a := d.observeStream(stream, value, threshold, snapshot); a != nil {
			anomalies = append(anomalies, *a)
		}
	}
	return anomalies
}

// observeStream pushes one value into its window, then evaluates it against
// the window statistics with the value included. A spike against a flat
// baseline widens the stddev itself, so it still clears the threshold.
func (d *Detector) observeStream(stream string, value, threshold float64, snapshot *model.Snapshot) *model.Anomaly {
	window := d.windows[stream]
	window.Push(value)

	if window.Count() < d.minSamples {
		return nil
	}

	mean := window.Mean()
	stdDev := window.StdDev()
	if stdDev <= stdDevEpsilon || value <= mean {
		return nil
	}

	z := (value - mean) / stdDev
	if z <= threshold {
		return nil
	}

	d.logger.Debug("Anomaly on %s: value=%.2f mean=%.2f z=%.2f", stream, value, mean, z)
	telemetry.AnomaliesDetected.Inc()

	return &model.Anomaly{
		Metric:    stream,
		Value:     value,
		Expected:  mean,
		Deviation: z,
		Timestamp: snapshot.Timestamp,
	}
}

// Reset clears every window. Used after long collection gaps, where stale
// baselines would misfire.
func (d *Detector) Reset() {
	for _, window := range d.windows {
		window.Reset()
	}
}
