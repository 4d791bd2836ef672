// Package insight turns raw metrics, process samples, correlations and
// anomalies into prioritized human-readable advisories.
package insight

import (
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

// Context is the read-only input one analysis pass hands to every rule.
type Context struct {
	Snapshot     *model.Snapshot
	Processes    []model.ProcessSample
	Correlations []model.Correlation
	Anomalies    []model.Anomaly
}

// Rule is one independent condition→insight generator. Evaluate returns nil
// when the rule has nothing to say, including when the trigger fired but no
// qualifying process could be blamed. Rules are pure: no state, no side
// effects.
type Rule interface {
	Name() string
	Evaluate(ctx *Context) *model.Insight
}

// Thresholds are the tunable trigger levels shared by the built-in rules.
type Thresholds struct {
	CPUWarning     float64
	CPUCritical    float64
	DiskIOWarning  float64
	DiskIOCritical float64
}

// DefaultThresholds 默认规则阈值
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUWarning:     80,
		CPUCritical:    95,
		DiskIOWarning:  100,
		DiskIOCritical: 250,
	}
}

// topProcessBy returns the process with the highest value of dim, or false
// when the list is empty or the best value is zero.
func topProcessBy(processes []model.ProcessSample, dim func(model.ProcessSample) float64) (model.ProcessSample, bool) {
	var (
		best  model.ProcessSample
		found bool
	)
	for _, proc := range processes {
		if !found || dim(proc) > dim(best) {
			best = proc
			found = true
		}
	}
	if !found || dim(best) <= 0 {
		return model.ProcessSample{}, false
	}
	return best, true
}
