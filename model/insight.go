package model

import "time"

// Severity orders insights: critical > warning > info.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Status is the overall system health derived from the current insight list.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// InsightType identifies the condition an insight reports. It doubles as the
// deduplication key: at most one insight of a type survives one analysis pass.
type InsightType string

const (
	InsightCPUSaturation  InsightType = "cpu_saturation"
	InsightMemoryPressure InsightType = "memory_pressure"
	InsightDiskIO         InsightType = "disk_io"
	InsightThermal        InsightType = "thermal"
)

// SuggestedAction is one remediation proposal with an estimated impact. The
// agent only proposes actions; it never performs them.
type SuggestedAction struct {
	Action string  `json:"action"`
	Detail string  `json:"detail,omitempty"`
	Impact float64 `json:"impact_percent"`
}

// Insight is a generated, human-readable advisory. Immutable once created.
type Insight struct {
	ID                string            `json:"id"`
	Type              InsightType       `json:"type"`
	Severity          Severity          `json:"severity"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Cause             string            `json:"cause"`
	AffectedProcesses []ProcessSample   `json:"affected_processes,omitempty"`
	SuggestedActions  []SuggestedAction `json:"suggested_actions,omitempty"`
	Metric            string            `json:"metric,omitempty"`
	MetricValue       float64           `json:"metric_value,omitempty"`
	Timestamp         time.Time         `json:"timestamp"`
}

// Anomaly is one statistically unusual spike flagged by the detector.
// Deviation is the z-score of the current value against the rolling mean.
type Anomaly struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Expected  float64   `json:"expected"`
	Deviation float64   `json:"deviation"`
	Timestamp time.Time `json:"timestamp"`
}

// Correlation attributes an elevated aggregate metric to one process.
// Strength is the process share of the aggregate, clamped to [0,1].
type Correlation struct {
	SourceMetric string  `json:"source_metric"`
	PID          int32   `json:"pid"`
	ProcessName  string  `json:"process_name"`
	Strength     float64 `json:"strength"`
	Description  string  `json:"description"`
}
