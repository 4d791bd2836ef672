package model

import "time"

// AggregateRow is one hour or day bucket computed by the store from
// persisted snapshot rows. It is derived on demand, never persisted.
type AggregateRow struct {
	Bucket time.Time `json:"bucket"`
	Avg    float64   `json:"avg"`
	Max    float64   `json:"max"`
	Count  int       `json:"count"`
}

// PatternPoint is one averaged bucket of a daily (hour-of-day) or weekly
// (day-of-week) usage pattern.
type PatternPoint struct {
	Bucket int     `json:"bucket"` // hour 0-23 or weekday 0-6 (Sunday=0)
	Avg    float64 `json:"avg"`
	Count  int     `json:"count"`
}

// TrendAnomalyType 跨天异常类型
type TrendAnomalyType string

const (
	TrendOutlier      TrendAnomalyType = "statistical_outlier"
	TrendSuddenChange TrendAnomalyType = "sudden_change"
)

// TrendAnomaly is a day-level statistical outlier in a persisted series.
type TrendAnomaly struct {
	Type         TrendAnomalyType `json:"type"`
	Date         time.Time        `json:"date"`
	Value        float64          `json:"value"`
	ExpectedLow  float64          `json:"expected_low"`
	ExpectedHigh float64          `json:"expected_high"`
	Severity     Severity         `json:"severity"`
}

// LeakSuspect reports sustained day-over-day growth in a resource series,
// suggestive of a leak.
type LeakSuspect struct {
	Type             string    `json:"type"`
	Description      string    `json:"description"`
	GrowthRatePerDay float64   `json:"growth_rate_per_day"`
	Confidence       float64   `json:"confidence"`
	DetectedAt       time.Time `json:"detected_at"`
}

// Forecast is a one-hour-ahead prediction taken from the daily pattern.
type Forecast struct {
	Metric     string  `json:"metric"`
	Hour       int     `json:"hour"`
	Predicted  float64 `json:"predicted"`
	Confidence float64 `json:"confidence"`
}
