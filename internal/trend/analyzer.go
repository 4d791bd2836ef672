// Package trend mines persisted aggregates for daily and weekly usage
// patterns, growth trends, cross-day anomalies and a one-step forecast.
// It is strictly read-only over the store.
package trend

import (
	"fmt"
	"math"
	"time"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

const (
	// minGrowthDays is the minimum daily series length before growth
	// classification is attempted.
	minGrowthDays = 7

	// growthRateFloor is the per-day growth rate below which sustained
	// growth is not reported as a leak suspect (1%/day).
	growthRateFloor = 0.01

	// growingDeltaShare is the fraction of positive day-over-day deltas
	// required to classify a series as growing.
	growingDeltaShare = 0.6

	// outlierZScore flags day-level statistical outliers.
	outlierZScore = 2.0

	// suddenChangeDelta flags day-over-day jumps as sudden changes,
	// independent of the z-score check.
	suddenChangeDelta = 20.0

	// forecastConfidenceCap bounds forecast confidence.
	forecastConfidenceCap = 0.95
)

// Aggregator is the slice of the store the analyzer reads.
type Aggregator interface {
	HourlyAverages(metric string, start, end time.Time) ([]model.AggregateRow, error)
	DailyAverages(metric string, start, end time.Time) ([]model.AggregateRow, error)
}

// Analyzer 趋势分析器
type Analyzer struct {
	store  Aggregator
	logger *logger.Logger
}

// NewAnalyzer creates an analyzer over the given aggregate source.
func NewAnalyzer(store Aggregator, logger *logger.Logger) *Analyzer {
	return &Analyzer{store: store, logger: logger}
}

// DailyPattern averages hourly aggregates by hour of day over the last
// `days` days. Always returns 24 points; untouched hours have Count 0.
func (a *Analyzer) DailyPattern(metric string, days int) ([]model.PatternPoint, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	rows, err := a.store.HourlyAverages(metric, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load hourly aggregates: %w", err)
	}

	sums := make([]float64, 24)
	counts := make([]int, 24)
	for _, row := range rows {
		hour := row.Bucket.Hour()
		sums[hour] += row.Avg
		counts[hour]++
	}

	points := make([]model.PatternPoint, 24)
	for hour := 0; hour < 24; hour++ {
		points[hour] = model.PatternPoint{Bucket: hour, Count: counts[hour]}
		if counts[hour] > 0 {
			points[hour].Avg = sums[hour] / float64(counts[hour])
		}
	}
	return points, nil
}

// WeeklyPattern averages daily aggregates by day of week (Sunday=0) over
// the last `weeks` weeks. Always returns 7 points.
func (a *Analyzer) WeeklyPattern(metric string, weeks int) ([]model.PatternPoint, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -7*weeks)

	rows, err := a.store.DailyAverages(metric, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily aggregates: %w", err)
	}

	sums := make([]float64, 7)
	counts := make([]int, 7)
	for _, row := range rows {
		day := int(row.Bucket.Weekday())
		sums[day] += row.Avg
		counts[day]++
	}

	points := make([]model.PatternPoint, 7)
	for day := 0; day < 7; day++ {
		points[day] = model.PatternPoint{Bucket: day, Count: counts[day]}
		if counts[day] > 0 {
			points[day].Avg = sums[day] / float64(counts[day])
		}
	}
	return points, nil
}

// PeakHours returns the top-3 hours of the daily pattern by average value,
// highest first. Hours with no data never qualify.
func (a *Analyzer) PeakHours(metric string, days int) ([]model.PatternPoint, error) {
	pattern, err := a.DailyPattern(metric, days)
	if err != nil {
		return nil, err
	}

	var candidates []model.PatternPoint
	for _, point := range pattern {
		if point.Count > 0 {
			candidates = append(candidates, point)
		}
	}

	// Selection of the top three is cheaper than a full sort here.
	var peaks []model.PatternPoint
	for len(peaks) < 3 && len(candidates) > 0 {
		best := 0
		for i, p := range candidates {
			if p.Avg > candidates[best].Avg {
				best = i
			}
		}
		peaks = append(peaks, candidates[best])
		candidates = append(candidates[:best], candidates[best+1:]...)
	}
	return peaks, nil
}

// DetectMemoryGrowth classifies sustained day-over-day growth in a metric's
// daily series. A nil result with nil error means "no verdict": either not
// enough history or no concerning growth.
func (a *Analyzer) DetectMemoryGrowth(metric string, days int) (*model.LeakSuspect, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	rows, err := a.store.DailyAverages(metric, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily aggregates: %w", err)
	}
	if len(rows) < minGrowthDays {
		return nil, nil
	}

	positive := 0
	for i := 1; i < len(rows); i++ {
		if rows[i].Avg > rows[i-1].Avg {
			positive++
		}
	}
	deltas := len(rows) - 1
	if float64(positive)/float64(deltas) <= growingDeltaShare {
		return nil, nil
	}

	first, last := rows[0].Avg, rows[len(rows)-1].Avg
	if first <= 0 {
		return nil, nil
	}
	rate := (last - first) / first / float64(deltas)
	if rate <= growthRateFloor {
		return nil, nil
	}

	confidence := math.Min(0.9, rate*10)
	a.logger.Info("Growth trend on %s: %.1f%%/day over %d days (confidence %.2f)",
		metric, rate*100, len(rows), confidence)

	return &model.LeakSuspect{
		Type: metric,
		Description: fmt.Sprintf("%s has grown steadily for %d days at %.1f%% per day",
			metric, len(rows), rate*100),
		GrowthRatePerDay: rate,
		Confidence:       confidence,
		DetectedAt:       time.Now(),
	}, nil
}

// DetectAnomalies flags day-level outliers in a metric's daily series: days
// more than 2σ from the series mean, and day-over-day jumps above an
// absolute threshold regardless of their z-score.
func (a *Analyzer) DetectAnomalies(metric string, days int) ([]model.TrendAnomaly, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	rows, err := a.store.DailyAverages(metric, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily aggregates: %w", err)
	}
	if len(rows) < 3 {
		return nil, nil
	}

	mean, stdDev := seriesStats(rows)

	var anomalies []model.TrendAnomaly
	if stdDev > 0 {
		for _, row := range rows {
			deviation := math.Abs(row.Avg-mean) / stdDev
			if deviation <= outlierZScore {
				continue
			}
			severity := model.SeverityWarning
			if deviation > 3 {
				severity = model.SeverityCritical
			}
			anomalies = append(anomalies, model.TrendAnomaly{
				Type:         model.TrendOutlier,
				Date:         row.Bucket,
				Value:        row.Avg,
				ExpectedLow:  mean - outlierZScore*stdDev,
				ExpectedHigh: mean + outlierZScore*stdDev,
				Severity:     severity,
			})
		}
	}

	for i := 1; i < len(rows); i++ {
		jump := rows[i].Avg - rows[i-1].Avg
		if math.Abs(jump) <= suddenChangeDelta {
			continue
		}
		anomalies = append(anomalies, model.TrendAnomaly{
			Type:         model.TrendSuddenChange,
			Date:         rows[i].Bucket,
			Value:        rows[i].Avg,
			ExpectedLow:  rows[i-1].Avg - suddenChangeDelta,
			ExpectedHigh: rows[i-1].Avg + suddenChangeDelta,
			Severity:     model.SeverityWarning,
		})
	}

	return anomalies, nil
}

// Forecast predicts the next hour's value from the daily pattern bucket for
// (current hour + 1) mod 24. Confidence scales with the bucket's sample
// count and is capped. A nil result means not enough history yet.
func (a *Analyzer) Forecast(metric string, days int) (*model.Forecast, error) {
	return a.ForecastAt(metric, days, time.Now())
}

// ForecastAt is Forecast with an explicit reference time.
func (a *Analyzer) ForecastAt(metric string, days int, now time.Time) (*model.Forecast, error) {
	pattern, err := a.DailyPattern(metric, days)
	if err != nil {
		return nil, err
	}

	hour := (now.Hour() + 1) % 24
	point := pattern[hour]
	if point.Count == 0 {
		return nil, nil
	}

	confidence := math.Min(forecastConfidenceCap, 0.3+0.2*float64(point.Count))

	return &model.Forecast{
		Metric:     metric,
		Hour:       hour,
		Predicted:  point.Avg,
		Confidence: confidence,
	}, nil
}

// seriesStats returns the mean and sample standard deviation of the daily
// averages.
func seriesStats(rows []model.AggregateRow) (mean, stdDev float64) {
	if len(rows) == 0 {
		return 0, 0
	}
	var sum float64
	for _, row := range rows {
		sum += row.Avg
	}
	mean = sum / float64(len(rows))

	if len(rows) < 2 {
		return mean, 0
	}
	var sq float64
	for _, row := range rows {
		d := row.Avg - mean
		sq += d * d
	}
	stdDev = math.Sqrt(sq / float64(len(rows)-1))
	return mean, stdDev
}
