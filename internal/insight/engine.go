package insight

import (
	"sort"
	"sync"
	"time"

	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/logger"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/internal/telemetry"
	"github.com/xdev-asia-labs/xInsight-lite-sub001/model"
)

const (
	// defaultHistorySize bounds the rolling insight history.
	defaultHistorySize = 100

	// defaultRecencyWindow suppresses re-adding a same-type insight to the
	// history shortly after one was recorded.
	defaultRecencyWindow = 60 * time.Second
)

// Report is the outcome of one analysis pass.
type Report struct {
	Insights  []model.Insight `json:"insights"`
	Status    model.Status    `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// Engine runs every rule on each snapshot, deduplicates the results by
// insight type and ranks the survivors by severity. Analyze is called from
// a single goroutine (the analysis path); accessors may be called from
// anywhere.
type Engine struct {
	logger        *logger.Logger
	rules         []Rule
	historySize   int
	recencyWindow time.Duration

	mutex    sync.RWMutex
	latest   Report
	history  []model.Insight
	lastSeen map[model.InsightType]time.Time
}

// NewEngine creates an engine with the given ordered rule set.
func NewEngine(rules []Rule, logger *logger.Logger) *Engine {
	return &Engine{
		logger:        logger,
		rules:         rules,
		historySize:   defaultHistorySize,
		recencyWindow: defaultRecencyWindow,
		lastSeen:      make(map[model.InsightType]time.Time),
	}
}

// Analyze evaluates every rule against one snapshot and its companion
// signals. Duplicate insight types are dropped first-seen-wins, then the
// survivors are sorted by severity descending.
func (e *Engine) Analyze(snapshot *model.Snapshot, processes []model.ProcessSample,
	correlations []model.Correlation, anomalies []model.Anomaly) Report {

	ctx := &Context{
		Snapshot:     snapshot,
		Processes:    processes,
		Correlations: correlations,
		Anomalies:    anomalies,
	}

	seen := make(map[model.InsightType]bool)
	var insights []model.Insight
	for _, rule := range e.rules {
		ins := rule.Evaluate(ctx)
		if ins == nil {
			continue
		}
		if seen[ins.Type] {
			e.logger.Debug("Rule %s produced duplicate insight type %s, dropped", rule.Name(), ins.Type)
			continue
		}
		seen[ins.Type] = true
		insights = append(insights, *ins)
		telemetry.InsightsGenerated.WithLabelValues(ins.Severity.String()).Inc()
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Severity > insights[j].Severity
	})

	report := Report{
		Insights:  insights,
		Status:    deriveStatus(insights),
		Timestamp: snapshot.Timestamp,
	}

	e.mutex.Lock()
	e.latest = report
	e.recordHistory(insights, snapshot.Timestamp)
	e.mutex.Unlock()

	telemetry.OverallStatus.Set(statusGaugeValue(report.Status))

	return report
}

// recordHistory appends the pass's insights to the bounded history log,
// skipping types recorded inside the recency window. When eviction removes
// the last insight of a type, its lastSeen entry goes with it, so the map
// stays bounded by the history regardless of how many types the rule set
// produces. Caller holds the lock.
func (e *Engine) recordHistory(insights []model.Insight, now time.Time) {
	for _, ins := range insights {
		if last, ok := e.lastSeen[ins.Type]; ok && now.Sub(last) < e.recencyWindow {
			continue
		}
		e.lastSeen[ins.Type] = now
		e.history = append(e.history, ins)
		if len(e.history) > e.historySize {
			evicted := e.history[0]
			e.history = e.history[1:]
			if !e.historyHasType(evicted.Type) {
				delete(e.lastSeen, evicted.Type)
			}
		}
	}
}

func (e *Engine) historyHasType(t model.InsightType) bool {
	for _, ins := range e.history {
		if ins.Type == t {
			return true
		}
	}
	return false
}

// Latest returns the most recent analysis report.
func (e *Engine) Latest() Report {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.latest
}

// History returns the rolling insight history, oldest first.
func (e *Engine) History() []model.Insight {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	out := make([]model.Insight, len(e.history))
	copy(out, e.history)
	return out
}

// deriveStatus is critical if any insight is critical, else warning if any
// is warning, else normal.
func deriveStatus(insights []model.Insight) model.Status {
	status := model.StatusNormal
	for _, ins := range insights {
		switch ins.Severity {
		case model.SeverityCritical:
			return model.StatusCritical
		case model.SeverityWarning:
			status = model.StatusWarning
		}
	}
	return status
}

func statusGaugeValue(status model.Status) float64 {
	switch status {
	case model.StatusCritical:
		return 2
	case model.StatusWarning:
		return 1
	default:
		return 0
	}
}
