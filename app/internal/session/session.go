package session

import (
	"slices"
	"sync"

	"github.com/marketconnect/llm-observability-demo/app/domain/entities"
	"github.com/marketconnect/llm-observability-demo/app/internal/telemetry"
)

// Reporter receives the full running summary after every recorded request.
type Reporter interface {
	LogSessionMetrics(m entities.SessionMetrics)
}

// Aggregator accumulates token, request, cost and latency totals for one session.
type Aggregator struct {
	reporter Reporter

	mu            sync.Mutex
	tokenCount    int
	requestCount  int
	totalCost     float64
	responseTimes []int64
}

// NewAggregator creates an Aggregator. reporter may be nil.
func NewAggregator(reporter Reporter) *Aggregator {
	return &Aggregator{reporter: reporter}
}

// Record adds one completed request, priced at the rate of the model that served
// it, and reports the updated snapshot.
func (a *Aggregator) Record(usage entities.TokenUsage, responseTimeMs int64, model string) entities.SessionMetrics {
	if model == "" {
		model = entities.DefaultModel
	}

	a.mu.Lock()
	a.tokenCount += usage.TotalTokens
	a.requestCount++
	a.totalCost += telemetry.CalculateCost(usage.TotalTokens, model)
	a.responseTimes = append(a.responseTimes, responseTimeMs)
	snap := a.snapshotLocked()
	a.mu.Unlock()

	if a.reporter != nil {
		a.reporter.LogSessionMetrics(snap)
	}
	return snap
}

// AverageResponseTime is the mean of all recorded response times, 0 when none.
func (a *Aggregator) AverageResponseTime() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return average(a.responseTimes)
}

// Snapshot returns a copy of the current totals.
func (a *Aggregator) Snapshot() entities.SessionMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() entities.SessionMetrics {
	return entities.SessionMetrics{
		TokenCount:        a.tokenCount,
		RequestCount:      a.requestCount,
		TotalCost:         a.totalCost,
		ResponseTimes:     slices.Clone(a.responseTimes),
		AvgResponseTimeMs: average(a.responseTimes),
	}
}

func average(samples []int64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum int64
	for _, s := range samples {
		sum += s
	}
	return float64(sum) / float64(len(samples))
}
