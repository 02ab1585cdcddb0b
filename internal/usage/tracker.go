package usage

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

// historyCap bounds the retained metrics history. Oldest entries are evicted
// first — a ring buffer, never a growing list.
const historyCap = 100

// Tracker accumulates usage metrics across requests. The only mutable shared
// state in the dispatch core; all access goes through one mutex.
type Tracker struct {
	mu sync.Mutex

	totalInputTokens  int
	totalOutputTokens int
	totalCostUSD      float64
	requestCount      int

	history [historyCap]Metrics
	start   int
	length  int

	startTime time.Time
}

// NewTracker creates an empty tracker. Elapsed time in summaries is measured
// from this moment.
func NewTracker() *Tracker {
	return &Tracker{startTime: time.Now()}
}

// Record folds one request's metrics into the running totals and the bounded
// history, and logs an aggregate line (no prompts, no PII).
func (t *Tracker) Record(m Metrics) {
	t.mu.Lock()
	t.totalInputTokens += m.InputTokens
	t.totalOutputTokens += m.OutputTokens
	t.totalCostUSD += m.EstimatedCostUSD
	t.requestCount++

	if t.length < historyCap {
		t.history[(t.start+t.length)%historyCap] = m
		t.length++
	} else {
		t.history[t.start] = m
		t.start = (t.start + 1) % historyCap
	}
	t.mu.Unlock()

	log.Printf("usage: model=%s in=%d out=%d cost=$%.6f latency=%dms",
		m.Model, m.InputTokens, m.OutputTokens, m.EstimatedCostUSD, m.LatencyMS)
}

// Summary is the aggregate usage view, computed fresh per call.
type Summary struct {
	TotalInputTokens    int     `json:"total_input_tokens"`
	TotalOutputTokens   int     `json:"total_output_tokens"`
	TotalTokens         int     `json:"total_tokens"`
	TotalCostUSD        float64 `json:"total_cost_usd"`
	RequestCount        int     `json:"request_count"`
	AvgTokensPerRequest int     `json:"avg_tokens_per_request"`
	AvgCostPerRequest   float64 `json:"avg_cost_per_request"`
	ElapsedSeconds      int     `json:"elapsed_seconds"`
}

// GetSummary derives the aggregate view from the current totals.
func (t *Tracker) GetSummary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	requests := t.requestCount
	if requests < 1 {
		requests = 1
	}
	total := t.totalInputTokens + t.totalOutputTokens

	return Summary{
		TotalInputTokens:    t.totalInputTokens,
		TotalOutputTokens:   t.totalOutputTokens,
		TotalTokens:         total,
		TotalCostUSD:        math.Round(t.totalCostUSD*1e4) / 1e4,
		RequestCount:        t.requestCount,
		AvgTokensPerRequest: total / requests,
		AvgCostPerRequest:   math.Round(t.totalCostUSD/float64(requests)*1e6) / 1e6,
		ElapsedSeconds:      int(time.Since(t.startTime).Seconds()),
	}
}

// History returns a copy of the retained metrics, oldest first.
func (t *Tracker) History() []Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Metrics, 0, t.length)
	for i := 0; i < t.length; i++ {
		out = append(out, t.history[(t.start+i)%historyCap])
	}
	return out
}

// FormatSummary renders the summary as a single display line.
func (t *Tracker) FormatSummary() string {
	s := t.GetSummary()
	return fmt.Sprintf("Tokens: %d (in: %d, out: %d) | Cost: $%.4f | Requests: %d",
		s.TotalTokens, s.TotalInputTokens, s.TotalOutputTokens, s.TotalCostUSD, s.RequestCount)
}
