// Package usage accumulates per-request token metrics and estimated costs.
package usage

import (
	"math"
	"strings"

	"github.com/thaaaru/kadiya/internal/router"
)

// Cost per 1M tokens (input, output), matched by model-family substring.
// Checked in order; first match wins.
var modelCosts = []struct {
	family string
	input  float64
	output float64
}{
	{"deepseek", 0.14, 0.28},
	{"haiku", 0.25, 1.25},
	{"gpt-4o-mini", 0.15, 0.60},
	{"groq", 0.0, 0.0}, // free tier
}

// Conservative fallback for unknown models — priced above every known family
// so future models are never under-counted.
const (
	fallbackInputCost  = 0.50
	fallbackOutputCost = 1.50
)

// EstimateCost returns the estimated USD cost for a request, rounded to six
// decimal places.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	inputCost, outputCost := fallbackInputCost, fallbackOutputCost
	lower := strings.ToLower(model)
	for _, c := range modelCosts {
		if strings.Contains(lower, c.family) {
			inputCost, outputCost = c.input, c.output
			break
		}
	}
	cost := (float64(inputTokens)*inputCost + float64(outputTokens)*outputCost) / 1_000_000
	return math.Round(cost*1e6) / 1e6
}

// Metrics captures the outcome of one completed request. Immutable once
// built.
type Metrics struct {
	Model            string      `json:"model"`
	Tier             router.Tier `json:"tier"`
	InputTokens      int         `json:"input_tokens"`
	OutputTokens     int         `json:"output_tokens"`
	LatencyMS        int         `json:"latency_ms"`
	EstimatedCostUSD float64     `json:"estimated_cost_usd"`
}

// NewMetrics builds a Metrics record, deriving the cost from the static price
// table.
func NewMetrics(model string, tier router.Tier, inputTokens, outputTokens, latencyMS int) Metrics {
	return Metrics{
		Model:            model,
		Tier:             tier,
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		LatencyMS:        latencyMS,
		EstimatedCostUSD: EstimateCost(model, inputTokens, outputTokens),
	}
}
