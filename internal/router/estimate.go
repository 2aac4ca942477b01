package router

import (
	"github.com/bwengye/bwengye/internal/catalog"
	"github.com/bwengye/bwengye/internal/models"
)

const (
	// defaultTokenEstimate is used when the task carries no content.
	defaultTokenEstimate = 100
	// charsPerToken is the rough character-to-token ratio for estimates.
	charsPerToken = 4
	// baseLatencyMS is the starting point for the latency heuristic.
	baseLatencyMS = 1000.0
	// flagshipLatencyFactor scales latency for flagship-tagged models.
	flagshipLatencyFactor = 1.5
	// reasoningLatencyFactor scales latency for reasoning-tagged models.
	reasoningLatencyFactor = 3.0
	// highComplexityFactor doubles latency for high-complexity tasks.
	highComplexityFactor = 2.0
)

// Estimate is the token/cost/latency projection for a routing decision.
// The latency figure is a heuristic estimate for display, not a measured
// SLA.
type Estimate struct {
	Tokens    int     `json:"tokens"`
	Cost      float64 `json:"cost"`
	LatencyMS int     `json:"processingTimeMs"`
}

// EstimateFor projects token usage, cost and latency for running the task
// on the selected model. Tokens are ceil(contentLength/4) when content is
// supplied, else a fixed default; cost is tokens × cost-per-token (zero
// when the model has no price); latency is the base constant scaled by
// role-tag multipliers and doubled for high complexity.
func EstimateFor(t Task, m *models.AIModel) Estimate {
	tokens := defaultTokenEstimate
	if t.ContentLength > 0 {
		tokens = (t.ContentLength + charsPerToken - 1) / charsPerToken
	}

	latency := baseLatencyMS
	if m.HasCapability(catalog.RoleFlagship) {
		latency *= flagshipLatencyFactor
	}
	if m.HasCapability(catalog.RoleReasoning) {
		latency *= reasoningLatencyFactor
	}
	if t.Complexity == "high" {
		latency *= highComplexityFactor
	}

	return Estimate{
		Tokens:    tokens,
		Cost:      float64(tokens) * m.CostPerToken,
		LatencyMS: int(latency),
	}
}
