package telemetry

// costPerToken is a flat per-token approximation, not billing-accurate.
var costPerToken = map[string]float64{
	"gpt-4o":        0.00003,
	"gpt-4o-mini":   0.000002,
	"gpt-3.5-turbo": 0.000002,
}

const defaultCostPerToken = 0.000002

// CostPerToken returns the rate for model, or the default rate for unknown models.
func CostPerToken(model string) float64 {
	if rate, ok := costPerToken[model]; ok {
		return rate
	}
	return defaultCostPerToken
}

// CalculateCost estimates the cost of tokens on model.
func CalculateCost(tokens int, model string) float64 {
	return float64(tokens) * CostPerToken(model)
}
