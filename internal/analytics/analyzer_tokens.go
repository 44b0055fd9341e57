package analytics

import "github.com/shopspring/decimal"

// TokensResult contains token usage and cost metrics.
type TokensResult struct {
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
	EstimatedCostUSD    decimal.Decimal
}

// TokensAnalyzer sums token usage over assistant messages and prices it per
// model.
type TokensAnalyzer struct{}

// Analyze processes the entry store and returns token metrics.
func (a *TokensAnalyzer) Analyze(store *EntryStore) (*TokensResult, error) {
	result := &TokensResult{EstimatedCostUSD: decimal.Zero}

	for _, line := range store.Lines {
		if !line.IsAssistantMessage() {
			continue
		}
		usage := line.GetUsage()
		if usage == nil {
			continue
		}

		result.InputTokens += usage.InputTokens
		result.OutputTokens += usage.OutputTokens
		result.CacheCreationTokens += usage.CacheCreationInputTokens
		result.CacheReadTokens += usage.CacheReadInputTokens

		pricing := GetPricing(line.GetModel())
		cost := CalculateCost(pricing, usage.InputTokens, usage.OutputTokens,
			usage.CacheCreationInputTokens, usage.CacheReadInputTokens)
		result.EstimatedCostUSD = result.EstimatedCostUSD.Add(cost)
	}

	return result, nil
}
