package analytics

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/santaclaude2025/session-improver/pkg/logger"
)

// ModelPricing is USD per million tokens.
type ModelPricing struct {
	Input      decimal.Decimal
	Output     decimal.Decimal
	CacheWrite decimal.Decimal // 5-minute cache writes
	CacheRead  decimal.Decimal
}

// standardPricing derives cache prices from the input price: writes cost
// 1.25x input, reads 0.1x input.
func standardPricing(input, output string) ModelPricing {
	in := decimal.RequireFromString(input)
	return ModelPricing{
		Input:      in,
		Output:     decimal.RequireFromString(output),
		CacheWrite: in.Mul(decimal.RequireFromString("1.25")),
		CacheRead:  in.Mul(decimal.RequireFromString("0.1")),
	}
}

// pricingByFamily is keyed by the family returned from modelFamily.
var pricingByFamily = map[string]ModelPricing{
	"opus-4-6":   standardPricing("5", "25"),
	"opus-4-5":   standardPricing("5", "25"),
	"opus-4-1":   standardPricing("15", "75"),
	"opus-4":     standardPricing("15", "75"),
	"opus-3":     standardPricing("15", "75"),
	"sonnet-4-5": standardPricing("3", "15"),
	"sonnet-4":   standardPricing("3", "15"),
	"sonnet-3-7": standardPricing("3", "15"),
	"haiku-4-5":  standardPricing("1", "5"),
	"haiku-3-5":  standardPricing("0.80", "4"),
	"haiku-3": {
		Input:      decimal.RequireFromString("0.25"),
		Output:     decimal.RequireFromString("1.25"),
		CacheWrite: decimal.RequireFromString("0.30"),
		CacheRead:  decimal.RequireFromString("0.03"),
	},
}

// warnedModels remembers models already reported as unpriced.
var warnedModels sync.Map

// modelFamily reduces a model ID to its pricing family.
// e.g. "claude-opus-4-5-20251101" -> "opus-4-5", "claude-sonnet-4-20250514" -> "sonnet-4"
func modelFamily(model string) string {
	name := strings.TrimPrefix(model, "claude-")
	parts := strings.Split(name, "-")
	if len(parts) < 2 {
		return name
	}
	switch parts[0] {
	case "opus", "sonnet", "haiku":
	default:
		return name
	}
	if !isDigit(parts[1]) {
		return name
	}

	family := parts[0] + "-" + parts[1]
	// Minor versions are one digit; date suffixes are longer.
	if len(parts) >= 3 && isDigit(parts[2]) {
		family += "-" + parts[2]
	}
	return family
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

// GetPricing returns pricing for a model, or zero pricing when the model is
// unknown. Unknown models are logged once.
func GetPricing(model string) ModelPricing {
	family := modelFamily(model)
	if pricing, ok := pricingByFamily[family]; ok {
		return pricing
	}
	if _, warned := warnedModels.LoadOrStore(model, true); !warned {
		logger.Warn("No pricing for model %q (family %q); cost counted as zero", model, family)
	}
	return ModelPricing{}
}

var oneMillion = decimal.NewFromInt(1_000_000)

// CalculateCost prices one usage record.
func CalculateCost(pricing ModelPricing, inputTokens, outputTokens, cacheWriteTokens, cacheReadTokens int64) decimal.Decimal {
	total := decimal.NewFromInt(inputTokens).Mul(pricing.Input).
		Add(decimal.NewFromInt(outputTokens).Mul(pricing.Output)).
		Add(decimal.NewFromInt(cacheWriteTokens).Mul(pricing.CacheWrite)).
		Add(decimal.NewFromInt(cacheReadTokens).Mul(pricing.CacheRead))
	return total.Div(oneMillion)
}
