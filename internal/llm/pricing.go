package llm

import "strings"

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// Cost returns the USD cost of one request.
func (p Price) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1_000_000
}

// prices covers the models the tutor is configured with by default and
// their common alternatives.
var prices = map[string]Price{
	"claude-haiku-4-5":  {1, 5},
	"claude-sonnet-4-5": {3, 15},
	"claude-opus-4-5":   {5, 25},

	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-5-mini":   {0.25, 2},

	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},
}

// LookupPrice finds the price for a model ID. Dated snapshots
// ("claude-haiku-4-5-20251001", "gpt-4o-mini-2024-07-18") and OpenRouter
// vendor prefixes ("openai/gpt-4o-mini") resolve to their base model.
func LookupPrice(model string) (Price, bool) {
	if i := strings.LastIndexByte(model, '/'); i >= 0 {
		model = model[i+1:]
	}
	for m := model; m != ""; {
		if p, ok := prices[m]; ok {
			return p, true
		}
		i := strings.LastIndexByte(m, '-')
		if i < 0 {
			break
		}
		m = m[:i]
	}
	return Price{}, false
}
