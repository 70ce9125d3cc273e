// Package estimator prices a completion request before it is sent upstream.
//
// Token counts come from a character heuristic, not a tokenizer: ASCII
// letters, digits and whitespace are taken at four characters per token and
// every other rune counts as one token. Costs are rounded to six decimal
// places, half away from zero, and that rounded value is what gets debited
// and persisted.
package estimator

import (
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/yang-smith/worker/internal/domain"
)

// CostPlaces is the number of decimal places kept in CostEstimate.TotalCost.
const CostPlaces = 6

// Currency of every estimate.
const Currency = "USD"

const (
	singleTurnMin = 100
	singleTurnMax = 1000
	multiTurnMin  = 200
	multiTurnMax  = 800

	minimumCostInputTokens = 100
)

// Message is one conversation turn reduced to its text.
type Message struct {
	Role    string
	Content string
}

// Pricer resolves catalog entries. *catalog.Catalog satisfies it.
type Pricer interface {
	Lookup(modelID string) domain.ModelEntry
}

// Estimator computes token and cost estimates against a catalog.
type Estimator struct {
	pricer Pricer
}

func New(pricer Pricer) *Estimator {
	return &Estimator{pricer: pricer}
}

// CountTokens applies the character heuristic to text.
func CountTokens(text string) int {
	var ascii, other int
	for _, r := range text {
		if isCompressible(r) {
			ascii++
		} else {
			other++
		}
	}
	return other + (ascii+3)/4
}

func isCompressible(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return unicode.IsSpace(r)
}

// InputTokens counts all message contents joined with single spaces.
func InputTokens(messages []Message) int {
	if len(messages) == 0 {
		return 0
	}
	return CountTokens(joinContents(messages))
}

func joinContents(messages []Message) string {
	n := len(messages) - 1
	for _, m := range messages {
		n += len(m.Content)
	}
	buf := make([]byte, 0, n)
	for i, m := range messages {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, m.Content...)
	}
	return string(buf)
}

// EstimateOutputTokens predicts completion length. Embedding models produce
// no output tokens. An opening turn is expected to answer at about twice its
// length, follow-up turns at about one and a half times, each clamped.
func (e *Estimator) EstimateOutputTokens(messages []Message, modelID string) int {
	entry := e.pricer.Lookup(modelID)
	if entry.Category == domain.ModelCategoryEmbedding {
		return 0
	}
	last := 0
	if len(messages) > 0 {
		last = CountTokens(messages[len(messages)-1].Content)
	}
	if len(messages) == 1 {
		return clamp(last*2, singleTurnMin, singleTurnMax)
	}
	return clamp((last*3+1)/2, multiTurnMin, multiTurnMax)
}

// EstimateCost prices the request for modelID with the given output tokens.
// Unknown models are priced with the catalog's default entry.
func (e *Estimator) EstimateCost(modelID string, messages []Message, outputTokens int) domain.CostEstimate {
	entry := e.pricer.Lookup(modelID)
	inputTokens := InputTokens(messages)
	if outputTokens < 0 {
		outputTokens = 0
	}
	return domain.CostEstimate{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalCost:    price(entry.Pricing, inputTokens, outputTokens),
		Currency:     Currency,
		Model:        modelID,
	}
}

// Estimate runs EstimateOutputTokens and EstimateCost in sequence.
func (e *Estimator) Estimate(modelID string, messages []Message) domain.CostEstimate {
	return e.EstimateCost(modelID, messages, e.EstimateOutputTokens(messages, modelID))
}

// MinimumCost is the cost of a request carrying 100 input tokens and no
// output, useful as a floor when quoting a model.
func (e *Estimator) MinimumCost(modelID string) decimal.Decimal {
	return price(e.pricer.Lookup(modelID).Pricing, minimumCostInputTokens, 0)
}

// WithinBudget reports whether the estimate fits in balance.
func WithinBudget(estimate domain.CostEstimate, balance decimal.Decimal) bool {
	return estimate.TotalCost.LessThanOrEqual(balance)
}

func price(p domain.ModelPricing, inputTokens, outputTokens int) decimal.Decimal {
	in := decimal.NewFromInt(int64(inputTokens)).Mul(p.InputPer1K).Shift(-3)
	out := decimal.NewFromInt(int64(outputTokens)).Mul(p.OutputPer1K).Shift(-3)
	return in.Add(out).Round(CostPlaces)
}

func clamp(x, lo, hi int) int {
	return max(lo, min(x, hi))
}
