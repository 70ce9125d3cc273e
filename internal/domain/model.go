package domain

import "github.com/shopspring/decimal"

// Provider names an upstream API vendor. Credentials are keyed by it.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderDMXAPI     Provider = "dmxapi"
	ProviderCustom     Provider = "custom"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenRouter, ProviderDMXAPI, ProviderCustom:
		return true
	}
	return false
}

// ModelCategory groups models by the shape of their output.
type ModelCategory string

const (
	ModelCategoryChat      ModelCategory = "chat"
	ModelCategoryEmbedding ModelCategory = "embedding"
	ModelCategoryImage     ModelCategory = "image"
	ModelCategoryAudio     ModelCategory = "audio"
)

// Valid reports whether c is a known category.
func (c ModelCategory) Valid() bool {
	switch c {
	case ModelCategoryChat, ModelCategoryEmbedding, ModelCategoryImage, ModelCategoryAudio:
		return true
	}
	return false
}

// ModelPricing is quoted in USD per 1000 tokens.
type ModelPricing struct {
	InputPer1K  decimal.Decimal
	OutputPer1K decimal.Decimal
	Unit        string
}

// ModelLimits are advisory limits published with the catalog.
type ModelLimits struct {
	MaxTokens          int `json:"maxTokens,omitempty"`
	RateLimitPerMinute int `json:"rateLimitPerMinute,omitempty"`
}

// ModelEntry describes one routable model.
type ModelEntry struct {
	ID       string
	Name     string
	Provider Provider
	Category ModelCategory
	Pricing  ModelPricing
	Endpoint string
	Enabled  bool
	Limits   *ModelLimits
}

// CostEstimate is computed per request and never persisted as a whole.
type CostEstimate struct {
	InputTokens  int
	OutputTokens int
	TotalCost    decimal.Decimal
	Currency     string
	Model        string
}
