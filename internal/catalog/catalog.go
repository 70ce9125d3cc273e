// Package catalog is the static pricing and routing table for upstream
// models. It is loaded once at startup and never mutated afterwards, so
// readers need no synchronization.
package catalog

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yang-smith/worker/internal/domain"
)

const currentSchemaVersion = 1

//go:embed models.toml
var embeddedCatalog []byte

// UnknownModel is returned by Lookup for ids that are absent or disabled.
// Its prices are deliberately non-zero so unknown traffic is never free.
var UnknownModel = domain.ModelEntry{
	ID:       "unknown",
	Name:     "Unknown Model",
	Provider: domain.ProviderCustom,
	Category: domain.ModelCategoryChat,
	Pricing: domain.ModelPricing{
		InputPer1K:  decimal.RequireFromString("0.001"),
		OutputPer1K: decimal.RequireFromString("0.002"),
		Unit:        "per 1k tokens",
	},
	Endpoint: "",
	Enabled:  false,
}

type fileSchema struct {
	Version int           `toml:"version"`
	Models  []modelSchema `toml:"models"`
}

type modelSchema struct {
	ID       string        `toml:"id"`
	Name     string        `toml:"name"`
	Provider string        `toml:"provider"`
	Category string        `toml:"category"`
	Endpoint string        `toml:"endpoint"`
	Enabled  bool          `toml:"enabled"`
	Pricing  pricingSchema `toml:"pricing"`
	Limits   *limitsSchema `toml:"limits,omitempty"`
}

type pricingSchema struct {
	Input  string `toml:"input"`
	Output string `toml:"output"`
	Unit   string `toml:"unit"`
}

type limitsSchema struct {
	MaxTokens int `toml:"max_tokens"`
	RateLimit int `toml:"rate_limit"`
}

// Catalog is an immutable, ordered set of model entries.
type Catalog struct {
	entries []domain.ModelEntry
	index   map[string]int
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// Load reads a catalog file, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a TOML catalog and validates every entry.
func Parse(raw []byte) (*Catalog, error) {
	var file fileSchema
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if file.Version == 0 {
		file.Version = currentSchemaVersion
	}
	if file.Version > currentSchemaVersion {
		return nil, fmt.Errorf("catalog: unsupported schema version %d (current %d)", file.Version, currentSchemaVersion)
	}

	c := &Catalog{
		entries: make([]domain.ModelEntry, 0, len(file.Models)),
		index:   make(map[string]int, len(file.Models)),
	}
	for i, m := range file.Models {
		entry, err := m.toEntry()
		if err != nil {
			return nil, fmt.Errorf("catalog: models[%d]: %w", i, err)
		}
		if _, dup := c.index[entry.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate model id %q", entry.ID)
		}
		c.index[entry.ID] = len(c.entries)
		c.entries = append(c.entries, entry)
	}
	return c, nil
}

func (m modelSchema) toEntry() (domain.ModelEntry, error) {
	id := strings.TrimSpace(m.ID)
	if id == "" {
		return domain.ModelEntry{}, fmt.Errorf("id is required")
	}
	provider := domain.Provider(strings.ToLower(strings.TrimSpace(m.Provider)))
	if !provider.Valid() {
		return domain.ModelEntry{}, fmt.Errorf("%s: unknown provider %q", id, m.Provider)
	}
	category := domain.ModelCategory(strings.ToLower(strings.TrimSpace(m.Category)))
	if category == "" {
		category = domain.ModelCategoryChat
	}
	if !category.Valid() {
		return domain.ModelEntry{}, fmt.Errorf("%s: unknown category %q", id, m.Category)
	}
	input, err := parsePrice(m.Pricing.Input)
	if err != nil {
		return domain.ModelEntry{}, fmt.Errorf("%s: pricing.input: %w", id, err)
	}
	output, err := parsePrice(m.Pricing.Output)
	if err != nil {
		return domain.ModelEntry{}, fmt.Errorf("%s: pricing.output: %w", id, err)
	}
	endpoint := strings.TrimSpace(m.Endpoint)
	if m.Enabled {
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return domain.ModelEntry{}, fmt.Errorf("%s: enabled model needs an absolute endpoint", id)
		}
	}
	unit := m.Pricing.Unit
	if unit == "" {
		unit = "per 1k tokens"
	}
	entry := domain.ModelEntry{
		ID:       id,
		Name:     displayName(id, m.Name),
		Provider: provider,
		Category: category,
		Pricing:  domain.ModelPricing{InputPer1K: input, OutputPer1K: output, Unit: unit},
		Endpoint: endpoint,
		Enabled:  m.Enabled,
	}
	if m.Limits != nil {
		entry.Limits = &domain.ModelLimits{MaxTokens: m.Limits.MaxTokens, RateLimitPerMinute: m.Limits.RateLimit}
	}
	return entry, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %s", raw)
	}
	return d, nil
}

// displayName derives "Gpt 4o Mini" style names for entries without one.
func displayName(id, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	base := id
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return cases.Title(language.English).String(base)
}

// Lookup returns the entry for modelID when present and enabled, otherwise
// UnknownModel.
func (c *Catalog) Lookup(modelID string) domain.ModelEntry {
	if c != nil {
		if i, ok := c.index[modelID]; ok && c.entries[i].Enabled {
			return clone(c.entries[i])
		}
	}
	return UnknownModel
}

// ListEnabled returns a fresh slice of enabled entries in declared order.
func (c *Catalog) ListEnabled() []domain.ModelEntry {
	return c.filter(func(domain.ModelEntry) bool { return true })
}

// ByProvider returns enabled entries routed to provider.
func (c *Catalog) ByProvider(provider domain.Provider) []domain.ModelEntry {
	return c.filter(func(e domain.ModelEntry) bool { return e.Provider == provider })
}

// ByCategory returns enabled entries of the given category.
func (c *Catalog) ByCategory(category domain.ModelCategory) []domain.ModelEntry {
	return c.filter(func(e domain.ModelEntry) bool { return e.Category == category })
}

// Providers lists the distinct providers used by enabled entries.
func (c *Catalog) Providers() []domain.Provider {
	seen := map[domain.Provider]bool{}
	var out []domain.Provider
	for _, e := range c.ListEnabled() {
		if !seen[e.Provider] {
			seen[e.Provider] = true
			out = append(out, e.Provider)
		}
	}
	return out
}

func (c *Catalog) filter(keep func(domain.ModelEntry) bool) []domain.ModelEntry {
	if c == nil {
		return nil
	}
	out := make([]domain.ModelEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Enabled && keep(e) {
			out = append(out, clone(e))
		}
	}
	return out
}

func clone(e domain.ModelEntry) domain.ModelEntry {
	if e.Limits != nil {
		limits := *e.Limits
		e.Limits = &limits
	}
	return e
}
