package handlers

import (
	"net/http"
	"strings"

	"github.com/yang-smith/worker/internal/domain"
)

type pricingDTO struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
	Unit   string  `json:"unit"`
}

type modelDTO struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Provider string              `json:"provider"`
	Category string              `json:"category"`
	Pricing  pricingDTO          `json:"pricing"`
	Limits   *domain.ModelLimits `json:"limits,omitempty"`
}

// Models lists enabled catalog entries, optionally filtered by provider
// and category query parameters.
func (a *App) Models(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.currentIdentity(r); !ok {
		a.error(w, http.StatusUnauthorized, "login required")
		return
	}
	q := r.URL.Query()
	provider := domain.Provider(strings.ToLower(strings.TrimSpace(q.Get("provider"))))
	category := domain.ModelCategory(strings.ToLower(strings.TrimSpace(q.Get("category"))))
	if provider != "" && !provider.Valid() {
		a.error(w, http.StatusBadRequest, "unknown provider")
		return
	}
	if category != "" && !category.Valid() {
		a.error(w, http.StatusBadRequest, "unknown category")
		return
	}

	var entries []domain.ModelEntry
	switch {
	case provider != "":
		entries = a.Catalog.ByProvider(provider)
	case category != "":
		entries = a.Catalog.ByCategory(category)
	default:
		entries = a.Catalog.ListEnabled()
	}

	items := make([]modelDTO, 0, len(entries))
	for _, e := range entries {
		if category != "" && e.Category != category {
			continue
		}
		items = append(items, modelDTO{
			ID:       e.ID,
			Name:     e.Name,
			Provider: string(e.Provider),
			Category: string(e.Category),
			Pricing: pricingDTO{
				Input:  e.Pricing.InputPer1K.InexactFloat64(),
				Output: e.Pricing.OutputPer1K.InexactFloat64(),
				Unit:   e.Pricing.Unit,
			},
			Limits: e.Limits,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"models": items})
}
