package handlers

import (
	"net/http"
	"strconv"
	"time"
)

type usageItemDTO struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Cost      float64   `json:"cost"`
	CreatedAt time.Time `json:"createdAt"`
}

// Usage lists the caller's most recent charges, newest first.
func (a *App) Usage(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "login required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := a.Ledger.ListUsage(r.Context(), id.ID, limit)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", id.ID).Msg("list usage failed")
		a.error(w, http.StatusInternalServerError, "failed to load usage")
		return
	}
	count, total, err := a.Ledger.UsageSummary(r.Context(), id.ID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", id.ID).Msg("usage summary failed")
		a.error(w, http.StatusInternalServerError, "failed to load usage")
		return
	}

	items := make([]usageItemDTO, 0, len(records))
	for _, rec := range records {
		items = append(items, usageItemDTO{
			ID:        rec.ID,
			Model:     rec.Model,
			Cost:      rec.Cost.InexactFloat64(),
			CreatedAt: rec.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":      items,
		"totalCount": count,
		"totalCost":  total.InexactFloat64(),
	})
}
