package handlers

import (
	"net/http"
	"time"

	"github.com/yang-smith/worker/internal/domain"
)

type statsDTO struct {
	Plan       string     `json:"plan"`
	Status     string     `json:"status"`
	Balance    float64    `json:"balance"`
	TotalSpent float64    `json:"totalSpent"`
	LastUsed   *time.Time `json:"lastUsed"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

type statsResponse struct {
	User  domain.Identity `json:"user"`
	Stats statsDTO        `json:"stats"`
}

// Stats always answers 200; the ledger substitutes defaults on storage errors.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "login required")
		return
	}
	s := a.Ledger.Stats(r.Context(), id.ID)
	a.json(w, http.StatusOK, statsResponse{
		User: id,
		Stats: statsDTO{
			Plan:       string(s.Plan),
			Status:     string(s.Status),
			Balance:    s.Balance.InexactFloat64(),
			TotalSpent: s.TotalSpent.InexactFloat64(),
			LastUsed:   s.LastUsedAt,
			ExpiresAt:  s.ExpiresAt,
		},
	})
}
