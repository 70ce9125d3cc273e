package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/yang-smith/worker/internal/domain"
	"github.com/yang-smith/worker/internal/estimator"
	"github.com/yang-smith/worker/internal/proxy"
)

const HeaderRemainingBalance = "X-Remaining-Balance"

// Proxy meters and forwards one upstream call. The caller is charged the
// estimated cost before the upstream request is made; upstream failures
// after a successful debit are not refunded.
func (a *App) Proxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "login required")
		return
	}
	log := a.Logger.With().Str("user_id", id.ID).Logger()

	decision, err := a.Guard.CheckAccess(ctx, id.ID)
	if err != nil {
		log.Error().Err(err).Str("stage", "admitting").Msg("access check failed")
		a.error(w, http.StatusInternalServerError, "access check failed")
		return
	}
	if !decision.CanUse {
		a.json(w, http.StatusForbidden, map[string]any{
			"error":   decision.Reason,
			"balance": decision.Balance.InexactFloat64(),
		})
		return
	}

	body, err := a.readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		log.Warn().Err(err).Str("stage", "estimating").Msg("request body read failed")
		a.error(w, http.StatusBadRequest, "request body could not be read")
		return
	}
	req := estimator.ParseRequest(body, a.DefaultModel)
	estimate := a.Estimator.Estimate(req.Model, req.Messages)
	log = log.With().Str("model", estimate.Model).Logger()

	target, err := a.Forwarder.Resolve(estimate.Model)
	if err != nil {
		log.Error().Err(err).Str("stage", "estimating").Msg("model cannot be routed")
		a.json(w, http.StatusInternalServerError, map[string]any{
			"error":   domain.ErrConfigFault.Error(),
			"details": err.Error(),
		})
		return
	}

	if !estimator.WithinBudget(estimate, decision.Balance) {
		a.json(w, http.StatusForbidden, map[string]any{
			"error":         domain.ErrBudgetExceeded.Error(),
			"estimatedCost": estimate.TotalCost.InexactFloat64(),
			"balance":       decision.Balance.InexactFloat64(),
		})
		return
	}

	debited, err := a.Ledger.Debit(ctx, id.ID, estimate.Model, estimate.TotalCost)
	if err != nil || !debited {
		ev := log.Warn()
		if err != nil {
			ev = log.Error().Err(err)
		}
		ev.Str("stage", "debiting").Str("amount", estimate.TotalCost.String()).Msg("debit not applied")
		a.error(w, http.StatusInternalServerError, domain.ErrDebitRejected.Error())
		return
	}

	remaining := decision.Balance.Sub(estimate.TotalCost)
	usage := log.With().
		Str("charged", estimate.TotalCost.String()).
		Int("input_tokens", estimate.InputTokens).
		Int("output_tokens", estimate.OutputTokens).
		Logger()

	resp, err := a.Forwarder.Forward(ctx, target, r.Method, body, r.Header.Get("Accept-Encoding"))
	if err != nil {
		usage.Error().Err(err).Str("stage", "forwarding").Msg("upstream request failed after debit")
		a.json(w, http.StatusInternalServerError, map[string]any{
			"error":   "upstream request failed",
			"details": err.Error(),
		})
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		usage.Warn().Int("status", resp.StatusCode).Str("stage", "forwarding").Msg("upstream returned non-2xx after debit")
	}

	extra := http.Header{}
	extra.Set(HeaderRemainingBalance, remaining.String())
	if _, err := proxy.Relay(w, resp, extra); err != nil {
		usage.Warn().Err(err).Str("stage", "responding").Msg("relay interrupted")
	}
}

func (a *App) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	limit := a.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		// A truncated body must never be priced or forwarded.
		return nil, err
	}
	return body, nil
}
