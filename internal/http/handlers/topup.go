package handlers

import "net/http"

var supportedPaymentMethods = []string{"stripe", "paypal", "alipay"}

// Topup is a placeholder; it never changes the balance.
func (a *App) Topup(w http.ResponseWriter, r *http.Request) {
	id, ok := a.currentIdentity(r)
	if !ok {
		a.error(w, http.StatusUnauthorized, "login required")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"message":          "top-up is not available yet",
		"user":             id,
		"supportedMethods": supportedPaymentMethods,
	})
}
