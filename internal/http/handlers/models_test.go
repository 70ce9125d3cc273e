package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func listModels(t *testing.T, app *App, target string) (int, []modelDTO) {
	t.Helper()
	rr := httptest.NewRecorder()
	app.Models(rr, authed(httptest.NewRequest(http.MethodGet, target, nil), "u1"))
	if rr.Code != http.StatusOK {
		return rr.Code, nil
	}
	var payload struct {
		Models []modelDTO `json:"models"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rr.Code, payload.Models
}

func TestModelsListsEnabledEntriesInOrder(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	_, models := listModels(t, env.app, "/models")

	want := []string{"google/gemini-2.5-flash", "gpt-4o-mini", "text-embedding-ada-002"}
	if len(models) != len(want) {
		t.Fatalf("models = %+v", models)
	}
	for i, id := range want {
		if models[i].ID != id {
			t.Fatalf("models[%d] = %s, want %s", i, models[i].ID, id)
		}
	}
	mini := models[1]
	if mini.Name == "" || mini.Pricing.Input != 0.00015 || mini.Pricing.Output != 0.0006 || mini.Pricing.Unit != "per 1k tokens" {
		t.Fatalf("gpt-4o-mini = %+v", mini)
	}
	if mini.Limits == nil || mini.Limits.MaxTokens != 16384 {
		t.Fatalf("limits = %+v", mini.Limits)
	}
}

func TestModelsFilters(t *testing.T) {
	env := newTestEnv(t, okUpstream)

	_, models := listModels(t, env.app, "/models?provider=dmxapi")
	if len(models) != 1 || models[0].ID != "text-embedding-ada-002" {
		t.Fatalf("provider filter = %+v", models)
	}

	_, models = listModels(t, env.app, "/models?category=chat")
	if len(models) != 2 {
		t.Fatalf("category filter = %+v", models)
	}

	_, models = listModels(t, env.app, "/models?provider=openrouter&category=embedding")
	if len(models) != 0 {
		t.Fatalf("combined filter = %+v", models)
	}

	if code, _ := listModels(t, env.app, "/models?provider=acme"); code != http.StatusBadRequest {
		t.Fatalf("unknown provider status = %d, want 400", code)
	}
}
