package credentials

import (
	"errors"
	"testing"

	"github.com/yang-smith/worker/internal/domain"
)

func TestStoreToken(t *testing.T) {
	store, err := NewStore(map[string]string{"openrouter": " or-key ", "dmxapi": ""})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	got, err := store.Token(domain.ProviderOpenRouter)
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if got != "or-key" {
		t.Fatalf("Token() = %q, want %q", got, "or-key")
	}
	if _, err := store.Token(domain.ProviderDMXAPI); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Token() for blank key error = %v, want ErrMissingCredential", err)
	}
	if _, err := store.Token(domain.Provider("acme")); !errors.Is(err, domain.ErrConfigFault) {
		t.Fatalf("Token() for unknown provider error = %v, want ErrConfigFault", err)
	}
}

func TestNewStoreRejectsUnknownProvider(t *testing.T) {
	if _, err := NewStore(map[string]string{"acme": "k"}); !errors.Is(err, domain.ErrConfigFault) {
		t.Fatalf("NewStore() error = %v, want ErrConfigFault", err)
	}
}

func TestStoreRequire(t *testing.T) {
	store, err := NewStore(map[string]string{"openrouter": "or-key"})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	if err := store.Require(domain.ProviderOpenRouter); err != nil {
		t.Fatalf("Require() unexpected error: %v", err)
	}
	err = store.Require(domain.ProviderOpenRouter, domain.ProviderDMXAPI, domain.ProviderCustom)
	if !errors.Is(err, domain.ErrConfigFault) || !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Require() error = %v, want config fault", err)
	}
	if want := "configuration fault: provider credential missing for custom, dmxapi"; err.Error() != want {
		t.Fatalf("Require() message = %q, want %q", err.Error(), want)
	}
}
