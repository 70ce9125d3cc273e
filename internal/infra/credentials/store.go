package credentials

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yang-smith/worker/internal/domain"
)

// ErrMissingCredential is returned when a provider has no configured secret.
var ErrMissingCredential = errors.New("provider credential missing")

// Store holds one bearer credential per upstream provider. It is populated
// once at startup and read-only afterwards.
type Store struct {
	keys map[domain.Provider]string
}

// NewStore builds a store from provider-name keyed secrets. Unknown provider
// names are rejected so a typo in configuration fails at startup.
func NewStore(keys map[string]string) (*Store, error) {
	s := &Store{keys: make(map[domain.Provider]string, len(keys))}
	for name, key := range keys {
		p := domain.Provider(strings.ToLower(strings.TrimSpace(name)))
		if !p.Valid() {
			return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrConfigFault, name)
		}
		if key = strings.TrimSpace(key); key != "" {
			s.keys[p] = key
		}
	}
	return s, nil
}

// Token returns the credential for provider.
func (s *Store) Token(provider domain.Provider) (string, error) {
	if !provider.Valid() {
		return "", fmt.Errorf("%w: unknown provider %q", domain.ErrConfigFault, provider)
	}
	key, ok := s.keys[provider]
	if !ok {
		return "", fmt.Errorf("%w: %w for %s", domain.ErrConfigFault, ErrMissingCredential, provider)
	}
	return key, nil
}

// Require checks that every listed provider has a credential.
func (s *Store) Require(providers ...domain.Provider) error {
	var missing []string
	for _, p := range providers {
		if _, err := s.Token(p); err != nil {
			missing = append(missing, string(p))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %w for %s", domain.ErrConfigFault, ErrMissingCredential, strings.Join(missing, ", "))
}
