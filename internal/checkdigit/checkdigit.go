// Package checkdigit holds the check-digit validators an identifier source
// can reference by name.
package checkdigit

import (
	"errors"
	"fmt"
	"sync"
)

// Registry names of the validators installed by NewRegistry.
const (
	Luhn      = "luhn"
	LuhnMod30 = "luhn-mod30"
)

var (
	ErrUnknownValidator = errors.New("unknown check digit validator")
	ErrInvalidCharacter = errors.New("character not valid for check digit algorithm")
)

// Validator appends a check digit to a raw identifier.
type Validator interface {
	ComputeValidIdentifier(raw string) (string, error)
}

// Checker verifies and removes check digits. Validators that implement it
// allow identifiers to be validated and parsed after generation.
type Checker interface {
	IsValid(identifier string) (bool, error)
	Undecorate(identifier string) (string, error)
}

// Registry maps validator references to implementations.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
}

// NewRegistry returns a registry holding the built-in Luhn validators.
func NewRegistry() *Registry {
	r := &Registry{validators: make(map[string]Validator)}
	r.Register(Luhn, NewLuhnMod10())
	r.Register(LuhnMod30, NewLuhnMod30())
	return r
}

// Register adds or replaces the validator stored under name.
func (r *Registry) Register(name string, v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = v
}

// Lookup returns the validator registered under name.
func (r *Registry) Lookup(name string) (Validator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownValidator, name)
	}
	return v, nil
}

// Names returns the registered validator references.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	return names
}
