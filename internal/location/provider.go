package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// LocationBasedProviderName is the registry name of LocationBasedProvider.
const LocationBasedProviderName = "location"

var ErrUnknownProvider = errors.New("unknown prefix provider")

// PrefixProvider yields the prefix that applies to the caller's context.
type PrefixProvider interface {
	Value(ctx context.Context) (string, error)
}

// LocationBasedProvider resolves the prefix from the current location in
// the context, climbing the tree as needed.
type LocationBasedProvider struct {
	AttributeType string
}

// NewLocationBasedProvider creates a provider reading PrefixAttributeType.
func NewLocationBasedProvider() *LocationBasedProvider {
	return &LocationBasedProvider{AttributeType: PrefixAttributeType}
}

func (p *LocationBasedProvider) Value(ctx context.Context) (string, error) {
	node, ok := CurrentLocation(ctx)
	if !ok {
		return "", ErrNoLocationInContext
	}
	return ResolvePrefix(node, p.AttributeType)
}

// Providers maps provider references to implementations.
type Providers struct {
	mu        sync.RWMutex
	providers map[string]PrefixProvider
}

// NewProviders returns a registry holding the location based provider.
func NewProviders() *Providers {
	p := &Providers{providers: make(map[string]PrefixProvider)}
	p.Register(LocationBasedProviderName, NewLocationBasedProvider())
	return p
}

// Register adds or replaces the provider stored under name.
func (p *Providers) Register(name string, provider PrefixProvider) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.providers[name] = provider
}

// Lookup returns the provider registered under name.
func (p *Providers) Lookup(name string) (PrefixProvider, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	provider, ok := p.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return provider, nil
}
