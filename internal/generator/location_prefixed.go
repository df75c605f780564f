package generator

import (
	"context"
	"regexp"

	"github.com/weiawesome/wes-idgen/internal/location"
)

// LocationPrefixedGenerator re-resolves the prefix from the current location
// on every call, climbing the location tree until a prefix is found.
type LocationPrefixedGenerator struct {
	cfg    SourceConfig
	format *regexp.Regexp
}

func NewLocationPrefixedGenerator(cfg SourceConfig) (*LocationPrefixedGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := formatFor(&cfg, DefaultLocationPrefixedVariantFormat)
	if err != nil {
		return nil, err
	}
	return &LocationPrefixedGenerator{cfg: cfg, format: format}, nil
}

func (g *LocationPrefixedGenerator) IdentifierForSeed(ctx context.Context, seed int64) (string, error) {
	current, ok := location.CurrentLocation(ctx)
	if !ok {
		return "", location.ErrNoLocationInContext
	}
	prefix, err := location.ResolvePrefix(current, location.PrefixAttributeType)
	if err != nil {
		return "", err
	}

	digits, err := encodeSeed(&g.cfg, seed)
	if err != nil {
		return "", err
	}
	identifier := bridged(prefix, digits+g.cfg.Suffix)

	if err := checkFormat(identifier, g.format); err != nil {
		return "", err
	}
	if err := checkLength(identifier, g.cfg.MinLength, g.cfg.MaxLength, ErrFormatMismatch); err != nil {
		return "", err
	}
	return identifier, nil
}
