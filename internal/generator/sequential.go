package generator

import (
	"context"
	"fmt"
	"regexp"

	"github.com/weiawesome/wes-idgen/internal/checkdigit"
	"github.com/weiawesome/wes-idgen/internal/location"
)

// SequentialGenerator is the base assembler. The working prefix of a call is
// a local value, so one instance can serve concurrent callers.
type SequentialGenerator struct {
	cfg       SourceConfig
	sequences SequenceReader
	validator checkdigit.Validator
	provider  location.PrefixProvider
	format    *regexp.Regexp
}

// NewSequentialGenerator validates cfg and resolves the check-digit validator
// and prefix provider it references.
func NewSequentialGenerator(cfg SourceConfig, deps Dependencies) (*SequentialGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &SequentialGenerator{
		cfg:       cfg,
		sequences: deps.Sequences,
	}

	// Location-prefixed identifiers never carry a check digit.
	if ref := cfg.validatorRef(); ref != "" && !cfg.LocationPrefixed {
		if deps.Validators == nil {
			return nil, fmt.Errorf("%w: %w: %s", ErrCheckDigit, checkdigit.ErrUnknownValidator, ref)
		}
		v, err := deps.Validators.Lookup(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCheckDigit, err)
		}
		g.validator = v
	}

	if ref := cfg.PrefixProviderRef; ref != "" {
		if deps.Providers == nil {
			return nil, fmt.Errorf("%w: %w: %s", ErrInvalidConfiguration, location.ErrUnknownProvider, ref)
		}
		p, err := deps.Providers.Lookup(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		g.provider = p
	}

	if cfg.LocationPrefixed {
		format, err := formatFor(&g.cfg, DefaultLocationPrefixedFormat)
		if err != nil {
			return nil, err
		}
		g.format = format
	}

	return g, nil
}

// IdentifierForSeed returns the identifier for seed. It does not change the
// state of the source.
func (g *SequentialGenerator) IdentifierForSeed(ctx context.Context, seed int64) (string, error) {
	prefix, err := g.workingPrefix(ctx)
	if err != nil {
		return "", err
	}

	identifier, err := encodeSeed(&g.cfg, seed)
	if err != nil {
		return "", err
	}
	identifier += g.cfg.Suffix

	switch {
	case prefix != "" && g.cfg.LocationPrefixed:
		identifier = prefix + Bridge + identifier
	case prefix != "":
		identifier = prefix + identifier
	case g.cfg.LocationPrefixed:
		return "", fmt.Errorf("%w: prefix can't be empty for a location prefixed source", ErrInvalidConfiguration)
	}

	if g.validator != nil {
		identifier, err = g.validator.ComputeValidIdentifier(identifier)
		if err != nil {
			return "", fmt.Errorf("%w with %s: %w", ErrCheckDigit, g.cfg.validatorRef(), err)
		}
	}

	if err := checkFormat(identifier, g.format); err != nil {
		return "", err
	}
	if err := checkLength(identifier, g.cfg.MinLength, g.cfg.MaxLength, ErrInvalidConfiguration); err != nil {
		return "", err
	}
	return identifier, nil
}

// workingPrefix picks the prefix for one call: the configured prefix, the
// "Prefix" attribute of the current location's parent, or the configured
// prefix provider.
func (g *SequentialGenerator) workingPrefix(ctx context.Context) (string, error) {
	prefix := g.cfg.Prefix

	refresh := prefix == ""
	if !refresh && g.cfg.LocationPrefixed {
		initialized, err := g.initialized(ctx)
		if err != nil {
			return "", err
		}
		refresh = !initialized
	}

	if refresh {
		if current, ok := location.CurrentLocation(ctx); ok {
			if value, found := location.LookupAttribute(current.Parent(), location.PrefixAttributeType); found {
				prefix = value
			}
		}
	}

	if prefix == "" && g.provider != nil {
		value, err := g.provider.Value(ctx)
		if err != nil {
			return "", err
		}
		prefix = value
	}
	return prefix, nil
}

func (g *SequentialGenerator) initialized(ctx context.Context) (bool, error) {
	if g.sequences == nil {
		return false, nil
	}
	value, ok, err := g.sequences.SequenceValue(ctx, g.cfg.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read sequence value: %w", err)
	}
	return ok && value > 0, nil
}
