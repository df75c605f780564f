package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/weiawesome/wes-idgen/internal/checkdigit"
	"github.com/weiawesome/wes-idgen/internal/codec"
)

func decodeSeed(cfg *SourceConfig, digits string) (int64, error) {
	if digits == "" {
		return 0, fmt.Errorf("%w: no sequence digits", ErrFormatMismatch)
	}
	seed, err := codec.Decode(digits, cfg.BaseCharacterSet)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFormatMismatch, err)
	}
	if seed > uint64(1<<63-1) {
		return 0, fmt.Errorf("%w: seed of %s overflows", ErrFormatMismatch, digits)
	}
	return int64(seed), nil
}

func trimSuffix(identifier, suffix string) (string, error) {
	if suffix == "" {
		return identifier, nil
	}
	if !strings.HasSuffix(identifier, suffix) {
		return "", fmt.Errorf("%w: %s does not end with %s", ErrFormatMismatch, identifier, suffix)
	}
	return strings.TrimSuffix(identifier, suffix), nil
}

// Parse strips the check digit, the working prefix of ctx and the suffix,
// then decodes the remaining digits.
func (g *SequentialGenerator) Parse(ctx context.Context, identifier string) (int64, error) {
	body, err := g.undecorate(identifier)
	if err != nil {
		return 0, err
	}

	prefix, err := g.workingPrefix(ctx)
	if err != nil {
		return 0, err
	}
	if prefix != "" && g.cfg.LocationPrefixed {
		prefix += Bridge
	}
	if !strings.HasPrefix(body, prefix) {
		return 0, fmt.Errorf("%w: %s does not start with %s", ErrFormatMismatch, identifier, prefix)
	}

	digits, err := trimSuffix(strings.TrimPrefix(body, prefix), g.cfg.Suffix)
	if err != nil {
		return 0, err
	}
	return decodeSeed(&g.cfg, digits)
}

// Validate checks the check digit, the length bounds and finally that the
// sequence part decodes. Like generation, it only applies a format to
// location-prefixed sources.
func (g *SequentialGenerator) Validate(ctx context.Context, identifier string) error {
	if checker, ok := g.validator.(checkdigit.Checker); ok {
		valid, err := checker.IsValid(identifier)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCheckDigitMismatch, err)
		}
		if !valid {
			return fmt.Errorf("%w: %s", ErrCheckDigitMismatch, identifier)
		}
	}

	if err := checkFormat(identifier, g.format); err != nil {
		return err
	}
	if err := checkLength(identifier, g.cfg.MinLength, g.cfg.MaxLength, ErrFormatMismatch); err != nil {
		return err
	}

	_, err := g.Parse(ctx, identifier)
	return err
}

func (g *SequentialGenerator) undecorate(identifier string) (string, error) {
	if g.validator == nil {
		return identifier, nil
	}
	checker, ok := g.validator.(checkdigit.Checker)
	if !ok {
		return "", fmt.Errorf("%w: validator %s cannot strip its check digit", ErrInvalidConfiguration, g.cfg.validatorRef())
	}
	body, err := checker.Undecorate(identifier)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCheckDigitMismatch, err)
	}
	return body, nil
}

// Parse drops the suffix and decodes the digits after the last bridge. The
// location part is not checked against the current location.
func (g *LocationPrefixedGenerator) Parse(_ context.Context, identifier string) (int64, error) {
	body, err := trimSuffix(identifier, g.cfg.Suffix)
	if err != nil {
		return 0, err
	}
	i := strings.LastIndex(body, Bridge)
	if i <= 0 {
		return 0, fmt.Errorf("%w: %s has no location prefix", ErrFormatMismatch, identifier)
	}
	return decodeSeed(&g.cfg, body[i+len(Bridge):])
}

// Validate checks format and length bounds and that the sequence part decodes.
func (g *LocationPrefixedGenerator) Validate(ctx context.Context, identifier string) error {
	if err := checkFormat(identifier, g.format); err != nil {
		return err
	}
	if err := checkLength(identifier, g.cfg.MinLength, g.cfg.MaxLength, ErrFormatMismatch); err != nil {
		return err
	}
	_, err := g.Parse(ctx, identifier)
	return err
}
