package generator

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-idgen/internal/checkdigit"
	"github.com/weiawesome/wes-idgen/internal/codec"
	"github.com/weiawesome/wes-idgen/internal/location"
)

// Kind selects the assembler variant used for a source.
type Kind string

const (
	KindSequential       Kind = "sequential"
	KindLocationPrefixed Kind = "location_prefixed"
)

// IdentifierType is the read-only identifier type record a source issues
// identifiers for.
type IdentifierType struct {
	Name         string
	Format       string
	ValidatorRef string
}

// SourceConfig configures one identifier source. It is never modified while
// identifiers are generated.
type SourceConfig struct {
	ID                  int64
	Name                string
	Kind                Kind
	BaseCharacterSet    string
	FirstIdentifierBase string
	Prefix              string
	Suffix              string
	MinLength           int
	MaxLength           int
	LocationPrefixed    bool
	PrefixProviderRef   string
	IdentifierType      *IdentifierType
}

// Validate checks the invariants generation relies on.
func (c *SourceConfig) Validate() error {
	if err := codec.ValidateAlphabet(c.BaseCharacterSet); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if c.MinLength < 0 || c.MaxLength < 0 {
		return fmt.Errorf("%w: length bounds must not be negative", ErrInvalidConfiguration)
	}
	if c.MinLength > 0 && c.MaxLength > 0 && c.MinLength > c.MaxLength {
		return fmt.Errorf("%w: min length %d exceeds max length %d", ErrInvalidConfiguration, c.MinLength, c.MaxLength)
	}
	switch c.Kind {
	case "", KindSequential, KindLocationPrefixed:
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalidConfiguration, c.Kind)
	}
	return nil
}

// SequenceWidth is the minimum number of digits an encoded seed occupies.
func (c *SourceConfig) SequenceWidth() int {
	if n := len([]rune(c.FirstIdentifierBase)); n > 0 {
		return n
	}
	return 1
}

func (c *SourceConfig) format() string {
	if c.IdentifierType == nil {
		return ""
	}
	return c.IdentifierType.Format
}

func (c *SourceConfig) validatorRef() string {
	if c.IdentifierType == nil {
		return ""
	}
	return c.IdentifierType.ValidatorRef
}

// SequenceReader answers whether a source has produced identifiers before.
type SequenceReader interface {
	SequenceValue(ctx context.Context, sourceID int64) (value int64, ok bool, err error)
}

// Generator turns a seed into a formatted identifier and back.
type Generator interface {
	IdentifierForSeed(ctx context.Context, seed int64) (string, error)
	// Parse recovers the seed an identifier was generated from.
	Parse(ctx context.Context, identifier string) (int64, error)
	// Validate returns nil when identifier could have been generated by
	// this source in ctx, or an error describing the first violation.
	Validate(ctx context.Context, identifier string) error
}

// Dependencies are the collaborators a generator resolves at construction.
type Dependencies struct {
	Sequences  SequenceReader
	Validators *checkdigit.Registry
	Providers  *location.Providers
}

// New validates cfg and builds the assembler variant its Kind selects.
func New(cfg SourceConfig, deps Dependencies) (Generator, error) {
	if cfg.Kind == KindLocationPrefixed {
		g, err := NewLocationPrefixedGenerator(cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	g, err := NewSequentialGenerator(cfg, deps)
	if err != nil {
		return nil, err
	}
	return g, nil
}
