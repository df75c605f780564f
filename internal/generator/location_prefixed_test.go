package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-idgen/internal/location"
)

// main registration -> central hospital (prefix) -> subdelegation -> delegation
func registrationTree(hospitalPrefix string) *location.Location {
	mainReg := location.NewLocation("Main Registration")

	hospital := location.NewLocation("Kaboul Central Hospital", location.Attribute{TypeName: location.PrefixAttributeType, Value: hospitalPrefix})
	hospital.AddChild(mainReg)

	subdelegation := location.NewLocation("Kaboul Subdelegation")
	subdelegation.AddChild(hospital)

	delegation := location.NewLocation("Afghanistan Delegation")
	delegation.AddChild(subdelegation)

	return mainReg
}

func newLocationPrefixed(t *testing.T, cfg SourceConfig) *LocationPrefixedGenerator {
	t.Helper()
	g, err := NewLocationPrefixedGenerator(cfg)
	require.NoError(t, err)
	return g
}

func TestLocationPrefixedGenerator_UninitializedSource(t *testing.T) {
	g := newLocationPrefixed(t, SourceConfig{
		Name:                "Location Prefixed Sequential Identifier Source",
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000000",
	})

	for _, prefix := range []string{"AFDEL-000-", "AFDEL"} {
		t.Run(prefix, func(t *testing.T) {
			ctx := location.WithCurrentLocation(context.Background(), registrationTree(prefix))
			got, err := g.IdentifierForSeed(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "AFDEL-000-000001", got)
		})
	}
}

func TestLocationPrefixedGenerator_EachCallUsesItsOwnLocation(t *testing.T) {
	g := newLocationPrefixed(t, SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
	})

	first, err := g.IdentifierForSeed(location.WithCurrentLocation(context.Background(), registrationTree("KBSD")), 1)
	require.NoError(t, err)
	assert.Equal(t, "KBSD-000-001", first)

	second, err := g.IdentifierForSeed(location.WithCurrentLocation(context.Background(), registrationTree("AFDEL")), 2)
	require.NoError(t, err)
	assert.Equal(t, "AFDEL-000-002", second)
}

func TestLocationPrefixedGenerator_ClimbsPastBlankPrefixes(t *testing.T) {
	g := newLocationPrefixed(t, SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "0000",
	})

	mainReg := registrationTree(" ")
	delegation := mainReg.ParentLocation.ParentLocation.ParentLocation
	delegation.AddAttribute("PREFIX", "AFG")

	got, err := g.IdentifierForSeed(location.WithCurrentLocation(context.Background(), mainReg), 12)
	require.NoError(t, err)
	assert.Equal(t, "AFG-000-0012", got)
}

func TestLocationPrefixedGenerator_NoLocationInContext(t *testing.T) {
	g := newLocationPrefixed(t, SourceConfig{BaseCharacterSet: "0123456789"})

	_, err := g.IdentifierForSeed(context.Background(), 1)
	assert.ErrorIs(t, err, location.ErrNoLocationInContext)
}

func TestLocationPrefixedGenerator_PrefixNotFound(t *testing.T) {
	g := newLocationPrefixed(t, SourceConfig{BaseCharacterSet: "0123456789"})

	ctx := location.WithCurrentLocation(context.Background(), registrationTree(""))
	_, err := g.IdentifierForSeed(ctx, 1)
	assert.ErrorIs(t, err, location.ErrPrefixNotFound)
}

func TestLocationPrefixedGenerator_DefaultFormat(t *testing.T) {
	g := newLocationPrefixed(t, SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
	})

	tests := []struct {
		name   string
		prefix string
		seed   int64
	}{
		{name: "lowercase prefix", prefix: "afdel", seed: 1},
		{name: "prefix too long", prefix: "AFDELX", seed: 1},
		{name: "too many digits", prefix: "AFDEL", seed: 1234567},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := location.WithCurrentLocation(context.Background(), registrationTree(tt.prefix))
			_, err := g.IdentifierForSeed(ctx, tt.seed)
			assert.ErrorIs(t, err, ErrFormatMismatch)
		})
	}
}

func TestLocationPrefixedGenerator_ConfiguredFormat(t *testing.T) {
	g := newLocationPrefixed(t, SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		IdentifierType:      &IdentifierType{Format: `[A-Z]{2}-000-\d{3}`},
	})

	ctx := location.WithCurrentLocation(context.Background(), registrationTree("KB"))
	got, err := g.IdentifierForSeed(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "KB-000-005", got)

	ctx = location.WithCurrentLocation(context.Background(), registrationTree("KBSD"))
	_, err = g.IdentifierForSeed(ctx, 5)
	assert.ErrorIs(t, err, ErrFormatMismatch)
}

func TestLocationPrefixedGenerator_LengthBoundsAreFormatErrors(t *testing.T) {
	g := newLocationPrefixed(t, SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		MinLength:           13,
	})

	ctx := location.WithCurrentLocation(context.Background(), registrationTree("KBSD"))
	_, err := g.IdentifierForSeed(ctx, 1)
	assert.ErrorIs(t, err, ErrFormatMismatch)

	g = newLocationPrefixed(t, SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		MaxLength:           11,
	})
	_, err = g.IdentifierForSeed(ctx, 1)
	assert.ErrorIs(t, err, ErrFormatMismatch)
}
