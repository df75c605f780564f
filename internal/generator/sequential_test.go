package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-idgen/internal/checkdigit"
	"github.com/weiawesome/wes-idgen/internal/codec"
	"github.com/weiawesome/wes-idgen/internal/location"
)

type fakeSequences struct {
	value int64
	ok    bool
	err   error
	calls int
}

func (f *fakeSequences) SequenceValue(_ context.Context, _ int64) (int64, bool, error) {
	f.calls++
	return f.value, f.ok, f.err
}

func testDeps() Dependencies {
	return Dependencies{
		Validators: checkdigit.NewRegistry(),
		Providers:  location.NewProviders(),
	}
}

// current location whose parent carries parentPrefix
func currentWithParentPrefix(parentPrefix string) *location.Location {
	current := location.NewLocation("Main Registration")
	parent := location.NewLocation("Kaboul Central Hospital", location.Attribute{TypeName: location.PrefixAttributeType, Value: parentPrefix})
	parent.AddChild(current)
	return current
}

func TestSequentialGenerator_WithinLengthBounds(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		Prefix:              "FOO-",
		Suffix:              "-ACK",
		FirstIdentifierBase: "000",
		MinLength:           11,
		MaxLength:           13,
	}, testDeps())
	require.NoError(t, err)

	tests := []struct {
		seed     int64
		expected string
	}{
		{seed: 1, expected: "FOO-001-ACK"},
		{seed: 12, expected: "FOO-012-ACK"},
		{seed: 123, expected: "FOO-123-ACK"},
		{seed: 1234, expected: "FOO-1234-ACK"},
		{seed: 12345, expected: "FOO-12345-ACK"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got, err := g.IdentifierForSeed(context.Background(), tt.seed)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err = g.IdentifierForSeed(context.Background(), 123456)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSequentialGenerator_ShorterThanMinLength(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet: "0123456789",
		Prefix:           "FOO-",
		MinLength:        6,
	}, testDeps())
	require.NoError(t, err)

	_, err = g.IdentifierForSeed(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSequentialGenerator_LongerThanMaxLength(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet: "0123456789",
		Prefix:           "FOO-",
		MaxLength:        1,
	}, testDeps())
	require.NoError(t, err)

	_, err = g.IdentifierForSeed(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSequentialGenerator_NegativeSeed(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{BaseCharacterSet: "0123456789", Prefix: "FOO-"}, testDeps())
	require.NoError(t, err)

	_, err = g.IdentifierForSeed(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSequentialGenerator_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  SourceConfig
	}{
		{name: "empty alphabet", cfg: SourceConfig{}},
		{name: "duplicate characters", cfg: SourceConfig{BaseCharacterSet: "0011"}},
		{name: "min above max", cfg: SourceConfig{BaseCharacterSet: "01", MinLength: 5, MaxLength: 4}},
		{name: "unknown kind", cfg: SourceConfig{BaseCharacterSet: "01", Kind: "pool"}},
		{name: "invalid format", cfg: SourceConfig{BaseCharacterSet: "01", LocationPrefixed: true, IdentifierType: &IdentifierType{Format: "[A-Z"}}},
		{name: "unknown prefix provider", cfg: SourceConfig{BaseCharacterSet: "01", PrefixProviderRef: "remote"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSequentialGenerator(tt.cfg, testDeps())
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestSequentialGenerator_EmptyAlphabetFromCodec(t *testing.T) {
	_, err := encodeSeed(&SourceConfig{}, 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.ErrorIs(t, err, codec.ErrInvalidAlphabet)
}

func TestSequentialGenerator_PrefixFromParentLocation(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
	}, testDeps())
	require.NoError(t, err)

	ctx := location.WithCurrentLocation(context.Background(), currentWithParentPrefix("AFDEL-"))
	got, err := g.IdentifierForSeed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "AFDEL-001", got)
}

func TestSequentialGenerator_PrefixFromLocationBasedProvider(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		PrefixProviderRef:   location.LocationBasedProviderName,
	}, testDeps())
	require.NoError(t, err)

	// The prefix sits two levels up, out of reach of the parent scan.
	current := location.NewLocation("Main Registration")
	hospital := location.NewLocation("Kaboul Central Hospital")
	hospital.AddChild(current)
	subdelegation := location.NewLocation("Kaboul Subdelegation", location.Attribute{TypeName: location.PrefixAttributeType, Value: "AFDEL-"})
	subdelegation.AddChild(hospital)

	got, err := g.IdentifierForSeed(location.WithCurrentLocation(context.Background(), current), 1)
	require.NoError(t, err)
	assert.Equal(t, "AFDEL-001", got)

	_, err = g.IdentifierForSeed(context.Background(), 1)
	assert.ErrorIs(t, err, location.ErrNoLocationInContext)
}

func TestSequentialGenerator_NoPrefixAndNoLocation(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{BaseCharacterSet: "0123456789ABCDEF"}, testDeps())
	require.NoError(t, err)

	got, err := g.IdentifierForSeed(context.Background(), 43804337214)
	require.NoError(t, err)
	assert.Equal(t, "A32F1243E", got)
}

func TestSequentialGenerator_LocationPrefixedSource(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		LocationPrefixed:    true,
	}, testDeps())
	require.NoError(t, err)

	ctx := location.WithCurrentLocation(context.Background(), currentWithParentPrefix("KBSD"))
	got, err := g.IdentifierForSeed(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "KBSD-000-007", got)
}

func TestSequentialGenerator_LocationPrefixedRequiresPrefix(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		LocationPrefixed:    true,
	}, testDeps())
	require.NoError(t, err)

	_, err = g.IdentifierForSeed(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSequentialGenerator_LocationPrefixedFormatMismatch(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		LocationPrefixed:    true,
	}, testDeps())
	require.NoError(t, err)

	ctx := location.WithCurrentLocation(context.Background(), currentWithParentPrefix("AFDEL"))
	_, err = g.IdentifierForSeed(ctx, 1)
	assert.ErrorIs(t, err, ErrFormatMismatch)
}

func TestSequentialGenerator_ConfiguredFormat(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000000",
		LocationPrefixed:    true,
		IdentifierType:      &IdentifierType{Format: `[A-Z]+-000-\d{6}`},
	}, testDeps())
	require.NoError(t, err)

	ctx := location.WithCurrentLocation(context.Background(), currentWithParentPrefix("AFDEL"))
	got, err := g.IdentifierForSeed(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "AFDEL-000-000042", got)
}

func TestSequentialGenerator_InitializedSourceKeepsConfiguredPrefix(t *testing.T) {
	cfg := SourceConfig{
		ID:                  9,
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		Prefix:              "ABC",
		LocationPrefixed:    true,
	}
	ctx := location.WithCurrentLocation(context.Background(), currentWithParentPrefix("XYZ"))

	fresh := &fakeSequences{}
	g, err := NewSequentialGenerator(cfg, Dependencies{Sequences: fresh})
	require.NoError(t, err)
	got, err := g.IdentifierForSeed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "XYZ-000-001", got)
	assert.Equal(t, 1, fresh.calls)

	started := &fakeSequences{value: 5, ok: true}
	g, err = NewSequentialGenerator(cfg, Dependencies{Sequences: started})
	require.NoError(t, err)
	got, err = g.IdentifierForSeed(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "ABC-000-005", got)
}

func TestSequentialGenerator_SequenceReadFailure(t *testing.T) {
	boom := errors.New("store down")
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet: "0123456789",
		Prefix:           "ABC",
		LocationPrefixed: true,
	}, Dependencies{Sequences: &fakeSequences{err: boom}})
	require.NoError(t, err)

	_, err = g.IdentifierForSeed(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func TestSequentialGenerator_CheckDigit(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		IdentifierType:      &IdentifierType{Name: "OpenMRS ID", ValidatorRef: checkdigit.Luhn},
	}, testDeps())
	require.NoError(t, err)

	got, err := g.IdentifierForSeed(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "001-8", got)
}

func TestSequentialGenerator_CheckDigitSkippedForLocationPrefixed(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
		LocationPrefixed:    true,
		IdentifierType:      &IdentifierType{ValidatorRef: "not-registered"},
	}, testDeps())
	require.NoError(t, err)

	ctx := location.WithCurrentLocation(context.Background(), currentWithParentPrefix("KBSD"))
	got, err := g.IdentifierForSeed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "KBSD-000-001", got)
}

func TestSequentialGenerator_UnknownValidator(t *testing.T) {
	_, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet: "0123456789",
		IdentifierType:   &IdentifierType{ValidatorRef: "org.openmrs.patient.impl.VerhoeffIdentifierValidator"},
	}, testDeps())
	assert.ErrorIs(t, err, ErrCheckDigit)
	assert.ErrorIs(t, err, checkdigit.ErrUnknownValidator)
}

func TestSequentialGenerator_CheckDigitComputationFails(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet: "0123456789",
		Prefix:           "NO#",
		IdentifierType:   &IdentifierType{ValidatorRef: checkdigit.Luhn},
	}, testDeps())
	require.NoError(t, err)

	_, err = g.IdentifierForSeed(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCheckDigit)
	assert.ErrorIs(t, err, checkdigit.ErrInvalidCharacter)
}

func TestSequentialGenerator_ConcurrentCallersKeepTheirOwnPrefix(t *testing.T) {
	g, err := NewSequentialGenerator(SourceConfig{
		BaseCharacterSet:    "0123456789",
		FirstIdentifierBase: "000",
	}, testDeps())
	require.NoError(t, err)

	prefixes := []string{"AAA-", "BBB-", "CCC-", "DDD-"}
	var wg sync.WaitGroup
	errs := make(chan error, len(prefixes)*50)
	for _, prefix := range prefixes {
		ctx := location.WithCurrentLocation(context.Background(), currentWithParentPrefix(prefix))
		for seed := int64(1); seed <= 50; seed++ {
			wg.Add(1)
			go func(prefix string, seed int64) {
				defer wg.Done()
				got, err := g.IdentifierForSeed(ctx, seed)
				if err != nil {
					errs <- err
					return
				}
				if want := fmt.Sprintf("%s%03d", prefix, seed); got != want {
					errs <- fmt.Errorf("got %s, want %s", got, want)
				}
			}(prefix, seed)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestNew_SelectsVariant(t *testing.T) {
	g, err := New(SourceConfig{BaseCharacterSet: "01"}, testDeps())
	require.NoError(t, err)
	assert.IsType(t, &SequentialGenerator{}, g)

	g, err = New(SourceConfig{BaseCharacterSet: "01", Kind: KindLocationPrefixed}, testDeps())
	require.NoError(t, err)
	assert.IsType(t, &LocationPrefixedGenerator{}, g)

	g, err = New(SourceConfig{Kind: KindLocationPrefixed}, testDeps())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Nil(t, g)
}
