package generator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/weiawesome/wes-idgen/internal/codec"
)

// Bridge separates a location prefix from the encoded sequence.
const Bridge = "-000-"

const (
	DefaultLocationPrefixedFormat        = `[A-Z]{3,4}-0{3}-[0-9]{3}`
	DefaultLocationPrefixedVariantFormat = `[A-Z]{3,5}-0{3}-[0-9]{3,6}`
)

// compileFormat anchors format so that the whole identifier has to match.
func compileFormat(format string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + format + `)$`)
	if err != nil {
		return nil, fmt.Errorf("%w: identifier format %q: %w", ErrInvalidConfiguration, format, err)
	}
	return re, nil
}

func formatFor(cfg *SourceConfig, fallback string) (*regexp.Regexp, error) {
	if f := cfg.format(); f != "" {
		return compileFormat(f)
	}
	return compileFormat(fallback)
}

func encodeSeed(cfg *SourceConfig, seed int64) (string, error) {
	if seed < 0 {
		return "", fmt.Errorf("%w: negative seed %d", ErrInvalidConfiguration, seed)
	}
	digits, err := codec.Encode(uint64(seed), cfg.BaseCharacterSet, cfg.SequenceWidth())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return digits, nil
}

// bridged joins prefix and rest with Bridge unless prefix already ends with it.
func bridged(prefix, rest string) string {
	if strings.HasSuffix(prefix, Bridge) {
		return prefix + rest
	}
	return prefix + Bridge + rest
}

func checkFormat(identifier string, format *regexp.Regexp) error {
	if format != nil && !format.MatchString(identifier) {
		return fmt.Errorf("%w: identifier %s does not match %s", ErrFormatMismatch, identifier, format.String())
	}
	return nil
}

// checkLength enforces the configured bounds; zero means unbounded.
func checkLength(identifier string, minLength, maxLength int, kind error) error {
	n := utf8.RuneCountInString(identifier)
	if minLength > 0 && n < minLength {
		return fmt.Errorf("%w: length minimum set to %d but generated %s", kind, minLength, identifier)
	}
	if maxLength > 0 && n > maxLength {
		return fmt.Errorf("%w: length maximum set to %d but generated %s", kind, maxLength, identifier)
	}
	return nil
}
