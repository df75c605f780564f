// Package codec converts sequence seeds to and from strings written in an
// arbitrary ordered alphabet. Index 0 of the alphabet is the zero digit, so
// "0123456789ABCDEF" gives plain hexadecimal.
package codec

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidAlphabet = errors.New("invalid base character set")
	ErrInvalidChar     = errors.New("character not in base character set")
	ErrOverflow        = errors.New("value overflows uint64")
)

// ValidateAlphabet reports whether alphabet can be used as a positional
// numeral system: at least two characters, none repeated.
func ValidateAlphabet(alphabet string) error {
	chars := []rune(alphabet)
	if len(chars) < 2 {
		return fmt.Errorf("%w: need at least 2 characters, got %d", ErrInvalidAlphabet, len(chars))
	}
	seen := make(map[rune]struct{}, len(chars))
	for _, c := range chars {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: duplicate character %q", ErrInvalidAlphabet, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// Encode writes seed in the base defined by alphabet, most significant digit
// first, left-padded with the zero digit up to minWidth characters.
func Encode(seed uint64, alphabet string, minWidth int) (string, error) {
	chars := []rune(alphabet)
	if len(chars) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidAlphabet)
	}
	if len(chars) == 1 {
		// A single digit can only ever spell zero.
		if seed != 0 {
			return "", fmt.Errorf("%w: single character cannot encode %d", ErrInvalidAlphabet, seed)
		}
		return strings.Repeat(string(chars[0]), max(minWidth, 1)), nil
	}

	base := uint64(len(chars))
	digits := make([]rune, 0, 16)
	for {
		digits = append(digits, chars[seed%base])
		seed /= base
		if seed == 0 {
			break
		}
	}
	for len(digits) < minWidth {
		digits = append(digits, chars[0])
	}

	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits), nil
}

// Decode is the inverse of Encode. Leading zero digits are ignored.
func Decode(s string, alphabet string) (uint64, error) {
	chars := []rune(alphabet)
	if len(chars) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAlphabet)
	}

	index := make(map[rune]uint64, len(chars))
	for i, c := range chars {
		if _, ok := index[c]; !ok {
			index[c] = uint64(i)
		}
	}

	base := uint64(len(chars))
	var total uint64
	for _, c := range s {
		v, ok := index[c]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidChar, c)
		}
		if total > (math.MaxUint64-v)/base {
			return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
		}
		total = total*base + v
	}
	return total, nil
}
