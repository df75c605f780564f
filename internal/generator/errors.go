// Package generator assembles sequential identifiers: it encodes a seed in
// the source's base, applies prefix and suffix, adds a check digit and
// enforces the format and length contract of the identifier type.
package generator

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid identifier source configuration")
	ErrFormatMismatch       = errors.New("identifier does not match format")
	ErrCheckDigit           = errors.New("error generating check digit")
	ErrCheckDigitMismatch   = errors.New("check digit does not match")
)
