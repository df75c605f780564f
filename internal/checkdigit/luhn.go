package checkdigit

import (
	"fmt"
	"strings"
)

const (
	mod10Alphabet = "0123456789"
	mod30Alphabet = "0123456789ACDEFGHJKLMNPRTUVWXY"

	// characters the mod10 validator accepts, each worth its offset from '0'
	mod10Input = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_"
)

// LuhnModN implements the Luhn mod N algorithm over an ordered alphabet.
// The check character is joined to the identifier with Separator.
type LuhnModN struct {
	Alphabet  string
	Separator string
	// CodePoint maps an input character to its value. Nil means the index
	// of the character in Alphabet.
	CodePoint func(r rune) (int, bool)
	// Skip lists characters left out of the computation.
	Skip string
}

func NewLuhnMod10() *LuhnModN {
	return &LuhnModN{
		Alphabet:  mod10Alphabet,
		Separator: "-",
		CodePoint: asciiCodePoint,
		Skip:      "-",
	}
}

// NewLuhnMod30 appends the check character without a separator.
func NewLuhnMod30() *LuhnModN {
	return &LuhnModN{Alphabet: mod30Alphabet, Skip: "-"}
}

func asciiCodePoint(r rune) (int, bool) {
	if !strings.ContainsRune(mod10Input, r) {
		return 0, false
	}
	return int(r - '0'), true
}

func (l *LuhnModN) ComputeValidIdentifier(raw string) (string, error) {
	check, err := l.checkCharacter(raw)
	if err != nil {
		return "", err
	}
	return raw + l.Separator + string(check), nil
}

func (l *LuhnModN) IsValid(identifier string) (bool, error) {
	body, check, err := l.split(identifier)
	if err != nil {
		return false, err
	}
	expected, err := l.checkCharacter(body)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(string(expected), check), nil
}

func (l *LuhnModN) Undecorate(identifier string) (string, error) {
	body, _, err := l.split(identifier)
	return body, err
}

func (l *LuhnModN) split(identifier string) (body, check string, err error) {
	if l.Separator == "" {
		runes := []rune(identifier)
		if len(runes) < 2 {
			return "", "", fmt.Errorf("%w: identifier %q too short", ErrInvalidCharacter, identifier)
		}
		return string(runes[:len(runes)-1]), string(runes[len(runes)-1]), nil
	}
	i := strings.LastIndex(identifier, l.Separator)
	if i <= 0 || i+len(l.Separator) >= len(identifier) {
		return "", "", fmt.Errorf("%w: missing check digit in %q", ErrInvalidCharacter, identifier)
	}
	return identifier[:i], identifier[i+len(l.Separator):], nil
}

// checkCharacter walks the input right to left doubling every second code
// point, starting with the rightmost one. Doubled values have their base-N
// digits summed.
func (l *LuhnModN) checkCharacter(input string) (rune, error) {
	chars := []rune(l.Alphabet)
	n := len(chars)
	input = strings.ToUpper(strings.TrimSpace(input))

	factor := 2
	sum := 0
	counted := 0
	runes := []rune(input)
	for i := len(runes) - 1; i >= 0; i-- {
		if strings.ContainsRune(l.Skip, runes[i]) {
			continue
		}
		codePoint, ok := l.codePoint(chars, runes[i])
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCharacter, runes[i])
		}
		counted++
		if factor == 2 {
			addend := 2 * codePoint
			sum += addend/n + addend%n
			factor = 1
		} else {
			sum += codePoint
			factor = 2
		}
	}
	if counted == 0 {
		return 0, fmt.Errorf("%w: empty identifier", ErrInvalidCharacter)
	}

	remainder := sum % n
	return chars[(n-remainder)%n], nil
}

func (l *LuhnModN) codePoint(chars []rune, r rune) (int, bool) {
	if l.CodePoint != nil {
		return l.CodePoint(r)
	}
	i := indexOf(chars, r)
	return i, i >= 0
}

func indexOf(chars []rune, c rune) int {
	for i, r := range chars {
		if r == c {
			return i
		}
	}
	return -1
}
