package collector

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ValidSymbol reports whether s is alphanumeric, or dot-separated
// alphanumeric parts such as BRK.B.
func ValidSymbol(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

// NormalizeSymbol trims and upper-cases symbol, rejecting invalid ones.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !ValidSymbol(s) {
		return "", errors.Wrapf(ErrInvalidSymbol, "%q", symbol)
	}
	return s, nil
}
