package selection

import (
	"math/big"
	"strings"
)

// DefaultDecimals is the precision used when an asset does not declare
// its own.
const DefaultDecimals = 18

// ParseAmount converts a user-typed decimal string into base units at
// the given precision. Input that is not a non-negative decimal coerces
// to zero rather than erroring; a bare "." reads as "0.". Fractional
// digits beyond the precision are truncated.
func ParseAmount(s string, decimals int) *big.Int {
	if decimals < 0 {
		decimals = DefaultDecimals
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int)
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	whole, frac, _ := strings.Cut(s, ".")
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return new(big.Int)
	}
	if len(frac) > decimals {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))

	out, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return new(big.Int)
	}
	return out
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
