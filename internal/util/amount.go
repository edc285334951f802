package util

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseBaseAmount parses a non-negative integer string of token base units.
func ParseBaseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount cannot be negative: %s", s)
	}

	return amount, nil
}

// FromBaseUnits converts base units to a human-readable amount.
// e.g. "10000000000000000000" with 18 decimals -> "10"
func FromBaseUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}

	str := amount.String()
	negative := false
	if strings.HasPrefix(str, "-") {
		negative = true
		str = str[1:]
	}

	if len(str) <= decimals {
		str = strings.Repeat("0", decimals-len(str)+1) + str
	}

	insertPos := len(str) - decimals
	whole := str[:insertPos]
	frac := strings.TrimRight(str[insertPos:], "0")

	result := whole
	if frac != "" {
		result = whole + "." + frac
	}
	if negative {
		result = "-" + result
	}

	return result
}
