// Package address classifies and converts the two textual encodings of one
// 20-byte account identifier: EVM hex and bech32 under a configured prefix.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cosmos/cosmos-sdk/types/bech32"
)

var ErrMalformed = errors.New("address: malformed address")

type Classification int

const (
	Unknown Classification = iota
	EVM
	Cosmos
)

func (c Classification) String() string {
	switch c {
	case EVM:
		return "evm"
	case Cosmos:
		return "cosmos"
	default:
		return "unknown"
	}
}

var evmAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// Classify determines the encoding of a free-form address string. It is
// total: any input yields one of the three classifications, never an error.
func Classify(addr, prefix string) Classification {
	if addr == "" {
		return Unknown
	}

	if strings.HasPrefix(addr, "0x") {
		if evmAddressRe.MatchString(addr) {
			return EVM
		}
		return Unknown
	}

	if strings.HasPrefix(addr, prefix) {
		hrp, _, err := bech32.DecodeAndConvert(addr)
		if err == nil && hrp == prefix {
			return Cosmos
		}
	}

	return Unknown
}

// ToCosmos re-encodes an EVM hex address's 20 bytes under the given bech32
// prefix.
func ToCosmos(evmAddr, prefix string) (string, error) {
	if !evmAddressRe.MatchString(evmAddr) {
		return "", fmt.Errorf("%w: %s", ErrMalformed, evmAddr)
	}

	payload, err := hex.DecodeString(evmAddr[2:])
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformed, evmAddr)
	}

	converted, err := bech32.ConvertAndEncode(prefix, payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return converted, nil
}

// ToEVM decodes a bech32 address and hex-encodes its payload.
func ToEVM(cosmosAddr string) (string, error) {
	_, payload, err := bech32.DecodeAndConvert(cosmosAddr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(payload) != 20 {
		return "", fmt.Errorf("%w: payload is %d bytes, want 20", ErrMalformed, len(payload))
	}
	return "0x" + hex.EncodeToString(payload), nil
}

// Alternate returns the other representation of addr, given its
// classification. Callers should treat an error as "alternate form
// unavailable" and degrade rather than abort.
func Alternate(addr string, c Classification, prefix string) (string, error) {
	switch c {
	case EVM:
		return ToCosmos(addr, prefix)
	case Cosmos:
		return ToEVM(addr)
	default:
		return "", fmt.Errorf("%w: unknown classification", ErrMalformed)
	}
}
