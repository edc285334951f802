package util

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBaseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple", "1000000", "1000000", false},
		{"beyond uint64", "100000000000000000000000", "100000000000000000000000", false},
		{"zero", "0", "0", false},
		{"empty", "", "", true},
		{"negative", "-5", "", true},
		{"not a number", "ten", "", true},
		{"decimal point", "1.5", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBaseAmount(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{"whole tokens", "10000000000000000000", 18, "10"},
		{"fractional", "10500000000000000000", 18, "10.5"},
		{"below one", "5000", 6, "0.005"},
		{"zero", "0", 18, "0"},
		{"six decimals", "1234567", 6, "1.234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, ok := new(big.Int).SetString(tt.amount, 10)
			require.True(t, ok)
			require.Equal(t, tt.want, FromBaseUnits(amount, tt.decimals))
		})
	}

	t.Run("nil amount", func(t *testing.T) {
		require.Equal(t, "0", FromBaseUnits(nil, 18))
	})
}
