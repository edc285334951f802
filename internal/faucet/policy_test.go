package faucet

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		balance   int64
		threshold int64
		cap       int64
		requested *big.Int
		want      int64
		declined  bool
	}{
		{"tops up to threshold", 3, 10, 10, nil, 7, false},
		{"zero balance gets full threshold", 0, 10, 10, nil, 10, false},
		{"at threshold declined", 10, 10, 10, nil, 0, true},
		{"above threshold declined", 12, 10, 10, nil, 0, true},
		{"requested within headroom", 3, 10, 10, big.NewInt(5), 5, false},
		{"requested capped at headroom", 3, 10, 10, big.NewInt(20), 7, false},
		{"requested but no headroom", 10, 10, 10, big.NewInt(5), 0, true},
		{"per-request cap binds", 0, 100, 10, nil, 10, false},
		{"zero cap means uncapped", 3, 10, 0, nil, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decide(
				big.NewInt(tt.balance),
				big.NewInt(tt.threshold),
				big.NewInt(tt.cap),
				tt.requested,
			)
			if tt.declined {
				require.ErrorIs(t, err, ErrThresholdExceeded)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestDecide_BigAmounts(t *testing.T) {
	// 18-decimal amounts exceed int64/float64 precision; the math must stay
	// exact.
	threshold, _ := new(big.Int).SetString("10000000000000000000", 10) // 10 tokens
	balance, _ := new(big.Int).SetString("3000000000000000001", 10)

	got, err := Decide(balance, threshold, threshold, nil)
	require.NoError(t, err)
	require.Equal(t, "6999999999999999999", got.String())
}

func TestDecide_DoesNotMutateInputs(t *testing.T) {
	balance := big.NewInt(3)
	threshold := big.NewInt(10)
	cap := big.NewInt(10)
	requested := big.NewInt(20)

	_, err := Decide(balance, threshold, cap, requested)
	require.NoError(t, err)

	require.Equal(t, int64(3), balance.Int64())
	require.Equal(t, int64(10), threshold.Int64())
	require.Equal(t, int64(10), cap.Int64())
	require.Equal(t, int64(20), requested.Int64())
}
