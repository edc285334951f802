package faucet

import (
	"errors"
	"math/big"
)

// ErrThresholdExceeded is the expected business outcome for a recipient
// already holding enough tokens; it is not a system fault.
var ErrThresholdExceeded = errors.New("faucet: balance threshold exceeded")

// Decide computes the amount to send for a request. A pure function of its
// inputs; all arithmetic is big.Int, amounts routinely exceed 2^53.
//
// Without a requested amount the faucet tops the recipient up to the
// threshold, bounded by the per-request cap. With a requested amount the
// send is the requested value bounded by the remaining headroom. Either way
// a recipient at or above the threshold is declined.
func Decide(balance, threshold, perRequestCap, requested *big.Int) (*big.Int, error) {
	headroom := new(big.Int).Sub(threshold, balance)
	if headroom.Sign() <= 0 {
		return nil, ErrThresholdExceeded
	}

	send := headroom
	if requested != nil && requested.Cmp(headroom) < 0 {
		send = new(big.Int).Set(requested)
	}
	if perRequestCap != nil && perRequestCap.Sign() > 0 && send.Cmp(perRequestCap) > 0 {
		send = new(big.Int).Set(perRequestCap)
	}

	if send.Sign() <= 0 {
		return nil, ErrThresholdExceeded
	}
	return send, nil
}
