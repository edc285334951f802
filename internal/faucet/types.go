package faucet

import "math/big"

type FailureKind string

const (
	KindUnsupportedAddress  FailureKind = "unsupported_address"
	KindInvalidAmount       FailureKind = "invalid_amount"
	KindThresholdExceeded   FailureKind = "threshold_exceeded"
	KindRequestInProgress   FailureKind = "request_in_progress"
	KindInsufficientFunds   FailureKind = "insufficient_funds"
	KindBroadcastFailed     FailureKind = "broadcast_failed"
	KindTransactionRejected FailureKind = "transaction_rejected"
	KindInternal            FailureKind = "internal"
)

// Decline carries the raw numbers behind a threshold decline so the caller
// can render human-readable context. The core itself never formats currency.
type Decline struct {
	Balance   *big.Int
	Threshold *big.Int
	Decimals  int
	Symbol    string
}

// Failure is the typed outcome of a request that did not send tokens. It
// distinguishes the failure kind from the human-readable message and never
// carries key material or raw internal errors in Message.
type Failure struct {
	Kind    FailureKind
	Message string
	Decline *Decline
	cause   error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.cause
}

// Result is the normalized outcome of a successful send on either chain.
type Result struct {
	NetworkType string
	TxHash      string
	Height      int64
	GasUsed     int64
	GasWanted   int64
	From        string
	To          string
	Amount      *big.Int
	ExplorerURL string
}
