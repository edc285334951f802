package cosmos

import "fmt"

// BroadcastError is a transport-level failure: the node rejected or failed
// the HTTP submission itself.
type BroadcastError struct {
	StatusCode int
	Body       string
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("cosmos: broadcast failed with status %d: %s", e.StatusCode, e.Body)
}

// RejectedError is a protocol-level failure: the node accepted the
// submission but the transaction was rejected in CheckTx.
type RejectedError struct {
	Code   int
	TxHash string
	RawLog string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("cosmos: transaction rejected with code %d: %s", e.Code, e.RawLog)
}
