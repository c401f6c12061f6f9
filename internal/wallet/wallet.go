package wallet

import (
	"context"

	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/intent"
)

// Status is the resolution of one contract-call submission.
type Status string

const (
	// StatusApproved means the wallet signed and broadcast the call.
	StatusApproved Status = "approved"
	// StatusCancelled means the user explicitly declined. Not an error.
	StatusCancelled Status = "cancelled"
)

// Result collapses the signer's approved/cancelled/errored callback
// surface into one value. Signer and network failures are returned as
// errors, never as a Result.
type Result struct {
	Status Status
	TxID   string
}

// Signer submits a contract-call intent for user approval and blocks
// until the signer reports a terminal resolution or ctx is cancelled.
// Approval is human-in-the-loop and may take arbitrarily long.
type Signer interface {
	SubmitContractCall(ctx context.Context, call intent.Intent) (Result, error)
}

// BalanceSource reports the account's spendable STX balance in
// whole-token units.
type BalanceSource interface {
	AccountBalance(ctx context.Context) (decimal.Decimal, error)
}
