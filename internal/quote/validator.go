package quote

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/product"
)

// Reason classifies a validation verdict.
type Reason string

const (
	ReasonOK                 Reason = "ok"
	ReasonBelowMinimum       Reason = "below_minimum"
	ReasonInsufficientFunds  Reason = "insufficient_balance"
	ReasonBalanceUnavailable Reason = "balance_unavailable"
)

// ValidationResult reports whether a stake amount may be submitted and
// why not. It is advisory for display and authoritative immediately
// before an intent is built.
type ValidationResult struct {
	Valid  bool
	Reason Reason
}

// BalanceSource provides the spendable STX balance for the staking
// account, in whole-token units.
type BalanceSource interface {
	AccountBalance(ctx context.Context) (decimal.Decimal, error)
}

// Validator enforces the per-product minimum stake and balance
// sufficiency.
type Validator struct {
	desc    product.Descriptor
	balance BalanceSource
	logger  zerolog.Logger
}

// NewValidator constructs a validator for one product descriptor.
func NewValidator(desc product.Descriptor, balance BalanceSource, logger zerolog.Logger) *Validator {
	return &Validator{
		desc:    desc,
		balance: balance,
		logger:  logger.With().Str("component", "validator").Str("product", string(desc.Kind)).Logger(),
	}
}

// Validate checks amount against the product minimum and the account
// balance. An unreachable balance source fails closed with
// ReasonBalanceUnavailable rather than letting the stake through.
func (v *Validator) Validate(ctx context.Context, amount decimal.Decimal) ValidationResult {
	if amount.LessThan(v.desc.MinStake) {
		return ValidationResult{Reason: ReasonBelowMinimum}
	}

	if v.balance == nil {
		return ValidationResult{Reason: ReasonBalanceUnavailable}
	}

	available, err := v.balance.AccountBalance(ctx)
	if err != nil {
		v.logger.Warn().Err(err).Msg("balance lookup failed, failing closed")
		return ValidationResult{Reason: ReasonBalanceUnavailable}
	}

	if amount.GreaterThan(available) {
		return ValidationResult{Reason: ReasonInsufficientFunds}
	}

	return ValidationResult{Valid: true, Reason: ReasonOK}
}
