package quote

import (
	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/product"
)

var (
	decOne     = decimal.NewFromInt(1)
	decHundred = decimal.NewFromInt(100)
	decTwelve  = decimal.NewFromInt(12)
	// Minimum received applies the product's 0.5% slippage tolerance.
	slippageFactor = decimal.RequireFromString("0.995")
)

// RewardQuote is a derived reward projection. It is recomputed from
// scratch on every input change and never persisted.
type RewardQuote struct {
	Product       product.Kind
	Principal     decimal.Decimal
	Term          product.TermSelector
	AnnualRatePct decimal.Decimal
	ExchangeRate  decimal.Decimal
	// ProjectedPayout is the estimated receipt-token amount. For
	// compounding products the APR is folded in pro rata by term; for
	// node staking it is the exchange-converted principal only.
	ProjectedPayout decimal.Decimal
	// MinReceived is ProjectedPayout after slippage tolerance.
	MinReceived decimal.Decimal
}

// Calculator computes reward projections for one product descriptor.
// It is pure: no side effects, identical inputs always produce an
// identical quote, safe to call on every keystroke.
type Calculator struct {
	desc product.Descriptor
}

// NewCalculator binds a calculator to a product descriptor.
func NewCalculator(desc product.Descriptor) *Calculator {
	return &Calculator{desc: desc}
}

// Quote projects the payout for staking amount over term.
//
// Vault payout: principal * exchangeRate * (1 + apr/100 * months/12).
// Node payout:  principal * exchangeRate, APR surfaced separately.
//
// Negative amounts normalise to zero so callers always receive a
// renderable figure; an unknown term selector uses the default tier.
func (c *Calculator) Quote(amount decimal.Decimal, term product.TermSelector) RewardQuote {
	principal := amount
	if principal.IsNegative() {
		principal = decimal.Zero
	}

	rate := c.desc.Rates.Rate(term)

	payout := principal.Mul(c.desc.ExchangeRate)
	if c.desc.CompoundByTerm {
		termFraction := decimal.NewFromInt(int64(term)).Div(decTwelve)
		growth := decOne.Add(rate.Div(decHundred).Mul(termFraction))
		payout = payout.Mul(growth)
	}

	return RewardQuote{
		Product:         c.desc.Kind,
		Principal:       principal,
		Term:            term,
		AnnualRatePct:   rate,
		ExchangeRate:    c.desc.ExchangeRate,
		ProjectedPayout: payout,
		MinReceived:     payout.Mul(slippageFactor),
	}
}
