package product

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Kind identifies a staking product variant.
type Kind string

const (
	// LongRunVault locks STX for a number of months and compounds the
	// selected APR into the projected payout.
	LongRunVault Kind = "vault"
	// NodeStaking delegates STX for a number of days; the APR is
	// informational and not folded into the payout.
	NodeStaking Kind = "node"
)

// ParseKind maps a CLI/config token to a product kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case LongRunVault, NodeStaking:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown product kind %q", s)
}

// TermSelector is the discrete duration code selecting a rate tier:
// months for vaults, days for node staking.
type TermSelector int

// RateTier binds a term selector to an annual rate percentage.
type RateTier struct {
	Term          TermSelector
	AnnualRatePct decimal.Decimal
}

// RateTable maps term selectors to annual rates with a defined
// fallback tier. Lookups never fail: an unknown selector yields the
// default tier so quote display is never blocked.
type RateTable struct {
	tiers       map[TermSelector]decimal.Decimal
	defaultRate decimal.Decimal
}

// NewRateTable builds a rate table from tier entries.
func NewRateTable(defaultRatePct decimal.Decimal, tiers ...RateTier) RateTable {
	m := make(map[TermSelector]decimal.Decimal, len(tiers))
	for _, tier := range tiers {
		m[tier.Term] = tier.AnnualRatePct
	}
	return RateTable{tiers: m, defaultRate: defaultRatePct}
}

// Rate returns the annual rate for a term selector, falling back to
// the default tier when the selector is unknown.
func (t RateTable) Rate(term TermSelector) decimal.Decimal {
	if rate, ok := t.tiers[term]; ok {
		return rate
	}
	return t.defaultRate
}

// DefaultRate returns the fallback tier rate.
func (t RateTable) DefaultRate() decimal.Decimal {
	return t.defaultRate
}

// Known reports whether the selector has an explicit tier.
func (t RateTable) Known(term TermSelector) bool {
	_, ok := t.tiers[term]
	return ok
}

// Terms returns the explicitly configured selectors in ascending order.
func (t RateTable) Terms() []TermSelector {
	terms := make([]TermSelector, 0, len(t.tiers))
	for term := range t.tiers {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i] < terms[j] })
	return terms
}

// ContractRef names an on-chain contract by deployer address and name.
type ContractRef struct {
	Address string
	Name    string
}

// String renders the fully qualified contract identifier.
func (c ContractRef) String() string {
	return c.Address + "." + c.Name
}

// Descriptor parameterises the shared staking core for one product:
// rate table, payout formula selection, minimum stake, and the
// contract functions the product exposes.
type Descriptor struct {
	Kind         Kind
	Contract     ContractRef
	StakeFunc    string
	ClaimFunc    string
	ReleaseFunc  string
	MinStake     decimal.Decimal
	ExchangeRate decimal.Decimal
	Rates        RateTable
	// CompoundByTerm selects the time-weighted payout formula
	// (vaults). When false the payout is exchange-only and the APR is
	// surfaced separately (node staking).
	CompoundByTerm bool
	// TermUnit is "months" or "days", display only.
	TermUnit string
}

// 默认值取自 lock.clar / node.clar 合约常量。
var defaults = map[Kind]Descriptor{
	LongRunVault: {
		Kind:         LongRunVault,
		Contract:     ContractRef{Address: "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM", Name: "lock"},
		StakeFunc:    "lock-stx",
		ClaimFunc:    "claim-rewards",
		ReleaseFunc:  "unlock-stx",
		MinStake:     decimal.NewFromInt(10),
		ExchangeRate: decimal.RequireFromString("0.873781"),
		Rates: NewRateTable(decimal.NewFromInt(5),
			RateTier{Term: 3, AnnualRatePct: decimal.NewFromInt(5)},
			RateTier{Term: 6, AnnualRatePct: decimal.NewFromInt(8)},
			RateTier{Term: 12, AnnualRatePct: decimal.NewFromInt(12)},
		),
		CompoundByTerm: true,
		TermUnit:       "months",
	},
	NodeStaking: {
		Kind:         NodeStaking,
		Contract:     ContractRef{Address: "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM", Name: "node"},
		StakeFunc:    "stake-stx",
		ClaimFunc:    "claim-rewards",
		ReleaseFunc:  "unstake-stx",
		MinStake:     decimal.NewFromInt(1),
		ExchangeRate: decimal.RequireFromString("0.95"),
		Rates: NewRateTable(decimal.NewFromInt(2),
			RateTier{Term: 7, AnnualRatePct: decimal.NewFromInt(2)},
			RateTier{Term: 15, AnnualRatePct: decimal.NewFromInt(3)},
			RateTier{Term: 30, AnnualRatePct: decimal.NewFromInt(4)},
		),
		CompoundByTerm: false,
		TermUnit:       "days",
	},
}

// Default returns the built-in descriptor for a product kind.
func Default(kind Kind) (Descriptor, error) {
	d, ok := defaults[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("no descriptor for product kind %q", kind)
	}
	return d, nil
}

// Validate performs sanity checks on a descriptor, typically after
// config overrides have been applied.
func (d Descriptor) Validate() error {
	if d.Contract.Address == "" || d.Contract.Name == "" {
		return fmt.Errorf("product %s: contract reference incomplete", d.Kind)
	}
	if d.StakeFunc == "" {
		return fmt.Errorf("product %s: stake function name required", d.Kind)
	}
	if d.MinStake.IsNegative() {
		return fmt.Errorf("product %s: minimum stake cannot be negative", d.Kind)
	}
	if !d.ExchangeRate.IsPositive() {
		return fmt.Errorf("product %s: exchange rate must be positive", d.Kind)
	}
	return nil
}
