package intent

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/product"
	"stx-stake-gateway/internal/quote"
)

// StakeRequest carries the validated user input for one stake intent.
type StakeRequest struct {
	Amount     decimal.Decimal
	Term       product.TermSelector
	Validation quote.ValidationResult
}

// Builder assembles contract-call intents for one product descriptor.
type Builder struct {
	desc    product.Descriptor
	network string
	sender  string
}

// NewBuilder constructs a builder. sender is the staking principal the
// post-condition is asserted against.
func NewBuilder(desc product.Descriptor, network, sender string) *Builder {
	return &Builder{desc: desc, network: network, sender: sender}
}

// ToMicroSTX converts a display amount to micro-STX. The conversion
// floors: the wallet must never be asked to move more value than the
// user typed.
func ToMicroSTX(amount decimal.Decimal) uint64 {
	micro := amount.Mul(MicroUnitsPerSTX).Floor()
	if micro.Sign() <= 0 {
		return 0
	}
	return micro.BigInt().Uint64()
}

// BuildStake produces a deny-mode intent for the product's stake
// function with an exact-amount STX post-condition. The request must
// carry a passing ValidationResult; anything else is ErrInvalidRequest.
func (b *Builder) BuildStake(req StakeRequest) (Intent, error) {
	if !req.Validation.Valid {
		return Intent{}, fmt.Errorf("%w: %s", ErrInvalidRequest, req.Validation.Reason)
	}

	micro := ToMicroSTX(req.Amount)
	if micro == 0 {
		return Intent{}, fmt.Errorf("%w: amount truncates to zero micro-stx", ErrInvalidRequest)
	}

	return Intent{
		Contract:   b.desc.Contract,
		ContractID: b.desc.Contract.String(),
		Function:   b.desc.StakeFunc,
		Args: []Arg{
			{Type: ArgUint, Uint: micro},
			{Type: ArgUint, Uint: uint64(req.Term)},
		},
		Mode: ModeDeny,
		PostConditions: []PostCondition{{
			Principal: b.sender,
			Condition: "equal",
			MicroSTX:  micro,
		}},
		Network: b.network,
	}, nil
}

// BuildClaim produces an allow-mode intent for claiming accrued
// rewards. No user funds move outward, so no post-condition applies.
func (b *Builder) BuildClaim() Intent {
	return b.inboundCall(b.desc.ClaimFunc)
}

// BuildRelease produces an allow-mode intent for unlocking/unstaking
// an existing position.
func (b *Builder) BuildRelease() Intent {
	return b.inboundCall(b.desc.ReleaseFunc)
}

func (b *Builder) inboundCall(function string) Intent {
	return Intent{
		Contract:   b.desc.Contract,
		ContractID: b.desc.Contract.String(),
		Function:   function,
		Args:       []Arg{},
		Mode:       ModeAllow,
		Network:    b.network,
	}
}
