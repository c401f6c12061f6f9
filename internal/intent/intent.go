package intent

import (
	"errors"

	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/product"
)

// ErrInvalidRequest marks an attempt to build an intent from a request
// that has not passed validation. This is a contract violation by the
// caller, fatal to the attempt.
var ErrInvalidRequest = errors.New("intent: request failed validation")

// MicroUnitsPerSTX is the fixed display→base-unit scale factor.
var MicroUnitsPerSTX = decimal.NewFromInt(1_000_000)

// ArgType tags a typed contract-call argument.
type ArgType string

const (
	ArgUint      ArgType = "uint"
	ArgPrincipal ArgType = "principal"
)

// Arg is one positional, typed contract-call argument.
type Arg struct {
	Type  ArgType `json:"type"`
	Uint  uint64  `json:"uint,omitempty"`
	Value string  `json:"value,omitempty"`
}

// PostConditionMode is the wallet-enforced policy for value movement.
type PostConditionMode string

const (
	// ModeDeny rejects any asset transfer not explicitly allowed by a
	// post-condition. Used for every intent that moves user funds.
	ModeDeny PostConditionMode = "deny"
	// ModeAllow places no constraint. Used only for claim/release
	// intents that move no user funds outward.
	ModeAllow PostConditionMode = "allow"
)

// PostCondition asserts that exactly MicroSTX tokens leave the sender.
type PostCondition struct {
	Principal string `json:"principal"`
	Condition string `json:"condition"`
	MicroSTX  uint64 `json:"amount_ustx"`
}

// Intent is an unsigned contract-call description awaiting wallet
// signature. It is immutable once built; the orchestrator hands it to
// the signer without touching its fields.
type Intent struct {
	Contract       product.ContractRef `json:"-"`
	ContractID     string              `json:"contract_id"`
	Function       string              `json:"function"`
	Args           []Arg               `json:"args"`
	Mode           PostConditionMode   `json:"post_condition_mode"`
	PostConditions []PostCondition     `json:"post_conditions,omitempty"`
	Network        string              `json:"network"`
}
