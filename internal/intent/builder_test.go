package intent

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/product"
	"stx-stake-gateway/internal/quote"
)

const testSender = "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM"

func vaultBuilder(t *testing.T) *Builder {
	t.Helper()
	desc, err := product.Default(product.LongRunVault)
	if err != nil {
		t.Fatal(err)
	}
	return NewBuilder(desc, "testnet", testSender)
}

func validated(amount string, term product.TermSelector) StakeRequest {
	return StakeRequest{
		Amount:     decimal.RequireFromString(amount),
		Term:       term,
		Validation: quote.ValidationResult{Valid: true, Reason: quote.ReasonOK},
	}
}

func TestToMicroSTXFloors(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"10", 10_000_000},
		{"10.0000019", 10_000_001}, // 小数部分必须向下截断
		{"0.9999999", 999_999},
		{"0.0000001", 0},
		{"-3", 0},
	}
	for _, tc := range cases {
		if got := ToMicroSTX(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Fatalf("ToMicroSTX(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestBuildStakeDenyModeWithExactPostCondition(t *testing.T) {
	b := vaultBuilder(t)

	call, err := b.BuildStake(validated("10.5", 6))
	if err != nil {
		t.Fatalf("BuildStake: %v", err)
	}

	if call.ContractID != testSender+".lock" {
		t.Fatalf("contract id 不正确: %s", call.ContractID)
	}
	if call.Function != "lock-stx" {
		t.Fatalf("function = %s, want lock-stx", call.Function)
	}
	if call.Mode != ModeDeny {
		t.Fatal("fund-moving intents must be deny-by-default")
	}
	if len(call.PostConditions) != 1 {
		t.Fatalf("expected exactly one post-condition, got %d", len(call.PostConditions))
	}
	pc := call.PostConditions[0]
	if pc.Condition != "equal" || pc.MicroSTX != 10_500_000 {
		t.Fatalf("post-condition must pin the exact amount: %+v", pc)
	}
	if pc.Principal != testSender {
		t.Fatalf("post-condition principal = %s", pc.Principal)
	}

	if len(call.Args) != 2 || call.Args[0].Uint != 10_500_000 || call.Args[1].Uint != 6 {
		t.Fatalf("args 不正确: %+v", call.Args)
	}
	if call.Network != "testnet" {
		t.Fatalf("network = %s", call.Network)
	}
}

func TestBuildStakeRejectsUnvalidatedRequest(t *testing.T) {
	b := vaultBuilder(t)

	_, err := b.BuildStake(StakeRequest{
		Amount:     decimal.NewFromInt(10),
		Term:       3,
		Validation: quote.ValidationResult{Reason: quote.ReasonBelowMinimum},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("期望 ErrInvalidRequest, 实际 %v", err)
	}
}

func TestBuildStakeRejectsZeroMicroAmount(t *testing.T) {
	b := vaultBuilder(t)

	_, err := b.BuildStake(validated("0.0000001", 3))
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("amount flooring to zero must be rejected, got %v", err)
	}
}

func TestBuildClaimAndReleaseAllowMode(t *testing.T) {
	b := vaultBuilder(t)

	claim := b.BuildClaim()
	if claim.Function != "claim-rewards" || claim.Mode != ModeAllow {
		t.Fatalf("claim intent 不正确: %+v", claim)
	}
	if len(claim.PostConditions) != 0 {
		t.Fatal("claim intents carry no post-conditions")
	}

	release := b.BuildRelease()
	if release.Function != "unlock-stx" || release.Mode != ModeAllow {
		t.Fatalf("release intent 不正确: %+v", release)
	}
	if len(release.Args) != 0 {
		t.Fatal("release takes no arguments")
	}
}
