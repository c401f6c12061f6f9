package quote

import (
	"testing"

	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/product"
)

func vaultDesc(t *testing.T) product.Descriptor {
	t.Helper()
	desc, err := product.Default(product.LongRunVault)
	if err != nil {
		t.Fatal(err)
	}
	return desc
}

func nodeDesc(t *testing.T) product.Descriptor {
	t.Helper()
	desc, err := product.Default(product.NodeStaking)
	if err != nil {
		t.Fatal(err)
	}
	return desc
}

func TestVaultQuoteCompoundsByTerm(t *testing.T) {
	calc := NewCalculator(vaultDesc(t))

	q := calc.Quote(decimal.NewFromInt(10), 3)

	// 10 × 0.873781 × (1 + 0.05 × 3/12)
	want := decimal.NewFromInt(10).
		Mul(decimal.RequireFromString("0.873781")).
		Mul(decimal.RequireFromString("1.0125"))
	if !q.ProjectedPayout.Equal(want) {
		t.Fatalf("期望 %s, 实际 %s", want, q.ProjectedPayout)
	}
	if !q.AnnualRatePct.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("APR should be 5, got %s", q.AnnualRatePct)
	}
}

func TestNodeQuoteDoesNotCompound(t *testing.T) {
	calc := NewCalculator(nodeDesc(t))

	q := calc.Quote(decimal.NewFromInt(1), 7)

	// 节点质押只做汇率折算, APR 仅展示。
	want := decimal.RequireFromString("0.95")
	if !q.ProjectedPayout.Equal(want) {
		t.Fatalf("期望 %s, 实际 %s", want, q.ProjectedPayout)
	}
	if !q.AnnualRatePct.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("APR should be surfaced as 2, got %s", q.AnnualRatePct)
	}
}

func TestQuoteUnknownTermUsesDefaultTier(t *testing.T) {
	calc := NewCalculator(vaultDesc(t))

	q := calc.Quote(decimal.NewFromInt(10), 9)
	if !q.AnnualRatePct.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unknown term should fall back to 5%% tier, got %s", q.AnnualRatePct)
	}
	if q.ProjectedPayout.IsZero() {
		t.Fatal("quote must never be blocked by an unknown term")
	}
}

func TestQuoteNormalisesNegativeAmount(t *testing.T) {
	calc := NewCalculator(vaultDesc(t))

	q := calc.Quote(decimal.NewFromInt(-5), 3)
	if !q.Principal.IsZero() || !q.ProjectedPayout.IsZero() {
		t.Fatalf("negative amount should normalise to zero, got %s / %s", q.Principal, q.ProjectedPayout)
	}
}

func TestQuoteIdempotent(t *testing.T) {
	calc := NewCalculator(vaultDesc(t))
	amount := decimal.RequireFromString("123.456789")

	first := calc.Quote(amount, 12)
	second := calc.Quote(amount, 12)
	if !first.ProjectedPayout.Equal(second.ProjectedPayout) || !first.MinReceived.Equal(second.MinReceived) {
		t.Fatalf("identical inputs must yield identical quotes: %+v vs %+v", first, second)
	}
}

func TestQuoteMonotonicInAmount(t *testing.T) {
	calc := NewCalculator(vaultDesc(t))

	prev := decimal.Zero
	for _, raw := range []string{"0", "0.5", "1", "10", "100", "1000"} {
		q := calc.Quote(decimal.RequireFromString(raw), 6)
		if q.ProjectedPayout.LessThan(prev) {
			t.Fatalf("payout decreased at amount %s: %s < %s", raw, q.ProjectedPayout, prev)
		}
		prev = q.ProjectedPayout
	}
}

func TestQuoteMonotonicInRate(t *testing.T) {
	calc := NewCalculator(vaultDesc(t))
	amount := decimal.NewFromInt(100)

	low := calc.Quote(amount, 3)
	high := calc.Quote(amount, 12)
	if !high.ProjectedPayout.GreaterThan(low.ProjectedPayout) {
		t.Fatalf("12-month payout should exceed 3-month: %s vs %s", high.ProjectedPayout, low.ProjectedPayout)
	}
}

func TestQuoteMinReceivedAppliesSlippage(t *testing.T) {
	calc := NewCalculator(nodeDesc(t))

	q := calc.Quote(decimal.NewFromInt(100), 7)
	want := q.ProjectedPayout.Mul(decimal.RequireFromString("0.995"))
	if !q.MinReceived.Equal(want) {
		t.Fatalf("期望 %s, 实际 %s", want, q.MinReceived)
	}
}
