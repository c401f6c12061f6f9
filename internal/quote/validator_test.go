package quote

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type staticBalance struct {
	balance decimal.Decimal
	err     error
}

func (s staticBalance) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	return s.balance, s.err
}

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestValidateBelowMinimum(t *testing.T) {
	v := NewValidator(vaultDesc(t), staticBalance{balance: decimal.NewFromInt(1000)}, noopLogger())

	res := v.Validate(context.Background(), decimal.NewFromInt(9))
	if res.Valid {
		t.Fatal("9 STX 低于 10 STX 最低额, 不应通过")
	}
	if res.Reason != ReasonBelowMinimum {
		t.Fatalf("期望 below_minimum, 实际 %s", res.Reason)
	}
}

func TestValidateMinimumBoundary(t *testing.T) {
	v := NewValidator(vaultDesc(t), staticBalance{balance: decimal.NewFromInt(1000)}, noopLogger())

	// 恰好等于最低额应通过。
	res := v.Validate(context.Background(), decimal.NewFromInt(10))
	if !res.Valid || res.Reason != ReasonOK {
		t.Fatalf("amount equal to minimum must validate, got %+v", res)
	}

	res = v.Validate(context.Background(), decimal.RequireFromString("9.999999"))
	if res.Valid {
		t.Fatal("one unit below minimum must not validate")
	}
}

func TestValidateInsufficientBalance(t *testing.T) {
	v := NewValidator(vaultDesc(t), staticBalance{balance: decimal.NewFromInt(50)}, noopLogger())

	res := v.Validate(context.Background(), decimal.NewFromInt(51))
	if res.Valid || res.Reason != ReasonInsufficientFunds {
		t.Fatalf("期望 insufficient_balance, 实际 %+v", res)
	}
}

func TestValidateFailsClosedOnBalanceError(t *testing.T) {
	v := NewValidator(vaultDesc(t), staticBalance{err: errors.New("api down")}, noopLogger())

	res := v.Validate(context.Background(), decimal.NewFromInt(10))
	if res.Valid {
		t.Fatal("unknown balance must fail closed")
	}
	if res.Reason != ReasonBalanceUnavailable {
		t.Fatalf("期望 balance_unavailable, 实际 %s", res.Reason)
	}
}

func TestValidateFailsClosedWithoutBalanceSource(t *testing.T) {
	v := NewValidator(vaultDesc(t), nil, noopLogger())

	res := v.Validate(context.Background(), decimal.NewFromInt(10))
	if res.Valid || res.Reason != ReasonBalanceUnavailable {
		t.Fatalf("nil balance source must fail closed, got %+v", res)
	}
}

func TestValidateNodeMinimum(t *testing.T) {
	v := NewValidator(nodeDesc(t), staticBalance{balance: decimal.NewFromInt(100)}, noopLogger())

	if res := v.Validate(context.Background(), decimal.NewFromInt(1)); !res.Valid {
		t.Fatalf("1 STX meets the node minimum, got %+v", res)
	}
	if res := v.Validate(context.Background(), decimal.RequireFromString("0.9")); res.Valid {
		t.Fatal("0.9 STX is below the node minimum")
	}
}
