package pricefeed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestFeedMissingConfig(t *testing.T) {
	feed := NewFeed(Options{}, noopLogger())
	if _, err := feed.STXUSD(context.Background()); err == nil {
		t.Fatal("未配置 RPC 时应报错")
	}

	feed = NewFeed(Options{RPCURL: "http://localhost"}, noopLogger())
	if _, err := feed.STXUSD(context.Background()); err == nil {
		t.Fatal("缺少合约地址应报错")
	}
}

func TestStaticPrice(t *testing.T) {
	src := Static{Price: decimal.RequireFromString("0.6")}
	price, err := src.STXUSD(context.Background())
	if err != nil {
		t.Fatalf("static source 不应报错: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("0.6")) {
		t.Fatalf("期望 0.6, 实际 %s", price)
	}
}
