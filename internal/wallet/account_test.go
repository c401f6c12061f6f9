package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAccountBalanceMissingConfig(t *testing.T) {
	a := NewAccount(AccountOptions{}, noopLogger())
	if _, err := a.AccountBalance(context.Background()); err == nil {
		t.Fatal("未配置 API 时应报错")
	}

	a = NewAccount(AccountOptions{APIBaseURL: "http://localhost"}, noopLogger())
	if _, err := a.AccountBalance(context.Background()); err == nil {
		t.Fatal("缺少 principal 应报错")
	}
}

func TestAccountBalanceConvertsMicroSTX(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/extended/v1/address/ST123/stx") {
			t.Fatalf("路径不正确: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"balance": "12500000", "locked": "2500000"})
	}))
	defer srv.Close()

	a := NewAccount(AccountOptions{APIBaseURL: srv.URL, Principal: "ST123", Timeout: time.Second}, noopLogger())

	balance, err := a.AccountBalance(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	// 12.5 STX 总额减去 2.5 STX 锁仓。
	if !balance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("期望 10 STX, 实际 %s", balance)
	}
}

func TestAccountBalanceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewAccount(AccountOptions{APIBaseURL: srv.URL, Principal: "ST123"}, noopLogger())
	if _, err := a.AccountBalance(context.Background()); err == nil {
		t.Fatal("HTTP 500 应返回错误")
	}
}
