package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stx-stake-gateway/internal/intent"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testIntent() intent.Intent {
	return intent.Intent{
		ContractID: "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM.lock",
		Function:   "lock-stx",
		Args:       []intent.Arg{{Type: intent.ArgUint, Uint: 10_000_000}},
		Mode:       intent.ModeDeny,
		Network:    "testnet",
	}
}

func newTestSigner(baseURL string) *RemoteSigner {
	return NewRemoteSigner(SignerOptions{
		BaseURL:        baseURL,
		RequestTimeout: time.Second,
		PollInterval:   5 * time.Millisecond,
	}, noopLogger())
}

func TestSignerMissingBaseURL(t *testing.T) {
	s := NewRemoteSigner(SignerOptions{}, noopLogger())
	if _, err := s.SubmitContractCall(context.Background(), testIntent()); err == nil {
		t.Fatal("未配置 base url 时应报错")
	}
}

func TestSignerApprovedAfterPending(t *testing.T) {
	var polls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var call intent.Intent
			if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
				t.Fatalf("解析 intent 失败: %v", err)
			}
			if call.Function != "lock-stx" {
				t.Fatalf("function = %s", call.Function)
			}
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "req-1"})
		case http.MethodGet:
			status := "pending"
			txid := ""
			if polls.Add(1) >= 3 {
				status = "approved"
				txid = "0xabc123"
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"status": status, "txid": txid})
		}
	}))
	defer srv.Close()

	result, err := newTestSigner(srv.URL).SubmitContractCall(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("成功批准不应报错: %v", err)
	}
	if result.Status != StatusApproved || result.TxID != "0xabc123" {
		t.Fatalf("result 不正确: %+v", result)
	}
}

func TestSignerCancelledIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "req-2"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
	}))
	defer srv.Close()

	result, err := newTestSigner(srv.URL).SubmitContractCall(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("用户取消不是错误: %v", err)
	}
	if result.Status != StatusCancelled {
		t.Fatalf("期望 cancelled, 实际 %s", result.Status)
	}
	if result.TxID != "" {
		t.Fatal("cancelled result must not carry a txid")
	}
}

func TestSignerFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "req-3"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "failed", "error": "insufficient funds"})
	}))
	defer srv.Close()

	_, err := newTestSigner(srv.URL).SubmitContractCall(context.Background(), testIntent())
	if err == nil {
		t.Fatal("signer failure 应报错")
	}
}

func TestSignerEnqueueHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad intent"})
	}))
	defer srv.Close()

	if _, err := newTestSigner(srv.URL).SubmitContractCall(context.Background(), testIntent()); err == nil {
		t.Fatal("HTTP 400 应返回错误")
	}
}

func TestSignerContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]string{"request_id": "req-4"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := newTestSigner(srv.URL).SubmitContractCall(ctx, testIntent()); err == nil {
		t.Fatal("approval wait must stop when the context ends")
	}
}
