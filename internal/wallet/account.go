package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/intent"
)

// AccountOptions parameterise the chain API balance client.
type AccountOptions struct {
	APIBaseURL string
	Principal  string
	Timeout    time.Duration
}

// Account reads STX balances from a Stacks blockchain API node.
type Account struct {
	opts    AccountOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewAccount constructs a balance client for one principal.
func NewAccount(opts AccountOptions, logger zerolog.Logger) *Account {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Account{
		opts:    opts,
		logger:  logger.With().Str("component", "account").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.APIBaseURL, "/"),
	}
}

type stxBalanceResponse struct {
	Balance string `json:"balance"`
	Locked  string `json:"locked"`
}

// AccountBalance returns the spendable balance in whole STX. The API
// reports micro-STX; locked tokens are excluded.
func (a *Account) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	if a.baseURL == "" {
		return decimal.Decimal{}, errors.New("chain api base url not configured")
	}
	if a.opts.Principal == "" {
		return decimal.Decimal{}, errors.New("account principal not configured")
	}

	url := fmt.Sprintf("%s/extended/v1/address/%s/stx", a.baseURL, a.opts.Principal)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("chain api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var balance stxBalanceResponse
	if err := json.Unmarshal(payload, &balance); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode balance response: %w", err)
	}

	micro, err := decimal.NewFromString(balance.Balance)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse balance: %w", err)
	}
	if locked, err := decimal.NewFromString(balance.Locked); err == nil {
		micro = micro.Sub(locked)
	}
	if micro.IsNegative() {
		micro = decimal.Zero
	}

	return micro.Div(intent.MicroUnitsPerSTX), nil
}

var _ BalanceSource = (*Account)(nil)
