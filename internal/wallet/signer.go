package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stx-stake-gateway/internal/intent"
)

const contractCallPath = "/v1/contract-call"

// SignerOptions parameterise the remote signer client.
type SignerOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	ApprovalTimeout time.Duration
	UserAgent       string
}

// RemoteSigner drives a contract call through an HTTP signing daemon:
// one POST to enqueue the approval request, then polling until the
// user approves, cancels, or the signer reports a failure.
type RemoteSigner struct {
	opts    SignerOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewRemoteSigner constructs a remote signer client.
func NewRemoteSigner(opts SignerOptions, logger zerolog.Logger) *RemoteSigner {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}

	return &RemoteSigner{
		opts:    opts,
		logger:  logger.With().Str("component", "remote_signer").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

type submitResponse struct {
	RequestID string `json:"request_id"`
}

type pollResponse struct {
	Status string `json:"status"`
	TxID   string `json:"txid"`
	Error  string `json:"error"`
}

// SubmitContractCall enqueues the intent with the signer and blocks
// until resolution. Cancellation by the user is a Result, not an
// error; the error message field is left untouched by it.
func (s *RemoteSigner) SubmitContractCall(ctx context.Context, call intent.Intent) (Result, error) {
	if s.baseURL == "" {
		return Result{}, errors.New("signer base url not configured")
	}

	if s.opts.ApprovalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ApprovalTimeout)
		defer cancel()
	}

	requestID, err := s.enqueue(ctx, call)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info().Str("request_id", requestID).
		Str("contract", call.ContractID).
		Str("function", call.Function).
		Msg("awaiting wallet approval")

	return s.awaitResolution(ctx, requestID)
}

func (s *RemoteSigner) enqueue(ctx context.Context, call intent.Intent) (string, error) {
	body, err := json.Marshal(call)
	if err != nil {
		return "", fmt.Errorf("marshal intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+contractCallPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(s.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", parseSignerError(resp.StatusCode, payload)
	}

	var submitted submitResponse
	if err := json.Unmarshal(payload, &submitted); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if submitted.RequestID == "" {
		return "", errors.New("signer returned empty request id")
	}
	return submitted.RequestID, nil
}

// awaitResolution polls the signer until a terminal status appears.
func (s *RemoteSigner) awaitResolution(ctx context.Context, requestID string) (Result, error) {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-ticker.C:
		}

		status, err := s.poll(ctx, requestID)
		if err != nil {
			return Result{}, err
		}

		switch status.Status {
		case "pending":
			continue
		case "approved":
			if status.TxID == "" {
				return Result{}, errors.New("signer approved without a transaction id")
			}
			return Result{Status: StatusApproved, TxID: status.TxID}, nil
		case "cancelled":
			return Result{Status: StatusCancelled}, nil
		case "failed":
			if status.Error != "" {
				return Result{}, fmt.Errorf("signer reported failure: %s", status.Error)
			}
			return Result{}, errors.New("signer reported failure")
		default:
			return Result{}, fmt.Errorf("signer reported unknown status %q", status.Status)
		}
	}
}

func (s *RemoteSigner) poll(ctx context.Context, requestID string) (pollResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+contractCallPath+"/"+requestID, nil)
	if err != nil {
		return pollResponse{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return pollResponse{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pollResponse{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return pollResponse{}, parseSignerError(resp.StatusCode, payload)
	}

	var status pollResponse
	if err := json.Unmarshal(payload, &status); err != nil {
		return pollResponse{}, fmt.Errorf("decode poll response: %w", err)
	}
	return status, nil
}

type signerErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseSignerError(status int, payload []byte) error {
	var apiErr signerErrorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Error != "" {
			return fmt.Errorf("signer api error (%d): %s", status, apiErr.Error)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("signer api error (%d): %s", status, apiErr.Message)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("signer api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("signer api error (%d)", status)
}

var _ Signer = (*RemoteSigner)(nil)
