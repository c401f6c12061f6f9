package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/intent"
	"stx-stake-gateway/internal/notify"
	"stx-stake-gateway/internal/product"
	"stx-stake-gateway/internal/quote"
	"stx-stake-gateway/internal/storage"
	"stx-stake-gateway/internal/wallet"
)

// State is the orchestrator's position in the submission lifecycle.
type State string

const (
	StateIdle             State = "idle"
	StateSubmitting       State = "submitting"
	StateAwaitingApproval State = "awaiting_approval"
)

// OutcomeStatus is the terminal resolution of one attempt.
type OutcomeStatus string

const (
	// StatusSubmitted: the wallet signed and broadcast the call.
	StatusSubmitted OutcomeStatus = "submitted"
	// StatusCancelled: the user declined in the wallet. Not a failure;
	// the error message stays empty.
	StatusCancelled OutcomeStatus = "cancelled"
	// StatusFailed: validation, intent building, or the signer call
	// errored. The message carries the cause.
	StatusFailed OutcomeStatus = "failed"
)

// Outcome is created once per attempt and handed to the caller. The
// orchestrator retains no history.
type Outcome struct {
	Status       OutcomeStatus
	TxID         string
	ErrorMessage string
}

// ErrSubmissionInFlight is returned when a submit arrives while an
// earlier attempt has not yet resolved. The new request is ignored,
// never queued, and produces no outcome.
var ErrSubmissionInFlight = errors.New("service: submission already in flight")

// Options carry the orchestrator's optional collaborators.
type Options struct {
	Attempts storage.AttemptStore
	Locker   storage.AdvisoryLocker
	LockKey  int64
	Notifier notify.Notifier
}

// Orchestrator owns the submit → approval → resolve lifecycle for one
// product. It is the single writer of the in-flight flag: the flag is
// set before the signer is contacted and cleared on every exit path.
type Orchestrator struct {
	desc      product.Descriptor
	validator *quote.Validator
	builder   *intent.Builder
	signer    wallet.Signer
	opts      Options
	logger    zerolog.Logger

	mu       sync.Mutex
	state    State
	inFlight bool
}

// New constructs the submission orchestrator.
func New(desc product.Descriptor, validator *quote.Validator, builder *intent.Builder, signer wallet.Signer, opts Options, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		desc:      desc,
		validator: validator,
		builder:   builder,
		signer:    signer,
		opts:      opts,
		logger:    logger.With().Str("component", "orchestrator").Str("product", string(desc.Kind)).Logger(),
		state:     StateIdle,
	}
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit drives one stake attempt through the full lifecycle and
// returns its outcome. Validation is re-run here regardless of what
// the caller checked earlier; stale UI state is never trusted. All
// failures resolve to a StatusFailed outcome rather than escaping,
// except ErrSubmissionInFlight which produces no outcome at all.
func (o *Orchestrator) Submit(ctx context.Context, amount decimal.Decimal, term product.TermSelector) (Outcome, error) {
	if err := o.begin(); err != nil {
		return Outcome{}, err
	}
	defer o.finish()

	unlock, proceed, err := o.acquireLock(ctx)
	if err != nil {
		return o.resolveStake(ctx, amount, term, Outcome{Status: StatusFailed, ErrorMessage: err.Error()}), nil
	}
	if !proceed {
		return Outcome{}, ErrSubmissionInFlight
	}
	if unlock != nil {
		defer unlock()
	}

	verdict := o.validator.Validate(ctx, amount)
	if !verdict.Valid {
		o.logger.Error().Str("reason", string(verdict.Reason)).Msg("submit rejected by authoritative validation")
		msg := fmt.Sprintf("validation failed: %s", verdict.Reason)
		return o.resolveStake(ctx, amount, term, Outcome{Status: StatusFailed, ErrorMessage: msg}), nil
	}

	call, err := o.builder.BuildStake(intent.StakeRequest{Amount: amount, Term: term, Validation: verdict})
	if err != nil {
		o.logger.Error().Err(err).Msg("intent build failed")
		return o.resolveStake(ctx, amount, term, Outcome{Status: StatusFailed, ErrorMessage: err.Error()}), nil
	}

	outcome := o.awaitSigner(ctx, call)
	return o.resolveStake(ctx, amount, term, outcome), nil
}

// Claim submits an allow-mode claim-rewards call through the same
// lifecycle. It shares the in-flight flag with Submit.
func (o *Orchestrator) Claim(ctx context.Context) (Outcome, error) {
	return o.submitInbound(ctx, "claim", o.builder.BuildClaim())
}

// Release submits an allow-mode unlock/unstake call.
func (o *Orchestrator) Release(ctx context.Context) (Outcome, error) {
	return o.submitInbound(ctx, "release", o.builder.BuildRelease())
}

func (o *Orchestrator) submitInbound(ctx context.Context, operation string, call intent.Intent) (Outcome, error) {
	if err := o.begin(); err != nil {
		return Outcome{}, err
	}
	defer o.finish()

	unlock, proceed, err := o.acquireLock(ctx)
	if err != nil {
		return o.resolve(ctx, operation, decimal.Zero, nil, nil, Outcome{Status: StatusFailed, ErrorMessage: err.Error()}), nil
	}
	if !proceed {
		return Outcome{}, ErrSubmissionInFlight
	}
	if unlock != nil {
		defer unlock()
	}

	outcome := o.awaitSigner(ctx, call)
	return o.resolve(ctx, operation, decimal.Zero, nil, nil, outcome), nil
}

// begin transitions Idle → Submitting, enforcing mutual exclusion.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		o.logger.Warn().Str("state", string(o.state)).Msg("submit ignored, attempt already in flight")
		return ErrSubmissionInFlight
	}
	o.inFlight = true
	o.state = StateSubmitting
	return nil
}

// finish clears the in-flight flag and returns to Idle. Runs on every
// exit path.
func (o *Orchestrator) finish() {
	o.mu.Lock()
	o.inFlight = false
	o.state = StateIdle
	o.mu.Unlock()
}

// awaitSigner hands the intent to the wallet collaborator and maps the
// three possible resolutions onto a terminal outcome.
func (o *Orchestrator) awaitSigner(ctx context.Context, call intent.Intent) Outcome {
	o.mu.Lock()
	o.state = StateAwaitingApproval
	o.mu.Unlock()

	result, err := o.signer.SubmitContractCall(ctx, call)
	if err != nil {
		o.logger.Error().Err(err).Str("function", call.Function).Msg("signer call failed")
		return Outcome{Status: StatusFailed, ErrorMessage: err.Error()}
	}

	switch result.Status {
	case wallet.StatusCancelled:
		o.logger.Info().Str("function", call.Function).Msg("transaction cancelled by user")
		return Outcome{Status: StatusCancelled}
	case wallet.StatusApproved:
		o.logger.Info().Str("function", call.Function).Str("txid", result.TxID).Msg("transaction submitted")
		return Outcome{Status: StatusSubmitted, TxID: result.TxID}
	default:
		return Outcome{Status: StatusFailed, ErrorMessage: fmt.Sprintf("unexpected signer status %q", result.Status)}
	}
}

func (o *Orchestrator) resolveStake(ctx context.Context, amount decimal.Decimal, term product.TermSelector, outcome Outcome) Outcome {
	micro := int64(intent.ToMicroSTX(amount))
	termValue := int(term)
	return o.resolve(ctx, "stake", amount, &micro, &termValue, outcome)
}

// resolve persists and notifies the terminal outcome. Audit and push
// failures are logged, never surfaced: the attempt already resolved.
func (o *Orchestrator) resolve(ctx context.Context, operation string, amount decimal.Decimal, micro *int64, term *int, outcome Outcome) Outcome {
	if o.opts.Attempts != nil {
		record := storage.AttemptRecord{
			Product:   string(o.desc.Kind),
			Operation: operation,
			Amount:    amount,
			MicroSTX:  micro,
			Term:      term,
			Status:    string(outcome.Status),
		}
		if outcome.TxID != "" {
			txid := outcome.TxID
			record.TxID = &txid
		}
		if outcome.ErrorMessage != "" {
			msg := outcome.ErrorMessage
			record.Error = &msg
		}
		if _, err := o.opts.Attempts.InsertAttempt(ctx, record); err != nil {
			o.logger.Error().Err(err).Msg("failed to persist attempt record")
		}
	}

	if o.opts.Notifier != nil {
		note := notify.Notification{
			Product:   string(o.desc.Kind),
			Operation: operation,
			Status:    string(outcome.Status),
			Amount:    amount,
			TxID:      outcome.TxID,
			ErrorMsg:  outcome.ErrorMessage,
			At:        time.Now().UTC(),
		}
		if term != nil {
			note.Term = fmt.Sprintf("%d %s", *term, o.desc.TermUnit)
		}
		if err := o.opts.Notifier.Notify(ctx, note); err != nil {
			o.logger.Error().Err(err).Msg("failed to dispatch notification")
		}
	}

	return outcome
}

// acquireLock optionally extends in-flight exclusion across gateway
// instances via a postgres advisory lock.
func (o *Orchestrator) acquireLock(ctx context.Context) (func(), bool, error) {
	if o.opts.LockKey == 0 || o.opts.Locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := o.opts.Locker.TryAdvisoryLock(ctx, o.opts.LockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
