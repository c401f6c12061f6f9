package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"stx-stake-gateway/internal/intent"
	"stx-stake-gateway/internal/product"
	"stx-stake-gateway/internal/quote"
	"stx-stake-gateway/internal/service"
)

// Stake drives one stake submission through the orchestrator, or with
// --dry-run builds and prints the intent without contacting the signer.
func (a *App) Stake(ctx context.Context, opts StakeOptions) error {
	if opts.DryRun {
		return a.stakeDryRun(ctx, opts)
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	orch, err := a.newOrchestrator(opts.Product, store)
	if err != nil {
		return err
	}

	outcome, err := orch.Submit(ctx, opts.Amount, product.TermSelector(opts.Term))
	if err != nil {
		return err
	}
	return printOutcome(outcome)
}

// stakeDryRun validates and builds the intent, then prints it.
func (a *App) stakeDryRun(ctx context.Context, opts StakeOptions) error {
	desc, err := a.Config.Descriptor(opts.Product)
	if err != nil {
		return err
	}

	validator := quote.NewValidator(desc, a.newAccount(), a.Logger)
	verdict := validator.Validate(ctx, opts.Amount)

	builder := intent.NewBuilder(desc, a.Config.Network.ID, a.Config.Network.Sender)
	call, err := builder.BuildStake(intent.StakeRequest{
		Amount:     opts.Amount,
		Term:       product.TermSelector(opts.Term),
		Validation: verdict,
	})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(call, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(encoded))
	return nil
}

// Claim submits a claim-rewards call for the product.
func (a *App) Claim(ctx context.Context, opts PositionOptions) error {
	return a.runPositionOp(ctx, opts, (*service.Orchestrator).Claim)
}

// Unlock submits an unlock/unstake call for the product.
func (a *App) Unlock(ctx context.Context, opts PositionOptions) error {
	return a.runPositionOp(ctx, opts, (*service.Orchestrator).Release)
}

func (a *App) runPositionOp(ctx context.Context, opts PositionOptions, op func(*service.Orchestrator, context.Context) (service.Outcome, error)) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	orch, err := a.newOrchestrator(opts.Product, store)
	if err != nil {
		return err
	}

	outcome, err := op(orch, ctx)
	if err != nil {
		return err
	}
	return printOutcome(outcome)
}

func printOutcome(outcome service.Outcome) error {
	switch outcome.Status {
	case service.StatusSubmitted:
		fmt.Fprintf(os.Stdout, "transaction submitted: %s\n", outcome.TxID)
		return nil
	case service.StatusCancelled:
		fmt.Fprintln(os.Stdout, "cancelled in wallet")
		return nil
	case service.StatusFailed:
		return errors.New(outcome.ErrorMessage)
	default:
		return fmt.Errorf("unexpected outcome status %q", outcome.Status)
	}
}
