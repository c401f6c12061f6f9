package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"stx-stake-gateway/internal/product"
	"stx-stake-gateway/internal/quote"
)

// Quote computes and prints a reward projection for the given amount
// and term. Validation is advisory here; a failing verdict is shown,
// not enforced.
func (a *App) Quote(ctx context.Context, opts QuoteOptions) error {
	desc, err := a.Config.Descriptor(opts.Product)
	if err != nil {
		return err
	}

	term := product.TermSelector(opts.Term)
	if !desc.Rates.Known(term) {
		a.Logger.Warn().Int("term", opts.Term).Msg("unknown term selector, quoting with default tier")
	}

	calc := quote.NewCalculator(desc)
	projection := calc.Quote(opts.Amount, term)

	validator := quote.NewValidator(desc, a.newAccount(), a.Logger)
	verdict := validator.Validate(ctx, projection.Principal)

	price := a.stxUSD(ctx)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "Product\t%s\n", desc.Kind)
	fmt.Fprintf(writer, "Principal\t%s STX\t≈ $%s\n", projection.Principal.String(), projection.Principal.Mul(price).StringFixed(2))
	fmt.Fprintf(writer, "Term\t%d %s\n", opts.Term, desc.TermUnit)
	fmt.Fprintf(writer, "APR\t%s%%\n", projection.AnnualRatePct.String())
	fmt.Fprintf(writer, "Exchange rate\t1 STX ≈ %s\n", projection.ExchangeRate.String())
	fmt.Fprintf(writer, "Projected payout\t%s\t≈ $%s\n", projection.ProjectedPayout.StringFixed(6), projection.ProjectedPayout.Mul(price).StringFixed(2))
	fmt.Fprintf(writer, "Min. received\t%s\n", projection.MinReceived.StringFixed(6))
	if verdict.Valid {
		fmt.Fprintf(writer, "Submittable\tyes\n")
	} else {
		fmt.Fprintf(writer, "Submittable\tno (%s)\n", verdict.Reason)
	}
	return writer.Flush()
}

// ParseAmount converts CLI amount input, normalising junk to zero the
// same way the calculator treats negative input.
func ParseAmount(raw string) decimal.Decimal {
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
