package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recent submission attempts from the audit trail.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show attempts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	attempts, err := store.ListRecentAttempts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Fprintln(os.Stdout, "no attempts found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tProduct\tOp\tAmount\tTerm\tStatus\tTxID\tError")

	for _, attempt := range attempts {
		term := ""
		if attempt.Term != nil {
			term = fmt.Sprintf("%d", *attempt.Term)
		}
		txid := ""
		if attempt.TxID != nil {
			txid = *attempt.TxID
		}
		errMsg := ""
		if attempt.Error != nil {
			errMsg = sanitizeInline(*attempt.Error)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			attempt.CreatedAt.UTC().Format(time.RFC3339),
			attempt.Product,
			attempt.Operation,
			attempt.Amount.StringFixed(6),
			term,
			attempt.Status,
			txid,
			errMsg,
		)
	}

	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
