package cli

import (
	"github.com/spf13/cobra"

	"stx-stake-gateway/internal/app"
	"stx-stake-gateway/internal/product"
)

var (
	quoteProduct string
	quoteAmount  string
	quoteTerm    int
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Project staking rewards for an amount and term",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := product.ParseKind(quoteProduct)
		if err != nil {
			return err
		}

		opts := app.QuoteOptions{
			Product: kind,
			Amount:  app.ParseAmount(quoteAmount),
			Term:    quoteTerm,
		}

		return getApp().Quote(cmd.Context(), opts)
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteProduct, "product", "vault", "Product kind: vault or node")
	quoteCmd.Flags().StringVar(&quoteAmount, "amount", "10", "Stake amount in STX")
	quoteCmd.Flags().IntVar(&quoteTerm, "term", 3, "Term selector: months for vault, days for node")
}
