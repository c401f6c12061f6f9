package cli

import (
	"github.com/spf13/cobra"

	"stx-stake-gateway/internal/app"
	"stx-stake-gateway/internal/product"
)

var (
	stakeProduct string
	stakeAmount  string
	stakeTerm    int
	stakeDryRun  bool
)

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Submit a stake transaction through the wallet signer",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := product.ParseKind(stakeProduct)
		if err != nil {
			return err
		}

		opts := app.StakeOptions{
			Product: kind,
			Amount:  app.ParseAmount(stakeAmount),
			Term:    stakeTerm,
			DryRun:  stakeDryRun,
		}

		return getApp().Stake(cmd.Context(), opts)
	},
}

func init() {
	stakeCmd.Flags().StringVar(&stakeProduct, "product", "vault", "Product kind: vault or node")
	stakeCmd.Flags().StringVar(&stakeAmount, "amount", "", "Stake amount in STX")
	stakeCmd.Flags().IntVar(&stakeTerm, "term", 3, "Term selector: months for vault, days for node")
	stakeCmd.Flags().BoolVar(&stakeDryRun, "dry-run", false, "Build and print the intent without contacting the signer")
	_ = stakeCmd.MarkFlagRequired("amount")
}
