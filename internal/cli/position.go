package cli

import (
	"github.com/spf13/cobra"

	"stx-stake-gateway/internal/app"
	"stx-stake-gateway/internal/product"
)

var (
	claimProduct  string
	unlockProduct string
)

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim accrued staking rewards",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := product.ParseKind(claimProduct)
		if err != nil {
			return err
		}
		return getApp().Claim(cmd.Context(), app.PositionOptions{Product: kind})
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock or unstake an existing position",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := product.ParseKind(unlockProduct)
		if err != nil {
			return err
		}
		return getApp().Unlock(cmd.Context(), app.PositionOptions{Product: kind})
	},
}

func init() {
	claimCmd.Flags().StringVar(&claimProduct, "product", "vault", "Product kind: vault or node")
	unlockCmd.Flags().StringVar(&unlockProduct, "product", "vault", "Product kind: vault or node")
}
