package cli

import (
	"github.com/spf13/cobra"

	"stx-stake-gateway/internal/app"
	"stx-stake-gateway/internal/product"
)

var (
	exportProduct      string
	exportCSVPath      string
	exportPNGPath      string
	exportMaxPoints    int
	exportMaxPrincipal float64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the projected payout curve as CSV and/or PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := product.ParseKind(exportProduct)
		if err != nil {
			return err
		}

		opts := app.ExportOptions{
			Product:      kind,
			CSVPath:      exportCSVPath,
			PNGPath:      exportPNGPath,
			MaxPoints:    exportMaxPoints,
			MaxPrincipal: exportMaxPrincipal,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportProduct, "product", "vault", "Product kind: vault or node")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "CSV output path")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "PNG output path")
	exportCmd.Flags().IntVar(&exportMaxPoints, "points", 0, "Curve sample count (default from config)")
	exportCmd.Flags().Float64Var(&exportMaxPrincipal, "max-principal", 0, "Largest principal to chart (default from config)")
}
