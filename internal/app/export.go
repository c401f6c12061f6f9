package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"stx-stake-gateway/internal/product"
	"stx-stake-gateway/internal/quote"
)

// Export renders the projected payout curve for a product as CSV
// and/or PNG, one series per configured term selector.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	if opts.MaxPoints <= 0 {
		opts.MaxPoints = a.Config.Export.MaxPoints
	}
	if opts.MaxPrincipal <= 0 {
		opts.MaxPrincipal = a.Config.Export.MaxPrincipal
	}

	desc, err := a.Config.Descriptor(opts.Product)
	if err != nil {
		return err
	}

	curve := buildPayoutCurve(desc, opts.MaxPrincipal, opts.MaxPoints)
	a.Logger.Info().Str("product", string(desc.Kind)).
		Int("points", len(curve.principals)).
		Int("terms", len(curve.terms)).
		Msg("exporting payout curve")

	if opts.CSVPath != "" {
		if err := writeCurveCSV(opts.CSVPath, desc, curve); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeCurvePNG(opts.PNGPath, desc, curve); err != nil {
			return err
		}
	}

	return nil
}

type payoutCurve struct {
	terms      []product.TermSelector
	principals []float64
	// payouts[i] is the series for terms[i].
	payouts [][]float64
}

func buildPayoutCurve(desc product.Descriptor, maxPrincipal float64, points int) payoutCurve {
	if points < 2 {
		points = 2
	}

	calc := quote.NewCalculator(desc)
	terms := desc.Rates.Terms()

	curve := payoutCurve{
		terms:      terms,
		principals: make([]float64, points),
		payouts:    make([][]float64, len(terms)),
	}
	for i := range curve.payouts {
		curve.payouts[i] = make([]float64, points)
	}

	step := maxPrincipal / float64(points-1)
	for p := 0; p < points; p++ {
		principal := decimal.NewFromFloat(step * float64(p))
		curve.principals[p] = principal.InexactFloat64()
		for t, term := range terms {
			curve.payouts[t][p] = calc.Quote(principal, term).ProjectedPayout.InexactFloat64()
		}
	}
	return curve
}

func writeCurveCSV(path string, desc product.Descriptor, curve payoutCurve) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"principal_stx"}
	for _, term := range curve.terms {
		header = append(header, fmt.Sprintf("payout_%d_%s", term, desc.TermUnit))
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for p, principal := range curve.principals {
		record := []string{fmt.Sprintf("%.6f", principal)}
		for t := range curve.terms {
			record = append(record, fmt.Sprintf("%.6f", curve.payouts[t][p]))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeCurvePNG(path string, desc product.Descriptor, curve payoutCurve) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	formatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}

	series := make([]chart.Series, 0, len(curve.terms))
	for t, term := range curve.terms {
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%d %s (%s%% APR)", term, desc.TermUnit, desc.Rates.Rate(term).String()),
			XValues: curve.principals,
			YValues: curve.payouts[t],
		})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			Name:           "Principal (STX)",
			ValueFormatter: formatter,
		},
		YAxis: chart.YAxis{
			Name:           "Projected payout",
			ValueFormatter: formatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
