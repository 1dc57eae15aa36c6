package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"gem-hunter/internal/storage"
)

// Export renders a token's scan history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.Identifier == "" {
		return errors.New("token identifier is required")
	}
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	scans, err := store.ListScansForToken(ctx, opts.Identifier)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		a.Logger.Info().Str("token", opts.Identifier).Msg("no scans found for token")
		return nil
	}

	downsampled := downsampleScans(scans, opts.MaxPoints)
	a.Logger.Info().Int("total", len(scans)).Int("exported", len(downsampled)).Msg("exporting scans")

	if opts.CSVPath != "" {
		if err := writeScansCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeScansPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleScans(scans []storage.ScanRecord, max int) []storage.ScanRecord {
	if max <= 0 || len(scans) <= max {
		return scans
	}

	result := make([]storage.ScanRecord, 0, max)
	step := float64(len(scans)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(scans) {
			idx = len(scans) - 1
		}
		result = append(result, scans[idx])
	}
	return result
}

func writeScansCSV(path string, scans []storage.ScanRecord) error {
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

	header := []string{"scanned_at", "identifier", "symbol", "source", "price_usd", "liquidity_usd", "volume_24h_usd", "risk_score", "verdict", "confidence", "risk_level"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, scan := range scans {
		riskScore := ""
		if scan.RiskScore != nil {
			riskScore = strconv.Itoa(*scan.RiskScore)
		}
		record := []string{
			scan.ScannedAt.Format(time.RFC3339),
			scan.Identifier,
			scan.Symbol,
			scan.Source,
			scan.PriceUSD.String(),
			scan.LiquidityUSD.String(),
			scan.Volume24hUSD.String(),
			riskScore,
			scan.Verdict,
			strconv.Itoa(scan.Confidence),
			scan.RiskLevel,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeScansPNG(path string, scans []storage.ScanRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(scans))
	price := make([]float64, len(scans))
	volume := make([]float64, len(scans))

	for i, scan := range scans {
		x[i] = scan.ScannedAt
		price[i] = scan.PriceUSD.InexactFloat64()
		volume[i] = scan.Volume24hUSD.InexactFloat64()
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.8f")
	}
	volumeFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price (USD)",
			ValueFormatter: priceFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Volume 24h (USD)",
			ValueFormatter: volumeFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Price",
				XValues: x,
				YValues: price,
			},
			chart.TimeSeries{
				Name:    "Volume 24h",
				XValues: x,
				YValues: volume,
				YAxis:   chart.YAxisSecondary,
			},
		},
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

