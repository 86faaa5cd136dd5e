package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/qldtariffs/qldtariffs/pkg/billing"
	"github.com/qldtariffs/qldtariffs/pkg/meter"
	"github.com/qldtariffs/qldtariffs/pkg/tariff"
)

var (
	ratesFile     string
	tariffName    string
	retailer      string
	financialYear string
	timezone      string
)

var rootCmd = &cobra.Command{
	Use:   "tariffcalc",
	Short: "Break meter readings down by Queensland tariff",
	Long: `tariffcalc reads interval meter readings from a CSV file, splits them into
peak, shoulder and off-peak usage for a Queensland tariff and prices every
month against the retailer's published rates.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ratesFile, "rates", "", "rate table YAML file (default is the built in table)")
	rootCmd.PersistentFlags().StringVar(&tariffName, "tariff", "T11", "tariff to apply (T11, T12 or T14)")
	rootCmd.PersistentFlags().StringVar(&retailer, "retailer", "Ergon", "retailer whose rates to apply")
	rootCmd.PersistentFlags().StringVar(&financialYear, "fy", "", "financial year of rates to use (default is the year of each month)")
	rootCmd.PersistentFlags().StringVar(&timezone, "tz", "Australia/Brisbane", "time zone of timestamps in the CSV")
}

// loadRates returns the rate table from --rates or the built in one.
func loadRates() (*tariff.Table, error) {
	if ratesFile != "" {
		return tariff.LoadFile(ratesFile)
	}
	return tariff.Default()
}

// readReadings parses the readings CSV at path, or stdin for "-".
func readReadings(path string) (*billing.Request, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone: %w", err)
	}

	f := os.Stdin
	if path != "-" {
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening readings: %w", err)
		}
		defer f.Close()
	}

	readings, err := meter.ReadCSV(f, loc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &billing.Request{
		Tariff:        tariffName,
		Retailer:      retailer,
		FinancialYear: financialYear,
		Readings:      readings,
	}, nil
}

// analyze runs the readings at path through the calculator.
func analyze(ctx context.Context, path string) (billing.Report, error) {
	rates, err := loadRates()
	if err != nil {
		return billing.Report{}, fmt.Errorf("loading rates: %w", err)
	}
	req, err := readReadings(path)
	if err != nil {
		return billing.Report{}, err
	}
	report, err := billing.NewCalculator(rates).Analyze(ctx, *req)
	if err != nil {
		return billing.Report{}, fmt.Errorf("analyzing readings: %w", err)
	}
	return report, nil
}
