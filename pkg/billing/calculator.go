package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"

	"github.com/qldtariffs/qldtariffs/pkg/analysis"
	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/tariff"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

// ErrNoReadings is returned when there is nothing to analyze.
var ErrNoReadings = errors.New("no readings")

// Rates resolves tariffs. *tariff.Table implements it.
type Rates interface {
	Lookup(tariff, retailer, fy string) (types.Tariff, error)
	Latest(tariff, retailer string) (types.Tariff, error)
}

// Request is a set of readings to analyze against a tariff. When
// FinancialYear is empty each month uses the rates of the financial year it
// falls in.
type Request struct {
	Tariff        string          `json:"tariff"`
	Retailer      string          `json:"retailer"`
	FinancialYear string          `json:"fy,omitempty"`
	Readings      []types.Reading `json:"readings"`
}

// Report is the daily and monthly usage for a Request, with a bill for every
// month. Both lists are in ascending order.
type Report struct {
	Tariff    string               `json:"tariff"`
	Retailer  string               `json:"retailer"`
	Kind      types.TariffKind     `json:"kind"`
	Intervals int                  `json:"intervals"`
	Daily     []types.DailyUsage   `json:"daily"`
	Monthly   []types.MonthSummary `json:"monthly"`
}

// Calculator runs readings through the analysis and prices the result.
type Calculator struct {
	rates Rates
}

// NewCalculator returns a Calculator that looks tariffs up in rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Analyze normalizes and classifies the readings and bills every month they
// cover. Classification uses the periods of the tariff for the first month.
func (c *Calculator) Analyze(ctx context.Context, req Request) (Report, error) {
	if len(req.Readings) == 0 {
		return Report{}, ErrNoReadings
	}
	ctx = log.WithAttrs(ctx, slog.String("tariff", req.Tariff), slog.String("retailer", req.Retailer))

	intervals, err := analysis.Normalize(req.Readings)
	if err != nil {
		return Report{}, err
	}

	firstMonth := types.MonthOf(civil.DateOf(intervals[0].Start()))
	rates, err := c.TariffFor(ctx, req.Tariff, req.Retailer, req.FinancialYear, firstMonth)
	if err != nil {
		return Report{}, err
	}
	classifier, err := analysis.NewClassifier(rates.Rules)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Tariff:    rates.Name,
		Retailer:  rates.Retailer,
		Kind:      rates.Kind,
		Intervals: len(intervals),
		Daily:     analysis.SortedDays(analysis.AggregateDaily(intervals, classifier, rates.Kind == types.TariffKindDemand)),
		Monthly:   analysis.SortedMonths(analysis.AggregateMonthly(intervals, classifier)),
	}

	for i, summary := range report.Monthly {
		monthRates := rates
		if summary.Month != firstMonth {
			monthRates, err = c.TariffFor(ctx, req.Tariff, req.Retailer, req.FinancialYear, summary.Month)
			if err != nil {
				return Report{}, err
			}
		}
		bill, err := MonthlyBill(monthRates, summary.Month, summary.Usage)
		if err != nil {
			return Report{}, err
		}
		report.Monthly[i].Bill = bill
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"analyzed readings",
		slog.Int("readings", len(req.Readings)),
		slog.Int("intervals", len(intervals)),
		slog.Int("days", len(report.Daily)),
		slog.Int("months", len(report.Monthly)),
	)
	return report, nil
}

// TariffFor resolves the rates that apply to month. An explicit fy is used
// as is. Otherwise the month's financial year is used, falling back to the
// most recent rates when the table has none for that year.
func (c *Calculator) TariffFor(ctx context.Context, name, retailer, fy string, month types.MonthKey) (types.Tariff, error) {
	if fy != "" {
		return c.rates.Lookup(name, retailer, fy)
	}

	monthFY := tariff.FinancialYear(time.Date(month.Year, month.Month, 1, 0, 0, 0, 0, time.UTC))
	rates, err := c.rates.Lookup(name, retailer, monthFY)
	if err == nil {
		return rates, nil
	}
	if !errors.Is(err, tariff.ErrUnknownTariff) {
		return types.Tariff{}, err
	}

	rates, latestErr := c.rates.Latest(name, retailer)
	if latestErr != nil {
		return types.Tariff{}, latestErr
	}
	log.Ctx(ctx).WarnContext(
		ctx,
		"no rates for financial year, using latest",
		slog.String("month", month.String()),
		slog.String("fy", monthFY),
		slog.String("latestFY", rates.FinancialYear),
	)
	return rates, nil
}
