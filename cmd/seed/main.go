package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/qldtariffs/qldtariffs/pkg/billing"
	"github.com/qldtariffs/qldtariffs/pkg/log"
	"github.com/qldtariffs/qldtariffs/pkg/storage"
	"github.com/qldtariffs/qldtariffs/pkg/tariff"
	"github.com/qldtariffs/qldtariffs/pkg/types"
)

func main() {
	rates := tariff.Configured()
	s := storage.Configured()
	siteID := lflag.String("seed-site", "demo", "site to seed usage for")
	tariffName := lflag.String("seed-tariff", "T12", "tariff to bill the seeded usage against")
	retailer := lflag.String("seed-retailer", "AGL", "retailer to bill the seeded usage against")
	days := lflag.Int("seed-days", 90, "number of days of readings to generate")
	lflag.Configure()

	ctx := log.WithAttrs(context.Background(), slog.String("siteID", *siteID))
	defer s.Close()

	log.Ctx(ctx).InfoContext(ctx, "seeding mock usage")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// whole days ending at today's midnight
	now := time.Now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	start := end.AddDate(0, 0, -*days)

	const (
		BaseKW      = 0.4
		SolarPeakKW = 5.0
		EveningKW   = 2.5
	)

	var readings []types.Reading
	for t := start; t.Before(end); t = t.Add(types.BillingIntervalLength) {
		hour := float64(t.Hour()) + float64(t.Minute())/60

		kw := BaseKW + rng.Float64()*0.3
		if hour >= 6.5 && hour < 8.5 {
			// breakfast
			kw += 1.5
		} else if hour >= 16 && hour < 21 {
			kw += EveningKW
		}
		// solar offsets daytime usage down to zero
		if hour > 6 && hour < 18 {
			dist := math.Abs(hour - 12)
			kw -= SolarPeakKW * math.Exp(-(dist*dist)/8)
		}
		kw = math.Max(0, kw)

		readings = append(readings, types.Reading{
			Start: t,
			End:   t.Add(types.BillingIntervalLength),
			Usage: kw * types.BillingIntervalLength.Hours(),
		})
	}

	report, err := billing.NewCalculator(rates).Analyze(ctx, billing.Request{
		Tariff:   *tariffName,
		Retailer: *retailer,
		Readings: readings,
	})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to analyze seeded readings", slog.Any("error", err))
		os.Exit(1)
	}

	if err := s.UpsertDailyUsage(ctx, *siteID, report.Daily); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to seed daily usage", slog.Any("error", err))
		os.Exit(1)
	}
	if err := s.UpsertMonthSummaries(ctx, *siteID, report.Monthly); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to seed month summaries", slog.Any("error", err))
		os.Exit(1)
	}

	for _, month := range report.Monthly {
		total := "n/a"
		if month.Bill != nil {
			total = "$" + month.Bill.Total.CostInclGST.Shift(-2).StringFixed(2)
		}
		fmt.Printf("Seeded %s: %.1f kWh (peak %.1f, shoulder %.1f, off-peak %.1f) %s\n",
			month.Month, month.Usage.Total, month.Usage.Peak, month.Usage.Shoulder, month.Usage.OffPeak, total)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeded mock usage successfully", slog.Int("intervals", report.Intervals))
}
