package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

var dailyCmd = &cobra.Command{
	Use:   "daily <readings.csv>",
	Short: "Show usage per day",
	Long:  `Displays peak, shoulder and off-peak usage for every day in the readings.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	report, err := analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printDaily(cmd.OutOrStdout(), report.Kind, report.Daily)
	return nil
}

func printDaily(w io.Writer, kind types.TariffKind, days []types.DailyUsage) {
	fmt.Fprintln(w, "----------------------------------------------------------------")
	fmt.Fprintf(w, "%-12s  %10s  %10s  %10s  %10s", "Date", "Peak", "Shoulder", "Off-Peak", "Total")
	if kind == types.TariffKindDemand {
		fmt.Fprintf(w, "  %10s", "Demand")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "----------------------------------------------------------------")

	var total types.Usage
	for _, day := range days {
		u := day.Usage
		fmt.Fprintf(w, "%-12s  %10.2f  %10.2f  %10.2f  %10.2f", day.Date, u.Peak, u.Shoulder, u.OffPeak, u.Total)
		if kind == types.TariffKindDemand {
			fmt.Fprintf(w, "  %10.2f", u.Demand)
		}
		fmt.Fprintln(w)
		total.Peak += u.Peak
		total.Shoulder += u.Shoulder
		total.OffPeak += u.OffPeak
		total.Total += u.Total
	}

	fmt.Fprintln(w, "----------------------------------------------------------------")
	fmt.Fprintf(w, "%-12s  %10.2f  %10.2f  %10.2f  %10.2f\n", "Total", total.Peak, total.Shoulder, total.OffPeak, total.Total)
	fmt.Fprintf(w, "%d days\n", len(days))
}
