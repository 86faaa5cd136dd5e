package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

var monthlyCmd = &cobra.Command{
	Use:   "monthly <readings.csv>",
	Short: "Show usage and cost per month",
	Long:  `Displays usage for every calendar month in the readings with the total bill including GST.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMonthly,
}

func init() {
	rootCmd.AddCommand(monthlyCmd)
}

func runMonthly(cmd *cobra.Command, args []string) error {
	report, err := analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) for %s, %s intervals\n\n",
		report.Tariff, report.Kind, report.Retailer, humanize.Comma(int64(report.Intervals)))
	printMonthly(cmd.OutOrStdout(), report.Monthly)
	return nil
}

func printMonthly(w io.Writer, months []types.MonthSummary) {
	fmt.Fprintln(w, "------------------------------------------------------------------------------")
	fmt.Fprintf(w, "%-8s  %4s  %10s  %10s  %10s  %10s  %8s  %12s\n", "Month", "Days", "Peak", "Shoulder", "Off-Peak", "Total", "Demand", "Cost")
	fmt.Fprintln(w, "------------------------------------------------------------------------------")

	for _, m := range months {
		u := m.Usage
		fmt.Fprintf(w, "%-8s  %4d  %10.2f  %10.2f  %10.2f  %10.2f  %8.2f  %12s\n",
			m.Month, u.Days, u.Peak, u.Shoulder, u.OffPeak, u.Total, u.Demand, billTotal(m.Bill))
	}
}

// billTotal formats the GST inclusive total of b in dollars.
func billTotal(b *types.Bill) string {
	if b == nil {
		return "-"
	}
	return dollars(b.Total)
}

// dollars formats the GST inclusive cost of c, which is in cents.
func dollars(c types.Charge) string {
	v, _ := c.CostInclGST.Shift(-2).Round(2).Float64()
	return "$" + humanize.FormatFloat("#,###.##", v)
}
