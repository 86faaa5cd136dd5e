package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

var billMonth string

var billCmd = &cobra.Command{
	Use:   "bill <readings.csv>",
	Short: "Show the itemized bill for each month",
	Long:  `Displays every line item of the bill for each month in the readings, or only the month given by --month.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runBill,
}

func init() {
	billCmd.Flags().StringVar(&billMonth, "month", "", "only show this month (YYYY-MM)")
	rootCmd.AddCommand(billCmd)
}

func runBill(cmd *cobra.Command, args []string) error {
	var only *types.MonthKey
	if billMonth != "" {
		m, err := types.ParseMonthKey(billMonth)
		if err != nil {
			return fmt.Errorf("parsing --month: %w", err)
		}
		only = &m
	}

	report, err := analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	found := false
	for _, m := range report.Monthly {
		if only != nil && m.Month != *only {
			continue
		}
		found = true
		printBill(cmd.OutOrStdout(), m)
	}
	if !found {
		return fmt.Errorf("no readings for %s", billMonth)
	}
	return nil
}

func printBill(w io.Writer, m types.MonthSummary) {
	b := m.Bill
	if b == nil {
		return
	}
	fmt.Fprintf(w, "\n%s: %s %s rates for FY%s (%s)\n", m.Month, b.Retailer, b.Tariff, b.FinancialYear, b.Kind)
	fmt.Fprintln(w, "------------------------------------------------------------")
	fmt.Fprintf(w, "%-10s  %10s  %10s  %12s\n", "Charge", "Units", "Rate (c)", "Cost")
	fmt.Fprintln(w, "------------------------------------------------------------")

	printCharge(w, "Supply", &b.Supply)
	printCharge(w, "Usage", b.All)
	printCharge(w, "Peak", b.Peak)
	printCharge(w, "Shoulder", b.Shoulder)
	printCharge(w, "Off-Peak", b.OffPeak)
	printCharge(w, "Demand", b.Demand)

	fmt.Fprintln(w, "------------------------------------------------------------")
	fmt.Fprintf(w, "%-10s  %36s\n", "GST", dollars(types.Charge{CostInclGST: b.Total.GST}))
	fmt.Fprintf(w, "%-10s  %36s\n", "Total", dollars(b.Total))
}

func printCharge(w io.Writer, name string, c *types.Charge) {
	if c == nil {
		return
	}
	fmt.Fprintf(w, "%-10s  %10.2f  %10.3f  %12s\n", name, c.Units, c.UnitRate, dollars(*c))
}
