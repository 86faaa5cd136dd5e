package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tariffsCmd = &cobra.Command{
	Use:   "tariffs",
	Short: "List the tariffs in the rate table",
	Args:  cobra.NoArgs,
	RunE:  runTariffs,
}

func init() {
	rootCmd.AddCommand(tariffsCmd)
}

func runTariffs(cmd *cobra.Command, args []string) error {
	rates, err := loadRates()
	if err != nil {
		return fmt.Errorf("loading rates: %w", err)
	}

	w := cmd.OutOrStdout()
	for _, info := range rates.List() {
		fmt.Fprintf(w, "%-5s %-8s retailers: %s\n", info.Name, info.Kind, strings.Join(info.Retailers, ", "))
		fmt.Fprintf(w, "%-14s years: %s\n", "", strings.Join(info.FinancialYears, ", "))
	}
	return nil
}
