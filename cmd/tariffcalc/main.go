package main

import (
	"os"
	_ "time/tzdata"

	"github.com/qldtariffs/qldtariffs/pkg/log"
)

func main() {
	// stdout is for reports
	log.SetDefaultOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
