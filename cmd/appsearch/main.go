// Package main is the entry point for the appsearch service and its
// maintenance commands.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/appsearch/internal/config"
)

// rootCmd is the base command of the appsearch CLI.
var rootCmd = &cobra.Command{
	Use:   "appsearch",
	Short: "Marketplace search service",
	Long: `appsearch serves the marketplace listings (add-ons, personas, collections)
from the search engine and keeps the search indexes in sync with the system
of record.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env", config.GetEnv(), "environment whose config/<env>.yaml is loaded")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
