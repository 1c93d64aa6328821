package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/appsearch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of appsearch",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
