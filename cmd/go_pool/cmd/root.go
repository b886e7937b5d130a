// Package cmd provides the CLI commands for the go_pool application.
package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "go_pool",
	Short: "Object pool engine server and utilities",
	Long:  `A bounded object-pooling engine with a demo workload, a TCP admin surface for stats, resize and bulk despawn, and a live terminal dashboard.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
