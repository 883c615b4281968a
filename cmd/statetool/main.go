package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "statetool",
	Short: "Operator CLI for the commerce core",
	Long: `statetool is a companion CLI to cmd/api: it runs the same HTTP facade
in the foreground (serve) and reports schema migration status
(migrate-status) without requiring a separate migration tool on the
operator's PATH.`,
	Version: "1.0.0",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateStatusCmd)
}
