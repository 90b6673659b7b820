// Package main is the operator CLI for the lead search backend: log
// inspection, run history and a concurrent smoke test.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tadeyemo32/lead-scraper/config"
)

var rootCmd = &cobra.Command{
	Use:   "leadctl",
	Short: "Operator tools for the lead search backend",
	Long: `leadctl inspects what the lead search server left behind: the JSON log
file, the run history database, and how the server behaves under
concurrent load.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file read before the environment")
}

// loadConfig reads configuration the same way the server does.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	return config.Load(envFile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
