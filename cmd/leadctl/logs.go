package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tadeyemo32/lead-scraper/logview"
)

var logsCmd = &cobra.Command{
	Use:   "logs [log-file]",
	Short: "Show errors and results without emails from the server log",
	Long: `Logs reads the server's JSON log file (LOG_FILE, default app.log) and
prints error entries and search results that had no matching email,
followed by a summary. Counts always cover the whole file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path = cfg.LogFile
		}

		opts := logview.Default
		errorsOnly, _ := cmd.Flags().GetBool("errors-only")
		noEmailsOnly, _ := cmd.Flags().GetBool("no-emails-only")
		all, _ := cmd.Flags().GetBool("all")
		switch {
		case all:
			opts = logview.Everything
		case errorsOnly:
			opts = logview.ErrorsOnly
		case noEmailsOnly:
			opts = logview.NoEmailsOnly
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("log file %q not found: %w", path, err)
		}
		defer f.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Analyzing log file: %s\n", path)
		_, err = logview.Filter(f, out, opts)
		return err
	},
}

func init() {
	logsCmd.Flags().Bool("errors-only", false, "show only errors")
	logsCmd.Flags().Bool("no-emails-only", false, "show only results without emails")
	logsCmd.Flags().Bool("all", false, "show every log entry")
	logsCmd.MarkFlagsMutuallyExclusive("errors-only", "no-emails-only", "all")

	rootCmd.AddCommand(logsCmd)
}
