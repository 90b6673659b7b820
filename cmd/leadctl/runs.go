package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tadeyemo32/lead-scraper/db"
	"github.com/tadeyemo32/lead-scraper/services"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent search runs",
	Long: `Runs lists the most recent searches recorded in the run history database
(DATABASE_PATH), newest first, with their status and counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		out := cmd.OutOrStdout()
		conn, err := db.OpenReadOnly(cfg.DatabasePath)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		if err != nil {
			return err
		}
		defer conn.Close()

		runs, err := services.NewRunStore(conn).Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 && !asJSON {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STARTED\tSTATUS\tRESULTS\tPROCESSED\tNO EMAIL\tDURATION\tQUERY")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				r.StartedAt.Local().Format(time.DateTime), r.Status, r.ResultsCount,
				r.TotalProcessed, r.ItemsWithoutEmails, r.Duration.Round(time.Millisecond), r.Query)
		}
		return tw.Flush()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to show")
	runsCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(runsCmd)
}
