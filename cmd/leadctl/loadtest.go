package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/tadeyemo32/lead-scraper/models"
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Fire concurrent searches at a running server",
	Long: `Loadtest sends the same search from many goroutines at once and tallies
the status codes. With default limits most requests should come back 429,
which checks that concurrent callers cannot overrun the rate limiter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		url, _ := cmd.Flags().GetString("url")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if url == "" {
			url = "http://localhost:" + cfg.Port + "/api/search"
		}

		payload, err := json.Marshal(models.SearchRequest{
			Website:     "linkedin.com",
			City:        "New York",
			Occupation:  "Realtor",
			EmailDomain: "gmail.com",
			APIKey:      cfg.ClientKey,
		})
		if err != nil {
			return err
		}

		var (
			mu     sync.Mutex
			counts = map[string]int{}
			wg     sync.WaitGroup
		)
		client := &http.Client{Timeout: cfg.UpstreamTimeout * 2}
		start := time.Now()

		for i := 0; i < concurrency; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				outcome := "error"
				resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
				if err == nil {
					outcome = fmt.Sprintf("%d", resp.StatusCode)
					resp.Body.Close()
				}
				mu.Lock()
				counts[outcome]++
				mu.Unlock()
			}()
		}
		wg.Wait()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Completed %d requests in %v\n", concurrency, time.Since(start).Round(time.Millisecond))
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %d\n", k, counts[k])
		}
		return nil
	},
}

func init() {
	loadtestCmd.Flags().String("url", "", "search endpoint (default: http://localhost:$PORT/api/search)")
	loadtestCmd.Flags().Int("concurrency", 50, "number of simultaneous requests")

	rootCmd.AddCommand(loadtestCmd)
}
