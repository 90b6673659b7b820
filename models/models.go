package models

import (
	"time"
)

// ========================
// ENGINE DATA
// ========================

// SearchCriteria is what a caller submits to start a lead search.
type SearchCriteria struct {
	Website     string `json:"website"`
	City        string `json:"city"`
	Occupation  string `json:"occupation"`
	EmailDomain string `json:"email_domain"`
	APIKey      string `json:"key"`
}

// RawResultItem is one hit returned by the search provider. It only lives
// for the duration of one page.
type RawResultItem struct {
	Title       string
	Snippet     string
	Link        string
	DisplayLink string
	HTMLTitle   string
	HTMLSnippet string
	// Metatags is pagemap.metatags flattened into one map.
	Metatags map[string]string
}

// LeadRecord is one extracted lead. Emails may be empty.
type LeadRecord struct {
	Title     string   `json:"title"`
	Source    string   `json:"source"`
	URL       string   `json:"url"`
	Emails    []string `json:"emails"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
}

// RunRecord is the audit row written after each search. It carries counts
// only: no leads, no keys.
type RunRecord struct {
	ID                 string        `json:"id"`
	Query              string        `json:"query"`
	Caller             string        `json:"caller"`
	Status             string        `json:"status"`
	ResultsCount       int           `json:"results_count"`
	TotalProcessed     int           `json:"total_processed"`
	ItemsWithoutEmails int           `json:"items_without_emails"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
}

// ========================
// API REQUEST PAYLOADS
// ========================

type SearchRequest = SearchCriteria

type SearchResponse struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	CSVData            string `json:"csv_data"`
	ResultsCount       int    `json:"results_count"`
	TotalProcessed     int    `json:"total_processed"`
	ItemsWithoutEmails int    `json:"items_without_emails"`
}

type DownloadCSVRequest struct {
	CSVData string `json:"csv_data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
