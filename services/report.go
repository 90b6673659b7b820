package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/tadeyemo32/lead-scraper/models"
)

// EmailSeparator joins multiple emails inside one CSV cell.
const EmailSeparator = "; "

// ReportHeader is the fixed CSV column order. Downstream consumers depend
// on it; do not reorder.
var ReportHeader = []string{"Title", "Source", "URL", "Emails", "First Name", "Last Name"}

// Report is a finished run rendered as rows under ReportHeader.
type Report struct {
	Header []string
	Rows   [][]string
	// ResultsCount is the number of rows with at least one email.
	ResultsCount int
	Message      string
}

// BuildReport turns a finished run into table rows and a summary line.
func BuildReport(run *SearchRun) Report {
	rows := make([][]string, 0, len(run.Records))
	for _, rec := range run.Records {
		rows = append(rows, []string{
			rec.Title,
			rec.Source,
			rec.URL,
			strings.Join(rec.Emails, EmailSeparator),
			rec.FirstName,
			rec.LastName,
		})
	}
	count := run.LeadsWithEmails()
	msg := fmt.Sprintf("Found %d results", count)
	if without := len(rows) - count; without > 0 {
		msg += fmt.Sprintf(" (%d more without emails)", without)
	}
	return Report{
		Header:       ReportHeader,
		Rows:         rows,
		ResultsCount: count,
		Message:      msg,
	}
}

// CSV renders the header and rows.
func (r Report) CSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(r.Header); err != nil {
		return "", err
	}
	if err := w.WriteAll(r.Rows); err != nil {
		return "", fmt.Errorf("writing csv: %w", err)
	}
	return buf.String(), nil
}

// ParseCSV reads a report back into lead records. The header must match
// ReportHeader exactly.
func ParseCSV(r io.Reader) ([]models.LeadRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(ReportHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	for i, col := range ReportHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected csv column %d: got %q, want %q", i, header[i], col)
		}
	}

	var out []models.LeadRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row: %w", err)
		}
		var emails []string
		if row[3] != "" {
			emails = strings.Split(row[3], EmailSeparator)
		}
		out = append(out, models.LeadRecord{
			Title:     row[0],
			Source:    row[1],
			URL:       row[2],
			Emails:    emails,
			FirstName: row[4],
			LastName:  row[5],
		})
	}
	return out, nil
}
