package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tadeyemo32/lead-scraper/models"
)

func sampleRun() *SearchRun {
	run := NewSearchRun()
	run.Accumulate(
		models.RawResultItem{Title: `Jane "JD" Doe, Realtor`, Link: "https://www.linkedin.com/in/jane"},
		Extraction{Emails: []string{"jane@gmail.com", "jd@gmail.com"}, FirstName: "Jane", LastName: "Doe"},
	)
	run.Accumulate(
		models.RawResultItem{Title: "Compass - Contact", Link: "https://www.compass.com/contact", DisplayLink: "www.compass.com"},
		Extraction{},
	)
	return run
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(sampleRun())

	assert.Equal(t, []string{"Title", "Source", "URL", "Emails", "First Name", "Last Name"}, report.Header)
	assert.Equal(t, 1, report.ResultsCount)
	assert.Equal(t, "Found 1 results (1 more without emails)", report.Message)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, []string{`Jane "JD" Doe, Realtor`, "linkedin", "https://www.linkedin.com/in/jane", "jane@gmail.com; jd@gmail.com", "Jane", "Doe"}, report.Rows[0])
	assert.Equal(t, []string{"Compass - Contact", "compass.com", "https://www.compass.com/contact", "", "", ""}, report.Rows[1])
}

func TestReportCSVHeader(t *testing.T) {
	out, err := BuildReport(NewSearchRun()).CSV()
	require.NoError(t, err)
	assert.Equal(t, "Title,Source,URL,Emails,First Name,Last Name\n", out)
}

func TestReportCSVRoundTrip(t *testing.T) {
	run := sampleRun()
	out, err := BuildReport(run).CSV()
	require.NoError(t, err)

	records, err := ParseCSV(strings.NewReader(out))
	require.NoError(t, err)

	require.Len(t, records, len(run.Records))
	for i, rec := range records {
		want := run.Records[i]
		assert.Equal(t, want.URL, rec.URL)
		assert.Equal(t, want.FirstName, rec.FirstName)
		assert.Equal(t, want.LastName, rec.LastName)
		if len(want.Emails) == 0 {
			assert.Empty(t, rec.Emails)
		} else {
			assert.Equal(t, want.Emails, rec.Emails)
		}
	}
}

func TestParseCSVRejectsWrongHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("URL,Title,Source,Emails,First Name,Last Name\n"))
	assert.Error(t, err)
}
