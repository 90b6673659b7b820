package services

import (
	"slices"
	"strings"

	"github.com/tadeyemo32/lead-scraper/models"
)

// SearchRun is the running state of one search. It is owned by a single
// request and never shared, so it carries no lock.
type SearchRun struct {
	Records            []models.LeadRecord
	TotalProcessed     int
	ItemsWithoutEmails int

	seen map[string]bool
}

func NewSearchRun() *SearchRun {
	return &SearchRun{seen: map[string]bool{}}
}

// Accumulate counts item and adds its lead unless an identical one (same
// URL and same email set) is already present. Leads without emails are
// kept as long as they have a title or URL. It reports whether a record
// was added.
func (r *SearchRun) Accumulate(item models.RawResultItem, ex Extraction) bool {
	if r.seen == nil {
		r.seen = map[string]bool{}
	}

	r.TotalProcessed++
	if len(ex.Emails) == 0 {
		r.ItemsWithoutEmails++
	}

	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" && link == "" {
		return false
	}

	key := leadKey(link, ex.Emails)
	if r.seen[key] {
		return false
	}
	r.seen[key] = true

	r.Records = append(r.Records, models.LeadRecord{
		Title:     title,
		Source:    classifySource(link, item.DisplayLink),
		URL:       link,
		Emails:    slices.Clone(ex.Emails),
		FirstName: ex.FirstName,
		LastName:  ex.LastName,
	})
	return true
}

// leadKey is the dedup identity: URL plus the sorted, lower-cased emails.
func leadKey(link string, emails []string) string {
	norm := make([]string, len(emails))
	for i, e := range emails {
		norm[i] = strings.ToLower(e)
	}
	slices.Sort(norm)
	return link + "\x00" + strings.Join(norm, ",")
}

// LeadsWithEmails counts records carrying at least one email. This is the
// run's results count; records without emails stay in the table but are
// not counted as results.
func (r *SearchRun) LeadsWithEmails() int {
	n := 0
	for _, rec := range r.Records {
		if len(rec.Emails) > 0 {
			n++
		}
	}
	return n
}
