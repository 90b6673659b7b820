package services

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tadeyemo32/lead-scraper/models"
)

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)

// Extraction is what the extractor pulls out of one result item.
type Extraction struct {
	Emails    []string
	FirstName string
	LastName  string
}

// Extractor finds email addresses and a best-effort person name in search
// result items. It never fails: no match is an empty Extraction.
type Extractor struct {
	// Domain, when set, keeps only emails at this domain (case-insensitive).
	Domain string
	Names  NameParser
}

// NewExtractor returns an extractor filtering on domain with the default
// title-based name heuristic.
func NewExtractor(domain string) *Extractor {
	return &Extractor{Domain: domain, Names: TitleNameParser{}}
}

// Extract scans the item's title, snippet, HTML variants and metatags for
// emails, in that order, and resolves a name.
func (e *Extractor) Extract(item models.RawResultItem) Extraction {
	texts := []string{item.Title, item.Snippet, htmlText(item.HTMLTitle), htmlText(item.HTMLSnippet)}

	keys := make([]string, 0, len(item.Metatags))
	for k := range item.Metatags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		texts = append(texts, item.Metatags[k])
	}

	var out Extraction
	out.Emails = e.filterDomain(findEmails(texts...))
	out.FirstName, out.LastName = e.name(item)
	return out
}

func (e *Extractor) name(item models.RawResultItem) (string, string) {
	first := strings.TrimSpace(item.Metatags["profile:first_name"])
	last := strings.TrimSpace(item.Metatags["profile:last_name"])
	if first != "" || last != "" {
		return first, last
	}
	if e.Names == nil {
		return "", ""
	}
	return e.Names.ParseName(item.Title)
}

func (e *Extractor) filterDomain(emails []string) []string {
	domain := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e.Domain), "@"))
	if domain == "" {
		return emails
	}
	var kept []string
	for _, addr := range emails {
		at := strings.LastIndex(addr, "@")
		if strings.ToLower(addr[at+1:]) == domain {
			kept = append(kept, addr)
		}
	}
	return kept
}

// findEmails returns distinct addresses across texts in order of first
// appearance. Addresses differing only in case count as one.
func findEmails(texts ...string) []string {
	seen := map[string]bool{}
	var out []string
	for _, text := range texts {
		for _, m := range emailRegex.FindAllString(text, -1) {
			m = trimRunOn(strings.TrimRight(m, ".-"))
			if !strings.Contains(m[strings.LastIndex(m, "@")+1:], ".") {
				continue
			}
			key := strings.ToLower(m)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
	}
	return out
}

// trimRunOn drops domain labels glued on from the next sentence, as in
// "jane@gmail.com.Call me": everything from the first capitalised label
// that follows a lower-case one. At least two labels are always kept.
func trimRunOn(addr string) string {
	at := strings.LastIndex(addr, "@")
	labels := strings.Split(addr[at+1:], ".")
	for i := 2; i < len(labels); i++ {
		if titleCase(labels[i]) && labels[i-1] == strings.ToLower(labels[i-1]) {
			return addr[:at+1] + strings.Join(labels[:i], ".")
		}
	}
	return addr
}

// titleCase reports whether s is an upper-case letter followed only by
// lower-case letters.
func titleCase(s string) bool {
	if len(s) < 2 || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// htmlText strips markup from the provider's htmlTitle/htmlSnippet fields.
// Google wraps matched terms in <b>, which can split an address that the
// plain-text fields carry with "..." elisions instead.
func htmlText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	doc.Find("br").ReplaceWithHtml(" ")
	return doc.Text()
}

// classifySource labels where a lead came from: "linkedin" for LinkedIn
// pages, otherwise the result's host, otherwise "other".
func classifySource(link, displayLink string) string {
	host := strings.TrimSpace(displayLink)
	if u, err := url.Parse(link); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	host = strings.TrimPrefix(strings.ToLower(host), "www.")

	switch {
	case host == "":
		return "other"
	case host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com"):
		return "linkedin"
	default:
		return host
	}
}
