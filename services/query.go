package services

import (
	"fmt"
	"strings"

	"github.com/tadeyemo32/lead-scraper/models"
)

// BuildQuery composes the Custom Search query for a set of criteria:
//
//	site:<website> "<city>" "<occupation>" "@<email_domain>"
//
// The email domain term biases results towards pages that print addresses
// at that domain; the extractor still filters on it afterwards.
func BuildQuery(c models.SearchCriteria) string {
	site := strings.TrimSpace(c.Website)
	site = strings.TrimPrefix(site, "https://")
	site = strings.TrimPrefix(site, "http://")
	site = strings.TrimSuffix(site, "/")

	domain := strings.TrimPrefix(strings.TrimSpace(c.EmailDomain), "@")

	return fmt.Sprintf(`site:%s "%s" "%s" "@%s"`,
		site, strings.TrimSpace(c.City), strings.TrimSpace(c.Occupation), domain)
}
