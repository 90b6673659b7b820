package services

import (
	"errors"
	"strings"

	"github.com/tadeyemo32/lead-scraper/models"
)

var (
	ErrInvalidKey  = errors.New("invalid API key")
	ErrRateLimited = errors.New("rate limit exceeded")

	// Upstream provider failures. Only ErrUpstreamUnavailable is ever the
	// result of exhausted retries; the others are returned on first sight.
	ErrUpstreamAuth        = errors.New("search provider rejected credentials")
	ErrUpstreamRateLimit   = errors.New("search provider quota exceeded")
	ErrUpstreamUnavailable = errors.New("search provider unavailable")
	ErrUpstreamQuery       = errors.New("search provider rejected query")
)

// ValidationError names every required field that was missing or blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Missing required field: " + strings.Join(e.Fields, ", ")
}

// ValidateCriteria reports blank fields in request order.
func ValidateCriteria(c models.SearchCriteria) error {
	fields := []struct {
		name  string
		value string
	}{
		{"website", c.Website},
		{"city", c.City},
		{"occupation", c.Occupation},
		{"email_domain", c.EmailDomain},
		{"key", c.APIKey},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}
