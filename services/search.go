package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tadeyemo32/lead-scraper/models"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// customSearchBase is the Google Custom Search JSON endpoint. Declared as
// a var so tests can point it at an httptest server.
var customSearchBase = "https://www.googleapis.com/customsearch/v1"

const (
	// PageSize is the most items Custom Search returns per call.
	PageSize         = 10
	DefaultResultCap = 1000

	// maxStartIndex is the last result position Custom Search serves;
	// requests with start+num-1 beyond it are rejected with a 400.
	maxStartIndex = 100

	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = 500 * time.Millisecond
	maxResponseBytes  = 4 << 20
)

// Provider error reasons that mean quota, not credentials.
var quotaReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
	"quotaExceeded":         true,
	"RESOURCE_EXHAUSTED":    true,
	"RATE_LIMIT_EXCEEDED":   true,
}

var authReasons = map[string]bool{
	"keyInvalid":          true,
	"keyExpired":          true,
	"API_KEY_INVALID":     true,
	"API_KEY_EXPIRED":     true,
	"accessNotConfigured": true,
	"forbidden":           true,
	"PERMISSION_DENIED":   true,
	"UNAUTHENTICATED":     true,
}

// SearchClient pages through Google Custom Search results.
type SearchClient struct {
	HTTP     *http.Client
	APIKey   string
	EngineID string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// MaxRetries applies to transient failures only (network errors, 5xx).
	MaxRetries     int
	RetryBaseDelay time.Duration

	Logger *zap.Logger
}

// NewSearchClient returns a client with the default timeout and retry policy.
func NewSearchClient(apiKey, engineID string, logger *zap.Logger) *SearchClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchClient{
		HTTP:           &http.Client{},
		APIKey:         apiKey,
		EngineID:       engineID,
		Timeout:        defaultTimeout,
		MaxRetries:     defaultRetries,
		RetryBaseDelay: defaultRetryDelay,
		Logger:         logger,
	}
}

// Search returns a lazy sequence of result items for query. Pages are only
// fetched as the caller ranges; breaking out of the loop stops pagination.
// The sequence ends after resultCap items, when the provider reports no
// further page, or after yielding a single non-nil error.
func (c *SearchClient) Search(ctx context.Context, query string, resultCap int) iter.Seq2[models.RawResultItem, error] {
	if resultCap <= 0 {
		resultCap = DefaultResultCap
	}

	return func(yield func(models.RawResultItem, error) bool) {
		if c.APIKey == "" || c.EngineID == "" {
			c.Logger.Error("[Search] missing API key or search engine id in configuration")
			yield(models.RawResultItem{}, fmt.Errorf("%w: client is not configured", ErrUpstreamAuth))
			return
		}

		start := 1
		yielded := 0
		for page := 1; yielded < resultCap; page++ {
			num := min(PageSize, resultCap-yielded, maxStartIndex-start+1)
			if num <= 0 {
				c.Logger.Info("[Search] provider result ceiling reached",
					zap.String("query", query), zap.Int("start", start), zap.Int("yielded", yielded))
				return
			}

			res, err := c.fetchPage(ctx, query, start, num)
			if err != nil {
				c.Logger.Error("[Search] page request failed",
					zap.String("query", query), zap.Int("page", page), zap.Int("start", start), zap.Error(err))
				yield(models.RawResultItem{}, err)
				return
			}

			c.Logger.Info("[Search] page fetched",
				zap.String("query", query), zap.Int("page", page), zap.Int("start", start), zap.Int("items", len(res.Items)))

			for _, it := range res.Items {
				if !yield(it.raw(), nil) {
					return
				}
				yielded++
				if yielded >= resultCap {
					return
				}
			}

			next := res.nextStart()
			if len(res.Items) == 0 || next <= start {
				return
			}
			start = next
		}
	}
}

// fetchPage performs one page request, retrying transient failures with
// exponential backoff.
func (c *SearchClient) fetchPage(ctx context.Context, query string, start, num int) (*cseResponse, error) {
	var out *cseResponse
	op := func() error {
		res, err := c.doRequest(ctx, query, start, num)
		if err != nil {
			return err
		}
		out = res
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.RetryBaseDelay
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(c.MaxRetries, 0))), ctx)

	notify := func(err error, wait time.Duration) {
		c.Logger.Warn("[Search] transient failure, retrying",
			zap.Int("start", start), zap.Duration("wait", wait), zap.Error(err))
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		var transient *transientError
		if errors.As(err, &transient) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return nil, err
	}
	return out, nil
}

func (c *SearchClient) doRequest(ctx context.Context, query string, start, num int) (*cseResponse, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	params := url.Values{
		"key":   {c.APIKey},
		"cx":    {c.EngineID},
		"q":     {query},
		"start": {strconv.Itoa(start)},
		"num":   {strconv.Itoa(num)},
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, customSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", redactURL(err)))
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &transientError{err: redactURL(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var data cseResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: decoding response: %v", ErrUpstreamUnavailable, err))
	}
	return &data, nil
}

// classifyStatus maps a non-200 Custom Search response onto the engine's
// upstream errors. Only 5xx is retryable.
func classifyStatus(status int, body []byte) error {
	reasons := errorReasons(body)
	msg := gjson.GetBytes(body, "error.message").String()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	detail := fmt.Sprintf("HTTP %d", status)
	if msg != "" {
		detail += ": " + msg
	}

	hasAny := func(set map[string]bool) bool {
		for _, r := range reasons {
			if set[r] {
				return true
			}
		}
		return false
	}

	switch {
	case status == http.StatusTooManyRequests || hasAny(quotaReasons):
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrUpstreamRateLimit, detail))
	case status == http.StatusUnauthorized || status == http.StatusForbidden || hasAny(authReasons):
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrUpstreamAuth, detail))
	case status >= 500:
		return &transientError{err: errors.New(detail)}
	case status == http.StatusBadRequest:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrUpstreamQuery, detail))
	default:
		return backoff.Permanent(fmt.Errorf("%w: %s", ErrUpstreamUnavailable, detail))
	}
}

// errorReasons collects every reason string Google puts in an error body:
// error.status, error.errors[].reason and error.details[].reason.
func errorReasons(body []byte) []string {
	var out []string
	if s := gjson.GetBytes(body, "error.status").String(); s != "" {
		out = append(out, s)
	}
	for _, path := range []string{"error.errors.#.reason", "error.details.#.reason"} {
		for _, r := range gjson.GetBytes(body, path).Array() {
			if s := r.String(); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// redactURL drops the request URL from *url.Error since it carries the
// provider key in its query string.
func redactURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request: %w", strings.ToLower(uerr.Op), uerr.Err)
	}
	return err
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Custom Search JSON structures.
type cseResponse struct {
	Items   []cseItem `json:"items"`
	Queries struct {
		NextPage []struct {
			StartIndex int `json:"startIndex"`
		} `json:"nextPage"`
	} `json:"queries"`
}

type cseItem struct {
	Title       string `json:"title"`
	HTMLTitle   string `json:"htmlTitle"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
	Snippet     string `json:"snippet"`
	HTMLSnippet string `json:"htmlSnippet"`
	Pagemap     struct {
		Metatags []map[string]any `json:"metatags"`
	} `json:"pagemap"`
}

// nextStart returns the provider's next start index, or 0 when there is
// no further page.
func (r *cseResponse) nextStart() int {
	if len(r.Queries.NextPage) == 0 {
		return 0
	}
	return r.Queries.NextPage[0].StartIndex
}

func (it cseItem) raw() models.RawResultItem {
	var meta map[string]string
	for _, tags := range it.Pagemap.Metatags {
		for k, v := range tags {
			s, ok := v.(string)
			if !ok || s == "" {
				continue
			}
			if meta == nil {
				meta = make(map[string]string)
			}
			meta[k] = s
		}
	}
	return models.RawResultItem{
		Title:       it.Title,
		Snippet:     it.Snippet,
		Link:        it.Link,
		DisplayLink: it.DisplayLink,
		HTMLTitle:   it.HTMLTitle,
		HTMLSnippet: it.HTMLSnippet,
		Metatags:    meta,
	}
}
