package api

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tadeyemo32/lead-scraper/db"
	"github.com/tadeyemo32/lead-scraper/models"
	"github.com/tadeyemo32/lead-scraper/services"
	"go.uber.org/zap"
)

const testClientKey = "valid-client-key"

// stubSearcher yields a fixed set of items, then err if set.
type stubSearcher struct {
	items []models.RawResultItem
	err   error
	calls int
}

func (s *stubSearcher) Search(ctx context.Context, query string, resultCap int) iter.Seq2[models.RawResultItem, error] {
	s.calls++
	return func(yield func(models.RawResultItem, error) bool) {
		for _, it := range s.items {
			if !yield(it, nil) {
				return
			}
		}
		if s.err != nil {
			yield(models.RawResultItem{}, s.err)
		}
	}
}

func newTestRouter(t *testing.T, searcher services.Searcher, limits services.RateLimits) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	h := &Handler{
		Engine: &services.Engine{
			Policy:   services.NewAccessPolicy(testClientKey, services.NewRateLimiter(limits)),
			Searcher: searcher,
			Runs:     services.NewRunStore(conn),
			Logger:   zap.NewNop(),
		},
		Downloads: services.NewRateLimiter(limits),
		Logger:    zap.NewNop(),
	}

	r := gin.New()
	r.Use(Recovery(zap.NewNop()), CORS())
	SetupRoutes(r, h)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func searchBody(key string) map[string]string {
	return map[string]string{
		"website":      "linkedin.com",
		"city":         "New York",
		"occupation":   "Realtor",
		"email_domain": "gmail.com",
		"key":          key,
	}
}

func leadItems() []models.RawResultItem {
	return []models.RawResultItem{
		{Title: "Jane Doe - Realtor | LinkedIn", Snippet: "Reach me at jane.doe@gmail.com", Link: "https://www.linkedin.com/in/janedoe", DisplayLink: "www.linkedin.com"},
		{Title: "John Roe - Broker | LinkedIn", Snippet: "No contact listed", Link: "https://www.linkedin.com/in/johnroe", DisplayLink: "www.linkedin.com"},
	}
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{}, services.DefaultRateLimits)
	w := doJSON(r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSearchSuccess(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{items: leadItems()}, services.DefaultRateLimits)

	w := doJSON(r, http.MethodPost, "/api/search", searchBody(testClientKey))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.ResultsCount)
	assert.Equal(t, 2, resp.TotalProcessed)
	assert.Equal(t, 1, resp.ItemsWithoutEmails)
	assert.Contains(t, resp.CSVData, "jane.doe@gmail.com")
}

func TestSearchInvalidKey(t *testing.T) {
	searcher := &stubSearcher{items: leadItems()}
	r := newTestRouter(t, searcher, services.DefaultRateLimits)

	w := doJSON(r, http.MethodPost, "/api/search", searchBody("wrong"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API key", errorOf(t, w))
	assert.Zero(t, searcher.calls)
}

func TestSearchMissingFields(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{}, services.DefaultRateLimits)

	body := searchBody(testClientKey)
	delete(body, "city")
	delete(body, "email_domain")
	w := doJSON(r, http.MethodPost, "/api/search", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required field: city, email_domain", errorOf(t, w))
}

func TestSearchMalformedBody(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{}, services.DefaultRateLimits)

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchRateLimited(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{items: leadItems()}, services.RateLimits{PerMinute: 1, PerDay: 10})

	w := doJSON(r, http.MethodPost, "/api/search", searchBody(testClientKey))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/search", searchBody(testClientKey))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Rate limit exceeded", errorOf(t, w))
}

func TestSearchUpstreamErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"quota", services.ErrUpstreamRateLimit, http.StatusTooManyRequests, "Rate limit exceeded"},
		{"auth", services.ErrUpstreamAuth, http.StatusInternalServerError, "An unexpected error occurred"},
		{"unavailable", services.ErrUpstreamUnavailable, http.StatusInternalServerError, "An unexpected error occurred"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &stubSearcher{items: leadItems(), err: tc.err}, services.DefaultRateLimits)
			w := doJSON(r, http.MethodPost, "/api/search", searchBody(testClientKey))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, errorOf(t, w))
			assert.NotContains(t, w.Body.String(), "csv_data")
		})
	}
}

func TestDownloadCSV(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{}, services.DefaultRateLimits)
	csvData := "Title,Source,URL,Emails,First Name,Last Name\nJane,linkedin,https://x,jane@gmail.com,Jane,Doe\n"

	w := doJSON(r, http.MethodPost, "/api/download-csv", map[string]string{"csv_data": csvData})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "search_results.csv")
	assert.Equal(t, csvData, w.Body.String())
}

func TestDownloadCSVEmpty(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{}, services.DefaultRateLimits)

	w := doJSON(r, http.MethodPost, "/api/download-csv", map[string]string{"csv_data": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No CSV data provided", errorOf(t, w))
}

func TestDownloadCSVRateLimited(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{}, services.RateLimits{PerMinute: 1, PerDay: 10})
	body := map[string]string{"csv_data": "Title,Source,URL,Emails,First Name,Last Name\n"}

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/download-csv", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(r, http.MethodPost, "/api/download-csv", body).Code)
}

func TestRunsRequiresClientKey(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{items: leadItems()}, services.DefaultRateLimits)
	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/search", searchBody(testClientKey)).Code)

	w := doJSON(r, http.MethodGet, "/api/runs", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil)
	req.Header.Set("X-Client-Key", testClientKey)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Runs  []models.RunRecord `json:"runs"`
		Total int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "ok", body.Runs[0].Status)
	assert.Equal(t, 1, body.Runs[0].ResultsCount)
}

func TestNoRoute(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{}, services.DefaultRateLimits)
	w := doJSON(r, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, &stubSearcher{}, services.DefaultRateLimits)
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
