package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// resultItem builds one Custom Search item as the API would return it.
func resultItem(title, link, snippet string) map[string]any {
	return map[string]any{
		"title":       title,
		"htmlTitle":   title,
		"link":        link,
		"displayLink": hostOf(link),
		"snippet":     snippet,
		"htmlSnippet": snippet,
	}
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}

// fakeCSE serves pages in order, keyed by the start index each page
// begins at, and advertises nextPage while more pages remain.
type fakeCSE struct {
	pages [][]map[string]any
	calls atomic.Int32
}

func (f *fakeCSE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	start, _ := strconv.Atoi(r.URL.Query().Get("start"))

	resp := map[string]any{}
	offset := 1
	for i, page := range f.pages {
		if offset == start {
			resp["items"] = page
			if i+1 < len(f.pages) {
				resp["queries"] = map[string]any{
					"nextPage": []map[string]any{{"startIndex": start + len(page)}},
				}
			}
			break
		}
		offset += len(page)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// serveCSE points the client package at handler for the duration of t.
func serveCSE(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := customSearchBase
	customSearchBase = ts.URL
	t.Cleanup(func() { customSearchBase = old })
	return ts
}

func testClient(ts *httptest.Server) *SearchClient {
	c := NewSearchClient("test-provider-key", "test-cx", zap.NewNop())
	c.HTTP = ts.Client()
	c.RetryBaseDelay = time.Millisecond
	return c
}

// pageOf returns n items; the first withEmail carry a gmail address.
func pageOf(pageNo, n, withEmail int) []map[string]any {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		link := "https://www.linkedin.com/in/agent-" + strconv.Itoa(pageNo) + "-" + strconv.Itoa(i)
		snippet := "Licensed realtor serving New York."
		if i < withEmail {
			snippet = "Reach me at agent" + strconv.Itoa(pageNo) + "x" + strconv.Itoa(i) + "@gmail.com for listings."
		}
		items = append(items, resultItem("Jane Doe - Realtor - Compass | LinkedIn", link, snippet))
	}
	return items
}
