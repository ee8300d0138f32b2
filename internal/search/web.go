// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/internal/snapshot"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// webSearchAPIBase is the Custom Search JSON endpoint. Declared as a var so
// tests can substitute an httptest server.
var webSearchAPIBase = "https://www.googleapis.com/customsearch/v1"

// webSearchMaxNum is the largest page size the API accepts.
const webSearchMaxNum = 10

// WebSearchBackend queries a Custom Search style web API (backend A).
type WebSearchBackend struct {
	Client *http.Client
	Config types.WebSearchConfig
	HTTP   types.HTTPConfig
}

// Name returns the backend identifier.
func (b *WebSearchBackend) Name() string { return "web_search" }

// Source returns the record source for this backend.
func (b *WebSearchBackend) Source() types.Source { return types.SourceBackendA }

// Search issues one request and maps the "items" array into records.
// Without credentials it returns no records and makes no request.
func (b *WebSearchBackend) Search(ctx context.Context, query string, count int) ([]types.ResultRecord, error) {
	if !b.Config.HasCredentials() || count <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	endpoint := b.Config.Endpoint
	if endpoint == "" {
		endpoint = webSearchAPIBase
	}
	num := count
	if num > webSearchMaxNum {
		num = webSearchMaxNum
	}

	params := url.Values{
		"key": {b.Config.APIKey},
		"cx":  {b.Config.EngineID},
		"q":   {query},
		"num": {strconv.Itoa(num)},
	}

	header := http.Header{}
	if b.HTTP.UserAgent != "" {
		header.Set("User-Agent", b.HTTP.UserAgent)
	}

	var resp webSearchResponse
	if err := httputil.GetJSON(ctx, b.Client, endpoint+"?"+params.Encode(), header, timeoutOf(b.HTTP), &resp); err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}

	results := make([]types.ResultRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, types.ResultRecord{
			Title:       item.Title,
			URL:         item.Link,
			Snippet:     item.Snippet,
			Source:      types.SourceBackendA,
			PublishedAt: item.publishedAt(),
		})
	}
	return results, nil
}

func timeoutOf(cfg types.HTTPConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return types.DefaultTimeout
}

// Custom Search JSON structures.
type webSearchResponse struct {
	Items []webSearchItem `json:"items"`
}

type webSearchItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Pagemap struct {
		Metatags []map[string]string `json:"metatags"`
	} `json:"pagemap"`
}

// publishedAt reads the Open Graph article time when the page exposes one.
func (i webSearchItem) publishedAt() *time.Time {
	for _, tags := range i.Pagemap.Metatags {
		if t := snapshot.ParseTime(tags["article:published_time"]); t != nil {
			return t
		}
	}
	return nil
}
