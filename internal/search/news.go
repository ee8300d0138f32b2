// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/internal/snapshot"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// newsAPIBase is the NewsAPI "everything" endpoint. Declared as a var so
// tests can substitute an httptest server.
var newsAPIBase = "https://newsapi.org/v2/everything"

const newsMaxPageSize = 100

// NewsBackend queries a NewsAPI style news search API (backend B).
type NewsBackend struct {
	Client *http.Client
	Config types.NewsSearchConfig
	HTTP   types.HTTPConfig
}

// Name returns the backend identifier.
func (b *NewsBackend) Name() string { return "news_search" }

// Source returns the record source for this backend.
func (b *NewsBackend) Source() types.Source { return types.SourceBackendB }

// Search issues one request and maps the "articles" array into records.
// Without an API key it returns no records and makes no request.
func (b *NewsBackend) Search(ctx context.Context, query string, count int) ([]types.ResultRecord, error) {
	if !b.Config.HasCredentials() || count <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	endpoint := b.Config.Endpoint
	if endpoint == "" {
		endpoint = newsAPIBase
	}
	pageSize := count
	if pageSize > newsMaxPageSize {
		pageSize = newsMaxPageSize
	}

	params := url.Values{
		"q":        {query},
		"pageSize": {strconv.Itoa(pageSize)},
		"sortBy":   {"publishedAt"},
	}
	if b.Config.Language != "" {
		params.Set("language", b.Config.Language)
	}

	header := http.Header{}
	header.Set("X-Api-Key", b.Config.APIKey)
	if b.HTTP.UserAgent != "" {
		header.Set("User-Agent", b.HTTP.UserAgent)
	}

	var resp newsResponse
	if err := httputil.GetJSON(ctx, b.Client, endpoint+"?"+params.Encode(), header, timeoutOf(b.HTTP), &resp); err != nil {
		return nil, fmt.Errorf("news search request: %w", err)
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("news search API error %s: %s", resp.Code, resp.Message)
	}

	results := make([]types.ResultRecord, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		snippet := a.Description
		if snippet == "" {
			snippet = a.Content
		}
		results = append(results, types.ResultRecord{
			Title:       a.Title,
			URL:         a.URL,
			Snippet:     snippet,
			Source:      types.SourceBackendB,
			PublishedAt: snapshot.ParseTime(a.PublishedAt),
		})
	}
	return results, nil
}

// NewsAPI JSON structures.
type newsResponse struct {
	Status   string        `json:"status"`
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Articles []newsArticle `json:"articles"`
}

type newsArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Content     string `json:"content"`
	PublishedAt string `json:"publishedAt"`
}
