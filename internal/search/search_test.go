// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/evidence-engine/internal/logger"
	"github.com/pdiddy/evidence-engine/internal/snapshot"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var errOffline = errors.New("connection refused")

// fakeBackend returns canned records or an error and counts calls.
type fakeBackend struct {
	name    string
	source  types.Source
	records []types.ResultRecord
	err     error
	calls   atomic.Int32
}

func (f *fakeBackend) Name() string         { return f.name }
func (f *fakeBackend) Source() types.Source { return f.source }

func (f *fakeBackend) Search(_ context.Context, _ string, count int) ([]types.ResultRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := types.CloneRecords(f.records)
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func webBackend(records []types.ResultRecord, err error) *fakeBackend {
	return &fakeBackend{name: "web_search", source: types.SourceBackendA, records: records, err: err}
}

func newsBackend(records []types.ResultRecord, err error) *fakeBackend {
	return &fakeBackend{name: "news_search", source: types.SourceBackendB, records: records, err: err}
}

// countingStub wraps StubAdapter and counts calls.
type countingStub struct {
	StubAdapter
	calls atomic.Int32
}

func (c *countingStub) Fetch(ctx context.Context, query string, count int) Fetch {
	c.calls.Add(1)
	return c.StubAdapter.Fetch(ctx, query, count)
}

func newCountingStub() *countingStub {
	return &countingStub{StubAdapter: StubAdapter{Now: func() time.Time { return testNow }}}
}

// recordingMetrics captures Recorder events.
type recordingMetrics struct {
	mu        sync.Mutex
	fetches   []string
	snapshots []bool
	searches  []string
	sentinels int
}

func (m *recordingMetrics) ProviderFetch(provider, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, provider+":"+status)
}

func (m *recordingMetrics) SnapshotLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, hit)
}

func (m *recordingMetrics) Search(strategy string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, strategy)
}

func (m *recordingMetrics) Sentinel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentinels++
}

func newsRecord(title, url string) types.ResultRecord {
	return types.ResultRecord{Title: title, URL: url, Snippet: title, Source: types.SourceBackendB, PublishedAt: daysAgo(1)}
}

func webRecord(title, url string) types.ResultRecord {
	return types.ResultRecord{Title: title, URL: url, Snippet: title, Source: types.SourceBackendA, PublishedAt: daysAgo(3)}
}

func newEngine(provider string, web, news Backend, stub Adapter, cache *snapshot.Cache, opts ...Option) *Engine {
	opts = append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithBackends(web, news),
		WithStub(stub),
	}, opts...)
	return New(types.SearchConfig{Provider: provider}, cache, opts...)
}

func sources(records []types.ResultRecord) []types.Source {
	out := make([]types.Source, len(records))
	for i, r := range records {
		out[i] = r.Source
	}
	return out
}

func TestEngineStrategy(t *testing.T) {
	tests := []struct {
		provider string
		want     types.Strategy
	}{
		{"none", types.StrategyDisabled},
		{"stub", types.StrategyStub},
		{"backend_a", types.StrategyWebWithFallback},
		{"cse", types.StrategyWebWithFallback},
		{"CSE", types.StrategyWebWithFallback},
		{"newsapi", types.StrategyNewsWithFallback},
		{"backend_b", types.StrategyNewsWithFallback},
		{"hybrid", types.StrategyHybrid},
		{"carrier-pigeon", types.StrategyUnknown},
		{"", types.StrategyUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			e := New(types.SearchConfig{Provider: tt.provider}, nil)
			assert.Equal(t, tt.want, e.Strategy())
		})
	}
}

func TestSearchDisabledReturnsSentinel(t *testing.T) {
	web, news, stub := webBackend(nil, nil), newsBackend(nil, nil), newCountingStub()
	rec := &recordingMetrics{}
	e := newEngine("none", web, news, stub, nil, WithMetrics(rec))

	got := e.Search(context.Background(), "IT 最新ニュース", 5, defaultScoring())

	require.Len(t, got, 1)
	assert.True(t, got[0].IsSentinel())
	assert.Equal(t, "no results", got[0].Title)
	assert.Empty(t, got[0].URL)
	assert.Equal(t, noResultsMessage("ja"), got[0].Snippet)

	assert.Zero(t, stub.calls.Load())
	assert.Zero(t, web.calls.Load())
	assert.Zero(t, news.calls.Load())
	assert.Equal(t, 1, rec.sentinels)
	assert.Equal(t, []string{"disabled"}, rec.searches)
	assert.Equal(t, []string{"none:empty"}, rec.fetches)
}

func TestSearchStub(t *testing.T) {
	stub := newCountingStub()
	e := newEngine("stub", webBackend(nil, nil), newsBackend(nil, nil), stub, nil)

	got := e.Search(context.Background(), "IT 最新ニュース", 2, defaultScoring())

	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, types.SourceStub, r.Source)
		assert.Contains(t, r.Title, "IT")
		assert.NotEmpty(t, r.Reasons)
		assert.Greater(t, r.Score, 0.0)
	}
	assert.NotEqual(t, hostOf(got[0].URL), hostOf(got[1].URL))
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestSearchUnknownProviderBehavesLikeStub(t *testing.T) {
	web, news := webBackend(nil, nil), newsBackend(nil, nil)
	e := newEngine("carrier-pigeon", web, news, newCountingStub(), nil)

	got := e.Search(context.Background(), "製造業", 3, defaultScoring())

	require.Len(t, got, 3)
	assert.Equal(t, []types.Source{types.SourceStub, types.SourceStub, types.SourceStub}, sources(got))
	assert.Zero(t, web.calls.Load())
	assert.Zero(t, news.calls.Load())
}

func TestSearchFallbackChain(t *testing.T) {
	newsOnly := []types.ResultRecord{newsRecord("金融機関の再編", "https://www.reuters.com/a")}
	webOnly := []types.ResultRecord{webRecord("DX推進", "https://www.nikkei.com/dx")}

	tests := []struct {
		name        string
		provider    string
		web         []types.ResultRecord
		news        []types.ResultRecord
		wantSources []types.Source
		wantWeb     int32
		wantNews    int32
		wantStub    int32
	}{
		{"A empty falls to B", "backend_a", nil, newsOnly, []types.Source{types.SourceBackendB}, 1, 1, 0},
		{"A answers", "backend_a", webOnly, newsOnly, []types.Source{types.SourceBackendA}, 1, 0, 0},
		{"B empty falls to A", "backend_b", webOnly, nil, []types.Source{types.SourceBackendA}, 1, 1, 0},
		{"B answers", "backend_b", webOnly, newsOnly, []types.Source{types.SourceBackendB}, 0, 1, 0},
		{"both empty falls to stub", "backend_a", nil, nil, []types.Source{types.SourceStub}, 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			web, news, stub := webBackend(tt.web, nil), newsBackend(tt.news, nil), newCountingStub()
			e := newEngine(tt.provider, web, news, stub, nil)

			got := e.Search(context.Background(), "query", 1, defaultScoring())

			assert.Equal(t, tt.wantSources, sources(got))
			assert.Equal(t, tt.wantWeb, web.calls.Load(), "web calls")
			assert.Equal(t, tt.wantNews, news.calls.Load(), "news calls")
			assert.Equal(t, tt.wantStub, stub.calls.Load(), "stub calls")
		})
	}
}

func TestSearchOfflineBackendServesSnapshot(t *testing.T) {
	cache := snapshot.New(map[string][]types.ResultRecord{
		"IT": {
			{Title: "保存済み記事1", URL: "https://www.itmedia.co.jp/1"},
			{Title: "保存済み記事2", URL: "https://www.nikkei.com/2", Source: types.SourceBackendB},
			{Title: "保存済み記事3", URL: "https://diamond.jp/3"},
		},
	})
	web, news, stub := webBackend(nil, errOffline), newsBackend(nil, nil), newCountingStub()
	rec := &recordingMetrics{}
	e := newEngine("backend_a", web, news, stub, cache, WithMetrics(rec))

	got := e.Search(context.Background(), "IT 最新ニュース", 2, defaultScoring())

	require.Len(t, got, 2)
	for _, r := range got {
		assert.Contains(t, r.Title, "保存済み記事")
	}
	assert.Zero(t, news.calls.Load(), "degraded fetch is non-empty so the chain stops")
	assert.Zero(t, stub.calls.Load())
	assert.Equal(t, []bool{true}, rec.snapshots)
	assert.Equal(t, []string{"web_search:degraded"}, rec.fetches)
}

func TestSearchOfflineBackendServesStubWithLog(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	web, news, stub := webBackend(nil, errOffline), newsBackend(nil, nil), newCountingStub()
	rec := &recordingMetrics{}
	e := newEngine("backend_a", web, news, stub, snapshot.New(nil),
		WithLogger(logger.NewFromZap(zap.New(core))), WithMetrics(rec))

	got := e.Search(context.Background(), "IT 最新ニュース", 2, defaultScoring())

	assert.Equal(t, []types.Source{types.SourceStub, types.SourceStub}, sources(got))
	assert.Equal(t, int32(1), web.calls.Load(), "single attempt")
	assert.Zero(t, news.calls.Load())
	assert.Equal(t, []bool{false}, rec.snapshots)

	entries := logs.FilterMessage("search backend offline, serving stub results").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "web_search", fields["provider"])
	assert.Equal(t, "backend_a_with_fallback", fields["strategy"])
	assert.NotEmpty(t, fields["search_id"])
	assert.Equal(t, errOffline.Error(), fields["error"])
}

func TestLiveAdapterSnapshotFillsSourceAndTruncates(t *testing.T) {
	cache := snapshot.New(map[string][]types.ResultRecord{
		"retail": {
			{Title: "a", URL: "https://a.example/1"},
			{Title: "b", URL: "https://b.example/1", Source: types.SourceStub},
			{Title: "c", URL: "https://c.example/1"},
		},
	})
	a := &liveAdapter{
		backend:  newsBackend(nil, errOffline),
		snapshot: cache,
		stub:     newCountingStub(),
		rec:      &recordingMetrics{},
	}

	f := a.Fetch(context.Background(), "Retail trends", 2)

	assert.Equal(t, StatusDegraded, f.Status)
	assert.ErrorIs(t, f.Err, errOffline)
	require.Len(t, f.Records, 2)
	assert.Equal(t, types.SourceBackendB, f.Records[0].Source)
	assert.Equal(t, types.SourceStub, f.Records[1].Source)

	again, _ := cache.Lookup("retail")
	assert.Len(t, again, 3)
	assert.Empty(t, again[0].Source, "cache entries are not modified")
}

func TestLiveAdapterStatus(t *testing.T) {
	ctx := context.Background()
	stub := newCountingStub()

	ok := &liveAdapter{backend: webBackend([]types.ResultRecord{webRecord("t", "https://x.example/")}, nil), stub: stub, rec: &recordingMetrics{}}
	assert.Equal(t, StatusOK, ok.Fetch(ctx, "q", 3).Status)

	empty := &liveAdapter{backend: webBackend(nil, nil), stub: stub, rec: &recordingMetrics{}}
	assert.Equal(t, StatusEmpty, empty.Fetch(ctx, "q", 3).Status)

	zero := &liveAdapter{backend: webBackend(nil, errOffline), stub: stub, rec: &recordingMetrics{}}
	assert.Equal(t, StatusEmpty, zero.Fetch(ctx, "q", 0).Status)
	assert.Zero(t, stub.calls.Load())
}

func TestSearchHybrid(t *testing.T) {
	web := webBackend([]types.ResultRecord{
		webRecord("日経 DX特集", "https://www.nikkei.com/dx"),
		webRecord("ダイヤモンド DX", "https://diamond.jp/dx"),
	}, nil)
	news := newsBackend([]types.ResultRecord{
		newsRecord("日経 DX特集 (news)", "https://WWW.NIKKEI.COM/dx"),
		newsRecord("ロイター DX", "https://www.reuters.com/dx"),
	}, nil)
	stub := newCountingStub()
	e := newEngine("hybrid", web, news, stub, nil)

	got := e.Search(context.Background(), "DX", 5, defaultScoring())

	require.Len(t, got, 3)
	seen := map[string]bool{}
	for _, r := range got {
		key, ok := normalizeURL(r.URL)
		require.True(t, ok)
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
		if key == "www.nikkei.com/dx" {
			assert.Equal(t, types.SourceBackendA, r.Source, "web result kept over news duplicate")
		}
	}
	assert.Equal(t, int32(1), web.calls.Load())
	assert.Equal(t, int32(1), news.calls.Load())
	assert.Zero(t, stub.calls.Load())
}

func TestSearchHybridUsesResultLimit(t *testing.T) {
	var many []types.ResultRecord
	for i := 0; i < 20; i++ {
		many = append(many, webRecord(fmt.Sprintf("記事%d", i), fmt.Sprintf("https://site%d.example/a", i)))
	}
	web, news := webBackend(many, nil), newsBackend(nil, nil)
	e := newEngine("hybrid", web, news, newCountingStub(), nil)

	cfg := defaultScoring()
	cfg.ResultLimit = 8
	got := e.Search(context.Background(), "記事", 3, cfg)
	assert.Len(t, got, 3)
}

func TestSearchHybridEmptyFallsBackToStub(t *testing.T) {
	web, news, stub := webBackend(nil, nil), newsBackend(nil, nil), newCountingStub()
	e := newEngine("hybrid", web, news, stub, nil)

	got := e.Search(context.Background(), "小売", 2, defaultScoring())

	assert.Equal(t, []types.Source{types.SourceStub, types.SourceStub}, sources(got))
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestSearchResultBounds(t *testing.T) {
	records := []types.ResultRecord{
		webRecord("a", "https://a.example/1"),
		webRecord("b", "https://a.example/2"),
		webRecord("c", "https://b.example/1"),
	}
	for _, provider := range []string{"none", "stub", "backend_a", "backend_b", "hybrid", "bogus"} {
		for n := -1; n <= 6; n++ {
			e := newEngine(provider, webBackend(records, nil), newsBackend(nil, errOffline), newCountingStub(), nil)
			got := e.Search(context.Background(), "IT", n, defaultScoring())
			assert.GreaterOrEqual(t, len(got), 1, "%s n=%d", provider, n)
			assert.LessOrEqual(t, len(got), max(n, 1), "%s n=%d", provider, n)
			if n <= 0 {
				require.Len(t, got, 1)
				assert.True(t, got[0].IsSentinel(), "%s n=%d", provider, n)
			}
		}
	}
}

func TestSearchConcurrent(t *testing.T) {
	e := newEngine("hybrid",
		webBackend([]types.ResultRecord{webRecord("a", "https://a.example/1")}, nil),
		newsBackend([]types.ResultRecord{newsRecord("b", "https://b.example/1")}, nil),
		newCountingStub(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := e.Search(context.Background(), "q", 2, defaultScoring())
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()
}

func TestSearchSentinelLanguage(t *testing.T) {
	e := newEngine("none", nil, nil, newCountingStub(), nil)
	cfg := defaultScoring()
	cfg.Language = "en"
	got := e.Search(context.Background(), "q", 3, cfg)
	require.Len(t, got, 1)
	assert.Equal(t, noResultsMessage("en"), got[0].Snippet)
}
