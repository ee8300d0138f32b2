// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) *time.Time {
	t := testNow.Add(-time.Duration(d) * 24 * time.Hour)
	return &t
}

func defaultScoring() types.ScoringConfig {
	return types.ScoringConfig{
		TrustedDomains: types.DefaultTrustedDomains(),
		TimeWindowDays: 365,
		Language:       "ja",
		ResultLimit:    10,
	}
}

func TestFreshness(t *testing.T) {
	tests := []struct {
		days   int
		window float64
		want   float64
	}{
		{-3, 365, 1.0},
		{0, 365, 1.0},
		{1, 365, 1.0},
		{2, 365, 0.9},
		{7, 365, 0.9},
		{8, 365, 0.7},
		{30, 365, 0.7},
		{31, 365, 0.4},
		{90, 365, 0.4},
		{91, 365, 0.4},
		{300, 365, 1.0 - 300.0/365.0},
		{400, 365, 0.1},
		{91, 30, 0.1},
	}
	for _, tt := range tests {
		got := freshness(testNow, *daysAgo(tt.days), tt.window)
		assert.InDelta(t, tt.want, got, 1e-9, "days=%d window=%v", tt.days, tt.window)
	}
}

func TestFreshnessMonotonic(t *testing.T) {
	for _, window := range []float64{1, 30, 90, 365, 1000} {
		prev := freshness(testNow, testNow, window)
		for d := 1; d <= 1500; d++ {
			cur := freshness(testNow, *daysAgo(d), window)
			require.LessOrEqual(t, cur, prev, "window=%v day=%d", window, d)
			require.Greater(t, cur, 0.0)
			prev = cur
		}
	}
}

func TestLookupTrust(t *testing.T) {
	trusted := lowerKeys(map[string]types.TrustTier{
		"Nikkei.com":        types.TrustHigh,
		"diamond.jp":        types.TrustMedium,
		"meti.go.jp":        types.TrustBasic,
		"chusho.meti.go.jp": types.TrustMedium,
	})

	tests := []struct {
		host   string
		want   types.TrustTier
		wantOK bool
	}{
		{"nikkei.com", types.TrustHigh, true},
		{"www.nikkei.com", types.TrustHigh, true},
		{"news.nikkei.com", types.TrustHigh, true},
		{"diamond.jp", types.TrustMedium, true},
		{"chusho.meti.go.jp", types.TrustMedium, true},
		{"www.chusho.meti.go.jp", types.TrustMedium, true},
		{"www.meti.go.jp", types.TrustBasic, true},
		{"evil-nikkei.com", "", false},
		{"go.jp", "", false},
		{"com", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, ok := lookupTrust(trusted, tt.host)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelevance(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		title   string
		snippet string
		want    float64
	}{
		{"title and snippet", "DX 推進", "DX推進の現状", "推進体制について", (0.7*2 + 0.3*1) / 2},
		{"full-width query", "ＤＸ", "dx adoption", "", 0.7},
		{"case-insensitive", "cloud", "CLOUD cost", "Cloud", 1.0},
		{"no match", "金融", "製造業の動向", "工場", 0},
		{"empty query", "", "anything", "else", 0},
		{"single-rune keywords dropped", "a b", "a b", "a b", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := relevance(queryKeywords(tt.query), tt.title, tt.snippet)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScoreReasonsInOrder(t *testing.T) {
	full := types.ResultRecord{
		Title:       "中小企業のDX推進に関する最新の調査結果まとめ",
		URL:         "https://www.nikkei.com/article/1",
		Snippet:     strings.Repeat("中小企業のデジタル化", 12),
		Source:      types.SourceBackendB,
		PublishedAt: daysAgo(0),
	}
	bare := types.ResultRecord{
		Title:   "<b>短い</b>",
		URL:     "https://www.nikkei.com/article/2",
		Snippet: "x",
		Source:  types.SourceBackendA,
	}

	got := Score([]types.ResultRecord{bare, full}, "DX", defaultScoring(), testNow)
	require.Len(t, got, 2)

	assert.Equal(t, full.URL, got[0].URL)
	assert.Equal(t, []string{
		ReasonFreshness, ReasonHighTrusted, ReasonKeywordMatch,
		ReasonTitleLength, ReasonDetailedSnippet, ReasonCleanContent, ReasonContentQuality,
		ReasonNewsSource,
	}, got[0].Reasons, "diversity bonus went to the first record seen on the host")

	assert.Equal(t, []string{
		ReasonHighTrusted, ReasonKeywordMatch, ReasonContentQuality,
		ReasonWebSource, ReasonDiversity,
	}, got[1].Reasons)
}

func TestScoreDetailedBreakdown(t *testing.T) {
	r := types.ResultRecord{
		Title:       "製造業におけるサプライチェーン再構築の課題",
		URL:         "https://diamond.jp/articles/1",
		Snippet:     "サプライチェーン",
		Source:      types.SourceBackendA,
		PublishedAt: daysAgo(10),
	}
	got := Score([]types.ResultRecord{r}, "サプライチェーン 課題", defaultScoring(), testNow)
	require.Len(t, got, 1)

	d := got[0].DetailedScoring
	assert.InDelta(t, 0.7, d[types.ScoreFreshness], 1e-9, "tiered value before weighting")
	assert.InDelta(t, 0.2, d[types.ScoreSourceQuality], 1e-9)
	assert.InDelta(t, 0.3, d[types.ScoreContentQuality], 1e-9)
	assert.InDelta(t, (0.7*2+0.3)/2*0.8, d[types.ScoreRelevance], 1e-9)

	assert.InDelta(t, got[0].Score-0.7-0.3-0.2, d[types.ScoreReliability], 0.001)

	sum := d[types.ScoreFreshness] + d[types.ScoreReliability] + d[types.ScoreContentQuality] + d[types.ScoreSourceQuality]
	assert.InDelta(t, got[0].Score, sum, 0.002)
}

func TestScoreTrustedFreshBeatsUntrustedStale(t *testing.T) {
	records := []types.ResultRecord{
		{
			Title:       "中小企業のDX推進 最新事例",
			URL:         "https://blog.example.org/dx",
			Snippet:     "DX推進の事例",
			Source:      types.SourceBackendB,
			PublishedAt: daysAgo(90),
		},
		{
			Title:       "中小企業のDX推進 最新事例",
			URL:         "https://www.nikkei.com/article/dx",
			Snippet:     "DX推進の事例",
			Source:      types.SourceBackendB,
			PublishedAt: daysAgo(0),
		},
	}
	got := Score(records, "DX推進", defaultScoring(), testNow)
	require.Len(t, got, 2)
	assert.Equal(t, "https://www.nikkei.com/article/dx", got[0].URL)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestScoreTrustTierOrdering(t *testing.T) {
	base := types.ResultRecord{Title: "same title", Snippet: "same", Source: types.SourceBackendA}
	score := func(host string) float64 {
		r := base
		r.URL = "https://" + host + "/a"
		return Score([]types.ResultRecord{r}, "title", defaultScoring(), testNow)[0].Score
	}

	high, medium, basic, none := score("nikkei.com"), score("diamond.jp"), score("meti.go.jp"), score("unknown.example")
	assert.Greater(t, high, medium)
	assert.Greater(t, medium, basic)
	assert.Greater(t, basic, none)
}

func TestScoreClipping(t *testing.T) {
	r := types.ResultRecord{
		Title:       "a title that is long enough to count",
		URL:         "https://nikkei.com/1",
		Snippet:     "s",
		Source:      types.SourceBackendB,
		PublishedAt: daysAgo(0),
	}

	big := types.DefaultWeights()
	big.Freshness = 10
	cfg := defaultScoring()
	cfg.Weights = &big
	assert.Equal(t, 5.0, Score([]types.ResultRecord{r}, "title", cfg, testNow)[0].Score)

	neg := types.Weights{Freshness: -1, TrustHigh: -1, Relevance: -1, NewsSource: -1, Diversity: -1}
	cfg.Weights = &neg
	assert.Equal(t, 0.0, Score([]types.ResultRecord{r}, "title", cfg, testNow)[0].Score)
}

func TestScoreRoundsToThreeDecimals(t *testing.T) {
	r := types.ResultRecord{Title: "abc def ghi", URL: "https://x.example/1", Snippet: "abc", PublishedAt: daysAgo(200)}
	got := Score([]types.ResultRecord{r}, "abc def ghi", defaultScoring(), testNow)
	require.Len(t, got, 1)
	assert.Equal(t, round3(got[0].Score), got[0].Score)
	for k, v := range got[0].DetailedScoring {
		assert.Equal(t, round3(v), v, k)
	}
}

func TestScoreStableTies(t *testing.T) {
	var records []types.ResultRecord
	for _, host := range []string{"a.example", "b.example", "c.example"} {
		records = append(records, types.ResultRecord{Title: "t", URL: "https://" + host + "/", Snippet: "s"})
	}
	got := Score(records, "q", defaultScoring(), testNow)
	assert.Equal(t, []string{"https://a.example/", "https://b.example/", "https://c.example/"},
		[]string{got[0].URL, got[1].URL, got[2].URL})
}

func TestScoreDoesNotMutateInputAndDropsSentinel(t *testing.T) {
	in := []types.ResultRecord{
		{Title: "t", URL: "https://nikkei.com/1", Snippet: "s", PublishedAt: daysAgo(1)},
		NoResults("en"),
	}
	got := Score(in, "t", defaultScoring(), testNow)

	require.Len(t, got, 1)
	assert.False(t, got[0].IsSentinel())
	assert.Nil(t, in[0].Reasons)
	assert.Nil(t, in[0].DetailedScoring)
	assert.Zero(t, in[0].Score)
}

func TestScoreWithoutTrustedDomains(t *testing.T) {
	r := types.ResultRecord{Title: "t", URL: "https://nikkei.com/1"}
	got := Score([]types.ResultRecord{r}, "t", types.ScoringConfig{}, testNow)
	require.Len(t, got, 1)
	assert.NotContains(t, got[0].Reasons, ReasonHighTrusted)
}

func TestScoreDetailedFreshnessIsTier(t *testing.T) {
	records := []types.ResultRecord{
		{Title: "today", URL: "https://a.example/1", PublishedAt: daysAgo(0)},
		{Title: "undated", URL: "https://b.example/1"},
	}
	got := Score(records, "today", defaultScoring(), testNow)
	require.Len(t, got, 2)

	byTitle := map[string]types.ResultRecord{}
	for _, r := range got {
		byTitle[r.Title] = r
	}
	assert.Equal(t, 1.0, byTitle["today"].DetailedScoring[types.ScoreFreshness])
	assert.Equal(t, 0.0, byTitle["undated"].DetailedScoring[types.ScoreFreshness])
}

func TestScoreCleanContent(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		snippet   string
		wantClean bool
	}{
		{"plain text", "市場の動向", "概要", true},
		{"tag in title", "<b>速報</b>", "概要", false},
		{"tag in snippet", "速報", "詳細は<a href=\"x\">こちら</a>", false},
		{"brackets split across fields", "a<", ">b", true},
		{"empty brackets", "a <> b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := types.ResultRecord{Title: tt.title, URL: "https://x.example/1", Snippet: tt.snippet}
			got := Score([]types.ResultRecord{r}, "q", defaultScoring(), testNow)
			require.Len(t, got, 1)
			if tt.wantClean {
				assert.Contains(t, got[0].Reasons, ReasonCleanContent)
			} else {
				assert.NotContains(t, got[0].Reasons, ReasonCleanContent)
			}
		})
	}
}
