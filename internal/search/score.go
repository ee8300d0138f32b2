// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Reason tags appended to ResultRecord.Reasons.
const (
	ReasonFreshness       = "freshness"
	ReasonHighTrusted     = "high_trusted_domain"
	ReasonMediumTrusted   = "medium_trusted_domain"
	ReasonTrusted         = "trusted_domain"
	ReasonKeywordMatch    = "keyword_match"
	ReasonTitleLength     = "optimal_title_length"
	ReasonDetailedSnippet = "detailed_snippet"
	ReasonCleanContent    = "clean_content"
	ReasonContentQuality  = "content_quality"
	ReasonNewsSource      = "news_api_source"
	ReasonWebSource       = "custom_search_source"
	ReasonDiversity       = "diversity_bonus"
)

const (
	maxScore = 5.0

	minTitleRunes   = 20
	maxTitleRunes   = 100
	minSnippetRunes = 100
	minKeywordRunes = 2

	titleMatchWeight   = 0.7
	snippetMatchWeight = 0.3
)

var markupPattern = regexp.MustCompile(`<[^>]+>`)

// Score computes the composite score, reasons and detailed breakdown for
// each record and returns them sorted by descending score. Ties keep their
// input order. The input slice is not modified; sentinel records are
// dropped.
func Score(records []types.ResultRecord, query string, cfg types.ScoringConfig, now time.Time) []types.ResultRecord {
	w := cfg.EffectiveWeights()
	trusted := lowerKeys(cfg.TrustedDomains)
	keywords := queryKeywords(query)
	window := float64(cfg.WindowDays())
	seenHosts := make(map[string]bool)

	scored := make([]types.ResultRecord, 0, len(records))
	for _, in := range records {
		if in.IsSentinel() {
			continue
		}
		r := in.Clone()
		host := hostOf(r.URL)
		var total, fresh float64

		if r.PublishedAt != nil {
			fresh = freshness(now, *r.PublishedAt, window)
			total += fresh * w.Freshness
			r.Reasons = append(r.Reasons, ReasonFreshness)
		}

		switch tier, ok := lookupTrust(trusted, host); {
		case !ok:
		case tier == types.TrustHigh:
			total += w.TrustHigh
			r.Reasons = append(r.Reasons, ReasonHighTrusted)
		case tier == types.TrustMedium:
			total += w.TrustMedium
			r.Reasons = append(r.Reasons, ReasonMediumTrusted)
		default:
			total += w.TrustBasic
			r.Reasons = append(r.Reasons, ReasonTrusted)
		}

		relevance := math.Min(1.0, relevance(keywords, r.Title, r.Snippet)) * w.Relevance
		total += relevance
		r.Reasons = append(r.Reasons, ReasonKeywordMatch)

		var quality float64
		if n := utf8.RuneCountInString(r.Title); n >= minTitleRunes && n <= maxTitleRunes {
			quality += w.TitleLength
			r.Reasons = append(r.Reasons, ReasonTitleLength)
		}
		if utf8.RuneCountInString(r.Snippet) >= minSnippetRunes {
			quality += w.DetailSnippet
			r.Reasons = append(r.Reasons, ReasonDetailedSnippet)
		}
		if text := r.Title + " " + r.Snippet; markupPattern.ReplaceAllString(text, "") == text {
			quality += w.CleanContent
			r.Reasons = append(r.Reasons, ReasonCleanContent)
		}
		total += quality
		r.Reasons = append(r.Reasons, ReasonContentQuality)

		var source float64
		switch r.Source {
		case types.SourceBackendB:
			source = w.NewsSource
			r.Reasons = append(r.Reasons, ReasonNewsSource)
		case types.SourceBackendA:
			source = w.WebSource
			r.Reasons = append(r.Reasons, ReasonWebSource)
		}
		total += source

		if !seenHosts[host] {
			seenHosts[host] = true
			total += w.Diversity
			r.Reasons = append(r.Reasons, ReasonDiversity)
		}

		r.Score = round3(math.Max(0, math.Min(maxScore, total)))
		r.DetailedScoring = map[string]float64{
			types.ScoreFreshness:      round3(fresh),
			types.ScoreReliability:    round3(r.Score - fresh - quality - source),
			types.ScoreRelevance:      round3(relevance),
			types.ScoreContentQuality: round3(quality),
			types.ScoreSourceQuality:  round3(source),
		}
		scored = append(scored, r)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// freshness maps the age of a record to (0, 1]. Ages beyond 90 days decay
// over the configured window but never exceed the 90-day tier, so a newer
// record never scores below an older one.
func freshness(now, published time.Time, windowDays float64) float64 {
	days := math.Floor(now.Sub(published).Hours() / 24)
	if days < 0 {
		days = 0
	}
	switch {
	case days <= 1:
		return 1.0
	case days <= 7:
		return 0.9
	case days <= 30:
		return 0.7
	case days <= 90:
		return 0.4
	default:
		return math.Min(0.4, math.Max(0.1, 1.0-days/windowDays))
	}
}

// lookupTrust finds host in the trusted set: exact match first, then
// without a leading "www.", then each parent domain.
func lookupTrust(trusted map[string]types.TrustTier, host string) (types.TrustTier, bool) {
	if host == "" || len(trusted) == 0 {
		return "", false
	}
	if tier, ok := trusted[host]; ok {
		return tier, true
	}
	h := strings.TrimPrefix(host, "www.")
	for {
		if tier, ok := trusted[h]; ok {
			return tier, true
		}
		dot := strings.IndexByte(h, '.')
		if dot < 0 || !strings.Contains(h[dot+1:], ".") {
			return "", false
		}
		h = h[dot+1:]
	}
}

func lowerKeys(m map[string]types.TrustTier) map[string]types.TrustTier {
	out := make(map[string]types.TrustTier, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// queryKeywords splits query on whitespace and keeps words of at least two
// characters, NFKC-normalized and lower-cased.
func queryKeywords(query string) []string {
	var keywords []string
	for _, f := range strings.Fields(foldText(query)) {
		if utf8.RuneCountInString(f) >= minKeywordRunes {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

func relevance(keywords []string, title, snippet string) float64 {
	t, s := foldText(title), foldText(snippet)
	var titleMatches, snippetMatches int
	for _, k := range keywords {
		if strings.Contains(t, k) {
			titleMatches++
		}
		if strings.Contains(s, k) {
			snippetMatches++
		}
	}
	n := float64(max(1, len(keywords)))
	return (titleMatchWeight*float64(titleMatches) + snippetMatchWeight*float64(snippetMatches)) / n
}

func foldText(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
