// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the evidence-engine
// search pipeline: result records, providers, and scoring configuration.
package types

import (
	"strings"
	"time"
)

// Source identifies which adapter produced a ResultRecord.
type Source string

const (
	SourceNone     Source = "none"
	SourceStub     Source = "stub"
	SourceBackendA Source = "backend_a"
	SourceBackendB Source = "backend_b"

	// SourceSystem marks the synthetic "no results" record. It is never
	// scored and is only ever returned alone.
	SourceSystem Source = "system"
)

// Keys of ResultRecord.DetailedScoring.
const (
	ScoreFreshness      = "freshness"
	ScoreReliability    = "reliability"
	ScoreRelevance      = "relevance"
	ScoreContentQuality = "content_quality"
	ScoreSourceQuality  = "source_quality"
)

// ResultRecord is one retrieved item, normalized across backends.
type ResultRecord struct {
	// Title is the headline or page title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// URL is the link to the item. After normalization (lower-cased host
	// plus path) it is the identity used for deduplication.
	URL string `json:"url" yaml:"url"`

	// Snippet is the short description or excerpt.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source identifies which adapter produced the record.
	Source Source `json:"source" yaml:"source"`

	// PublishedAt is the publication time if the backend reported one.
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`

	// Score is the composite score in [0, 5.0]. Zero until scored.
	Score float64 `json:"score" yaml:"score"`

	// Reasons lists, in order, the scoring factors that fired.
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`

	// DetailedScoring breaks the score into its components.
	DetailedScoring map[string]float64 `json:"detailed_scoring,omitempty" yaml:"detailed_scoring,omitempty"`
}

// IsSentinel reports whether r is the synthetic "no results" record.
func (r ResultRecord) IsSentinel() bool {
	return r.Source == SourceSystem
}

// Clone returns a deep copy of r so callers can mutate it without
// affecting shared data such as the offline snapshot cache.
func (r ResultRecord) Clone() ResultRecord {
	c := r
	if r.PublishedAt != nil {
		t := *r.PublishedAt
		c.PublishedAt = &t
	}
	if r.Reasons != nil {
		c.Reasons = append([]string(nil), r.Reasons...)
	}
	if r.DetailedScoring != nil {
		c.DetailedScoring = make(map[string]float64, len(r.DetailedScoring))
		for k, v := range r.DetailedScoring {
			c.DetailedScoring[k] = v
		}
	}
	return c
}

// CloneRecords deep-copies a slice of records.
func CloneRecords(records []ResultRecord) []ResultRecord {
	if records == nil {
		return nil
	}
	out := make([]ResultRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// TrustTier classifies a trusted domain.
type TrustTier string

const (
	TrustHigh   TrustTier = "high"
	TrustMedium TrustTier = "medium"
	TrustBasic  TrustTier = "basic"
)

// ParseTrustTier maps a configured tier name to a TrustTier. Unrecognized
// names are treated as basic trust: the domain is still on the allow-list.
func ParseTrustTier(s string) TrustTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return TrustHigh
	case "medium":
		return TrustMedium
	default:
		return TrustBasic
	}
}

// Weights holds the scoring constants. The defaults are hand-tuned; only
// the relative ordering they produce is relied on.
type Weights struct {
	Freshness     float64 `json:"freshness" yaml:"freshness"`
	TrustHigh     float64 `json:"trust_high" yaml:"trust_high"`
	TrustMedium   float64 `json:"trust_medium" yaml:"trust_medium"`
	TrustBasic    float64 `json:"trust_basic" yaml:"trust_basic"`
	Relevance     float64 `json:"relevance" yaml:"relevance"`
	TitleLength   float64 `json:"title_length" yaml:"title_length"`
	DetailSnippet float64 `json:"detail_snippet" yaml:"detail_snippet"`
	CleanContent  float64 `json:"clean_content" yaml:"clean_content"`
	NewsSource    float64 `json:"news_source" yaml:"news_source"`
	WebSource     float64 `json:"web_source" yaml:"web_source"`
	Diversity     float64 `json:"diversity" yaml:"diversity"`
}

// DefaultWeights returns the documented default scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Freshness:     1.2,
		TrustHigh:     1.0,
		TrustMedium:   0.8,
		TrustBasic:    0.6,
		Relevance:     0.8,
		TitleLength:   0.2,
		DetailSnippet: 0.2,
		CleanContent:  0.1,
		NewsSource:    0.3,
		WebSource:     0.2,
		Diversity:     0.1,
	}
}

// ScoringConfig is supplied per search call by the caller.
type ScoringConfig struct {
	// TrustedDomains maps a host (e.g. "nikkei.com") to its trust tier.
	TrustedDomains map[string]TrustTier `json:"trusted_domains" yaml:"trusted_domains"`

	// TimeWindowDays is the freshness horizon for old items. Values below 1
	// are treated as 1.
	TimeWindowDays int `json:"time_window_days" yaml:"time_window_days"`

	// Language selects the locale of user-facing messages (e.g. "ja", "en").
	Language string `json:"language" yaml:"language"`

	// ResultLimit is the configured result cap used by hybrid merging.
	ResultLimit int `json:"result_limit" yaml:"result_limit"`

	// Weights overrides the default scoring constants when non-nil.
	Weights *Weights `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// EffectiveWeights returns the configured weights or the defaults.
func (c ScoringConfig) EffectiveWeights() Weights {
	if c.Weights != nil {
		return *c.Weights
	}
	return DefaultWeights()
}

// WindowDays returns TimeWindowDays clamped to at least 1.
func (c ScoringConfig) WindowDays() int {
	if c.TimeWindowDays < 1 {
		return 1
	}
	return c.TimeWindowDays
}

// DefaultTrustedDomains returns the built-in allow-list of business and
// news outlets used when no trusted domains are configured.
func DefaultTrustedDomains() map[string]TrustTier {
	return map[string]TrustTier{
		"nikkei.com":        TrustHigh,
		"nhk.or.jp":         TrustHigh,
		"reuters.com":       TrustHigh,
		"bloomberg.co.jp":   TrustHigh,
		"toyokeizai.net":    TrustMedium,
		"diamond.jp":        TrustMedium,
		"itmedia.co.jp":     TrustMedium,
		"asahi.com":         TrustMedium,
		"yomiuri.co.jp":     TrustMedium,
		"meti.go.jp":        TrustBasic,
		"chusho.meti.go.jp": TrustBasic,
		"impress.co.jp":     TrustBasic,
	}
}
