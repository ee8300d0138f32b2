// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// FormatTable writes results as a human-readable table to w.
func FormatTable(results []types.ResultRecord, w io.Writer) {
	if len(results) == 1 && results[0].IsSentinel() {
		fmt.Fprintf(w, "%s: %s\n", results[0].Title, results[0].Snippet)
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-28s  %-10s  %-6s  %s\n",
		"Rank", "Title", "Host", "Published", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 118))

	for i, r := range results {
		published := ""
		if r.PublishedAt != nil {
			published = r.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-28s  %-10s  %-6.3f  %s\n",
			i+1, truncate(r.Title, 50), truncate(hostOf(r.URL), 28), published, r.Score, r.Source)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
}

// FormatReasons writes each result's reasons and score breakdown to w.
func FormatReasons(results []types.ResultRecord, w io.Writer) {
	for i, r := range results {
		if r.IsSentinel() {
			continue
		}
		fmt.Fprintf(w, "%d. %s\n   %s\n   reasons: %s\n", i+1, r.Title, r.URL, strings.Join(r.Reasons, ", "))
		fmt.Fprintf(w, "   freshness=%.3f reliability=%.3f relevance=%.3f content_quality=%.3f source_quality=%.3f\n",
			r.DetailedScoring[types.ScoreFreshness],
			r.DetailedScoring[types.ScoreReliability],
			r.DetailedScoring[types.ScoreRelevance],
			r.DetailedScoring[types.ScoreContentQuality],
			r.DetailedScoring[types.ScoreSourceQuality])
	}
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(results []types.ResultRecord, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(results)
}

// FormatYAML writes results as a YAML list to w.
func FormatYAML(results []types.ResultRecord, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(results)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
