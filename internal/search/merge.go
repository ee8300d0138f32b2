// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Merge combines a and b into one list of at most limit records, walking a
// then b in order. Records whose URL is empty, unparseable or already seen
// (by normalized URL) are skipped, so entries from a keep precedence.
func Merge(a, b []types.ResultRecord, limit int) []types.ResultRecord {
	if limit <= 0 {
		return nil
	}

	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]types.ResultRecord, 0, min(limit, len(a)+len(b)))

	for _, list := range [][]types.ResultRecord{a, b} {
		for _, r := range list {
			key, ok := normalizeURL(r.URL)
			if !ok || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, r)
			if len(merged) == limit {
				return merged
			}
		}
	}
	return merged
}

// deduplicate drops URL-equivalent repeats from a single list.
func deduplicate(records []types.ResultRecord) []types.ResultRecord {
	return Merge(records, nil, len(records))
}

// normalizeURL returns the dedup key for raw: the lower-cased host followed
// by the case-folded path. Query strings and fragments are ignored.
func normalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Host) + cases.Fold().String(u.Path), true
}

// hostOf returns the lower-cased host name of raw without port, or "".
func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
