// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"golang.org/x/text/language"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// sentinelTitle is the fixed title of the "no results" record.
const sentinelTitle = "no results"

// noResultsMessages is indexed in the same order as messageTags.
var (
	messageTags = []language.Tag{
		language.English,
		language.Japanese,
	}
	messageMatcher    = language.NewMatcher(messageTags)
	noResultsMessages = []string{
		"No matching results were found. Try different keywords.",
		"該当する検索結果が見つかりませんでした。別のキーワードでお試しください。",
	}
)

// noResultsMessage returns the localized "try different keywords" text for
// lang, falling back to English for unknown or empty tags.
func noResultsMessage(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return noResultsMessages[0]
	}
	_, idx, conf := messageMatcher.Match(tag)
	if conf == language.No {
		return noResultsMessages[0]
	}
	return noResultsMessages[idx]
}

// NoResults builds the synthetic sentinel record returned when every
// adapter and fallback produced nothing.
func NoResults(lang string) types.ResultRecord {
	return types.ResultRecord{
		Title:   sentinelTitle,
		URL:     "",
		Snippet: noResultsMessage(lang),
		Source:  types.SourceSystem,
	}
}
