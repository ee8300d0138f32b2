// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snapshot provides the offline snapshot cache: a read-only mapping
// from a query key to a previously captured result list. Backends consult it
// when a live call fails. The cache is loaded once and never mutated, so a
// single *Cache is safe to share across goroutines.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// ErrUnsupportedFormat is returned for snapshot paths whose extension is
// not .json, .yaml, .yml, .db, .sqlite or .sqlite3.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Format is the on-disk encoding of a snapshot file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatSQLite
)

// FormatFor picks the snapshot format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Cache is an immutable key → records lookup.
type Cache struct {
	// keys holds lower-cased keys, longest first so the most specific key wins.
	keys    []string
	entries map[string][]types.ResultRecord

	// original preserves the key spelling for listing.
	original map[string]string
}

// New builds a cache from entries. Records are copied.
func New(entries map[string][]types.ResultRecord) *Cache {
	c := &Cache{
		entries:  make(map[string][]types.ResultRecord, len(entries)),
		original: make(map[string]string, len(entries)),
	}
	for k, recs := range entries {
		lk := strings.ToLower(strings.TrimSpace(k))
		if lk == "" {
			continue
		}
		c.entries[lk] = types.CloneRecords(recs)
		c.original[lk] = k
		c.keys = append(c.keys, lk)
	}
	sort.Slice(c.keys, func(i, j int) bool {
		if len(c.keys[i]) != len(c.keys[j]) {
			return len(c.keys[i]) > len(c.keys[j])
		}
		return c.keys[i] < c.keys[j]
	})
	return c
}

// Lookup returns copies of the records stored under the longest key that
// is a case-insensitive substring of query. The boolean is false when
// nothing matches or the cache is nil.
func (c *Cache) Lookup(query string) ([]types.ResultRecord, bool) {
	if c == nil {
		return nil, false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, false
	}
	for _, k := range c.keys {
		if strings.Contains(q, k) {
			recs := c.entries[k]
			if len(recs) == 0 {
				continue
			}
			return types.CloneRecords(recs), true
		}
	}
	return nil, false
}

// Len returns the number of keys.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Entries returns a copy of the cache contents keyed by the original key
// spelling.
func (c *Cache) Entries() map[string][]types.ResultRecord {
	out := make(map[string][]types.ResultRecord)
	if c == nil {
		return out
	}
	for lk, recs := range c.entries {
		out[c.original[lk]] = types.CloneRecords(recs)
	}
	return out
}

// Load reads a snapshot file. A missing file yields an empty cache.
func Load(ctx context.Context, path string) (*Cache, error) {
	entries, err := readEntries(ctx, path)
	if err != nil {
		return nil, err
	}
	return New(entries), nil
}

// Record stores records under key in the snapshot file at path, creating
// the file if needed and replacing any records previously stored under key.
// Scores and reasons are not persisted.
func Record(ctx context.Context, path, key string, records []types.ResultRecord) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("snapshot key is empty")
	}
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	if format == FormatSQLite {
		st, err := OpenStore(path)
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Put(ctx, key, records)
	}

	entries, err := readEntries(ctx, path)
	if err != nil {
		return err
	}
	entries[key] = records
	return writeEntries(path, format, entries)
}

// entry is the serialized record shape. PublishedAt is kept as a string so
// that date-only and zone-less timestamps from hand-edited files still load.
type entry struct {
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Snippet     string `json:"snippet" yaml:"snippet"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

func toEntry(r types.ResultRecord) entry {
	e := entry{
		Title:   r.Title,
		URL:     r.URL,
		Snippet: r.Snippet,
		Source:  string(r.Source),
	}
	if r.PublishedAt != nil {
		e.PublishedAt = r.PublishedAt.UTC().Format(time.RFC3339)
	}
	return e
}

func (e entry) toRecord() types.ResultRecord {
	return types.ResultRecord{
		Title:       e.Title,
		URL:         e.URL,
		Snippet:     e.Snippet,
		Source:      types.Source(e.Source),
		PublishedAt: ParseTime(e.PublishedAt),
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp in the common layouts. It returns
// nil for empty or unparseable input.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func readEntries(ctx context.Context, path string) (map[string][]types.ResultRecord, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return map[string][]types.ResultRecord{}, nil
	}

	if format == FormatSQLite {
		st, err := OpenStore(path)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.All(ctx)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	raw := make(map[string][]entry)
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &raw)
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}

	entries := make(map[string][]types.ResultRecord, len(raw))
	for k, es := range raw {
		recs := make([]types.ResultRecord, 0, len(es))
		for _, e := range es {
			recs = append(recs, e.toRecord())
		}
		entries[k] = recs
	}
	return entries, nil
}

func writeEntries(path string, format Format, entries map[string][]types.ResultRecord) error {
	raw := make(map[string][]entry, len(entries))
	for k, recs := range entries {
		es := make([]entry, 0, len(recs))
		for _, r := range recs {
			es = append(es, toEntry(r))
		}
		raw[k] = es
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(raw, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(raw)
	default:
		return fmt.Errorf("%w: cannot write format %d as a flat file", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
