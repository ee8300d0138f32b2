// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads backend credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the
// trimmed file contents are the value.
//
// Recognized key files: web-search-api-key, web-search-engine-id, news-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/evidence-engine/internal/logger"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Key file names.
const (
	WebSearchAPIKey   = "web-search-api-key"
	WebSearchEngineID = "web-search-engine-id"
	NewsAPIKey        = "news-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged at warn level and skipped.
func Load(dir string, log logger.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", logger.String("name", name), logger.Error(err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills empty credential fields of cfg from the loaded secrets.
// Values already set (from config file, env or flags) win.
func Apply(cfg *types.SearchConfig, s map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}
	fill(&cfg.Web.APIKey, WebSearchAPIKey)
	fill(&cfg.Web.EngineID, WebSearchEngineID)
	fill(&cfg.News.APIKey, NewsAPIKey)
}
