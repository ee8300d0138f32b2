// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/evidence-engine/internal/secrets"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

const (
	defaultUserAgent    = "evidence-engine/0.1"
	defaultSnapshotPath = "data/search_cache.json"
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"provider":     "provider",
	"snapshot":     "snapshot_path",
	"timeout":      "timeout",
	"language":     "scoring.language",
	"time-window":  "scoring.time_window_days",
	"result-limit": "scoring.result_limit",
	"log-level":    "log.level",
}

func setDefaults() {
	viper.SetDefault("provider", "stub")
	viper.SetDefault("timeout", types.DefaultTimeout)
	viper.SetDefault("user_agent", defaultUserAgent)
	viper.SetDefault("snapshot_path", defaultSnapshotPath)
	viper.SetDefault("scoring.time_window_days", 60)
	viper.SetDefault("scoring.language", "ja")
	viper.SetDefault("scoring.result_limit", 5)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output_paths", []string{"stderr"})
}

// bindFlags binds the flags of the command being run so that explicitly
// set flags win over file and environment values.
func bindFlags(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

func logConfig() types.LogConfig {
	return types.LogConfig{
		Level:       viper.GetString("log.level"),
		OutputPaths: viper.GetStringSlice("log.output_paths"),
	}
}

// searchConfig assembles the orchestrator config. Credentials missing from
// the config file and environment are filled from .secrets/. The news
// backend searches in the scoring language unless news.language is set.
func searchConfig() types.SearchConfig {
	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: viper.GetString("user_agent"),
		},
		Provider: viper.GetString("provider"),
		Web: types.WebSearchConfig{
			Endpoint: viper.GetString("web.endpoint"),
			APIKey:   viper.GetString("web.api_key"),
			EngineID: viper.GetString("web.engine_id"),
		},
		News: types.NewsSearchConfig{
			Endpoint: viper.GetString("news.endpoint"),
			APIKey:   viper.GetString("news.api_key"),
			Language: newsLanguage(),
		},
		SnapshotPath: viper.GetString("snapshot_path"),
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg
}

func newsLanguage() string {
	if lang := viper.GetString("news.language"); lang != "" {
		return lang
	}
	return viper.GetString("scoring.language")
}

// scoringConfig reads the per-search scoring settings. Without configured
// trusted domains the built-in allow-list is used.
func scoringConfig() types.ScoringConfig {
	cfg := types.ScoringConfig{
		TimeWindowDays: viper.GetInt("scoring.time_window_days"),
		Language:       viper.GetString("scoring.language"),
		ResultLimit:    viper.GetInt("scoring.result_limit"),
	}

	domains := viper.GetStringMapString("scoring.trusted_domains")
	if len(domains) == 0 {
		cfg.TrustedDomains = types.DefaultTrustedDomains()
	} else {
		cfg.TrustedDomains = make(map[string]types.TrustTier, len(domains))
		for host, tier := range domains {
			cfg.TrustedDomains[strings.ToLower(host)] = types.ParseTrustTier(tier)
		}
	}

	if viper.IsSet("scoring.weights") {
		w := types.DefaultWeights()
		for key, dst := range map[string]*float64{
			"freshness":      &w.Freshness,
			"trust_high":     &w.TrustHigh,
			"trust_medium":   &w.TrustMedium,
			"trust_basic":    &w.TrustBasic,
			"relevance":      &w.Relevance,
			"title_length":   &w.TitleLength,
			"detail_snippet": &w.DetailSnippet,
			"clean_content":  &w.CleanContent,
			"news_source":    &w.NewsSource,
			"web_source":     &w.WebSource,
			"diversity":      &w.Diversity,
		} {
			if k := "scoring.weights." + key; viper.IsSet(k) {
				*dst = viper.GetFloat64(k)
			}
		}
		cfg.Weights = &w
	}
	return cfg
}
