// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/logger"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/search"
	"github.com/pdiddy/evidence-engine/internal/snapshot"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the configured providers and print scored evidence",
	Long: `Search runs the configured provider strategy for the query, removes
duplicate URLs, scores each record on freshness, source trust, keyword
relevance and content quality, and keeps the best record per domain first.

When nothing is found a single "no results" record is printed. Backend
failures are logged and answered from the offline snapshot or the stub.

With --load the results of a search written earlier with --save are
printed again without querying any provider.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if load, _ := cmd.Flags().GetString("load"); load != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntP("count", "n", 5, "number of results to return")
	addProviderFlags(searchCmd)
	searchCmd.Flags().String("language", "", "message language for the no-results record (ja, en)")
	searchCmd.Flags().Int("time-window", 0, "freshness horizon in days for old items")
	searchCmd.Flags().Int("result-limit", 0, "merge limit for hybrid searches")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("yaml", false, "output results as YAML")
	searchCmd.Flags().Bool("reasons", false, "print scoring reasons and breakdown after the table")
	searchCmd.Flags().String("save", "", "write the search and its results to a YAML file")
	searchCmd.Flags().String("load", "", "print the results of a saved search file instead of searching")
	searchCmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file")
	searchCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	searchCmd.MarkFlagsMutuallyExclusive("load", "save")

	rootCmd.AddCommand(searchCmd)
}

// addProviderFlags registers the flags shared by commands that run a search.
func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "provider strategy: none, stub, backend_a, backend_b, hybrid")
	cmd.Flags().String("snapshot", "", "offline snapshot file (.json, .yaml, .db)")
	cmd.Flags().Duration("timeout", 0, "per-request backend timeout (default 10s)")
}

// newEngine loads the offline snapshot and builds the orchestrator.
func newEngine(ctx context.Context, m metrics.Recorder) (*search.Engine, error) {
	cfg := searchConfig()

	var cache *snapshot.Cache
	if cfg.SnapshotPath != "" {
		c, err := snapshot.Load(ctx, cfg.SnapshotPath)
		if err != nil {
			return nil, err
		}
		appLog.Debug("snapshot loaded",
			logger.String("path", cfg.SnapshotPath), logger.Int("keys", c.Len()))
		cache = c
	}

	e := search.New(cfg, cache, search.WithLogger(appLog), search.WithMetrics(m))
	appLog.Debug("search engine ready",
		logger.String("provider", cfg.Provider),
		logger.String("strategy", e.Strategy().String()),
		logger.Bool("web_credentials", cfg.Web.HasCredentials()),
		logger.Bool("news_credentials", cfg.News.HasCredentials()))
	return e, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if path, _ := cmd.Flags().GetString("load"); path != "" {
		saved, err := search.ReadSavedSearch(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved search %q (%s, %s)\n",
			saved.Query, saved.Strategy, saved.Summary.Timestamp.Format("2006-01-02 15:04"))
		return printResults(cmd, os.Stdout, saved.Results)
	}

	query := strings.Join(args, " ")
	count, _ := cmd.Flags().GetInt("count")

	m := metrics.New()
	engine, err := newEngine(cmd.Context(), m)
	if err != nil {
		return err
	}

	scoring := scoringConfig()
	results := engine.Search(cmd.Context(), query, count, scoring)

	if err := printResults(cmd, os.Stdout, results); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteSavedSearch(path, query, count, engine.Strategy(), scoring, results); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved search to %s\n", path)
	}

	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

// printResults writes results in the format selected by --json, --yaml
// and --reasons.
func printResults(cmd *cobra.Command, w io.Writer, results []types.ResultRecord) error {
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return search.FormatJSON(results, w)
	}
	if yamlOutput, _ := cmd.Flags().GetBool("yaml"); yamlOutput {
		return search.FormatYAML(results, w)
	}
	search.FormatTable(results, w)
	if reasons, _ := cmd.Flags().GetBool("reasons"); reasons {
		fmt.Fprintln(w)
		search.FormatReasons(results, w)
	}
	return nil
}
