// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/logger"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/search"
	"github.com/pdiddy/evidence-engine/internal/snapshot"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record and inspect offline snapshot files",
	Long: `Snapshot manages the offline cache consulted when a live backend fails.
A snapshot maps a key to a list of records; a degraded search uses the
longest key that appears in the query, ignoring case.`,
}

// --- record subcommand ---

var snapshotRecordCmd = &cobra.Command{
	Use:   "record [query]",
	Short: "Run a search and store its results under a snapshot key",
	Long: `Record runs a search with the configured provider and stores the
returned records in the snapshot file under --key (default: the query).
The file format follows the extension: .json, .yaml or .db (SQLite).
Existing keys are replaced; other keys are kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSnapshotRecord,
}

func runSnapshotRecord(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		key = query
	}
	out, _ := cmd.Flags().GetString("out")
	count, _ := cmd.Flags().GetInt("count")

	engine, err := newEngine(cmd.Context(), metrics.Nop{})
	if err != nil {
		return err
	}

	var records []types.ResultRecord
	for _, r := range engine.Search(cmd.Context(), query, count, scoringConfig()) {
		if !r.IsSentinel() {
			records = append(records, r)
		}
	}
	if len(records) == 0 {
		return fmt.Errorf("search for %q returned no records to record", query)
	}

	if err := snapshot.Record(cmd.Context(), out, key, records); err != nil {
		return err
	}
	appLog.Info("snapshot recorded",
		logger.String("path", out), logger.String("key", key), logger.Int("records", len(records)))
	fmt.Fprintf(os.Stdout, "Recorded %d records under %q in %s\n", len(records), key, out)
	return nil
}

// --- show subcommand ---

var snapshotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the keys of a snapshot file",
	RunE:  runSnapshotShow,
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	cache, err := snapshot.Load(cmd.Context(), in)
	if err != nil {
		return err
	}
	entries := cache.Entries()

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		keys := sortedKeys(entries)
		for _, k := range keys {
			fmt.Fprintf(os.Stdout, "# %s\n", k)
			if err := search.FormatJSON(entries[k], os.Stdout); err != nil {
				return err
			}
		}
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("Snapshot is empty.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-40s  %s\n", "Key", "Records")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 50))
	for _, k := range sortedKeys(entries) {
		fmt.Fprintf(os.Stdout, "%-40s  %d\n", k, len(entries[k]))
	}
	fmt.Fprintf(os.Stdout, "\n%d keys\n", len(entries))
	return nil
}

func sortedKeys(m map[string][]types.ResultRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	snapshotRecordCmd.Flags().String("key", "", "snapshot key (default: the query)")
	snapshotRecordCmd.Flags().String("out", "", "snapshot file to write (.json, .yaml, .db)")
	snapshotRecordCmd.Flags().IntP("count", "n", 10, "number of records to store")
	addProviderFlags(snapshotRecordCmd)
	_ = snapshotRecordCmd.MarkFlagRequired("out")

	snapshotShowCmd.Flags().String("in", "", "snapshot file to read")
	snapshotShowCmd.Flags().Bool("json", false, "print the records of every key as JSON")
	_ = snapshotShowCmd.MarkFlagRequired("in")

	snapshotCmd.AddCommand(snapshotRecordCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)

	rootCmd.AddCommand(snapshotCmd)
}
