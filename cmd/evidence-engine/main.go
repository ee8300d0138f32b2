// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the evidence-engine CLI.
//
// The CLI wraps the search orchestrator: it reads configuration from
// evidence-engine.yaml, the environment and flags, loads backend
// credentials from .secrets/, and prints scored, domain-diverse evidence
// for a free-text query.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/evidence-engine/internal/logger"
	"github.com/pdiddy/evidence-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const secretsDir = ".secrets/"

var (
	// appLog is built from the log section of the config before any
	// subcommand runs.
	appLog logger.Logger = logger.NewNop()

	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string
)

// rootCmd is the base command for the evidence-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "evidence-engine",
	Short: "Gather scored web and news evidence for a business query",
	Long: `evidence-engine retrieves candidate evidence for a free-text query from
a web-search backend, a news-search backend, an offline snapshot or a
built-in stub, then deduplicates, scores and diversifies the results.

The provider strategy (none, stub, backend_a, backend_b, hybrid) comes from
the config file, the EVIDENCE_ENGINE_PROVIDER variable or --provider.
Backend failures never fail a search: they fall back to the snapshot or
the stub.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}

		l, err := logger.New(logConfig())
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		appLog = l

		s, err := secrets.Load(secretsDir, appLog)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			appLog.Debug("loaded secrets", logger.Strings("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./evidence-engine.yaml or ~/.config/evidence-engine/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("evidence-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "evidence-engine"))
		}
	}

	viper.SetEnvPrefix("EVIDENCE_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}
