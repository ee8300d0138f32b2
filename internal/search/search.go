// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search orchestrates the provider adapters and turns their output
// into a bounded, scored and domain-diverse result list.
//
// A search runs the configured strategy's fallback chain (or, in hybrid
// mode, both network backends), deduplicates by normalized URL, scores
// every record and keeps the best record per domain first. When nothing
// is found the caller receives a single "no results" sentinel record.
package search

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/evidence-engine/internal/logger"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/snapshot"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Engine is the search orchestrator. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	strategy types.Strategy

	disabled Adapter
	stub     Adapter
	web      Adapter
	news     Adapter

	webBackend  Backend
	newsBackend Backend
	snapshot    *snapshot.Cache

	log logger.Logger
	rec metrics.Recorder
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics sets the outcome recorder. Default drops events.
func WithMetrics(r metrics.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.rec = r
		}
	}
}

// WithClock sets the reference time used for freshness and stub dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithStub replaces the stub adapter.
func WithStub(a Adapter) Option {
	return func(e *Engine) { e.stub = a }
}

// WithBackends replaces the web (A) and news (B) backends. A nil argument
// keeps the default for that slot.
func WithBackends(web, news Backend) Option {
	return func(e *Engine) {
		if web != nil {
			e.webBackend = web
		}
		if news != nil {
			e.newsBackend = news
		}
	}
}

// New builds an Engine for cfg. cache may be nil when no offline snapshot
// is available.
func New(cfg types.SearchConfig, cache *snapshot.Cache, opts ...Option) *Engine {
	client := &http.Client{}
	e := &Engine{
		strategy:    types.ParseStrategy(cfg.Provider),
		disabled:    DisabledAdapter{},
		webBackend:  &WebSearchBackend{Client: client, Config: cfg.Web, HTTP: cfg.HTTPConfig},
		newsBackend: &NewsBackend{Client: client, Config: cfg.News, HTTP: cfg.HTTPConfig},
		snapshot:    cache,
		log:         logger.NewNop(),
		rec:         metrics.Nop{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.stub == nil {
		e.stub = &StubAdapter{Now: e.now}
	}
	e.web = &liveAdapter{backend: e.webBackend, snapshot: cache, stub: e.stub, rec: e.rec}
	e.news = &liveAdapter{backend: e.newsBackend, snapshot: cache, stub: e.stub, rec: e.rec}
	return e
}

// Strategy returns the strategy selected from the configured provider name.
func (e *Engine) Strategy() types.Strategy { return e.strategy }

// Search returns between 1 and max(count, 1) records for query. It never
// fails: backend errors degrade to snapshot or stub results, and an empty
// outcome yields the single "no results" sentinel record.
func (e *Engine) Search(ctx context.Context, query string, count int, cfg types.ScoringConfig) []types.ResultRecord {
	log := e.log.With(
		logger.String("search_id", uuid.NewString()),
		logger.String("strategy", e.strategy.String()),
	)
	ctx = logger.WithContext(ctx, log)
	e.rec.Search(e.strategy.String())
	start := e.now()

	var ranked []types.ResultRecord
	switch e.strategy {
	case types.StrategyDisabled:
		e.fetch(ctx, e.disabled, query, count)
	case types.StrategyStub, types.StrategyUnknown:
		ranked = e.scored(ctx, e.stub, query, count, cfg)
	case types.StrategyWebWithFallback:
		ranked = e.chain(ctx, query, count, cfg, e.web, e.news, e.stub)
	case types.StrategyNewsWithFallback:
		ranked = e.chain(ctx, query, count, cfg, e.news, e.web, e.stub)
	case types.StrategyHybrid:
		ranked = e.hybrid(ctx, query, count, cfg)
	}

	results := SelectDiverse(ranked, count)
	if len(results) == 0 {
		e.rec.Sentinel()
		log.Info("search returned no results", logger.Int("count", count))
		return []types.ResultRecord{NoResults(cfg.Language)}
	}

	log.Debug("search complete",
		logger.Int("candidates", len(ranked)),
		logger.Int("returned", len(results)),
		logger.Duration("elapsed", e.now().Sub(start)))
	return results
}

// fetch calls one adapter and records its outcome.
func (e *Engine) fetch(ctx context.Context, a Adapter, query string, count int) Fetch {
	f := a.Fetch(ctx, query, count)
	e.rec.ProviderFetch(a.Name(), f.Status.String())
	return f
}

// scored fetches from a, drops URL duplicates and scores the rest.
func (e *Engine) scored(ctx context.Context, a Adapter, query string, count int, cfg types.ScoringConfig) []types.ResultRecord {
	f := e.fetch(ctx, a, query, count)
	return Score(deduplicate(f.Records), query, cfg, e.now())
}

// chain tries each adapter in order and returns the first non-empty
// scored list.
func (e *Engine) chain(ctx context.Context, query string, count int, cfg types.ScoringConfig, adapters ...Adapter) []types.ResultRecord {
	for _, a := range adapters {
		if ranked := e.scored(ctx, a, query, count, cfg); len(ranked) > 0 {
			return ranked
		}
		logger.FromContext(ctx).Debug("provider returned nothing, falling back", logger.String("provider", a.Name()))
	}
	return nil
}

// hybrid queries both backends concurrently, merges web results ahead of
// news results, and falls back to the stub when the merge is empty.
func (e *Engine) hybrid(ctx context.Context, query string, count int, cfg types.ScoringConfig) []types.ResultRecord {
	limit := max(count, cfg.ResultLimit)

	var web, news Fetch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		web = e.fetch(gctx, e.web, query, limit)
		return nil
	})
	g.Go(func() error {
		news = e.fetch(gctx, e.news, query, limit)
		return nil
	})
	_ = g.Wait()

	merged := Merge(web.Records, news.Records, limit)
	if ranked := Score(merged, query, cfg, e.now()); len(ranked) > 0 {
		return ranked
	}
	return e.scored(ctx, e.stub, query, count, cfg)
}
