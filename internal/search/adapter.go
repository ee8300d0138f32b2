// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"

	"github.com/pdiddy/evidence-engine/internal/logger"
	"github.com/pdiddy/evidence-engine/internal/metrics"
	"github.com/pdiddy/evidence-engine/internal/snapshot"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Status is the per-call outcome of an adapter fetch.
type Status int

const (
	// StatusOK means the adapter answered with at least one record.
	StatusOK Status = iota
	// StatusEmpty means the adapter answered normally with no records.
	StatusEmpty
	// StatusDegraded means the live backend failed and the records came
	// from the offline snapshot or the stub.
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Fetch is the result of one adapter call.
type Fetch struct {
	Records []types.ResultRecord
	Status  Status

	// Err is the backend failure behind a degraded fetch.
	Err error
}

// Adapter converts one provider into normalized records. Fetch never
// fails: problems are reported through Fetch.Status.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, query string, count int) Fetch
}

// Backend searches a single external API. Each network provider implements
// this interface; liveAdapter turns its errors into degraded fetches.
type Backend interface {
	Name() string
	Source() types.Source
	Search(ctx context.Context, query string, count int) ([]types.ResultRecord, error)
}

func fetchOf(records []types.ResultRecord) Fetch {
	if len(records) == 0 {
		return Fetch{Status: StatusEmpty}
	}
	return Fetch{Records: records, Status: StatusOK}
}

// DisabledAdapter is used when search is switched off.
type DisabledAdapter struct{}

func (DisabledAdapter) Name() string { return string(types.SourceNone) }

func (DisabledAdapter) Fetch(context.Context, string, int) Fetch {
	return Fetch{Status: StatusEmpty}
}

// liveAdapter calls a network Backend exactly once. On failure it answers
// from the offline snapshot, and failing that from the stub.
type liveAdapter struct {
	backend  Backend
	snapshot *snapshot.Cache
	stub     Adapter
	rec      metrics.Recorder
}

func (a *liveAdapter) Name() string { return a.backend.Name() }

func (a *liveAdapter) Fetch(ctx context.Context, query string, count int) Fetch {
	if count <= 0 {
		return Fetch{Status: StatusEmpty}
	}

	records, err := a.backend.Search(ctx, query, count)
	if err == nil {
		return fetchOf(records)
	}

	log := logger.FromContext(ctx).With(logger.String("provider", a.backend.Name()))

	if cached, ok := a.snapshot.Lookup(query); ok {
		a.rec.SnapshotLookup(true)
		log.Warn("search backend offline, serving snapshot",
			logger.Error(err), logger.Bool("snapshot_hit", true), logger.Int("records", len(cached)))
		for i := range cached {
			if cached[i].Source == "" {
				cached[i].Source = a.backend.Source()
			}
		}
		if len(cached) > count {
			cached = cached[:count]
		}
		return Fetch{Records: cached, Status: StatusDegraded, Err: err}
	}

	a.rec.SnapshotLookup(false)
	log.Warn("search backend offline, serving stub results",
		logger.Error(err), logger.Bool("snapshot_hit", false))
	return Fetch{Records: a.stub.Fetch(ctx, query, count).Records, Status: StatusDegraded, Err: err}
}
