package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sighting-engine/core/metrics"
	"sighting-engine/core/store"
	"sighting-engine/feature/location"
	"sighting-engine/feature/sync/inaturalist"

	"go.uber.org/zap"
)

// ErrExpectedTotal is returned when the species total cannot be learned.
// Nothing has been written when it occurs.
var ErrExpectedTotal = errors.New("fetch expected species total")

// Source is the external taxonomy and observation API.
type Source interface {
	ListTaxa(ctx context.Context, q inaturalist.TaxaQuery) (*inaturalist.Page[inaturalist.Taxon], error)
	GetTaxon(ctx context.Context, id int64) (*inaturalist.Taxon, error)
	ListObservations(ctx context.Context, q inaturalist.ObservationQuery) (*inaturalist.Page[inaturalist.Observation], error)
}

// Store is the subset of the repository the engine needs.
type Store interface {
	ExistingSpeciesNames(ctx context.Context, names []string) (map[string]struct{}, error)
	InsertSpeciesBatch(ctx context.Context, batch []store.Species) (int64, error)
	CreateSpecies(ctx context.Context, sp *store.Species) error
	FindSpeciesByName(ctx context.Context, name string) (*store.Species, error)
	ExternalIDExists(ctx context.Context, externalID int64) (bool, error)
	SourceIDExists(ctx context.Context, sourceID int64) (bool, error)
	GetOrCreateUser(ctx context.Context, u *store.User) (*store.User, bool, error)
	CreateObservation(ctx context.Context, obs *store.Observation) error
	CreateComment(ctx context.Context, c *store.Comment) error
	RecountSpeciesObservations(ctx context.Context) (int64, error)
	RecountComments(ctx context.Context) (int64, error)
}

// LocationResolver resolves imported coordinates.
type LocationResolver interface {
	Resolve(ctx context.Context, req location.Request) (*location.Resolution, error)
}

// Allocator draws a public source id when the external id is already taken.
type Allocator interface {
	Allocate(ctx context.Context) (int64, error)
}

// Dependencies are the collaborators of the engine.
type Dependencies struct {
	Source    Source
	Store     Store
	Locations LocationResolver
	IDs       Allocator
	Metrics   *metrics.Metrics
}

// Report summarises one run.
type Report struct {
	SpeciesInserted       int   `json:"species_inserted"`
	ObservationsInserted  int   `json:"observations_inserted"`
	CommentsInserted      int   `json:"comments_inserted"`
	SpeciesRecounted      int64 `json:"species_recounted"`
	ObservationsRecounted int64 `json:"observations_recounted"`
}

// Engine imports species and observations from the external source.
type Engine struct {
	deps   Dependencies
	cfg    Config
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a sync engine.
func NewEngine(deps Dependencies, cfg Config, logger *zap.Logger) *Engine {
	return &Engine{deps: deps, cfg: cfg, logger: logger, sleep: sleepContext}
}

// Run performs a full import: species, then observations with their
// comments, then a recount of the denormalised counters. Per-record failures
// are logged and skipped; only an unknown species total or a cancelled
// context fails the run.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}

	err := e.run(ctx, report)
	e.deps.Metrics.RecordSyncRun(time.Since(start), err)
	if err != nil {
		e.logger.Error("Sync run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return report, err
	}

	e.logger.Info("Sync run completed",
		zap.Int("species", report.SpeciesInserted),
		zap.Int("observations", report.ObservationsInserted),
		zap.Int("comments", report.CommentsInserted),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

func (e *Engine) run(ctx context.Context, report *Report) error {
	species, err := e.importSpecies(ctx)
	report.SpeciesInserted = species
	e.deps.Metrics.AddSyncRecords("species", "inserted", species)
	if err != nil {
		return err
	}

	observations, comments, err := e.importObservations(ctx)
	report.ObservationsInserted = observations
	report.CommentsInserted = comments
	e.deps.Metrics.AddSyncRecords("observation", "inserted", observations)
	e.deps.Metrics.AddSyncRecords("comment", "inserted", comments)
	if err != nil {
		return err
	}

	report.SpeciesRecounted, report.ObservationsRecounted, err = e.Finalize(ctx)
	return err
}

// Finalize recomputes every species observation count and every observation
// comment count. It returns the number of rows touched per table.
func (e *Engine) Finalize(ctx context.Context) (int64, int64, error) {
	species, err := e.deps.Store.RecountSpeciesObservations(ctx)
	if err != nil {
		return 0, 0, err
	}
	observations, err := e.deps.Store.RecountComments(ctx)
	if err != nil {
		return species, 0, err
	}
	e.logger.Info("Recounted counters",
		zap.Int64("species", species),
		zap.Int64("observations", observations),
	)
	return species, observations, nil
}

func (e *Engine) skip(kind, reason string, n int) {
	e.deps.Metrics.AddSyncRecords(kind, reason, n)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func wrapExpected(err error) error {
	return fmt.Errorf("%w: %w", ErrExpectedTotal, err)
}
