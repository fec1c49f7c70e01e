package cmd

import (
	"fmt"
	"time"

	"sighting-engine/core/config"
	"sighting-engine/core/database"
	"sighting-engine/core/logger"
	"sighting-engine/core/metrics"
	"sighting-engine/core/store"
	"sighting-engine/feature/identifier"
	"sighting-engine/feature/location"
	"sighting-engine/feature/sync"
	"sighting-engine/feature/sync/inaturalist"

	"go.uber.org/zap"
)

// runtime is the shared state every command builds on.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	metrics *metrics.Metrics
}

// bootstrap loads configuration, builds the logger and connects the database.
func bootstrap() (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}

	m, err := metrics.New()
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &runtime{cfg: cfg, logger: logg, store: store.New(db), metrics: m}, nil
}

// locations builds the location resolver, with reverse geocoding when enabled.
func (r *runtime) locations() *location.Resolver {
	var geocoder location.Geocoder
	if r.cfg.Location.GeocoderEnabled {
		geocoder = location.NewNominatim(r.cfg.Location, r.metrics)
	}
	return location.NewResolver(r.store, geocoder, r.cfg.Location, r.logger)
}

func (r *runtime) allocator() *identifier.Allocator {
	return identifier.NewAllocator(r.store, r.cfg.Observation.MaxIdentifierAttempts)
}

// syncDependencies wires the import engine to iNaturalist.
func (r *runtime) syncDependencies(locations *location.Resolver) sync.Dependencies {
	cfg := r.cfg.Sync
	client := inaturalist.NewClient(inaturalist.Options{
		BaseURL:           cfg.BaseURL,
		UserAgent:         cfg.UserAgent,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
		CacheTTL:          cfg.CacheTTL,
	})
	return sync.Dependencies{
		Source:    client,
		Store:     r.store,
		Locations: locations,
		IDs:       r.allocator(),
		Metrics:   r.metrics,
	}
}
