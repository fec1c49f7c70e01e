package location

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"sighting-engine/core/store"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	// UnknownPlace replaces country and region when geocoding yields nothing.
	UnknownPlace = "Unknown"
	// DefaultName labels a new location when no name was supplied or geocoded.
	DefaultName = "Unnamed Location"

	defaultProximityMeters = 10
)

// ErrInvalidPoint is returned for coordinates outside WGS84 bounds.
var ErrInvalidPoint = errors.New("coordinates out of range")

// Store is the subset of the repository the resolver needs.
type Store interface {
	LocationsByGeohashPrefixes(ctx context.Context, prefixes []string) ([]store.Location, error)
	FindLocationByPointKey(ctx context.Context, key string) (*store.Location, error)
	CreateLocation(ctx context.Context, loc *store.Location) error
	RenameLocation(ctx context.Context, id uint, name string) error
}

// Request asks for the location of a point.
type Request struct {
	Point Point
	// Name is the optional display name supplied by the caller.
	Name   string
	Origin string
}

// Resolution reports which location a point resolved to.
type Resolution struct {
	LocationID uint
	Created    bool
	Renamed    bool
}

// Resolver deduplicates locations by proximity.
type Resolver struct {
	store     Store
	geocoder  Geocoder
	threshold float64
	logger    *zap.Logger
}

// NewResolver creates a location resolver. A nil geocoder disables reverse geocoding.
func NewResolver(s Store, geocoder Geocoder, cfg Config, logger *zap.Logger) *Resolver {
	threshold := cfg.ProximityMeters
	if threshold <= 0 {
		threshold = defaultProximityMeters
	}
	return &Resolver{store: s, geocoder: geocoder, threshold: threshold, logger: logger}
}

// Resolve returns the location within the proximity threshold of the point,
// creating one when none exists.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	if !req.Point.Valid() {
		return nil, ErrInvalidPoint
	}
	name := strings.TrimSpace(req.Name)

	nearest, err := r.Nearest(ctx, req.Point)
	if err != nil {
		return nil, err
	}
	if nearest != nil {
		return r.reuse(ctx, nearest, name)
	}

	loc := r.build(ctx, req.Point, name, req.Origin)
	err = r.store.CreateLocation(ctx, loc)
	if errors.Is(err, store.ErrDuplicateKey) {
		winner, ferr := r.store.FindLocationByPointKey(ctx, loc.PointKey)
		if ferr != nil {
			return nil, fmt.Errorf("refetch location %s: %w", loc.PointKey, ferr)
		}
		r.logger.Debug("Location creation lost race", zap.Uint("location_id", winner.ID))
		return r.reuse(ctx, winner, name)
	}
	if err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}

	r.logger.Info("Created location",
		zap.Uint("location_id", loc.ID),
		zap.String("name", loc.Name),
		zap.Float64("latitude", loc.Latitude),
		zap.Float64("longitude", loc.Longitude),
		zap.String("continent", loc.Continent),
	)
	return &Resolution{LocationID: loc.ID, Created: true}, nil
}

// Nearest returns the closest stored location within the threshold, or nil.
func (r *Resolver) Nearest(ctx context.Context, p Point) (*store.Location, error) {
	candidates, err := r.store.LocationsByGeohashPrefixes(ctx, searchCells(p, r.threshold))
	if err != nil {
		return nil, err
	}
	var best *store.Location
	bestDist := math.Inf(1)
	for i := range candidates {
		c := &candidates[i]
		d := Distance(p, Point{Latitude: c.Latitude, Longitude: c.Longitude})
		if d <= r.threshold && d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, nil
}

// reuse renames an existing location when a different name was supplied.
func (r *Resolver) reuse(ctx context.Context, loc *store.Location, name string) (*Resolution, error) {
	res := &Resolution{LocationID: loc.ID}
	if name == "" || name == loc.Name {
		return res, nil
	}
	if err := r.store.RenameLocation(ctx, loc.ID, name); err != nil {
		return nil, fmt.Errorf("rename location %d: %w", loc.ID, err)
	}
	r.logger.Info("Renamed location", zap.Uint("location_id", loc.ID), zap.String("from", loc.Name), zap.String("to", name))
	res.Renamed = true
	return res, nil
}

func (r *Resolver) build(ctx context.Context, p Point, name, origin string) *store.Location {
	place := r.lookup(ctx, p)
	if name == "" {
		name = place.Name
	}
	if name == "" {
		name = DefaultName
	}
	if origin == "" {
		origin = store.OriginManual
	}
	gh := Geohash(p)
	return &store.Location{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Name:      name,
		Country:   orUnknown(place.Country),
		Region:    orUnknown(place.Region),
		Continent: Continent(p),
		Origin:    origin,
		Geometry:  datatypes.NewJSONType(store.NewGeoPoint(p.Latitude, p.Longitude)),
		Geohash:   gh,
		PointKey:  prefix(gh, pointPrecision),
	}
}

// lookup never fails: geocoding problems degrade to an unknown place.
func (r *Resolver) lookup(ctx context.Context, p Point) Place {
	if r.geocoder == nil {
		return Place{}
	}
	place, err := r.geocoder.Lookup(ctx, p.Latitude, p.Longitude)
	if err != nil {
		r.logger.Warn("Reverse geocoding failed, using unknown place",
			zap.Float64("latitude", p.Latitude),
			zap.Float64("longitude", p.Longitude),
			zap.Error(err),
		)
		return Place{}
	}
	return place
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return UnknownPlace
	}
	return s
}
