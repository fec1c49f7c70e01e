package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sighting-engine/core/store"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrMissingFamily is returned when a taxonomy has no family.
var ErrMissingFamily = errors.New("family is required")

// SpeciesStore is the subset of the repository the resolver needs.
type SpeciesStore interface {
	FindSpecies(ctx context.Context, family, genus, name string) (*store.Species, error)
	CreateSpecies(ctx context.Context, sp *store.Species) error
}

// Input is a submitted taxonomy.
type Input struct {
	Family     string
	Genus      Level
	Species    Level
	CommonName string
}

// Complete reports whether genus and species are both known.
func (in Input) Complete() bool {
	return in.Genus.IsKnown() && in.Species.IsKnown()
}

// Snapshot renders the input as a raw taxonomy snapshot with sentinels.
func (in Input) Snapshot() store.TaxonomySnapshot {
	return store.TaxonomySnapshot{
		Family:  in.Family,
		Genus:   in.Genus.String(),
		Species: in.Species.String(),
	}
}

// Resolution is the outcome of resolving a taxonomy: either a species
// reference or a raw snapshot, never both.
type Resolution struct {
	SpeciesID uint
	Created   bool
	Snapshot  *store.TaxonomySnapshot
	// MarkPending tells the caller the owning observation must be pending.
	MarkPending bool
}

// Complete reports whether the resolution references a species.
func (r *Resolution) Complete() bool {
	return r.Snapshot == nil
}

// Resolver maps taxonomy triples to canonical species.
type Resolver struct {
	store  SpeciesStore
	logger *zap.Logger
	group  singleflight.Group
}

// NewResolver creates a taxonomy resolver.
func NewResolver(s SpeciesStore, logger *zap.Logger) *Resolver {
	return &Resolver{store: s, logger: logger}
}

// Resolve returns the species for a complete taxonomy, creating it when
// absent, or a raw snapshot for an incomplete one.
func (r *Resolver) Resolve(ctx context.Context, in Input) (*Resolution, error) {
	in.Family = strings.TrimSpace(in.Family)
	if in.Family == "" {
		return nil, ErrMissingFamily
	}

	if !in.Complete() {
		snap := in.Snapshot()
		return &Resolution{Snapshot: &snap, MarkPending: true}, nil
	}

	genus, _ := in.Genus.Value()
	name, _ := in.Species.Value()
	key := in.Family + "\x00" + genus + "\x00" + name

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.getOrCreate(ctx, in.Family, genus, name, in.CommonName)
	})
	if err != nil {
		return nil, err
	}
	// Coalesced callers each get their own copy.
	res := *v.(*Resolution)
	return &res, nil
}

func (r *Resolver) getOrCreate(ctx context.Context, family, genus, name, commonName string) (*Resolution, error) {
	existing, err := r.store.FindSpecies(ctx, family, genus, name)
	if err == nil {
		return &Resolution{SpeciesID: existing.ID}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find species: %w", err)
	}

	sp := &store.Species{
		Family:     family,
		Genus:      genus,
		Name:       name,
		CommonName: strings.TrimSpace(commonName),
	}
	if sp.CommonName == "" {
		sp.CommonName = name
	}

	if err := r.store.CreateSpecies(ctx, sp); err != nil {
		if !errors.Is(err, store.ErrDuplicateKey) {
			return nil, fmt.Errorf("create species: %w", err)
		}
		// Another writer created the triple first.
		winner, ferr := r.store.FindSpecies(ctx, family, genus, name)
		if ferr != nil {
			return nil, fmt.Errorf("refetch species: %w", ferr)
		}
		r.logger.Debug("Species creation lost race", zap.String("species", name), zap.Uint("species_id", winner.ID))
		return &Resolution{SpeciesID: winner.ID}, nil
	}

	r.logger.Info("Created species",
		zap.Uint("species_id", sp.ID),
		zap.String("family", family),
		zap.String("genus", genus),
		zap.String("species", name),
	)
	return &Resolution{SpeciesID: sp.ID, Created: true}, nil
}
