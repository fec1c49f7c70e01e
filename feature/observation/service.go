package observation

import (
	"context"
	"errors"
	"fmt"

	"sighting-engine/core/metrics"
	"sighting-engine/core/middleware/auth"
	"sighting-engine/core/reconcile"
	"sighting-engine/core/store"
	"sighting-engine/feature/location"
	"sighting-engine/feature/media"
	"sighting-engine/feature/taxonomy"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Outcome is the result of a successful mutation.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Store is the subset of the repository the service needs.
type Store interface {
	GetObservationBySourceID(ctx context.Context, sourceID int64) (*store.Observation, error)
	CreateObservation(ctx context.Context, obs *store.Observation) error
	UpdateObservation(ctx context.Context, obs *store.Observation, changes map[string]any) error
	SetSpeciesImageIfEmpty(ctx context.Context, id uint, url string) (bool, error)
	SetSpeciesAudioIfEmpty(ctx context.Context, id uint, url string) (bool, error)
}

// TaxonomyResolver resolves submitted taxonomy.
type TaxonomyResolver interface {
	Resolve(ctx context.Context, in taxonomy.Input) (*taxonomy.Resolution, error)
}

// LocationResolver resolves submitted coordinates.
type LocationResolver interface {
	Resolve(ctx context.Context, req location.Request) (*location.Resolution, error)
}

// MediaReconciler stages media changes.
type MediaReconciler interface {
	Reconcile(ctx context.Context, req media.Request) (*media.Plan, error)
}

// Allocator draws public source ids.
type Allocator interface {
	Allocate(ctx context.Context) (int64, error)
}

// Dependencies are the collaborators of the service.
type Dependencies struct {
	Store     Store
	Taxonomy  TaxonomyResolver
	Locations LocationResolver
	Media     MediaReconciler
	IDs       Allocator
	Metrics   *metrics.Metrics
}

// Result describes a successful mutation.
type Result struct {
	ObservationID uint
	SourceID      int64
	Outcome       Outcome
	// Changes lists the columns an edit wrote, in diff order.
	Changes []reconcile.Change
}

// Service creates and edits observations.
type Service struct {
	deps   Dependencies
	cfg    Config
	logger *zap.Logger
}

// NewService creates a new observation service.
func NewService(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxInsertAttempts <= 0 {
		cfg.MaxInsertAttempts = 3
	}
	return &Service{deps: deps, cfg: cfg, logger: logger}
}

// Create validates a submission and inserts a new pending observation owned
// by the caller.
func (s *Service) Create(ctx context.Context, caller auth.Caller, sub Submission) (*Result, error) {
	res, err := s.create(ctx, caller, sub)
	s.record("create", res, err)
	return res, err
}

func (s *Service) create(ctx context.Context, caller auth.Caller, sub Submission) (*Result, error) {
	d, err := sub.parse(true, s.cfg.MaxFiles)
	if err != nil {
		return nil, err
	}

	tax, err := s.resolveTaxonomy(ctx, *d.taxonomy)
	if err != nil {
		return nil, err
	}
	locationID, err := s.resolveLocation(ctx, d)
	if err != nil {
		return nil, err
	}
	plan, err := s.reconcileMedia(ctx, media.Request{Uploads: sub.Uploads})
	if err != nil {
		return nil, err
	}

	obs := &store.Observation{
		LocationID:        &locationID,
		Timestamp:         *d.timestamp,
		Quantity:          *d.quantity,
		AdditionalDetails: *d.details,
		Photo:             plan.Photos,
		Audio:             plan.Audio,
		Status:            store.StatusPending,
		Origin:            store.OriginManual,
	}
	if caller.UserID != 0 {
		uid := caller.UserID
		obs.UserID = &uid
	}
	if tax.Complete() {
		sid := tax.SpeciesID
		obs.SpeciesID = &sid
	} else {
		obs.RawFamily = &tax.Snapshot.Family
		obs.RawGenus = &tax.Snapshot.Genus
		obs.RawSpecies = &tax.Snapshot.Species
	}

	if err := s.insert(ctx, obs); err != nil {
		plan.Discard(ctx)
		return nil, internal(err)
	}
	plan.Commit(ctx)
	s.linkSpeciesMedia(ctx, obs.SpeciesID, plan)

	s.logger.Info("Created observation",
		zap.Uint("observation_id", obs.ID),
		zap.Int64("source_id", obs.SourceID),
		zap.Bool("species_created", tax.Created),
	)
	return &Result{ObservationID: obs.ID, SourceID: obs.SourceID, Outcome: OutcomeCreated}, nil
}

// insert allocates a source id and inserts, drawing again when another
// writer took the id between the check and the insert.
func (s *Service) insert(ctx context.Context, obs *store.Observation) error {
	for attempt := 1; ; attempt++ {
		id, err := s.deps.IDs.Allocate(ctx)
		if err != nil {
			return fmt.Errorf("allocate source id: %w", err)
		}
		obs.ID = 0
		obs.SourceID = id

		err = s.deps.Store.CreateObservation(ctx, obs)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateKey) || attempt >= s.cfg.MaxInsertAttempts {
			return fmt.Errorf("insert observation: %w", err)
		}
		s.logger.Debug("Source id taken at insert, drawing again", zap.Int64("source_id", id), zap.Int("attempt", attempt))
	}
}

// Edit applies the supplied fields of a submission to the observation with
// the given source id. Only fields whose value changes are written; a
// submission that changes nothing reports OutcomeUnchanged without a write.
func (s *Service) Edit(ctx context.Context, caller auth.Caller, sourceID int64, sub Submission) (*Result, error) {
	res, err := s.edit(ctx, caller, sourceID, sub)
	s.record("edit", res, err)
	return res, err
}

func (s *Service) edit(ctx context.Context, caller auth.Caller, sourceID int64, sub Submission) (*Result, error) {
	obs, err := s.deps.Store.GetObservationBySourceID(ctx, sourceID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(fmt.Errorf("observation %d: %w", sourceID, err))
	}
	if err != nil {
		return nil, internal(err)
	}
	if !canEdit(caller, obs) {
		return nil, forbidden()
	}

	d, err := sub.parse(false, s.cfg.MaxFiles)
	if err != nil {
		return nil, err
	}

	cs := reconcile.NewChangeSet()
	// Representative species media only follows a newly linked species.
	var linked *uint

	if d.taxonomy != nil {
		tax, err := s.resolveTaxonomy(ctx, *d.taxonomy)
		if err != nil {
			return nil, err
		}
		diffTaxonomy(cs, obs, tax)
		if tax.Complete() && cs.Has("species_id") {
			linked = &tax.SpeciesID
		}
	}

	if d.point != nil {
		locationID, err := s.resolveLocation(ctx, d)
		if err != nil {
			return nil, err
		}
		reconcile.ComparePtr(cs, "location_id", obs.LocationID, &locationID)
	}

	if d.timestamp != nil && !obs.Timestamp.Equal(*d.timestamp) {
		cs.Set("timestamp", obs.Timestamp, *d.timestamp)
	}
	if d.quantity != nil {
		reconcile.Compare(cs, "quantity", obs.Quantity, *d.quantity)
	}
	if d.details != nil {
		reconcile.Compare(cs, "additional_details", obs.AdditionalDetails, *d.details)
	}

	req := media.Request{
		CurrentPhotos: obs.Photo,
		CurrentAudio:  obs.Audio,
		KeepPhotos:    sub.KeepPhotos,
		KeepAudio:     sub.KeepAudio,
		Uploads:       sub.Uploads,
	}
	var plan *media.Plan
	if req.Touched() {
		if plan, err = s.reconcileMedia(ctx, req); err != nil {
			return nil, err
		}
		reconcile.CompareSlice(cs, "photo", obs.Photo, datatypes.JSONSlice[string](plan.Photos))
		reconcile.CompareSlice(cs, "audio", obs.Audio, datatypes.JSONSlice[string](plan.Audio))
	}

	result := &Result{ObservationID: obs.ID, SourceID: obs.SourceID, Outcome: OutcomeUnchanged}
	if cs.Empty() {
		if plan != nil {
			plan.Discard(ctx)
		}
		s.logger.Debug("Edit changed nothing", zap.Int64("source_id", obs.SourceID))
		return result, nil
	}

	if err := s.deps.Store.UpdateObservation(ctx, obs, cs.Map()); err != nil {
		if plan != nil {
			plan.Discard(ctx)
		}
		return nil, internal(fmt.Errorf("update observation %d: %w", obs.ID, err))
	}
	if plan != nil {
		plan.Commit(ctx)
		s.linkSpeciesMedia(ctx, linked, plan)
	}

	s.logger.Info("Updated observation",
		zap.Uint("observation_id", obs.ID),
		zap.Int64("source_id", obs.SourceID),
		zap.Strings("changes", cs.Mismatches()),
	)
	result.Outcome = OutcomeUpdated
	result.Changes = cs.Changes()
	return result, nil
}

func canEdit(caller auth.Caller, obs *store.Observation) bool {
	if caller.Moderator {
		return true
	}
	return obs.UserID != nil && caller.UserID != 0 && *obs.UserID == caller.UserID
}

// diffTaxonomy records the switch between the two taxonomy representations.
// Whichever representation is replaced is cleared explicitly.
func diffTaxonomy(cs *reconcile.ChangeSet, obs *store.Observation, tax *taxonomy.Resolution) {
	if tax.Complete() {
		reconcile.ComparePtr(cs, "species_id", obs.SpeciesID, &tax.SpeciesID)
		reconcile.ComparePtr[string](cs, "raw_family", obs.RawFamily, nil)
		reconcile.ComparePtr[string](cs, "raw_genus", obs.RawGenus, nil)
		reconcile.ComparePtr[string](cs, "raw_species", obs.RawSpecies, nil)
		return
	}
	reconcile.ComparePtr[uint](cs, "species_id", obs.SpeciesID, nil)
	reconcile.ComparePtr(cs, "raw_family", obs.RawFamily, &tax.Snapshot.Family)
	reconcile.ComparePtr(cs, "raw_genus", obs.RawGenus, &tax.Snapshot.Genus)
	reconcile.ComparePtr(cs, "raw_species", obs.RawSpecies, &tax.Snapshot.Species)
	if tax.MarkPending {
		reconcile.Compare(cs, "status", obs.Status, store.StatusPending)
	}
}

func (s *Service) resolveTaxonomy(ctx context.Context, in taxonomy.Input) (*taxonomy.Resolution, error) {
	tax, err := s.deps.Taxonomy.Resolve(ctx, in)
	if errors.Is(err, taxonomy.ErrMissingFamily) {
		return nil, invalid("family", msgRequired)
	}
	if err != nil {
		return nil, internal(fmt.Errorf("resolve taxonomy: %w", err))
	}
	return tax, nil
}

func (s *Service) resolveLocation(ctx context.Context, d *draft) (uint, error) {
	loc, err := s.deps.Locations.Resolve(ctx, location.Request{
		Point:  *d.point,
		Name:   d.locationName,
		Origin: store.OriginManual,
	})
	if errors.Is(err, location.ErrInvalidPoint) {
		return 0, invalid("latitude", msgNumber)
	}
	if err != nil {
		return 0, internal(fmt.Errorf("resolve location: %w", err))
	}
	return loc.LocationID, nil
}

func (s *Service) reconcileMedia(ctx context.Context, req media.Request) (*media.Plan, error) {
	plan, err := s.deps.Media.Reconcile(ctx, req)
	if errors.Is(err, media.ErrUnsupportedType) {
		return nil, invalid("media_files", err.Error())
	}
	if err != nil {
		return nil, internal(fmt.Errorf("store media: %w", err))
	}
	return plan, nil
}

// linkSpeciesMedia gives a species without representative media the first
// newly uploaded photo and audio. Failures only cost the link.
func (s *Service) linkSpeciesMedia(ctx context.Context, speciesID *uint, plan *media.Plan) {
	if speciesID == nil {
		return
	}
	if len(plan.NewPhotos) > 0 {
		if _, err := s.deps.Store.SetSpeciesImageIfEmpty(ctx, *speciesID, plan.NewPhotos[0]); err != nil {
			s.logger.Warn("Failed to set species image", zap.Uint("species_id", *speciesID), zap.Error(err))
		}
	}
	if len(plan.NewAudio) > 0 {
		if _, err := s.deps.Store.SetSpeciesAudioIfEmpty(ctx, *speciesID, plan.NewAudio[0]); err != nil {
			s.logger.Warn("Failed to set species audio", zap.Uint("species_id", *speciesID), zap.Error(err))
		}
	}
}

func (s *Service) record(operation string, res *Result, err error) {
	outcome := string(KindOf(err))
	if err == nil {
		outcome = string(res.Outcome)
	} else if KindOf(err) == KindInternal {
		s.logger.Error("Observation mutation failed", zap.String("operation", operation), zap.Error(err))
	}
	s.deps.Metrics.RecordMutation(operation, outcome)
}
