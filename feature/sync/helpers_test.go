package sync_test

import (
	"context"
	"errors"
	"testing"

	"sighting-engine/core/database"
	"sighting-engine/core/store"
	"sighting-engine/feature/identifier"
	"sighting-engine/feature/location"
	"sighting-engine/feature/sync"
	"sighting-engine/feature/sync/inaturalist"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const rootTaxon = 47158

// fakeSource serves canned taxa and observations, sliced into pages.
type fakeSource struct {
	taxa         []inaturalist.Taxon
	ancestors    map[int64]inaturalist.Taxon
	observations []inaturalist.Observation

	totalErr   error
	obsPageErr map[int]error

	taxaCalls     int
	taxonCalls    int
	obsPagesAsked []int
}

func (f *fakeSource) ListTaxa(_ context.Context, q inaturalist.TaxaQuery) (*inaturalist.Page[inaturalist.Taxon], error) {
	f.taxaCalls++
	if q.PerPage == 1 && f.totalErr != nil {
		return nil, f.totalErr
	}
	return &inaturalist.Page[inaturalist.Taxon]{
		TotalResults: len(f.taxa),
		Page:         q.Page,
		PerPage:      q.PerPage,
		Results:      slice(f.taxa, q.Page, q.PerPage),
	}, nil
}

func (f *fakeSource) GetTaxon(_ context.Context, id int64) (*inaturalist.Taxon, error) {
	f.taxonCalls++
	t, ok := f.ancestors[id]
	if !ok {
		return nil, inaturalist.ErrNotFound
	}
	return &t, nil
}

func (f *fakeSource) ListObservations(_ context.Context, q inaturalist.ObservationQuery) (*inaturalist.Page[inaturalist.Observation], error) {
	f.obsPagesAsked = append(f.obsPagesAsked, q.Page)
	if err := f.obsPageErr[q.Page]; err != nil {
		return nil, err
	}
	return &inaturalist.Page[inaturalist.Observation]{
		TotalResults: len(f.observations),
		Page:         q.Page,
		PerPage:      q.PerPage,
		Results:      slice(f.observations, q.Page, q.PerPage),
	}, nil
}

func slice[T any](all []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil
	}
	return all[start:min(start+perPage, len(all))]
}

func newSource() *fakeSource {
	return &fakeSource{
		taxa: []inaturalist.Taxon{
			{
				ID: 51110, Name: "Hylephila phyleus", Rank: "species",
				AncestorIDs:         []int64{48460, 1, 47120, rootTaxon, 47157, 47212, 51109, 51110},
				PreferredCommonName: "Fiery Skipper",
				DefaultPhoto:        &inaturalist.Photo{MediumURL: "https://static.inaturalist.org/photos/10/medium.jpg"},
			},
			{
				ID: 200, Name: "Apis mellifera", Rank: "species",
				AncestorIDs:         []int64{48460, 1, rootTaxon, 47201, 47220, 200},
				PreferredCommonName: "Western Honey Bee",
			},
			{ID: 300, Name: "Homo sapiens", Rank: "species", AncestorIDs: []int64{48460, 1, 2, 300}},
			{ID: 400, Name: "Mystery bug", Rank: "species", AncestorIDs: []int64{48460, rootTaxon, 400}},
		},
		ancestors: map[int64]inaturalist.Taxon{
			47212: {ID: 47212, Name: "Hesperiidae", Rank: "family"},
			51109: {ID: 51109, Name: "Hylephila", Rank: "genus"},
			47201: {ID: 47201, Name: "Apidae", Rank: "family"},
			47220: {ID: 47220, Name: "Apis", Rank: "genus"},
			rootTaxon: {ID: rootTaxon, Name: "Insecta", Rank: "class"},
		},
		observations: []inaturalist.Observation{
			{
				ID: 9001, URI: "https://www.inaturalist.org/observations/9001",
				QualityGrade:   "research",
				Description:    "On lantana",
				TimeObservedAt: "2025-06-22T20:45:00-05:00",
				Taxon:          &inaturalist.Taxon{ID: 51110, Name: "Hylephila phyleus"},
				User:           &inaturalist.User{ID: 7, Login: "ana", LoginExact: "Ana", Name: "Ana", CreatedAt: "2020-01-02T03:04:05+00:00"},
				GeoJSON:        &inaturalist.GeoJSON{Type: "Point", Coordinates: []float64{31.23573, 30.04439}},
				ObservationPhotos: []inaturalist.ObservationPhoto{
					{Photo: &inaturalist.Photo{URL: "https://static.inaturalist.org/photos/9/square.jpg"}},
				},
				Sounds: []inaturalist.Sound{{FileURL: "https://static.inaturalist.org/sounds/3.m4a"}},
				Comments: []inaturalist.Comment{
					{ID: 1, Body: "Nice!", CreatedAt: "2025-06-23T10:00:00+00:00", User: &inaturalist.User{Login: "ben"}},
					{ID: 2, Body: "Agreed", CreatedAt: "not a time"},
				},
			},
			{
				ID: 9002, URI: "https://www.inaturalist.org/observations/9002",
				QualityGrade:     "needs_id",
				ObservedOnString: "2025/06/21 8:05 AM",
				Taxon:            &inaturalist.Taxon{ID: 200, Name: "Apis mellifera"},
				User:             &inaturalist.User{ID: 7, Login: "ana", LoginExact: "Ana"},
			},
			{ID: 9003, Taxon: &inaturalist.Taxon{Name: "Danaus plexippus"}},
			{ID: 9004},
		},
	}
}

type fixture struct {
	store  *store.Store
	source *fakeSource
	engine *sync.Engine
}

func newFixture(t *testing.T, s sync.Store, raw *store.Store, source *fakeSource, cfg sync.Config) *fixture {
	t.Helper()
	logger := zap.NewNop()
	deps := sync.Dependencies{
		Source:    source,
		Store:     s,
		Locations: location.NewResolver(raw, nil, location.Config{ProximityMeters: 10}, logger),
		IDs:       identifier.NewAllocator(raw, 0),
	}
	return &fixture{store: raw, source: source, engine: sync.NewEngine(deps, cfg, logger)}
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	s := store.New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testConfig() sync.Config {
	return sync.Config{
		RootTaxonID:  rootTaxon,
		IconicTaxa:   "Insecta",
		QualityGrade: "research",
		PerPage:      200,
		MaxPages:     5,
	}
}

func count(t *testing.T, s *store.Store, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(model).Count(&n).Error)
	return n
}

// failingBatchStore rejects batch inserts so the per-item fallback runs.
type failingBatchStore struct {
	*store.Store
}

func (failingBatchStore) InsertSpeciesBatch(context.Context, []store.Species) (int64, error) {
	return 0, errors.New("batch rejected")
}
