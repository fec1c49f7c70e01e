package store

import (
	"context"
	"testing"
	"time"

	"sighting-engine/core/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func ptr[T any](v T) *T { return &v }

func TestMigrate_ExpectedColumns(t *testing.T) {
	s := newTestStore(t)
	issues, err := database.VerifySchema(s.DB(), ExpectedColumns())
	assert.NoError(t, err)
	assert.Empty(t, issues)
}

func TestSpecies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sp := &Species{Family: "Hesperiidae", Genus: "Hylephila", Name: "Hylephila phyleus", CommonName: "Fiery Skipper"}
	require.NoError(t, s.CreateSpecies(ctx, sp))
	assert.NotZero(t, sp.ID)

	t.Run("Duplicate Triple", func(t *testing.T) {
		dup := &Species{Family: "Hesperiidae", Genus: "Hylephila", Name: "Hylephila phyleus"}
		assert.ErrorIs(t, s.CreateSpecies(ctx, dup), ErrDuplicateKey)
	})

	t.Run("Find", func(t *testing.T) {
		got, err := s.FindSpecies(ctx, "Hesperiidae", "Hylephila", "Hylephila phyleus")
		assert.NoError(t, err)
		assert.Equal(t, sp.ID, got.ID)

		_, err = s.FindSpecies(ctx, "Hesperiidae", "Hylephila", "Other")
		assert.ErrorIs(t, err, ErrNotFound)

		byName, err := s.FindSpeciesByName(ctx, "Hylephila phyleus")
		assert.NoError(t, err)
		assert.Equal(t, sp.ID, byName.ID)
	})

	t.Run("Batch Skips Existing", func(t *testing.T) {
		n, err := s.InsertSpeciesBatch(ctx, []Species{
			{Family: "Hesperiidae", Genus: "Hylephila", Name: "Hylephila phyleus"},
			{Family: "Nymphalidae", Genus: "Danaus", Name: "Danaus plexippus"},
		})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), n)

		names, err := s.ExistingSpeciesNames(ctx, []string{"Danaus plexippus", "Apis mellifera"})
		assert.NoError(t, err)
		assert.Contains(t, names, "Danaus plexippus")
		assert.NotContains(t, names, "Apis mellifera")
	})

	t.Run("Representative Image Set Once", func(t *testing.T) {
		set, err := s.SetSpeciesImageIfEmpty(ctx, sp.ID, "http://media/uploads/a.jpg")
		assert.NoError(t, err)
		assert.True(t, set)

		set, err = s.SetSpeciesImageIfEmpty(ctx, sp.ID, "http://media/uploads/b.jpg")
		assert.NoError(t, err)
		assert.False(t, set)

		got, err := s.GetSpecies(ctx, sp.ID)
		assert.NoError(t, err)
		assert.Equal(t, "http://media/uploads/a.jpg", got.ImageURL)
		assert.Empty(t, got.AudioURL)
	})
}

func TestObservationCounters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := &Species{Family: "F", Genus: "G", Name: "G a"}
	b := &Species{Family: "F", Genus: "G", Name: "G b"}
	require.NoError(t, s.CreateSpecies(ctx, a))
	require.NoError(t, s.CreateSpecies(ctx, b))

	obs := &Observation{SourceID: 123456789, SpeciesID: &a.ID, Timestamp: time.Now(), Quantity: 1, Status: StatusPending, Origin: OriginManual}
	require.NoError(t, s.CreateObservation(ctx, obs))

	got, _ := s.GetSpecies(ctx, a.ID)
	assert.Equal(t, int64(1), got.ObservationsCount)

	t.Run("Source ID Collision", func(t *testing.T) {
		clash := &Observation{SourceID: 123456789, Timestamp: time.Now(), Quantity: 1}
		assert.ErrorIs(t, s.CreateObservation(ctx, clash), ErrDuplicateKey)
		exists, err := s.SourceIDExists(ctx, 123456789)
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Move Species", func(t *testing.T) {
		require.NoError(t, s.UpdateObservation(ctx, obs, map[string]any{"species_id": b.ID}))
		ga, _ := s.GetSpecies(ctx, a.ID)
		gb, _ := s.GetSpecies(ctx, b.ID)
		assert.Equal(t, int64(0), ga.ObservationsCount)
		assert.Equal(t, int64(1), gb.ObservationsCount)
	})

	t.Run("Clear To Raw Snapshot", func(t *testing.T) {
		current, err := s.GetObservationBySourceID(ctx, 123456789)
		require.NoError(t, err)
		require.NoError(t, s.UpdateObservation(ctx, current, map[string]any{
			"species_id":  nil,
			"raw_family":  "F",
			"raw_genus":   "All",
			"raw_species": "All",
		}))
		gb, _ := s.GetSpecies(ctx, b.ID)
		assert.Equal(t, int64(0), gb.ObservationsCount)

		reloaded, err := s.GetObservationBySourceID(ctx, 123456789)
		require.NoError(t, err)
		assert.Nil(t, reloaded.SpeciesID)
		snap, ok := reloaded.RawTaxonomy()
		assert.True(t, ok)
		assert.Equal(t, TaxonomySnapshot{Family: "F", Genus: "All", Species: "All"}, snap)
	})

	t.Run("Recount", func(t *testing.T) {
		require.NoError(t, s.CreateComment(ctx, &Comment{ObservationID: obs.ID, Text: "nice", Timestamp: time.Now()}))
		// Drift the counter on purpose.
		require.NoError(t, s.DB().Model(&Species{}).Where("id = ?", a.ID).UpdateColumn("observations_count", 9).Error)

		_, err := s.RecountSpeciesObservations(ctx)
		assert.NoError(t, err)
		_, err = s.RecountComments(ctx)
		assert.NoError(t, err)

		ga, _ := s.GetSpecies(ctx, a.ID)
		assert.Equal(t, int64(0), ga.ObservationsCount)
		reloaded, _ := s.GetObservationBySourceID(ctx, 123456789)
		assert.Equal(t, int64(1), reloaded.CommentsCount)
	})
}

func TestExternalIDExists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateObservation(ctx, &Observation{SourceID: 555, ExternalID: ptr(int64(555)), Timestamp: time.Now(), Quantity: 1}))
	ok, err := s.ExternalIDExists(ctx, 555)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ExternalIDExists(ctx, 556)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLocationsByGeohashPrefixes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, l := range []Location{
		{Name: "A", Geohash: "9q8yyk8yuv12", PointKey: "9q8yyk8yu", Geometry: datatypes.NewJSONType(NewGeoPoint(37.77, -122.41))},
		{Name: "B", Geohash: "9q8yykzzzzzz", PointKey: "9q8yykzzz"},
		{Name: "C", Geohash: "u4pruydqqvj8", PointKey: "u4pruydqq"},
	} {
		loc := l
		require.NoError(t, s.CreateLocation(ctx, &loc))
	}

	locs, err := s.LocationsByGeohashPrefixes(ctx, []string{"9q8yyk", "u4pruy"})
	assert.NoError(t, err)
	assert.Len(t, locs, 3)

	locs, err = s.LocationsByGeohashPrefixes(ctx, []string{"9q8yyk"})
	assert.NoError(t, err)
	assert.Len(t, locs, 2)
	assert.Equal(t, -122.41, locs[0].Geometry.Data().Coordinates[0])

	dup := &Location{Name: "D", Geohash: "9q8yyk8yuv99", PointKey: "9q8yyk8yu"}
	assert.ErrorIs(t, s.CreateLocation(ctx, dup), ErrDuplicateKey)

	assert.NoError(t, s.RenameLocation(ctx, locs[0].ID, "Golden Gate Park"))
	renamed, err := s.GetLocation(ctx, locs[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, "Golden Gate Park", renamed.Name)
	assert.ErrorIs(t, s.RenameLocation(ctx, 9999, "x"), ErrNotFound)
}

func TestGetOrCreateUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u, created, err := s.GetOrCreateUser(ctx, &User{Username: "inaturalist-ana", Source: "inaturalist"})
	assert.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.GetOrCreateUser(ctx, &User{Username: "inaturalist-ana"})
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
}

func TestRecountSpeciesObservations_SQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE species SET observations_count = \(SELECT COUNT\(\*\) FROM observations WHERE observations.species_id = species.id\)`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := New(db).RecountSpeciesObservations(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
