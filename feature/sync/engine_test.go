package sync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sighting-engine/core/store"
	"sighting-engine/feature/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ImportsSpeciesObservationsAndComments(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := newFixture(t, s, s, newSource(), testConfig())

	manual := &store.Observation{SourceID: 9002, Timestamp: time.Now(), Quantity: 1, Status: store.StatusPending, Origin: store.OriginManual}
	require.NoError(t, s.CreateObservation(ctx, manual))

	report, err := f.engine.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.SpeciesInserted)
	assert.Equal(t, 2, report.ObservationsInserted)
	assert.Equal(t, 2, report.CommentsInserted)

	t.Run("Species", func(t *testing.T) {
		skipper, err := s.FindSpeciesByName(ctx, "Hylephila phyleus")
		require.NoError(t, err)
		assert.Equal(t, "Hesperiidae", skipper.Family)
		assert.Equal(t, "Hylephila", skipper.Genus)
		assert.Equal(t, "Fiery Skipper", skipper.CommonName)
		assert.Equal(t, "https://static.inaturalist.org/photos/10/medium.jpg", skipper.ImageURL)
		assert.Equal(t, int64(1), skipper.ObservationsCount)

		bee, err := s.FindSpeciesByName(ctx, "Apis mellifera")
		require.NoError(t, err)
		assert.Equal(t, "Apidae", bee.Family)
		assert.Equal(t, "Apis", bee.Genus)

		for _, name := range []string{"Homo sapiens", "Mystery bug"} {
			_, err := s.FindSpeciesByName(ctx, name)
			assert.ErrorIs(t, err, store.ErrNotFound, name)
		}
	})

	t.Run("Observation Keeps External Id As Source Id", func(t *testing.T) {
		obs, err := s.GetObservationBySourceID(ctx, 9001)
		require.NoError(t, err)
		require.NotNil(t, obs.ExternalID)
		assert.Equal(t, int64(9001), *obs.ExternalID)
		assert.Equal(t, store.StatusVerified, obs.Status)
		assert.Equal(t, store.OriginExternal, obs.Origin)
		assert.Equal(t, 1, obs.Quantity)
		assert.Equal(t, "On lantana", obs.AdditionalDetails)
		assert.Equal(t, "https://www.inaturalist.org/observations/9001", obs.ExternalLink)
		assert.Equal(t, []string{"https://static.inaturalist.org/photos/9/medium.jpg"}, []string(obs.Photo))
		assert.Equal(t, []string{"https://static.inaturalist.org/sounds/3.m4a"}, []string(obs.Audio))
		assert.True(t, time.Date(2025, 6, 23, 1, 45, 0, 0, time.UTC).Equal(obs.Timestamp))
		assert.Equal(t, int64(2), obs.CommentsCount)

		require.NotNil(t, obs.LocationID)
		loc, err := s.GetLocation(ctx, *obs.LocationID)
		require.NoError(t, err)
		assert.Equal(t, store.OriginExternal, loc.Origin)
		assert.InDelta(t, 30.04439, loc.Latitude, 1e-9)
		assert.InDelta(t, 31.23573, loc.Longitude, 1e-9)

		require.NotNil(t, obs.UserID)
		user, err := s.GetUser(ctx, *obs.UserID)
		require.NoError(t, err)
		assert.Equal(t, "inaturalist-Ana", user.Username)
		assert.Equal(t, "inaturalist", user.Source)
		assert.True(t, user.HasRole("user"))
	})

	t.Run("Taken Source Id Is Reallocated", func(t *testing.T) {
		var obs store.Observation
		require.NoError(t, s.DB().Where("external_id = ?", 9002).Take(&obs).Error)
		assert.NotEqual(t, int64(9002), obs.SourceID)
		assert.GreaterOrEqual(t, obs.SourceID, int64(100000000))
		assert.Equal(t, store.StatusPending, obs.Status)
		assert.Nil(t, obs.LocationID)
		assert.True(t, time.Date(2025, 6, 21, 8, 5, 0, 0, time.UTC).Equal(obs.Timestamp))
	})

	t.Run("Comments", func(t *testing.T) {
		var comments []store.Comment
		require.NoError(t, s.DB().Order("id").Find(&comments).Error)
		require.Len(t, comments, 2)

		ben, err := s.FindUserByUsername(ctx, "inaturalist-ben")
		require.NoError(t, err)
		ana, err := s.FindUserByUsername(ctx, "inaturalist-Ana")
		require.NoError(t, err)

		assert.Equal(t, "Nice!", comments[0].Text)
		require.NotNil(t, comments[0].UserID)
		assert.Equal(t, ben.ID, *comments[0].UserID)
		assert.True(t, time.Date(2025, 6, 23, 10, 0, 0, 0, time.UTC).Equal(comments[0].Timestamp))

		require.NotNil(t, comments[1].UserID)
		assert.Equal(t, ana.ID, *comments[1].UserID)
	})
}

func TestRun_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := newFixture(t, s, s, newSource(), testConfig())

	_, err := f.engine.Run(ctx)
	require.NoError(t, err)
	species := count(t, s, &store.Species{})
	observations := count(t, s, &store.Observation{})
	comments := count(t, s, &store.Comment{})
	users := count(t, s, &store.User{})
	locations := count(t, s, &store.Location{})

	report, err := f.engine.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.SpeciesInserted)
	assert.Zero(t, report.ObservationsInserted)
	assert.Zero(t, report.CommentsInserted)

	assert.Equal(t, species, count(t, s, &store.Species{}))
	assert.Equal(t, observations, count(t, s, &store.Observation{}))
	assert.Equal(t, comments, count(t, s, &store.Comment{}))
	assert.Equal(t, users, count(t, s, &store.User{}))
	assert.Equal(t, locations, count(t, s, &store.Location{}))
}

func TestRun_ExpectedTotalFailureIsFatal(t *testing.T) {
	s := newStore(t)
	source := newSource()
	source.totalErr = errors.New("503 service unavailable")
	f := newFixture(t, s, s, source, testConfig())

	report, err := f.engine.Run(context.Background())
	assert.ErrorIs(t, err, sync.ErrExpectedTotal)
	assert.ErrorContains(t, err, "503")
	assert.Zero(t, report.SpeciesInserted)
	assert.Equal(t, 1, source.taxaCalls)
	assert.Empty(t, source.obsPagesAsked)
	assert.Zero(t, count(t, s, &store.Species{}))
}

func TestRun_StopsWhenExpectedTotalCovered(t *testing.T) {
	s := newStore(t)
	source := newSource()
	cfg := testConfig()
	cfg.PerPage = 2
	f := newFixture(t, s, s, source, cfg)

	report, err := f.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.SpeciesInserted)
	// Total probe plus two full pages.
	assert.Equal(t, 3, source.taxaCalls)
}

func TestRun_HonoursMaxPages(t *testing.T) {
	s := newStore(t)
	source := newSource()
	cfg := testConfig()
	cfg.PerPage = 1
	cfg.MaxPages = 1
	f := newFixture(t, s, s, source, cfg)

	report, err := f.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.SpeciesInserted)
	assert.Equal(t, []int{1}, source.obsPagesAsked)
	assert.Equal(t, 1, report.ObservationsInserted)
}

func TestRun_ObservationPageFailureIsSkipped(t *testing.T) {
	s := newStore(t)
	source := newSource()
	source.obsPageErr = map[int]error{1: errors.New("timeout")}
	cfg := testConfig()
	cfg.PerPage = 2
	f := newFixture(t, s, s, source, cfg)

	report, err := f.engine.Run(context.Background())
	require.NoError(t, err)
	// Page 1 failed; page 2 holds only records without a known species.
	assert.Equal(t, []int{1, 2, 3}, source.obsPagesAsked)
	assert.Zero(t, report.ObservationsInserted)
}

func TestRun_FallsBackToSingleInserts(t *testing.T) {
	s := newStore(t)
	f := newFixture(t, failingBatchStore{s}, s, newSource(), testConfig())

	report, err := f.engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.SpeciesInserted)
	assert.Equal(t, int64(2), count(t, s, &store.Species{}))
}

func TestRun_Cancelled(t *testing.T) {
	s := newStore(t)
	source := newSource()
	f := newFixture(t, s, s, source, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, source.obsPagesAsked)
}

func TestFinalize(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := newFixture(t, s, s, newSource(), testConfig())

	sp := &store.Species{Family: "Hesperiidae", Genus: "Hylephila", Name: "Hylephila phyleus", ObservationsCount: 42}
	require.NoError(t, s.CreateSpecies(ctx, sp))
	obs := &store.Observation{SourceID: 123456789, SpeciesID: &sp.ID, Timestamp: time.Now(), Quantity: 1, Status: store.StatusPending, CommentsCount: 9}
	require.NoError(t, s.CreateObservation(ctx, obs))
	require.NoError(t, s.CreateComment(ctx, &store.Comment{ObservationID: obs.ID, Text: "hi", Timestamp: time.Now()}))

	species, observations, err := f.engine.Finalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), species)
	assert.Equal(t, int64(1), observations)

	got, err := s.GetSpecies(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ObservationsCount)
	reloaded, err := s.GetObservationBySourceID(ctx, 123456789)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.CommentsCount)
}
