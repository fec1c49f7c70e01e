package observation_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"sighting-engine/core/database"
	"sighting-engine/core/metrics"
	"sighting-engine/core/middleware/auth"
	"sighting-engine/core/storage"
	"sighting-engine/core/storage/mocks"
	"sighting-engine/core/store"
	"sighting-engine/feature/identifier"
	"sighting-engine/feature/location"
	"sighting-engine/feature/media"
	"sighting-engine/feature/observation"
	"sighting-engine/feature/taxonomy"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const mediaBase = "http://localhost:9000/media/"

var (
	owner     = auth.Caller{UserID: 1, Username: "ana"}
	stranger  = auth.Caller{UserID: 2, Username: "ben"}
	moderator = auth.Caller{UserID: 3, Username: "mod", Moderator: true}
)

type fixture struct {
	store   *store.Store
	client  *mocks.Client
	metrics *metrics.Metrics
	deps    observation.Dependencies
	svc     *observation.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	s := store.New(db)
	require.NoError(t, s.Migrate(context.Background()))

	m, err := metrics.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	client := new(mocks.Client)
	mediaStore := storage.NewMediaStore(client, storage.Config{
		Endpoint:     "localhost:9000",
		Bucket:       "media",
		UploadPrefix: "uploads/",
	})

	f := &fixture{store: s, client: client, metrics: m}
	f.deps = observation.Dependencies{
		Store:     s,
		Taxonomy:  taxonomy.NewResolver(s, logger),
		Locations: location.NewResolver(s, nil, location.Config{ProximityMeters: 10}, logger),
		Media:     media.NewReconciler(mediaStore, logger),
		IDs:       identifier.NewAllocator(s, 0),
		Metrics:   m,
	}
	f.svc = observation.NewService(f.deps, observation.Config{MaxFiles: 10}, logger)
	return f
}

func (f *fixture) load(t *testing.T, sourceID int64) *store.Observation {
	t.Helper()
	obs, err := f.store.GetObservationBySourceID(context.Background(), sourceID)
	require.NoError(t, err)
	return obs
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.store.DB().Model(model).Count(&n).Error)
	return n
}

func str(s string) *string { return &s }

// hesperiidae is a create payload with incomplete taxonomy.
func hesperiidae() observation.Submission {
	return observation.Submission{
		Latitude:  str("30.04439"),
		Longitude: str("31.23573"),
		Date:      str("2025-06-22T20:45:00"),
		Family:    str("Hesperiidae"),
		Genus:     str("All"),
		Species:   str("All"),
	}
}

// skipper is the same sighting identified down to the species.
func skipper() observation.Submission {
	sub := hesperiidae()
	sub.Genus = str("Hylephila")
	sub.Species = str("Hylephila Phyleus")
	return sub
}

func upload(name, contentType, body string) media.Upload {
	return media.Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func keyOf(url string) string {
	return strings.TrimPrefix(url, mediaBase)
}
