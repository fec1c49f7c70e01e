package sync

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"sighting-engine/core/store"
	"sighting-engine/core/utils"
	"sighting-engine/feature/location"
	"sighting-engine/feature/sync/inaturalist"

	"go.uber.org/zap"
)

const (
	userPrefix = "inaturalist-"
	userSource = "inaturalist"

	// observed_on_string as the API renders it, e.g. "2025/06/22 8:45 PM".
	observedOnStringLayout = "2006/1/2 3:04 PM"
	observedOnLayout       = "2006-01-02"
)

var thumbnailSuffix = regexp.MustCompile(`/square\.(jpg|jpeg)$`)

// importObservations reads observation pages and stores the records whose
// species is known. It returns the observations and comments written.
func (e *Engine) importObservations(ctx context.Context) (int, int, error) {
	perPage := e.cfg.perPage()
	observations, comments := 0, 0
	for page := 1; page <= e.cfg.maxPages(); page++ {
		if err := ctx.Err(); err != nil {
			return observations, comments, err
		}

		res, err := e.deps.Source.ListObservations(ctx, inaturalist.ObservationQuery{
			IconicTaxa:   e.cfg.IconicTaxa,
			QualityGrade: e.cfg.QualityGrade,
			Page:         page,
			PerPage:      perPage,
		})
		if err != nil {
			if ctx.Err() != nil {
				return observations, comments, ctx.Err()
			}
			e.logger.Error("Failed to fetch observation page", zap.Int("page", page), zap.Error(err))
			continue
		}

		for i := range res.Results {
			if ok, n := e.importObservation(ctx, &res.Results[i]); ok {
				observations++
				comments += n
			}
			if err := ctx.Err(); err != nil {
				return observations, comments, err
			}
		}

		if len(res.Results) < perPage {
			break
		}
		if err := e.sleep(ctx, e.cfg.PageDelay); err != nil {
			return observations, comments, err
		}
	}
	return observations, comments, nil
}

// importObservation stores one record and its comments. Failures are logged
// and reported as not inserted.
func (e *Engine) importObservation(ctx context.Context, rec *inaturalist.Observation) (bool, int) {
	log := e.logger.With(zap.Int64("external_id", rec.ID))

	name := ""
	if rec.Taxon != nil {
		name = strings.TrimSpace(rec.Taxon.Name)
	}
	if name == "" {
		e.skip("observation", "no_species", 1)
		return false, 0
	}

	sp, err := e.deps.Store.FindSpeciesByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("Species not in taxonomy", zap.String("species", name))
			e.skip("observation", "unknown_species", 1)
		} else {
			log.Error("Failed to look up species", zap.String("species", name), zap.Error(err))
			e.skip("observation", "failed", 1)
		}
		return false, 0
	}

	exists, err := e.deps.Store.ExternalIDExists(ctx, rec.ID)
	if err != nil {
		log.Error("Failed to check external id", zap.Error(err))
		e.skip("observation", "failed", 1)
		return false, 0
	}
	if exists {
		e.skip("observation", "exists", 1)
		return false, 0
	}

	owner, err := e.contributor(ctx, rec.User)
	if err != nil {
		log.Error("Failed to resolve contributor", zap.String("login", rec.User.Handle()), zap.Error(err))
		e.skip("observation", "failed", 1)
		return false, 0
	}

	sourceID, err := e.sourceID(ctx, rec.ID)
	if err != nil {
		log.Error("Failed to assign source id", zap.Error(err))
		e.skip("observation", "failed", 1)
		return false, 0
	}

	externalID := rec.ID
	speciesID := sp.ID
	obs := &store.Observation{
		SourceID:          sourceID,
		ExternalID:        &externalID,
		SpeciesID:         &speciesID,
		LocationID:        e.locate(ctx, log, rec.GeoJSON),
		Timestamp:         observedAt(rec, time.Now().UTC()),
		Quantity:          1,
		AdditionalDetails: rec.Description,
		Photo:             photoURLs(rec),
		Audio:             soundURLs(rec),
		Status:            statusFor(rec.QualityGrade),
		UserID:            owner,
		ExternalLink:      rec.URI,
		Origin:            store.OriginExternal,
	}

	if err := e.insert(ctx, obs); err != nil {
		if errors.Is(err, errAlreadyImported) {
			e.skip("observation", "exists", 1)
		} else {
			log.Error("Failed to insert observation", zap.Error(err))
			e.skip("observation", "failed", 1)
		}
		return false, 0
	}
	log.Debug("Observation imported", zap.Int64("source_id", obs.SourceID), zap.String("species", name))

	return true, e.importComments(ctx, log, obs.ID, owner, rec.Comments)
}

var errAlreadyImported = errors.New("observation already imported")

// insert stores obs. A source id collision draws a fresh id once; an external
// id collision means a concurrent run won.
func (e *Engine) insert(ctx context.Context, obs *store.Observation) error {
	err := e.deps.Store.CreateObservation(ctx, obs)
	if !errors.Is(err, store.ErrDuplicateKey) {
		return err
	}

	exists, xerr := e.deps.Store.ExternalIDExists(ctx, *obs.ExternalID)
	if xerr != nil {
		return xerr
	}
	if exists {
		return errAlreadyImported
	}

	id, aerr := e.deps.IDs.Allocate(ctx)
	if aerr != nil {
		return aerr
	}
	obs.ID = 0
	obs.SourceID = id
	return e.deps.Store.CreateObservation(ctx, obs)
}

// sourceID reuses the external id as the public id unless it is taken.
func (e *Engine) sourceID(ctx context.Context, externalID int64) (int64, error) {
	taken, err := e.deps.Store.SourceIDExists(ctx, externalID)
	if err != nil {
		return 0, err
	}
	if !taken {
		return externalID, nil
	}
	return e.deps.IDs.Allocate(ctx)
}

// contributor returns the local user mirroring an external account, creating
// it on first sight. Records without a login have no owner.
func (e *Engine) contributor(ctx context.Context, u *inaturalist.User) (*uint, error) {
	handle := u.Handle()
	if handle == "" {
		return nil, nil
	}

	created := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, u.CreatedAt); err == nil {
		created = t.UTC()
	}
	user, _, err := e.deps.Store.GetOrCreateUser(ctx, &store.User{
		Username:       utils.Truncate(userPrefix+handle, 150),
		Name:           u.Name,
		ProfilePicture: u.IconURL,
		Source:         userSource,
		Roles:          []string{"user"},
		CreatedAt:      created,
	})
	if err != nil {
		return nil, err
	}
	return &user.ID, nil
}

// locate resolves a GeoJSON point. Failures leave the observation without a
// location.
func (e *Engine) locate(ctx context.Context, log *zap.Logger, geo *inaturalist.GeoJSON) *uint {
	if geo == nil || geo.Type != "Point" || len(geo.Coordinates) < 2 {
		return nil
	}
	res, err := e.deps.Locations.Resolve(ctx, location.Request{
		Point:  location.Point{Latitude: geo.Coordinates[1], Longitude: geo.Coordinates[0]},
		Origin: store.OriginExternal,
	})
	if err != nil {
		log.Warn("Failed to resolve location", zap.Float64s("coordinates", geo.Coordinates), zap.Error(err))
		return nil
	}
	return &res.LocationID
}

func (e *Engine) importComments(ctx context.Context, log *zap.Logger, observationID uint, owner *uint, comments []inaturalist.Comment) int {
	inserted := 0
	for _, c := range comments {
		author := owner
		if c.User.Handle() != "" {
			id, err := e.contributor(ctx, c.User)
			if err != nil {
				log.Warn("Failed to resolve comment author", zap.String("login", c.User.Handle()), zap.Error(err))
			} else {
				author = id
			}
		}

		ts := time.Now().UTC()
		if t, err := time.Parse(time.RFC3339, c.CreatedAt); err == nil {
			ts = t.UTC()
		}
		err := e.deps.Store.CreateComment(ctx, &store.Comment{
			ObservationID: observationID,
			UserID:        author,
			Text:          c.Body,
			Timestamp:     ts,
		})
		if err != nil {
			log.Error("Failed to insert comment", zap.Int64("comment_id", c.ID), zap.Error(err))
			e.skip("comment", "failed", 1)
			continue
		}
		inserted++
	}
	return inserted
}

// observedAt picks the most precise time the record carries, falling back to now.
func observedAt(rec *inaturalist.Observation, now time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339, rec.TimeObservedAt); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(observedOnStringLayout, strings.TrimSpace(rec.ObservedOnString)); err == nil {
		return t
	}
	if t, err := time.Parse(observedOnLayout, rec.ObservedOn); err == nil {
		return t
	}
	return now
}

// photoURLs lists the medium rendition of every photo.
func photoURLs(rec *inaturalist.Observation) []string {
	urls := []string{}
	for _, op := range rec.ObservationPhotos {
		if op.Photo == nil {
			continue
		}
		url := utils.FirstNonEmpty(op.Photo.MediumURL, op.Photo.URL)
		if url == "" {
			continue
		}
		urls = append(urls, thumbnailSuffix.ReplaceAllString(url, "/medium.$1"))
	}
	return urls
}

func soundURLs(rec *inaturalist.Observation) []string {
	urls := []string{}
	for _, s := range rec.Sounds {
		if s.FileURL != "" {
			urls = append(urls, s.FileURL)
		}
	}
	return urls
}

func statusFor(grade string) string {
	if grade == "research" {
		return store.StatusVerified
	}
	return store.StatusPending
}
