package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindSpecies looks up a species by its exact triple.
func (s *Store) FindSpecies(ctx context.Context, family, genus, name string) (*Species, error) {
	var sp Species
	err := s.db.WithContext(ctx).
		Where("family = ? AND genus = ? AND species = ?", family, genus, name).
		Take(&sp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sp, nil
}

// FindSpeciesByName returns the oldest species carrying the scientific name.
func (s *Store) FindSpeciesByName(ctx context.Context, name string) (*Species, error) {
	var sp Species
	err := s.db.WithContext(ctx).Where("species = ?", name).Order("id").Take(&sp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sp, nil
}

// GetSpecies loads a species by id.
func (s *Store) GetSpecies(ctx context.Context, id uint) (*Species, error) {
	var sp Species
	if err := s.db.WithContext(ctx).Take(&sp, id).Error; err != nil {
		return nil, translate(err)
	}
	return &sp, nil
}

// ExistingSpeciesNames returns the subset of names already stored.
func (s *Store) ExistingSpeciesNames(ctx context.Context, names []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	if len(names) == 0 {
		return found, nil
	}
	var rows []string
	err := s.db.WithContext(ctx).Model(&Species{}).Where("species IN ?", names).Distinct().Pluck("species", &rows).Error
	if err != nil {
		return nil, fmt.Errorf("load species names: %w", err)
	}
	for _, n := range rows {
		found[n] = struct{}{}
	}
	return found, nil
}

// CreateSpecies inserts a species. A lost race on the triple returns ErrDuplicateKey.
func (s *Store) CreateSpecies(ctx context.Context, sp *Species) error {
	return translate(s.db.WithContext(ctx).Create(sp).Error)
}

// InsertSpeciesBatch inserts a batch and silently skips triples that already
// exist. It returns the number of rows actually written.
func (s *Store) InsertSpeciesBatch(ctx context.Context, batch []Species) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&batch)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

// SetSpeciesImageIfEmpty sets the representative image unless one is already set.
func (s *Store) SetSpeciesImageIfEmpty(ctx context.Context, id uint, url string) (bool, error) {
	return s.setSpeciesMediaIfEmpty(ctx, id, "image_url", url)
}

// SetSpeciesAudioIfEmpty sets the representative audio unless one is already set.
func (s *Store) SetSpeciesAudioIfEmpty(ctx context.Context, id uint, url string) (bool, error) {
	return s.setSpeciesMediaIfEmpty(ctx, id, "audio_url", url)
}

func (s *Store) setSpeciesMediaIfEmpty(ctx context.Context, id uint, column, url string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Species{}).
		Where("id = ? AND "+column+" = ?", id, "").
		Updates(map[string]any{column: url})
	if res.Error != nil {
		return false, fmt.Errorf("set species %s: %w", column, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func adjustSpeciesCount(tx *gorm.DB, id uint, delta int) error {
	q := tx.Model(&Species{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("observations_count > 0")
	}
	return q.UpdateColumn("observations_count", gorm.Expr("observations_count + ?", delta)).Error
}
