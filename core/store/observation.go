package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GetObservationBySourceID loads an observation by its public identifier.
func (s *Store) GetObservationBySourceID(ctx context.Context, sourceID int64) (*Observation, error) {
	var obs Observation
	if err := s.db.WithContext(ctx).Where("source_id = ?", sourceID).Take(&obs).Error; err != nil {
		return nil, translate(err)
	}
	return &obs, nil
}

// SourceIDExists reports whether a public identifier is taken.
func (s *Store) SourceIDExists(ctx context.Context, sourceID int64) (bool, error) {
	return s.exists(ctx, "source_id = ?", sourceID)
}

// ExternalIDExists reports whether an imported record was already stored.
func (s *Store) ExternalIDExists(ctx context.Context, externalID int64) (bool, error) {
	return s.exists(ctx, "external_id = ?", externalID)
}

func (s *Store) exists(ctx context.Context, cond string, arg any) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Observation{}).Where(cond, arg).Limit(1).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check observation: %w", err)
	}
	return n > 0, nil
}

// CreateObservation inserts the observation and bumps its species counter in
// one transaction. A source_id or external_id collision returns ErrDuplicateKey.
func (s *Store) CreateObservation(ctx context.Context, obs *Observation) error {
	if obs.Photo == nil {
		obs.Photo = []string{}
	}
	if obs.Audio == nil {
		obs.Audio = []string{}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(obs).Error; err != nil {
			return translate(err)
		}
		if obs.SpeciesID != nil {
			if err := adjustSpeciesCount(tx, *obs.SpeciesID, 1); err != nil {
				return fmt.Errorf("increment species %d: %w", *obs.SpeciesID, err)
			}
		}
		return nil
	})
}

// UpdateObservation applies column changes to obs. When species_id is among
// the changes the old species is decremented and the new one incremented in
// the same transaction. A nil value clears the column.
func (s *Store) UpdateObservation(ctx context.Context, obs *Observation, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Observation{}).Where("id = ?", obs.ID).Updates(changes).Error; err != nil {
			return translate(err)
		}

		next, touched := changes["species_id"]
		if !touched {
			return nil
		}
		newID := speciesRef(next)
		oldID := obs.SpeciesID
		if sameRef(oldID, newID) {
			return nil
		}
		if oldID != nil {
			if err := adjustSpeciesCount(tx, *oldID, -1); err != nil {
				return fmt.Errorf("decrement species %d: %w", *oldID, err)
			}
		}
		if newID != nil {
			if err := adjustSpeciesCount(tx, *newID, 1); err != nil {
				return fmt.Errorf("increment species %d: %w", *newID, err)
			}
		}
		return nil
	})
}

func speciesRef(v any) *uint {
	switch id := v.(type) {
	case uint:
		return &id
	case *uint:
		return id
	}
	return nil
}

func sameRef(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
