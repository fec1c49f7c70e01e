package store

import (
	"context"
	"fmt"
)

// LocationsByGeohashPrefixes returns every location whose geohash starts with
// one of the prefixes.
func (s *Store) LocationsByGeohashPrefixes(ctx context.Context, prefixes []string) ([]Location, error) {
	if len(prefixes) == 0 {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Model(&Location{})
	for i, p := range prefixes {
		if i == 0 {
			q = q.Where("geohash LIKE ?", p+"%")
		} else {
			q = q.Or("geohash LIKE ?", p+"%")
		}
	}
	var locs []Location
	if err := q.Order("id").Find(&locs).Error; err != nil {
		return nil, fmt.Errorf("query nearby locations: %w", err)
	}
	return locs, nil
}

// GetLocation loads a location by id.
func (s *Store) GetLocation(ctx context.Context, id uint) (*Location, error) {
	var loc Location
	if err := s.db.WithContext(ctx).Take(&loc, id).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}

// CreateLocation inserts a location. A point key collision returns ErrDuplicateKey.
func (s *Store) CreateLocation(ctx context.Context, loc *Location) error {
	return translate(s.db.WithContext(ctx).Create(loc).Error)
}

// RenameLocation updates only the display name (and updated_at).
func (s *Store) RenameLocation(ctx context.Context, id uint, name string) error {
	res := s.db.WithContext(ctx).Model(&Location{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return fmt.Errorf("rename location %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindLocationByPointKey loads the location holding a point key.
func (s *Store) FindLocationByPointKey(ctx context.Context, key string) (*Location, error) {
	var loc Location
	if err := s.db.WithContext(ctx).Where("point_key = ?", key).Take(&loc).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}
