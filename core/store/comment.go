package store

import (
	"context"
	"fmt"
)

// CreateComment inserts a comment. Counters are reconciled by RecountComments.
func (s *Store) CreateComment(ctx context.Context, c *Comment) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", translate(err))
	}
	return nil
}

// RecountSpeciesObservations recomputes observations_count for every species.
func (s *Store) RecountSpeciesObservations(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Exec(
		"UPDATE species SET observations_count = " +
			"(SELECT COUNT(*) FROM observations WHERE observations.species_id = species.id)")
	if res.Error != nil {
		return 0, fmt.Errorf("recount species: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// RecountComments recomputes comments_count for every observation.
func (s *Store) RecountComments(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Exec(
		"UPDATE observations SET comments_count = " +
			"(SELECT COUNT(*) FROM comments WHERE comments.observation_id = observations.id)")
	if res.Error != nil {
		return 0, fmt.Errorf("recount comments: %w", res.Error)
	}
	return res.RowsAffected, nil
}
