package store

import (
	"context"
	"errors"
	"fmt"
)

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Take(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindUserByUsername loads a user by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).Where("username = ?", username).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetOrCreateUser returns the user named u.Username, inserting u when absent.
// A concurrent insert of the same username resolves to the winner's row.
func (s *Store) GetOrCreateUser(ctx context.Context, u *User) (*User, bool, error) {
	existing, err := s.FindUserByUsername(ctx, u.Username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if u.Roles == nil {
		u.Roles = []string{}
	}
	if err := translate(s.db.WithContext(ctx).Create(u).Error); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			winner, ferr := s.FindUserByUsername(ctx, u.Username)
			if ferr != nil {
				return nil, false, fmt.Errorf("refetch user %s: %w", u.Username, ferr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("create user %s: %w", u.Username, err)
	}
	return u, true, nil
}
