// Package store is the persistence layer shared by every ingestion component.
//
// It owns the GORM models (species, locations, observations, users, comments)
// and a Store repository constructed once at startup and passed to the
// resolvers, the observation service and the sync engine.
//
// # Race Handling
//
// Uniqueness is enforced by the database: the species triple, the location
// point key, observation source and external ids, and usernames. Inserts that
// lose a race return ErrDuplicateKey; callers re-fetch and continue with the
// winner's row.
//
// # Counters
//
// Species observation counters are adjusted inside the same transaction as
// the observation write. RecountSpeciesObservations and RecountComments
// rebuild every counter from scratch after a bulk import.
package store
