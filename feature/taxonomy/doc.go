// Package taxonomy resolves submitted family/genus/species triples.
//
// A complete taxonomy (genus and species known) maps to exactly one
// store.Species, created on first use. An incomplete one never touches the
// species table; it yields a raw snapshot with "All" placeholders and marks
// the observation pending.
//
// Levels are a tri-state internally (Unknown or Known(value)); the "All"
// sentinel exists only at the boundary (ParseLevel, Level.String).
//
// Concurrent creates of the same triple within the process are coalesced with
// singleflight. Across processes the unique index on the triple decides, and
// the loser continues with the winner's id.
package taxonomy
