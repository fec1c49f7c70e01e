// Package observation creates and edits sighting records.
//
// A mutation runs validation, taxonomy resolution, location resolution,
// media reconciliation, diffing and persistence in that order. Species and
// location ids are resolved before the observation row is written.
//
// Validation collects every field problem before returning. Failures come
// back as *Error with a Kind (validation, not_found, forbidden, internal)
// that the HTTP handler maps to a status code.
//
// Edits only write columns whose recomputed value differs from the stored
// one. An edit that changes nothing is reported as OutcomeUnchanged and
// leaves updated_at alone. Switching between a species reference and a raw
// taxonomy snapshot clears whichever representation is being replaced.
package observation
