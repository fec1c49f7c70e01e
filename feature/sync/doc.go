// Package sync imports species and observations from iNaturalist.
//
// A run has three phases. Species under the root taxon are read page by page
// and stored with the family and genus found among their ancestors.
// Observations of known species are then stored together with their
// contributors, locations and comments. Finally the species observation
// counts and observation comment counts are recomputed from scratch.
//
// Re-running is safe: species are matched by name and observations by their
// external id, so an unchanged source yields no new rows.
package sync
