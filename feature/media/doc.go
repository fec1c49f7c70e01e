// Package media reconciles the photo and audio lists of an observation.
//
// Keep-lists decide which current URLs survive (an absent list keeps all,
// a list of blanks keeps none, unknown entries are ignored). Uploads are
// classified by content type, stored as uploads/<uuid><ext> and appended.
//
// Reconcile returns a Plan. Stale objects are only deleted by Plan.Commit,
// after the observation write succeeded; Plan.Discard removes this
// reconciliation's uploads when the write fails. A failed upload discards
// earlier uploads of the same call before returning.
package media
