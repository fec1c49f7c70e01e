// Package reconcile provides the field-level diffing used by every mutation.
//
// A ChangeSet collects column assignments produced by comparing the stored
// row with an incoming submission. Only values that actually differ are
// recorded, so an identical resubmission yields an empty set and no write.
//
// # Helpers
//
//   - Compare / ComparePtr / CompareSlice record a column only on difference;
//     ComparePtr with a nil next value clears the column.
//   - Partition splits a current list by a keep set (media retention).
//   - Mismatches renders "column: old=X new=Y" lines for logging.
//
// # Usage
//
//	cs := reconcile.NewChangeSet()
//	reconcile.Compare(cs, "quantity", current.Quantity, next)
//	if cs.Empty() {
//	    return Unchanged
//	}
//	err := store.UpdateObservation(ctx, current, cs.Map())
package reconcile
