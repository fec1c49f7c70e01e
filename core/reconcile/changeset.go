package reconcile

import (
	"fmt"
	"slices"
)

// Change is one planned column assignment. A nil New clears the column.
type Change struct {
	Column string `json:"column"`
	Old    any    `json:"old"`
	New    any    `json:"new"`
}

// String renders the change as "column: old=X new=Y".
func (c Change) String() string {
	return fmt.Sprintf("%s: old=%v new=%v", c.Column, render(c.Old), render(c.New))
}

func render(v any) any {
	if v == nil {
		return "<null>"
	}
	return v
}

// ChangeSet collects the column assignments a diff produced, in the order
// they were recorded. Recording the same column twice keeps the last value.
type ChangeSet struct {
	changes []Change
	index   map[string]int
}

// NewChangeSet returns an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{index: make(map[string]int)}
}

// Set records an assignment unconditionally.
func (cs *ChangeSet) Set(column string, old, next any) {
	if i, ok := cs.index[column]; ok {
		cs.changes[i].New = next
		return
	}
	cs.index[column] = len(cs.changes)
	cs.changes = append(cs.changes, Change{Column: column, Old: old, New: next})
}

// Unset records that column must become NULL.
func (cs *ChangeSet) Unset(column string, old any) {
	cs.Set(column, old, nil)
}

// Has reports whether column was recorded.
func (cs *ChangeSet) Has(column string) bool {
	_, ok := cs.index[column]
	return ok
}

// Empty reports whether nothing changed.
func (cs *ChangeSet) Empty() bool {
	return len(cs.changes) == 0
}

// Len is the number of recorded columns.
func (cs *ChangeSet) Len() int {
	return len(cs.changes)
}

// Changes returns the recorded assignments in order.
func (cs *ChangeSet) Changes() []Change {
	return slices.Clone(cs.changes)
}

// Columns returns the recorded column names in order.
func (cs *ChangeSet) Columns() []string {
	cols := make([]string, len(cs.changes))
	for i, c := range cs.changes {
		cols[i] = c.Column
	}
	return cols
}

// Map returns the assignments keyed by column, ready for a GORM Updates call.
func (cs *ChangeSet) Map() map[string]any {
	m := make(map[string]any, len(cs.changes))
	for _, c := range cs.changes {
		m[c.Column] = c.New
	}
	return m
}

// Mismatches describes every change, one line per column.
func (cs *ChangeSet) Mismatches() []string {
	out := make([]string, len(cs.changes))
	for i, c := range cs.changes {
		out[i] = c.String()
	}
	return out
}

// Compare records next only when it differs from old.
func Compare[T comparable](cs *ChangeSet, column string, old, next T) bool {
	if old == next {
		return false
	}
	cs.Set(column, old, next)
	return true
}

// ComparePtr compares nullable values. A nil next clears the column.
func ComparePtr[T comparable](cs *ChangeSet, column string, old, next *T) bool {
	switch {
	case old == nil && next == nil:
		return false
	case old != nil && next != nil && *old == *next:
		return false
	case next == nil:
		cs.Unset(column, *old)
	case old == nil:
		cs.Set(column, nil, *next)
	default:
		cs.Set(column, *old, *next)
	}
	return true
}

// CompareSlice records next only when it differs from old element-wise.
func CompareSlice[T comparable, S ~[]T](cs *ChangeSet, column string, old, next S) bool {
	if slices.Equal(old, next) {
		return false
	}
	cs.Set(column, old, next)
	return true
}

// Partition splits current into the entries present in keep and the rest,
// preserving order. Keep entries absent from current are ignored.
func Partition[T comparable](current []T, keep map[T]struct{}) (retained, dropped []T) {
	for _, item := range current {
		if _, ok := keep[item]; ok {
			retained = append(retained, item)
		} else {
			dropped = append(dropped, item)
		}
	}
	return retained, dropped
}
