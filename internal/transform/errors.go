//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import "fmt"

// UnresolvedReferenceError reports a fact row whose natural-key reference has
// no matching row in the target table. In strict mode it aborts the run; in
// lenient mode the fact row is dropped and a warning recorded.
type UnresolvedReferenceError struct {
	Fact   string // fact table being built
	RowKey string // natural key of the fact row
	Target string // referenced table
	Key    string // the key that failed to resolve
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s %q: unresolved reference to %s: no row for key %q",
		e.Fact, e.RowKey, e.Target, e.Key)
}

// WarningKind classifies data-quality warnings.
type WarningKind string

const (
	// WarnAttributeConflict marks duplicate dimension records whose
	// attributes disagree; the last seen record wins.
	WarnAttributeConflict WarningKind = "attribute_conflict"

	// WarnDroppedRow marks a fact row dropped in lenient mode.
	WarnDroppedRow WarningKind = "dropped_row"

	// WarnMissingLookup marks a dimension attribute left empty because a
	// denormalization lookup (province, category, store address) missed.
	WarnMissingLookup WarningKind = "missing_lookup"
)

// Warning is one non-fatal data-quality finding, recorded on the run.
type Warning struct {
	Kind    WarningKind
	Table   string // warehouse table concerned
	Key     string // natural key of the row concerned
	Message string
}
