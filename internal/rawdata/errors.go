//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package rawdata

import "fmt"

// MalformedInputError reports a raw value that cannot be parsed or a required
// field that is missing. Malformed input always aborts the run, regardless of
// the referential-integrity mode.
//
// The offending row is identified by Row (1-based data row within the source
// file, set by the reader) or by Key (the record's natural identifier, set
// when the row number is no longer known).
type MalformedInputError struct {
	Source string
	Row    int
	Key    string
	Field  string
	Value  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	loc := e.Source
	if e.Row > 0 {
		loc = fmt.Sprintf("%s row %d", e.Source, e.Row)
	} else if e.Key != "" {
		loc = fmt.Sprintf("%s %q", e.Source, e.Key)
	}
	if e.Value != "" {
		return fmt.Sprintf("malformed input in %s: %s %q: %s", loc, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("malformed input in %s: %s: %s", loc, e.Field, e.Reason)
}
