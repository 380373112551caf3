//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import "github.com/wenceslao015/mkt-tp-final/internal/warehouse"

// Dim identifies one resolver lookup table.
type Dim string

// One lookup table per dimension.
const (
	DimCalendar Dim = warehouse.TableDimCalendar
	DimCustomer Dim = warehouse.TableDimCustomer
	DimProduct  Dim = warehouse.TableDimProduct
	DimChannel  Dim = warehouse.TableDimChannel
	DimAddress  Dim = warehouse.TableDimAddress
	DimStore    Dim = warehouse.TableDimStore
)

// Resolver maps natural keys to surrogate keys, one lookup table per
// dimension. Dimension builders populate it; every fact-to-dimension edge
// resolves through it. Keys are canonicalized by the builders before
// registration, so lookups must use the same canonical form.
//
// The address table is keyed by raw address_id: the address builder folds
// duplicate physical addresses into one row and registers every raw id as an
// alias for the surviving surrogate key.
type Resolver struct {
	tables map[Dim]map[string]int64
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{tables: make(map[Dim]map[string]int64)}
}

// Add registers a natural key for a dimension.
func (r *Resolver) Add(dim Dim, key string, surrogate int64) {
	t := r.tables[dim]
	if t == nil {
		t = make(map[string]int64)
		r.tables[dim] = t
	}
	t[key] = surrogate
}

// Resolve maps a natural key to its surrogate key.
func (r *Resolver) Resolve(dim Dim, key string) (int64, bool) {
	surrogate, ok := r.tables[dim][key]
	return surrogate, ok
}

// Size returns the number of registered keys for a dimension.
func (r *Resolver) Size(dim Dim) int {
	return len(r.tables[dim])
}
