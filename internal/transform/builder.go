//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package transform turns one raw transactional snapshot into the star
// schema: the calendar, the five entity dimensions, and the six fact tables.
// Dimensions assign surrogate keys in first-seen order; every fact foreign
// key resolves through the run's Resolver.
package transform

import (
	"errors"
	"fmt"
	"time"

	"github.com/wenceslao015/mkt-tp-final/internal/logging"
	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

// Mode selects how unresolved fact references are handled.
type Mode string

const (
	// Strict aborts the run on the first unresolved reference.
	Strict Mode = "strict"

	// Lenient drops fact rows with unresolved references and records a
	// warning per dropped row. Malformed input is fatal in both modes.
	Lenient Mode = "lenient"
)

// Options configures a transform run.
type Options struct {
	Mode Mode
}

// Builder runs one snapshot transform. All run state (the resolver, the
// parent-order index, accumulated warnings) lives on the Builder, so
// independent runs never share anything.
type Builder struct {
	opts     Options
	resolver *Resolver
	warnings []Warning

	// orderIndex maps order_key to the built fact row so line items,
	// payments and shipments can denormalize order-level keys.
	orderIndex map[string]warehouse.SalesOrder
}

// New returns a Builder for a single run.
func New(opts Options) *Builder {
	if opts.Mode == "" {
		opts.Mode = Strict
	}
	return &Builder{
		opts:     opts,
		resolver: NewResolver(),
	}
}

// Build transforms the raw dataset into a validated warehouse snapshot.
// On error nothing usable is returned; the caller must not emit partial
// output.
func (b *Builder) Build(ds *rawdata.Dataset) (*warehouse.Snapshot, error) {
	start := time.Now()
	snap := &warehouse.Snapshot{}

	// Dimensions first: the resolver must be fully populated before any
	// fact row is built.
	b.buildCalendar(ds, snap)
	if err := b.buildCustomers(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildProducts(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildChannels(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildAddresses(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildStores(ds, snap); err != nil {
		return nil, err
	}

	logging.Debug().
		Int("calendar_days", len(snap.Calendar)).
		Int("customers", len(snap.Customers)).
		Int("products", len(snap.Products)).
		Int("channels", len(snap.Channels)).
		Int("addresses", len(snap.Addresses)).
		Int("stores", len(snap.Stores)).
		Msg("Dimensions built")

	// Orders must come before the facts that denormalize their keys.
	if err := b.buildSalesOrders(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildSalesOrderItems(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildPayments(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildShipments(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildNPSResponses(ds, snap); err != nil {
		return nil, err
	}
	if err := b.buildWebSessions(ds, snap); err != nil {
		return nil, err
	}

	if err := warehouse.Validate(snap); err != nil {
		return nil, err
	}

	logging.Info().
		Str("mode", string(b.opts.Mode)).
		Int("tables", len(warehouse.Tables)).
		Int("rows", snap.TotalRows()).
		Int("warnings", len(b.warnings)).
		Dur("elapsed", time.Since(start)).
		Msg("Transform complete")

	return snap, nil
}

// Warnings returns the data-quality warnings recorded during Build.
func (b *Builder) Warnings() []Warning {
	return b.warnings
}

// warn records a warning and logs it as it occurs.
func (b *Builder) warn(w Warning) {
	b.warnings = append(b.warnings, w)
	logging.Warn().
		Str("kind", string(w.Kind)).
		Str("table", w.Table).
		Str("key", w.Key).
		Msg(w.Message)
}

// skip reports whether err is an unresolved reference that lenient mode
// absorbs. The offending fact row is dropped and a warning recorded.
func (b *Builder) skip(err error) bool {
	var unresolved *UnresolvedReferenceError
	if b.opts.Mode != Lenient || !errors.As(err, &unresolved) {
		return false
	}
	b.warn(Warning{
		Kind:  WarnDroppedRow,
		Table: unresolved.Fact,
		Key:   unresolved.RowKey,
		Message: fmt.Sprintf("dropped %s %q: unresolved reference to %s %q",
			unresolved.Fact, unresolved.RowKey, unresolved.Target, unresolved.Key),
	})
	return true
}

// resolveKey is the chokepoint for required fact-to-dimension edges.
func (b *Builder) resolveKey(fact, rowKey string, dim Dim, key string) (int64, error) {
	surrogate, ok := b.resolver.Resolve(dim, key)
	if !ok {
		return 0, &UnresolvedReferenceError{Fact: fact, RowKey: rowKey, Target: string(dim), Key: key}
	}
	return surrogate, nil
}

// resolveOptionalKey resolves a reference that may legitimately be absent.
// An empty key yields nil; a present but unknown key is still an unresolved
// reference.
func (b *Builder) resolveOptionalKey(fact, rowKey string, dim Dim, key string) (*int64, error) {
	if key == "" {
		return nil, nil
	}
	surrogate, err := b.resolveKey(fact, rowKey, dim, key)
	if err != nil {
		return nil, err
	}
	return &surrogate, nil
}
