//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package seed

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wenceslao015/mkt-tp-final/internal/config"
	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/transform"
)

func testSeedConfig() config.SeedConfig {
	return config.SeedConfig{
		Customers: 10,
		Products:  5,
		Orders:    20,
		Seed:      42,
	}
}

func readSourceFile(t *testing.T, dir, source string) [][]string {
	t.Helper()
	path := filepath.Join(dir, source+".csv")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", source, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read %s: %v", source, err)
	}
	return rows
}

func TestGenerateWritesAllSources(t *testing.T) {
	dir := t.TempDir()
	if err := Generate(dir, testSeedConfig()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for _, source := range rawdata.Sources {
		rows := readSourceFile(t, dir, source)
		if len(rows) == 0 {
			t.Fatalf("%s is missing its header row", source)
		}
		if !reflect.DeepEqual(rows[0], rawdata.Header(source)) {
			t.Errorf("%s header = %v, want %v", source, rows[0], rawdata.Header(source))
		}
	}
}

func TestGenerateRowCounts(t *testing.T) {
	dir := t.TempDir()
	cfg := testSeedConfig()
	if err := Generate(dir, cfg); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := map[string]int{
		rawdata.SourceProvince:        len(provinces),
		rawdata.SourceChannel:         len(channels),
		rawdata.SourceProductCategory: len(categories),
		rawdata.SourceAddress:         cfg.Customers + storeCount,
		rawdata.SourceCustomer:        cfg.Customers,
		rawdata.SourceProduct:         cfg.Products,
		rawdata.SourceStore:           storeCount,
		rawdata.SourceSalesOrder:      cfg.Orders,
		rawdata.SourceWebSession:      cfg.Orders,
	}
	for source, n := range want {
		rows := readSourceFile(t, dir, source)
		if got := len(rows) - 1; got != n {
			t.Errorf("%s has %d data rows, want %d", source, got, n)
		}
	}

	// Every order carries at least one line item.
	items := readSourceFile(t, dir, rawdata.SourceSalesOrderItem)
	if got := len(items) - 1; got < cfg.Orders {
		t.Errorf("sales_order_item has %d rows, want at least %d", got, cfg.Orders)
	}
}

// TestGenerateStrictRoundTrip feeds a generated snapshot through the loader
// and a strict transform. Strict mode aborts on any unresolved reference, so
// a clean build proves the extracts are referentially consistent.
func TestGenerateStrictRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := config.SeedConfig{Customers: 25, Products: 10, Orders: 80, Seed: 7}
	if err := Generate(dir, cfg); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ds, err := rawdata.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	b := transform.New(transform.Options{Mode: transform.Strict})
	snap, err := b.Build(ds)
	if err != nil {
		t.Fatalf("Strict build failed: %v", err)
	}
	if len(b.Warnings()) != 0 {
		t.Errorf("Build produced %d warnings, want 0: %v", len(b.Warnings()), b.Warnings())
	}

	if len(snap.SalesOrders) != cfg.Orders {
		t.Errorf("Snapshot has %d orders, want %d", len(snap.SalesOrders), cfg.Orders)
	}
	if len(snap.Customers) != cfg.Customers {
		t.Errorf("Snapshot has %d customers, want %d", len(snap.Customers), cfg.Customers)
	}
	if len(snap.Stores) != storeCount {
		t.Errorf("Snapshot has %d stores, want %d", len(snap.Stores), storeCount)
	}
}

func TestGeneratePaymentsMatchOrders(t *testing.T) {
	dir := t.TempDir()
	if err := Generate(dir, testSeedConfig()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ds, err := rawdata.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	orders := make(map[string]rawdata.SalesOrder, len(ds.SalesOrders))
	for _, o := range ds.SalesOrders {
		orders[o.OrderID] = o
	}

	for _, p := range ds.Payments {
		o, ok := orders[p.OrderID]
		if !ok {
			t.Fatalf("Payment %s references unknown order %s", p.PaymentID, p.OrderID)
		}
		if !p.Amount.Equal(o.TotalAmount) {
			t.Errorf("Payment %s amount %s != order total %s",
				p.PaymentID, p.Amount, o.TotalAmount)
		}
		if o.Status == "created" {
			t.Errorf("Order %s has a payment despite status created", o.OrderID)
		}
	}

	for _, o := range ds.SalesOrders {
		total := o.Subtotal.Add(o.TaxAmount).Add(o.ShippingFee)
		if !total.Equal(o.TotalAmount) {
			t.Errorf("Order %s total %s != subtotal+tax+fee %s",
				o.OrderID, o.TotalAmount, total)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := testSeedConfig()

	dir1 := t.TempDir()
	dir2 := t.TempDir()
	if err := Generate(dir1, cfg); err != nil {
		t.Fatalf("First generate failed: %v", err)
	}
	if err := Generate(dir2, cfg); err != nil {
		t.Fatalf("Second generate failed: %v", err)
	}

	for _, source := range rawdata.Sources {
		b1, err := os.ReadFile(filepath.Join(dir1, source+".csv"))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", source, err)
		}
		b2, err := os.ReadFile(filepath.Join(dir2, source+".csv"))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", source, err)
		}
		if string(b1) != string(b2) {
			t.Errorf("%s differs between runs with the same seed", source)
		}
	}
}
