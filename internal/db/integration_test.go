//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the warehouse database layer.
// Run with: go test -tags=integration ./internal/db/...
// Requires PostgreSQL to be available.
// Set ECOBOTTLE_TEST_CONN environment variable to override connection string.

package db_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wenceslao015/mkt-tp-final/internal/db"
	"github.com/wenceslao015/mkt-tp-final/internal/testutil"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ref(v int64) *int64 {
	return &v
}

func stamp(s string) time.Time {
	t, err := time.Parse(warehouse.TimestampLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func calDay(id int64, date string) warehouse.CalendarDay {
	d, err := time.Parse(warehouse.DateLayout, date)
	if err != nil {
		panic(err)
	}
	weekday := d.Weekday()
	_, week := d.ISOWeek()
	return warehouse.CalendarDay{
		ID:         id,
		Date:       d,
		Day:        d.Day(),
		Month:      int(d.Month()),
		Year:       d.Year(),
		DayName:    weekday.String(),
		MonthName:  d.Month().String(),
		Quarter:    (int(d.Month())-1)/3 + 1,
		WeekNumber: week,
		YearMonth:  d.Format("2006-01"),
		IsWeekend:  weekday == time.Saturday || weekday == time.Sunday,
	}
}

// testSnapshot covers the loading edge cases: NULL foreign keys, a quote in a
// text attribute, an unsettled payment and an undelivered shipment.
func testSnapshot() *warehouse.Snapshot {
	return &warehouse.Snapshot{
		Calendar: []warehouse.CalendarDay{
			calDay(1, "2024-03-01"),
			calDay(2, "2024-03-02"),
		},
		Customers: []warehouse.Customer{
			{ID: 1, CustomerKey: "C1", Email: "ana@example.com", FirstName: "Ana",
				LastName: "O'Farrell", Phone: "+54-11-5555-1001", Status: "active",
				CreatedAt: stamp("2024-03-01 08:30:00")},
		},
		Products: []warehouse.Product{
			{ID: 1, ProductKey: "SKU-1", Name: "Classic 750ml", ListPrice: dec("1500.00"),
				Status: "active", CreatedAt: stamp("2024-03-01 09:00:00"),
				CategoryName: "Classic", ParentCategoryName: "Bottles"},
		},
		Channels: []warehouse.Channel{
			{ID: 1, ChannelKey: "ONLINE", Name: "Online store"},
		},
		Addresses: []warehouse.Address{
			{ID: 1, Line1: "Av. Corrientes 1234", Line2: "Piso 4", City: "CABA",
				ProvinceName: "Ciudad Autónoma de Buenos Aires", ProvinceCode: "AR-C",
				PostalCode: "C1043", CountryCode: "AR", CreatedAt: stamp("2024-03-01 10:00:00")},
		},
		Stores: []warehouse.Store{
			{ID: 1, StoreKey: "S-1", Name: "EcoBottle Centro"},
		},
		SalesOrders: []warehouse.SalesOrder{
			{ID: 1, OrderKey: "O-1", CustomerID: 1, ChannelID: 1, OrderDateID: 2,
				OrderTime: "14:30:00", BillingAddressID: ref(1), Status: "paid",
				CurrencyCode: "ARS", Subtotal: dec("3000.00"), TaxAmount: dec("630.00"),
				ShippingFee: dec("0.00"), TotalAmount: dec("3630.00")},
		},
		SalesOrderItems: []warehouse.SalesOrderItem{
			{ID: 1, OrderItemKey: "I-1", OrderKey: "O-1", CustomerID: 1, ChannelID: 1,
				ProductID: 1, OrderDateID: 2, Quantity: 2, UnitPrice: dec("1500.00"),
				DiscountAmount: dec("0.00"), LineTotal: dec("3000.00")},
		},
		Payments: []warehouse.Payment{
			{ID: 1, PaymentKey: "PAY-1", OrderKey: "O-1", CustomerID: 1,
				BillingAddressID: ref(1), Method: "card", Status: "FAILED",
				Amount: dec("3630.00"), PaidAtTime: "00:00:00"},
		},
		Shipments: []warehouse.Shipment{
			{ID: 1, ShipmentKey: "SH-1", OrderKey: "O-1", CustomerID: 1,
				Carrier: "Andreani", ShippedAtDateID: 2, ShippedAtTime: "09:00:00",
				DeliveredAtTime: "00:00:00", TrackingNumber: "TRK-1"},
		},
		NPSResponses: []warehouse.NPSResponse{
			{ID: 1, NPSKey: "N1", CustomerID: 1, ChannelID: 1, RespondedAtDateID: 1,
				RespondedAtTime: "10:00:00", Score: 9},
		},
		WebSessions: []warehouse.WebSession{
			{ID: 1, SessionKey: "WS-1", StartedAtDateID: 1, StartedAtTime: "20:00:00",
				EndedAtTime: "00:00:00", Source: "google", Device: "desktop"},
		},
	}
}

// TestWarehouseIntegration tests the database layer end-to-end: schema
// creation, snapshot loading, warehouse queries and run metadata.
func TestWarehouseIntegration(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	testConnStr := testutil.CreateTestDB(t, baseConnStr, "warehouse")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	ctx := context.Background()

	pool, err := db.Connect(ctx, testConnStr)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	cleanup.SetPool(pool)

	snap := testSnapshot()

	t.Run("CreateSchema", func(t *testing.T) {
		if err := db.CreateSchema(ctx, pool); err != nil {
			t.Fatalf("CreateSchema failed: %v", err)
		}

		exists, err := db.SchemaExists(ctx, pool)
		if err != nil {
			t.Fatalf("SchemaExists failed: %v", err)
		}
		if !exists {
			t.Error("SchemaExists returned false after CreateSchema")
		}
	})

	t.Run("LoadSnapshot", func(t *testing.T) {
		if err := db.LoadSnapshot(ctx, pool, snap); err != nil {
			t.Fatalf("LoadSnapshot failed: %v", err)
		}
	})

	t.Run("RowCounts", func(t *testing.T) {
		for _, table := range warehouse.Tables {
			var count int
			err := pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table.Name)).Scan(&count)
			if err != nil {
				t.Fatalf("Failed to count %s: %v", table.Name, err)
			}
			if count != snap.RowCount(table.Name) {
				t.Errorf("%s has %d rows, want %d", table.Name, count, snap.RowCount(table.Name))
			}
		}
	})

	t.Run("NullableColumns", func(t *testing.T) {
		checks := []struct {
			name  string
			query string
		}{
			{"order store_id", "SELECT store_id IS NULL FROM fact_sales_order WHERE order_key = 'O-1'"},
			{"payment paid_at_date_id", "SELECT paid_at_date_id IS NULL FROM fact_payment WHERE payment_key = 'PAY-1'"},
			{"shipment dias_de_entrega", "SELECT dias_de_entrega IS NULL FROM fact_shipment WHERE shipment_key = 'SH-1'"},
			{"session customer_id", "SELECT customer_id IS NULL FROM fact_web_session WHERE session_key = 'WS-1'"},
			{"store created_at", "SELECT created_at IS NULL FROM dim_store WHERE store_key = 'S-1'"},
		}

		for _, check := range checks {
			var isNull bool
			if err := pool.QueryRow(ctx, check.query).Scan(&isNull); err != nil {
				t.Fatalf("Failed to check %s: %v", check.name, err)
			}
			if !isNull {
				t.Errorf("%s is not NULL", check.name)
			}
		}
	})

	t.Run("EscapedText", func(t *testing.T) {
		var lastName string
		err := pool.QueryRow(ctx, "SELECT last_name FROM dim_customer WHERE customer_key = 'C1'").Scan(&lastName)
		if err != nil {
			t.Fatalf("Failed to read customer: %v", err)
		}
		if lastName != "O'Farrell" {
			t.Errorf("last_name = %q, want %q", lastName, "O'Farrell")
		}
	})

	t.Run("MoneyPrecision", func(t *testing.T) {
		var total string
		err := pool.QueryRow(ctx, "SELECT total_amount::text FROM fact_sales_order WHERE order_key = 'O-1'").Scan(&total)
		if err != nil {
			t.Fatalf("Failed to read order total: %v", err)
		}
		if total != "3630.00" {
			t.Errorf("total_amount = %q, want %q", total, "3630.00")
		}
	})

	t.Run("StarJoin", func(t *testing.T) {
		var email, channel string
		err := pool.QueryRow(ctx, `
            SELECT c.email, ch.name
            FROM fact_sales_order o
            JOIN dim_customer c ON c.id = o.customer_id
            JOIN dim_channel ch ON ch.id = o.channel_id
            WHERE o.order_key = 'O-1'
        `).Scan(&email, &channel)
		if err != nil {
			t.Fatalf("Star join failed: %v", err)
		}
		if email != "ana@example.com" {
			t.Errorf("email = %q, want %q", email, "ana@example.com")
		}
		if channel != "Online store" {
			t.Errorf("channel = %q, want %q", channel, "Online store")
		}
	})

	t.Run("RunMetadata", func(t *testing.T) {
		if err := db.SaveRunMetadata(ctx, pool, "strict", snap.TotalRows(), 0); err != nil {
			t.Fatalf("SaveRunMetadata failed: %v", err)
		}

		mode, err := db.GetMetadataValue(ctx, pool, "mode")
		if err != nil {
			t.Fatalf("GetMetadataValue failed: %v", err)
		}
		if mode != "strict" {
			t.Errorf("mode = %q, want %q", mode, "strict")
		}

		all, err := db.GetAllMetadata(ctx, pool)
		if err != nil {
			t.Fatalf("GetAllMetadata failed: %v", err)
		}
		if all["rows_loaded"] != strconv.Itoa(snap.TotalRows()) {
			t.Errorf("rows_loaded = %q, want %q", all["rows_loaded"], strconv.Itoa(snap.TotalRows()))
		}
		if all["version"] == "" {
			t.Error("version metadata is empty")
		}
		if all["loaded_at"] == "" {
			t.Error("loaded_at metadata is empty")
		}

		exists, err := db.MetadataExists(ctx, pool)
		if err != nil {
			t.Fatalf("MetadataExists failed: %v", err)
		}
		if !exists {
			t.Error("MetadataExists returned false after SaveRunMetadata")
		}
	})

	t.Run("DropSchema", func(t *testing.T) {
		if err := db.DropSchema(ctx, pool); err != nil {
			t.Fatalf("DropSchema failed: %v", err)
		}

		exists, err := db.SchemaExists(ctx, pool)
		if err != nil {
			t.Fatalf("SchemaExists failed: %v", err)
		}
		if exists {
			t.Error("SchemaExists returned true after DropSchema")
		}

		// Run metadata lives outside the star schema and survives a drop.
		metaExists, err := db.MetadataExists(ctx, pool)
		if err != nil {
			t.Fatalf("MetadataExists failed: %v", err)
		}
		if !metaExists {
			t.Error("metadata table should survive DropSchema")
		}

		if err := db.DropMetadata(ctx, pool); err != nil {
			t.Fatalf("DropMetadata failed: %v", err)
		}
		metaExists, err = db.MetadataExists(ctx, pool)
		if err != nil {
			t.Fatalf("MetadataExists failed: %v", err)
		}
		if metaExists {
			t.Error("MetadataExists returned true after DropMetadata")
		}
	})
}

// TestLoadSnapshotBatching loads more rows than one INSERT batch holds.
func TestLoadSnapshotBatching(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	testConnStr := testutil.CreateTestDB(t, baseConnStr, "batching")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()

	if err := db.CreateSchema(ctx, pool); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}

	const rows = 2500
	snap := &warehouse.Snapshot{}
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		d := start.AddDate(0, 0, i)
		snap.Calendar = append(snap.Calendar, calDay(int64(i+1), d.Format(warehouse.DateLayout)))
	}

	if err := db.LoadSnapshot(ctx, pool, snap); err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM dim_calendar").Scan(&count); err != nil {
		t.Fatalf("Failed to count dim_calendar: %v", err)
	}
	if count != rows {
		t.Errorf("dim_calendar has %d rows, want %d", count, rows)
	}
}

// TestLoadSnapshotAtomicity verifies that a failed load leaves nothing behind,
// dimensions included.
func TestLoadSnapshotAtomicity(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	testConnStr := testutil.CreateTestDB(t, baseConnStr, "atomicity")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()

	if err := db.CreateSchema(ctx, pool); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}

	// Point the order at a customer surrogate that does not exist so the
	// fact INSERT violates its foreign key.
	snap := testSnapshot()
	snap.SalesOrders[0].CustomerID = 99

	if err := db.LoadSnapshot(ctx, pool, snap); err == nil {
		t.Fatal("LoadSnapshot succeeded despite broken foreign key")
	}

	for _, table := range []string{"dim_customer", "dim_calendar", "fact_sales_order"} {
		var count int
		if err := pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s has %d rows after failed load, want 0", table, count)
		}
	}
}
