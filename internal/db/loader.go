//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wenceslao015/mkt-tp-final/internal/csvio"
	"github.com/wenceslao015/mkt-tp-final/internal/logging"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

// batchSize is the number of rows per INSERT statement.
const batchSize = 1000

// LoadSnapshot writes a warehouse snapshot into PostgreSQL. All tables load
// inside one transaction: either the full snapshot lands or nothing does.
// Dimensions load first so the fact foreign keys always resolve.
func LoadSnapshot(ctx context.Context, pool *pgxpool.Pool, snap *warehouse.Snapshot) error {
	start := time.Now()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range warehouse.Tables {
		if err := loadTable(ctx, tx, t.Name, snap); err != nil {
			return fmt.Errorf("failed to load %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	logging.Info().
		Int("tables", len(warehouse.Tables)).
		Int("rows", snap.TotalRows()).
		Dur("elapsed", time.Since(start)).
		Msg("Warehouse loaded")

	return nil
}

func loadTable(ctx context.Context, tx pgx.Tx, table string, snap *warehouse.Snapshot) error {
	columns := "(" + strings.Join(csvio.Header(table), ", ") + ")"
	values := tableValues(table, snap)

	for len(values) > 0 {
		n := min(batchSize, len(values))
		if err := executeBatchInsert(ctx, tx, table, columns, values[:n]); err != nil {
			return err
		}
		values = values[n:]
	}

	logging.Debug().
		Str("table", table).
		Int("rows", snap.RowCount(table)).
		Msg("Table loaded")

	return nil
}

func executeBatchInsert(ctx context.Context, tx pgx.Tx, table, columns string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	sql := fmt.Sprintf("INSERT INTO %s %s VALUES %s", table, columns, strings.Join(values, ", "))
	_, err := tx.Exec(ctx, sql)
	return err
}

func tableValues(table string, snap *warehouse.Snapshot) []string {
	switch table {
	case warehouse.TableDimCalendar:
		return calendarValues(snap.Calendar)
	case warehouse.TableDimCustomer:
		return customerValues(snap.Customers)
	case warehouse.TableDimProduct:
		return productValues(snap.Products)
	case warehouse.TableDimChannel:
		return channelValues(snap.Channels)
	case warehouse.TableDimAddress:
		return addressValues(snap.Addresses)
	case warehouse.TableDimStore:
		return storeValues(snap.Stores)
	case warehouse.TableFactSalesOrder:
		return salesOrderValues(snap.SalesOrders)
	case warehouse.TableFactSalesOrderItem:
		return salesOrderItemValues(snap.SalesOrderItems)
	case warehouse.TableFactPayment:
		return paymentValues(snap.Payments)
	case warehouse.TableFactShipment:
		return shipmentValues(snap.Shipments)
	case warehouse.TableFactNPSResponse:
		return npsResponseValues(snap.NPSResponses)
	case warehouse.TableFactWebSession:
		return webSessionValues(snap.WebSessions)
	}
	return nil
}

func calendarValues(rows []warehouse.CalendarDay) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', %d, %d, %d, '%s', '%s', %d, %d, '%s', %t)",
			r.ID,
			r.Date.Format(warehouse.DateLayout),
			r.Day, r.Month, r.Year,
			r.DayName, r.MonthName,
			r.Quarter, r.WeekNumber,
			r.YearMonth,
			r.IsWeekend))
	}
	return out
}

func customerValues(rows []warehouse.Customer) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', '%s', '%s', '%s', '%s', '%s', %s)",
			r.ID,
			escapeSingleQuote(r.CustomerKey),
			escapeSingleQuote(r.Email),
			escapeSingleQuote(r.FirstName),
			escapeSingleQuote(r.LastName),
			escapeSingleQuote(r.Phone),
			escapeSingleQuote(r.Status),
			sqlTimestamp(r.CreatedAt)))
	}
	return out
}

func productValues(rows []warehouse.Product) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', '%s', %s, '%s', %s, '%s', '%s')",
			r.ID,
			escapeSingleQuote(r.ProductKey),
			escapeSingleQuote(r.Name),
			r.ListPrice,
			escapeSingleQuote(r.Status),
			sqlTimestamp(r.CreatedAt),
			escapeSingleQuote(r.CategoryName),
			escapeSingleQuote(r.ParentCategoryName)))
	}
	return out
}

func channelValues(rows []warehouse.Channel) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', '%s')",
			r.ID,
			escapeSingleQuote(r.ChannelKey),
			escapeSingleQuote(r.Name)))
	}
	return out
}

func addressValues(rows []warehouse.Address) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', '%s', '%s', '%s', '%s', '%s', '%s', %s)",
			r.ID,
			escapeSingleQuote(r.Line1),
			escapeSingleQuote(r.Line2),
			escapeSingleQuote(r.City),
			escapeSingleQuote(r.ProvinceName),
			escapeSingleQuote(r.ProvinceCode),
			escapeSingleQuote(r.PostalCode),
			escapeSingleQuote(r.CountryCode),
			sqlTimestamp(r.CreatedAt)))
	}
	return out
}

func storeValues(rows []warehouse.Store) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', '%s', '%s', '%s', '%s', '%s', '%s', '%s', %s)",
			r.ID,
			escapeSingleQuote(r.StoreKey),
			escapeSingleQuote(r.Name),
			escapeSingleQuote(r.Line),
			escapeSingleQuote(r.City),
			escapeSingleQuote(r.ProvinceName),
			escapeSingleQuote(r.ProvinceCode),
			escapeSingleQuote(r.PostalCode),
			escapeSingleQuote(r.CountryCode),
			sqlTimestamp(r.CreatedAt)))
	}
	return out
}

func salesOrderValues(rows []warehouse.SalesOrder) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', %d, %d, %s, %d, '%s', %s, %s, '%s', '%s', %s, %s, %s, %s)",
			r.ID,
			escapeSingleQuote(r.OrderKey),
			r.CustomerID,
			r.ChannelID,
			sqlRef(r.StoreID),
			r.OrderDateID,
			r.OrderTime,
			sqlRef(r.BillingAddressID),
			sqlRef(r.ShippingAddressID),
			escapeSingleQuote(r.Status),
			escapeSingleQuote(r.CurrencyCode),
			r.Subtotal, r.TaxAmount, r.ShippingFee, r.TotalAmount))
	}
	return out
}

func salesOrderItemValues(rows []warehouse.SalesOrderItem) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', '%s', %d, %d, %s, %d, %d, %d, %s, %s, %s)",
			r.ID,
			escapeSingleQuote(r.OrderItemKey),
			escapeSingleQuote(r.OrderKey),
			r.CustomerID,
			r.ChannelID,
			sqlRef(r.StoreID),
			r.ProductID,
			r.OrderDateID,
			r.Quantity,
			r.UnitPrice, r.DiscountAmount, r.LineTotal))
	}
	return out
}

func paymentValues(rows []warehouse.Payment) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', '%s', %d, %s, '%s', '%s', %s, %s, '%s', '%s')",
			r.ID,
			escapeSingleQuote(r.PaymentKey),
			escapeSingleQuote(r.OrderKey),
			r.CustomerID,
			sqlRef(r.BillingAddressID),
			escapeSingleQuote(r.Method),
			escapeSingleQuote(r.Status),
			r.Amount,
			sqlRef(r.PaidAtDateID),
			r.PaidAtTime,
			escapeSingleQuote(r.TransactionRef)))
	}
	return out
}

func shipmentValues(rows []warehouse.Shipment) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', '%s', %d, %s, '%s', %d, '%s', %s, '%s', '%s', %s)",
			r.ID,
			escapeSingleQuote(r.ShipmentKey),
			escapeSingleQuote(r.OrderKey),
			r.CustomerID,
			sqlRef(r.ShippingAddressID),
			escapeSingleQuote(r.Carrier),
			r.ShippedAtDateID,
			r.ShippedAtTime,
			sqlRef(r.DeliveredAtDateID),
			r.DeliveredAtTime,
			escapeSingleQuote(r.TrackingNumber),
			sqlIntRef(r.DeliveryDays)))
	}
	return out
}

func npsResponseValues(rows []warehouse.NPSResponse) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', %d, %d, %d, '%s', %d)",
			r.ID,
			escapeSingleQuote(r.NPSKey),
			r.CustomerID,
			r.ChannelID,
			r.RespondedAtDateID,
			r.RespondedAtTime,
			r.Score))
	}
	return out
}

func webSessionValues(rows []warehouse.WebSession) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, fmt.Sprintf("(%d, '%s', %s, %d, '%s', %s, '%s', '%s', '%s')",
			r.ID,
			escapeSingleQuote(r.SessionKey),
			sqlRef(r.CustomerID),
			r.StartedAtDateID,
			r.StartedAtTime,
			sqlRef(r.EndedAtDateID),
			r.EndedAtTime,
			escapeSingleQuote(r.Source),
			escapeSingleQuote(r.Device)))
	}
	return out
}

func escapeSingleQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// sqlRef renders a nullable surrogate key as a SQL literal.
func sqlRef(p *int64) string {
	if p == nil {
		return "NULL"
	}
	return strconv.FormatInt(*p, 10)
}

func sqlIntRef(p *int) string {
	if p == nil {
		return "NULL"
	}
	return strconv.Itoa(*p)
}

// sqlTimestamp renders a timestamp attribute, NULL when unknown.
func sqlTimestamp(t time.Time) string {
	if t.IsZero() {
		return "NULL"
	}
	return "'" + t.Format(warehouse.TimestampLayout) + "'"
}
