//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package csvio writes a warehouse snapshot to disk, one CSV file per table.
// Nullable foreign keys and measures become empty cells; timestamps use the
// warehouse layouts; decimals render with a '.' separator and no rounding.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wenceslao015/mkt-tp-final/internal/logging"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

var headers = map[string][]string{
	warehouse.TableDimCalendar: {"id", "date", "day", "month", "year",
		"day_name", "month_name", "quarter", "week_number", "year_month", "is_weekend"},
	warehouse.TableDimCustomer: {"id", "customer_key", "email", "first_name",
		"last_name", "phone", "status", "created_at"},
	warehouse.TableDimProduct: {"id", "product_key", "name", "list_price",
		"status", "created_at", "category_name", "parent_category_name"},
	warehouse.TableDimChannel: {"id", "channel_key", "name"},
	warehouse.TableDimAddress: {"id", "line1", "line2", "city", "province_name",
		"province_code", "postal_code", "country_code", "created_at"},
	warehouse.TableDimStore: {"id", "store_key", "name", "line", "city",
		"province_name", "province_code", "postal_code", "country_code", "created_at"},
	warehouse.TableFactSalesOrder: {"id", "order_key", "customer_id", "channel_id",
		"store_id", "order_date_id", "order_time", "billing_address_id",
		"shipping_address_id", "status", "currency_code", "subtotal", "tax_amount",
		"shipping_fee", "total_amount"},
	warehouse.TableFactSalesOrderItem: {"id", "order_item_key", "order_key",
		"customer_id", "channel_id", "store_id", "product_id", "order_date_id",
		"quantity", "unit_price", "discount_amount", "line_total"},
	warehouse.TableFactPayment: {"id", "payment_key", "order_key", "customer_id",
		"billing_address_id", "method", "status", "amount", "paid_at_date_id",
		"paid_at_time", "transaction_ref"},
	warehouse.TableFactShipment: {"id", "shipment_key", "order_key", "customer_id",
		"shipping_address_id", "carrier", "shipped_at_date_id", "shipped_at_time",
		"delivered_at_date_id", "delivered_at_time", "tracking_number", "dias_de_entrega"},
	warehouse.TableFactNPSResponse: {"id", "nps_key", "customer_id", "channel_id",
		"responded_at_date_id", "responded_at_time", "score"},
	warehouse.TableFactWebSession: {"id", "session_key", "customer_id",
		"started_at_date_id", "started_at_time", "ended_at_date_id", "ended_at_time",
		"source", "device"},
}

// Header returns the CSV column list of a warehouse table.
func Header(table string) []string {
	return headers[table]
}

// WriteSnapshot writes every warehouse table to dir as <table>.csv, creating
// dir if needed. Existing files are overwritten.
func WriteSnapshot(dir string, snap *warehouse.Snapshot) error {
	start := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", dir, err)
	}

	for _, t := range warehouse.Tables {
		if err := writeTable(dir, t.Name, snap); err != nil {
			return err
		}
	}

	logging.Info().
		Str("dir", dir).
		Int("tables", len(warehouse.Tables)).
		Int("rows", snap.TotalRows()).
		Dur("elapsed", time.Since(start)).
		Msg("Warehouse CSVs written")

	return nil
}

func writeTable(dir, table string, snap *warehouse.Snapshot) error {
	path := filepath.Join(dir, table+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header(table)); err != nil {
		return fmt.Errorf("writing %s header: %w", table, err)
	}
	rows := records(table, snap)
	for _, rec := range rows {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing %s: %w", table, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", table, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	logging.Debug().
		Str("table", table).
		Int("rows", len(rows)).
		Msg("Table written")

	return nil
}

func records(table string, snap *warehouse.Snapshot) [][]string {
	switch table {
	case warehouse.TableDimCalendar:
		return calendarRecords(snap.Calendar)
	case warehouse.TableDimCustomer:
		return customerRecords(snap.Customers)
	case warehouse.TableDimProduct:
		return productRecords(snap.Products)
	case warehouse.TableDimChannel:
		return channelRecords(snap.Channels)
	case warehouse.TableDimAddress:
		return addressRecords(snap.Addresses)
	case warehouse.TableDimStore:
		return storeRecords(snap.Stores)
	case warehouse.TableFactSalesOrder:
		return salesOrderRecords(snap.SalesOrders)
	case warehouse.TableFactSalesOrderItem:
		return salesOrderItemRecords(snap.SalesOrderItems)
	case warehouse.TableFactPayment:
		return paymentRecords(snap.Payments)
	case warehouse.TableFactShipment:
		return shipmentRecords(snap.Shipments)
	case warehouse.TableFactNPSResponse:
		return npsResponseRecords(snap.NPSResponses)
	case warehouse.TableFactWebSession:
		return webSessionRecords(snap.WebSessions)
	}
	return nil
}

func calendarRecords(rows []warehouse.CalendarDay) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.Date.Format(warehouse.DateLayout),
			formatInt(r.Day),
			formatInt(r.Month),
			formatInt(r.Year),
			r.DayName,
			r.MonthName,
			formatInt(r.Quarter),
			formatInt(r.WeekNumber),
			r.YearMonth,
			strconv.FormatBool(r.IsWeekend),
		})
	}
	return out
}

func customerRecords(rows []warehouse.Customer) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.CustomerKey,
			r.Email,
			r.FirstName,
			r.LastName,
			r.Phone,
			r.Status,
			formatTimestamp(r.CreatedAt),
		})
	}
	return out
}

func productRecords(rows []warehouse.Product) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.ProductKey,
			r.Name,
			formatDecimal(r.ListPrice),
			r.Status,
			formatTimestamp(r.CreatedAt),
			r.CategoryName,
			r.ParentCategoryName,
		})
	}
	return out
}

func channelRecords(rows []warehouse.Channel) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.ChannelKey,
			r.Name,
		})
	}
	return out
}

func addressRecords(rows []warehouse.Address) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.Line1,
			r.Line2,
			r.City,
			r.ProvinceName,
			r.ProvinceCode,
			r.PostalCode,
			r.CountryCode,
			formatTimestamp(r.CreatedAt),
		})
	}
	return out
}

func storeRecords(rows []warehouse.Store) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.StoreKey,
			r.Name,
			r.Line,
			r.City,
			r.ProvinceName,
			r.ProvinceCode,
			r.PostalCode,
			r.CountryCode,
			formatTimestamp(r.CreatedAt),
		})
	}
	return out
}

func salesOrderRecords(rows []warehouse.SalesOrder) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.OrderKey,
			formatID(r.CustomerID),
			formatID(r.ChannelID),
			formatRef(r.StoreID),
			formatID(r.OrderDateID),
			r.OrderTime,
			formatRef(r.BillingAddressID),
			formatRef(r.ShippingAddressID),
			r.Status,
			r.CurrencyCode,
			formatDecimal(r.Subtotal),
			formatDecimal(r.TaxAmount),
			formatDecimal(r.ShippingFee),
			formatDecimal(r.TotalAmount),
		})
	}
	return out
}

func salesOrderItemRecords(rows []warehouse.SalesOrderItem) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.OrderItemKey,
			r.OrderKey,
			formatID(r.CustomerID),
			formatID(r.ChannelID),
			formatRef(r.StoreID),
			formatID(r.ProductID),
			formatID(r.OrderDateID),
			formatInt(r.Quantity),
			formatDecimal(r.UnitPrice),
			formatDecimal(r.DiscountAmount),
			formatDecimal(r.LineTotal),
		})
	}
	return out
}

func paymentRecords(rows []warehouse.Payment) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.PaymentKey,
			r.OrderKey,
			formatID(r.CustomerID),
			formatRef(r.BillingAddressID),
			r.Method,
			r.Status,
			formatDecimal(r.Amount),
			formatRef(r.PaidAtDateID),
			r.PaidAtTime,
			r.TransactionRef,
		})
	}
	return out
}

func shipmentRecords(rows []warehouse.Shipment) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.ShipmentKey,
			r.OrderKey,
			formatID(r.CustomerID),
			formatRef(r.ShippingAddressID),
			r.Carrier,
			formatID(r.ShippedAtDateID),
			r.ShippedAtTime,
			formatRef(r.DeliveredAtDateID),
			r.DeliveredAtTime,
			r.TrackingNumber,
			formatIntRef(r.DeliveryDays),
		})
	}
	return out
}

func npsResponseRecords(rows []warehouse.NPSResponse) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.NPSKey,
			formatID(r.CustomerID),
			formatID(r.ChannelID),
			formatID(r.RespondedAtDateID),
			r.RespondedAtTime,
			formatInt(r.Score),
		})
	}
	return out
}

func webSessionRecords(rows []warehouse.WebSession) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			formatID(r.ID),
			r.SessionKey,
			formatRef(r.CustomerID),
			formatID(r.StartedAtDateID),
			r.StartedAtTime,
			formatRef(r.EndedAtDateID),
			r.EndedAtTime,
			r.Source,
			r.Device,
		})
	}
	return out
}

func formatID(v int64) string {
	return strconv.FormatInt(v, 10)
}

// formatRef renders a nullable surrogate key, empty when nil.
func formatRef(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}

func formatIntRef(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

// formatDecimal renders an exact decimal value; trailing zeros are not
// padded, so 4130.00 writes as "4130".
func formatDecimal(d decimal.Decimal) string {
	return d.String()
}

// formatTimestamp renders a timestamp attribute, empty when unknown.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(warehouse.TimestampLayout)
}
