//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package rawdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wenceslao015/mkt-tp-final/internal/logging"
)

// Timestamp layouts accepted in raw extracts. Date-only values parse to
// midnight.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadDir reads every raw source from dir and returns the assembled Dataset.
// All thirteen source files must exist; a missing file or an unparseable
// value fails the load.
func LoadDir(dir string) (*Dataset, error) {
	start := time.Now()
	ds := &Dataset{}

	var err error
	if ds.Addresses, err = loadAddresses(dir); err != nil {
		return nil, err
	}
	if ds.Channels, err = loadChannels(dir); err != nil {
		return nil, err
	}
	if ds.Customers, err = loadCustomers(dir); err != nil {
		return nil, err
	}
	if ds.NPSResponses, err = loadNPSResponses(dir); err != nil {
		return nil, err
	}
	if ds.Payments, err = loadPayments(dir); err != nil {
		return nil, err
	}
	if ds.Products, err = loadProducts(dir); err != nil {
		return nil, err
	}
	if ds.Categories, err = loadProductCategories(dir); err != nil {
		return nil, err
	}
	if ds.Provinces, err = loadProvinces(dir); err != nil {
		return nil, err
	}
	if ds.SalesOrders, err = loadSalesOrders(dir); err != nil {
		return nil, err
	}
	if ds.SalesOrderItems, err = loadSalesOrderItems(dir); err != nil {
		return nil, err
	}
	if ds.Shipments, err = loadShipments(dir); err != nil {
		return nil, err
	}
	if ds.Stores, err = loadStores(dir); err != nil {
		return nil, err
	}
	if ds.WebSessions, err = loadWebSessions(dir); err != nil {
		return nil, err
	}

	logging.Info().
		Str("dir", dir).
		Int("sources", len(Sources)).
		Int("rows", ds.TotalRows()).
		Dur("elapsed", time.Since(start)).
		Msg("Raw snapshot loaded")

	return ds, nil
}

// readSource reads one CSV source: the header is validated against the
// source's column order, then each data row is trimmed and handed to parse
// with its 1-based row number.
func readSource[T any](dir, source string, parse func(rec []string, row int) (T, error)) ([]T, error) {
	want := Header(source)
	path := filepath.Join(dir, source+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening raw source %s: %w", source, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("raw source %s: file is empty", source)
	}
	if err != nil {
		return nil, fmt.Errorf("raw source %s: reading header: %w", source, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) != len(want) {
		return nil, fmt.Errorf("raw source %s: header has %d columns, want %d (%s)",
			source, len(header), len(want), strings.Join(want, ","))
	}
	for i, col := range want {
		if header[i] != col {
			return nil, fmt.Errorf("raw source %s: header column %d is %q, want %q",
				source, i+1, header[i], col)
		}
	}

	var out []T
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("raw source %s row %d: %w", source, row, err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		v, err := parse(rec, row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	logging.Debug().
		Str("source", source).
		Int("rows", len(out)).
		Msg("Raw source loaded")

	return out, nil
}

// requireField rejects an empty value.
func requireField(source string, row int, field, value string) (string, error) {
	if value == "" {
		return "", &MalformedInputError{Source: source, Row: row, Field: field, Reason: "required value is missing"}
	}
	return value, nil
}

// parseDecimal parses a required money/amount value.
func parseDecimal(source string, row int, field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, &MalformedInputError{Source: source, Row: row, Field: field, Reason: "required value is missing"}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, &MalformedInputError{Source: source, Row: row, Field: field, Value: value, Reason: "invalid decimal"}
	}
	return d, nil
}

// parseDecimalOrZero parses an amount that defaults to zero when absent.
func parseDecimalOrZero(source string, row int, field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return parseDecimal(source, row, field, value)
}

// parseInt parses a required integer value.
func parseInt(source string, row int, field, value string) (int, error) {
	if value == "" {
		return 0, &MalformedInputError{Source: source, Row: row, Field: field, Reason: "required value is missing"}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &MalformedInputError{Source: source, Row: row, Field: field, Value: value, Reason: "invalid integer"}
	}
	return n, nil
}

// parseTime parses a required timestamp or date value.
func parseTime(source string, row int, field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &MalformedInputError{Source: source, Row: row, Field: field, Reason: "required value is missing"}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &MalformedInputError{Source: source, Row: row, Field: field, Value: value, Reason: "unrecognized date/time format"}
}

// parseOptionalTime parses a timestamp that may legitimately be absent;
// absence is reported as the zero time.
func parseOptionalTime(source string, row int, field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return parseTime(source, row, field, value)
}

func loadAddresses(dir string) ([]Address, error) {
	return readSource(dir, SourceAddress, func(rec []string, row int) (Address, error) {
		a := Address{
			Line1:       rec[1],
			Line2:       rec[2],
			City:        rec[3],
			ProvinceID:  rec[4],
			PostalCode:  rec[5],
			CountryCode: rec[6],
		}
		var err error
		if a.AddressID, err = requireField(SourceAddress, row, "address_id", rec[0]); err != nil {
			return a, err
		}
		if a.CreatedAt, err = parseTime(SourceAddress, row, "created_at", rec[7]); err != nil {
			return a, err
		}
		return a, nil
	})
}

func loadChannels(dir string) ([]Channel, error) {
	return readSource(dir, SourceChannel, func(rec []string, row int) (Channel, error) {
		c := Channel{Name: rec[1]}
		var err error
		if c.Code, err = requireField(SourceChannel, row, "code", rec[0]); err != nil {
			return c, err
		}
		return c, nil
	})
}

func loadCustomers(dir string) ([]Customer, error) {
	return readSource(dir, SourceCustomer, func(rec []string, row int) (Customer, error) {
		c := Customer{
			Email:     rec[1],
			FirstName: rec[2],
			LastName:  rec[3],
			Phone:     rec[4],
			Status:    rec[5],
		}
		var err error
		if c.CustomerID, err = requireField(SourceCustomer, row, "customer_id", rec[0]); err != nil {
			return c, err
		}
		if c.CreatedAt, err = parseTime(SourceCustomer, row, "created_at", rec[6]); err != nil {
			return c, err
		}
		return c, nil
	})
}

func loadNPSResponses(dir string) ([]NPSResponse, error) {
	return readSource(dir, SourceNPSResponse, func(rec []string, row int) (NPSResponse, error) {
		n := NPSResponse{}
		var err error
		if n.NPSID, err = requireField(SourceNPSResponse, row, "nps_id", rec[0]); err != nil {
			return n, err
		}
		if n.CustomerID, err = requireField(SourceNPSResponse, row, "customer_id", rec[1]); err != nil {
			return n, err
		}
		if n.ChannelCode, err = requireField(SourceNPSResponse, row, "channel_code", rec[2]); err != nil {
			return n, err
		}
		if n.Score, err = parseInt(SourceNPSResponse, row, "score", rec[3]); err != nil {
			return n, err
		}
		if n.RespondedAt, err = parseTime(SourceNPSResponse, row, "responded_at", rec[4]); err != nil {
			return n, err
		}
		return n, nil
	})
}

func loadPayments(dir string) ([]Payment, error) {
	return readSource(dir, SourcePayment, func(rec []string, row int) (Payment, error) {
		p := Payment{
			Method:         rec[2],
			Status:         rec[3],
			TransactionRef: rec[6],
		}
		var err error
		if p.PaymentID, err = requireField(SourcePayment, row, "payment_id", rec[0]); err != nil {
			return p, err
		}
		if p.OrderID, err = requireField(SourcePayment, row, "order_id", rec[1]); err != nil {
			return p, err
		}
		if p.Amount, err = parseDecimal(SourcePayment, row, "amount", rec[4]); err != nil {
			return p, err
		}
		if p.PaidAt, err = parseOptionalTime(SourcePayment, row, "paid_at", rec[5]); err != nil {
			return p, err
		}
		return p, nil
	})
}

func loadProducts(dir string) ([]Product, error) {
	return readSource(dir, SourceProduct, func(rec []string, row int) (Product, error) {
		p := Product{
			Name:       rec[1],
			CategoryID: rec[2],
			Status:     rec[4],
		}
		var err error
		if p.SKU, err = requireField(SourceProduct, row, "sku", rec[0]); err != nil {
			return p, err
		}
		if p.ListPrice, err = parseDecimal(SourceProduct, row, "list_price", rec[3]); err != nil {
			return p, err
		}
		if p.CreatedAt, err = parseTime(SourceProduct, row, "created_at", rec[5]); err != nil {
			return p, err
		}
		return p, nil
	})
}

func loadProductCategories(dir string) ([]ProductCategory, error) {
	return readSource(dir, SourceProductCategory, func(rec []string, row int) (ProductCategory, error) {
		c := ProductCategory{Name: rec[1], ParentID: rec[2]}
		var err error
		if c.CategoryID, err = requireField(SourceProductCategory, row, "category_id", rec[0]); err != nil {
			return c, err
		}
		return c, nil
	})
}

func loadProvinces(dir string) ([]Province, error) {
	return readSource(dir, SourceProvince, func(rec []string, row int) (Province, error) {
		p := Province{Name: rec[1], Code: rec[2]}
		var err error
		if p.ProvinceID, err = requireField(SourceProvince, row, "province_id", rec[0]); err != nil {
			return p, err
		}
		return p, nil
	})
}

func loadSalesOrders(dir string) ([]SalesOrder, error) {
	return readSource(dir, SourceSalesOrder, func(rec []string, row int) (SalesOrder, error) {
		o := SalesOrder{
			StoreID:           rec[3],
			BillingAddressID:  rec[5],
			ShippingAddressID: rec[6],
			Status:            rec[7],
			CurrencyCode:      rec[8],
		}
		var err error
		if o.OrderID, err = requireField(SourceSalesOrder, row, "order_id", rec[0]); err != nil {
			return o, err
		}
		if o.CustomerID, err = requireField(SourceSalesOrder, row, "customer_id", rec[1]); err != nil {
			return o, err
		}
		if o.ChannelCode, err = requireField(SourceSalesOrder, row, "channel_code", rec[2]); err != nil {
			return o, err
		}
		if o.OrderDate, err = parseTime(SourceSalesOrder, row, "order_date", rec[4]); err != nil {
			return o, err
		}
		if o.Subtotal, err = parseDecimal(SourceSalesOrder, row, "subtotal", rec[9]); err != nil {
			return o, err
		}
		if o.TaxAmount, err = parseDecimal(SourceSalesOrder, row, "tax_amount", rec[10]); err != nil {
			return o, err
		}
		if o.ShippingFee, err = parseDecimal(SourceSalesOrder, row, "shipping_fee", rec[11]); err != nil {
			return o, err
		}
		if o.TotalAmount, err = parseDecimal(SourceSalesOrder, row, "total_amount", rec[12]); err != nil {
			return o, err
		}
		return o, nil
	})
}

func loadSalesOrderItems(dir string) ([]SalesOrderItem, error) {
	return readSource(dir, SourceSalesOrderItem, func(rec []string, row int) (SalesOrderItem, error) {
		it := SalesOrderItem{}
		var err error
		if it.OrderItemID, err = requireField(SourceSalesOrderItem, row, "order_item_id", rec[0]); err != nil {
			return it, err
		}
		if it.OrderID, err = requireField(SourceSalesOrderItem, row, "order_id", rec[1]); err != nil {
			return it, err
		}
		if it.SKU, err = requireField(SourceSalesOrderItem, row, "sku", rec[2]); err != nil {
			return it, err
		}
		if it.Quantity, err = parseInt(SourceSalesOrderItem, row, "quantity", rec[3]); err != nil {
			return it, err
		}
		if it.UnitPrice, err = parseDecimal(SourceSalesOrderItem, row, "unit_price", rec[4]); err != nil {
			return it, err
		}
		if it.DiscountAmount, err = parseDecimalOrZero(SourceSalesOrderItem, row, "discount_amount", rec[5]); err != nil {
			return it, err
		}
		return it, nil
	})
}

func loadShipments(dir string) ([]Shipment, error) {
	return readSource(dir, SourceShipment, func(rec []string, row int) (Shipment, error) {
		s := Shipment{
			Carrier:        rec[2],
			TrackingNumber: rec[5],
		}
		var err error
		if s.ShipmentID, err = requireField(SourceShipment, row, "shipment_id", rec[0]); err != nil {
			return s, err
		}
		if s.OrderID, err = requireField(SourceShipment, row, "order_id", rec[1]); err != nil {
			return s, err
		}
		if s.ShippedAt, err = parseTime(SourceShipment, row, "shipped_at", rec[3]); err != nil {
			return s, err
		}
		if s.DeliveredAt, err = parseOptionalTime(SourceShipment, row, "delivered_at", rec[4]); err != nil {
			return s, err
		}
		return s, nil
	})
}

func loadStores(dir string) ([]Store, error) {
	return readSource(dir, SourceStore, func(rec []string, row int) (Store, error) {
		s := Store{Name: rec[1], AddressID: rec[2]}
		var err error
		if s.StoreID, err = requireField(SourceStore, row, "store_id", rec[0]); err != nil {
			return s, err
		}
		return s, nil
	})
}

func loadWebSessions(dir string) ([]WebSession, error) {
	return readSource(dir, SourceWebSession, func(rec []string, row int) (WebSession, error) {
		w := WebSession{
			CustomerID: rec[1],
			Source:     rec[4],
			Device:     rec[5],
		}
		var err error
		if w.SessionID, err = requireField(SourceWebSession, row, "session_id", rec[0]); err != nil {
			return w, err
		}
		if w.StartedAt, err = parseTime(SourceWebSession, row, "started_at", rec[2]); err != nil {
			return w, err
		}
		if w.EndedAt, err = parseOptionalTime(SourceWebSession, row, "ended_at", rec[3]); err != nil {
			return w, err
		}
		return w, nil
	})
}
