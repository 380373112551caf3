//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import "fmt"

// InvariantError reports a structural defect in a built snapshot: a
// non-sequential or duplicate surrogate key, a duplicate natural key, an
// out-of-order calendar, or an orphaned foreign key. Such a defect means a
// builder bug, so it always aborts the run before anything is written.
type InvariantError struct {
	Table  string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("warehouse invariant violated in %s: %s", e.Table, e.Detail)
}

// Validate checks snapshot-wide invariants: surrogate keys run 1..N per
// table, natural keys are unique within each dimension, calendar dates are
// strictly ascending, and every foreign key lands on an existing dimension
// row.
func Validate(s *Snapshot) error {
	if err := validateCalendar(s.Calendar); err != nil {
		return err
	}
	if err := validateDim(TableDimCustomer, len(s.Customers), func(i int) (int64, string) {
		return s.Customers[i].ID, s.Customers[i].CustomerKey
	}); err != nil {
		return err
	}
	if err := validateDim(TableDimProduct, len(s.Products), func(i int) (int64, string) {
		return s.Products[i].ID, s.Products[i].ProductKey
	}); err != nil {
		return err
	}
	if err := validateDim(TableDimChannel, len(s.Channels), func(i int) (int64, string) {
		return s.Channels[i].ID, s.Channels[i].ChannelKey
	}); err != nil {
		return err
	}
	if err := validateDim(TableDimAddress, len(s.Addresses), func(i int) (int64, string) {
		a := s.Addresses[i]
		return a.ID, CanonicalAddressKey(a.Line1, a.City, a.PostalCode)
	}); err != nil {
		return err
	}
	if err := validateDim(TableDimStore, len(s.Stores), func(i int) (int64, string) {
		return s.Stores[i].ID, s.Stores[i].StoreKey
	}); err != nil {
		return err
	}

	if err := validateSalesOrders(s); err != nil {
		return err
	}
	if err := validateSalesOrderItems(s); err != nil {
		return err
	}
	if err := validatePayments(s); err != nil {
		return err
	}
	if err := validateShipments(s); err != nil {
		return err
	}
	if err := validateNPSResponses(s); err != nil {
		return err
	}
	return validateWebSessions(s)
}

func validateCalendar(days []CalendarDay) error {
	for i, d := range days {
		if d.ID != int64(i+1) {
			return &InvariantError{Table: TableDimCalendar,
				Detail: fmt.Sprintf("row %d has surrogate key %d, want %d", i+1, d.ID, i+1)}
		}
		if i > 0 && !days[i-1].Date.Before(d.Date) {
			return &InvariantError{Table: TableDimCalendar,
				Detail: fmt.Sprintf("dates out of order at row %d: %s after %s",
					i+1, d.Date.Format(DateLayout), days[i-1].Date.Format(DateLayout))}
		}
	}
	return nil
}

func validateDim(table string, n int, row func(i int) (int64, string)) error {
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id, key := row(i)
		if id != int64(i+1) {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("row %d has surrogate key %d, want %d", i+1, id, i+1)}
		}
		if _, dup := seen[key]; dup {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("duplicate natural key %q", key)}
		}
		seen[key] = struct{}{}
	}
	return nil
}

// checkRef verifies a required foreign key lands inside the target dimension.
func checkRef(table string, row int64, column string, fk int64, dimRows int, dimTable string) error {
	if fk < 1 || fk > int64(dimRows) {
		return &InvariantError{Table: table,
			Detail: fmt.Sprintf("row %d: %s %d has no %s row", row, column, fk, dimTable)}
	}
	return nil
}

// checkOptRef verifies a nullable foreign key when present.
func checkOptRef(table string, row int64, column string, fk *int64, dimRows int, dimTable string) error {
	if fk == nil {
		return nil
	}
	return checkRef(table, row, column, *fk, dimRows, dimTable)
}

func validateSalesOrders(s *Snapshot) error {
	const table = TableFactSalesOrder
	seen := make(map[string]struct{}, len(s.SalesOrders))
	for i, f := range s.SalesOrders {
		if f.ID != int64(i+1) {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("row %d has surrogate key %d, want %d", i+1, f.ID, i+1)}
		}
		if _, dup := seen[f.OrderKey]; dup {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("duplicate order_key %q", f.OrderKey)}
		}
		seen[f.OrderKey] = struct{}{}
		if err := checkRef(table, f.ID, "customer_id", f.CustomerID, len(s.Customers), TableDimCustomer); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "channel_id", f.ChannelID, len(s.Channels), TableDimChannel); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "store_id", f.StoreID, len(s.Stores), TableDimStore); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "order_date_id", f.OrderDateID, len(s.Calendar), TableDimCalendar); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "billing_address_id", f.BillingAddressID, len(s.Addresses), TableDimAddress); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "shipping_address_id", f.ShippingAddressID, len(s.Addresses), TableDimAddress); err != nil {
			return err
		}
	}
	return nil
}

func validateSalesOrderItems(s *Snapshot) error {
	const table = TableFactSalesOrderItem
	seen := make(map[string]struct{}, len(s.SalesOrderItems))
	for i, f := range s.SalesOrderItems {
		if f.ID != int64(i+1) {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("row %d has surrogate key %d, want %d", i+1, f.ID, i+1)}
		}
		if _, dup := seen[f.OrderItemKey]; dup {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("duplicate order_item_key %q", f.OrderItemKey)}
		}
		seen[f.OrderItemKey] = struct{}{}
		if err := checkRef(table, f.ID, "customer_id", f.CustomerID, len(s.Customers), TableDimCustomer); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "channel_id", f.ChannelID, len(s.Channels), TableDimChannel); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "store_id", f.StoreID, len(s.Stores), TableDimStore); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "product_id", f.ProductID, len(s.Products), TableDimProduct); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "order_date_id", f.OrderDateID, len(s.Calendar), TableDimCalendar); err != nil {
			return err
		}
	}
	return nil
}

func validatePayments(s *Snapshot) error {
	const table = TableFactPayment
	seen := make(map[string]struct{}, len(s.Payments))
	for i, f := range s.Payments {
		if f.ID != int64(i+1) {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("row %d has surrogate key %d, want %d", i+1, f.ID, i+1)}
		}
		if _, dup := seen[f.PaymentKey]; dup {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("duplicate payment_key %q", f.PaymentKey)}
		}
		seen[f.PaymentKey] = struct{}{}
		if err := checkRef(table, f.ID, "customer_id", f.CustomerID, len(s.Customers), TableDimCustomer); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "billing_address_id", f.BillingAddressID, len(s.Addresses), TableDimAddress); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "paid_at_date_id", f.PaidAtDateID, len(s.Calendar), TableDimCalendar); err != nil {
			return err
		}
	}
	return nil
}

func validateShipments(s *Snapshot) error {
	const table = TableFactShipment
	seen := make(map[string]struct{}, len(s.Shipments))
	for i, f := range s.Shipments {
		if f.ID != int64(i+1) {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("row %d has surrogate key %d, want %d", i+1, f.ID, i+1)}
		}
		if _, dup := seen[f.ShipmentKey]; dup {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("duplicate shipment_key %q", f.ShipmentKey)}
		}
		seen[f.ShipmentKey] = struct{}{}
		if err := checkRef(table, f.ID, "customer_id", f.CustomerID, len(s.Customers), TableDimCustomer); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "shipping_address_id", f.ShippingAddressID, len(s.Addresses), TableDimAddress); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "shipped_at_date_id", f.ShippedAtDateID, len(s.Calendar), TableDimCalendar); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "delivered_at_date_id", f.DeliveredAtDateID, len(s.Calendar), TableDimCalendar); err != nil {
			return err
		}
	}
	return nil
}

func validateNPSResponses(s *Snapshot) error {
	const table = TableFactNPSResponse
	seen := make(map[string]struct{}, len(s.NPSResponses))
	for i, f := range s.NPSResponses {
		if f.ID != int64(i+1) {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("row %d has surrogate key %d, want %d", i+1, f.ID, i+1)}
		}
		if _, dup := seen[f.NPSKey]; dup {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("duplicate nps_key %q", f.NPSKey)}
		}
		seen[f.NPSKey] = struct{}{}
		if err := checkRef(table, f.ID, "customer_id", f.CustomerID, len(s.Customers), TableDimCustomer); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "channel_id", f.ChannelID, len(s.Channels), TableDimChannel); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "responded_at_date_id", f.RespondedAtDateID, len(s.Calendar), TableDimCalendar); err != nil {
			return err
		}
	}
	return nil
}

func validateWebSessions(s *Snapshot) error {
	const table = TableFactWebSession
	seen := make(map[string]struct{}, len(s.WebSessions))
	for i, f := range s.WebSessions {
		if f.ID != int64(i+1) {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("row %d has surrogate key %d, want %d", i+1, f.ID, i+1)}
		}
		if _, dup := seen[f.SessionKey]; dup {
			return &InvariantError{Table: table,
				Detail: fmt.Sprintf("duplicate session_key %q", f.SessionKey)}
		}
		seen[f.SessionKey] = struct{}{}
		if err := checkOptRef(table, f.ID, "customer_id", f.CustomerID, len(s.Customers), TableDimCustomer); err != nil {
			return err
		}
		if err := checkRef(table, f.ID, "started_at_date_id", f.StartedAtDateID, len(s.Calendar), TableDimCalendar); err != nil {
			return err
		}
		if err := checkOptRef(table, f.ID, "ended_at_date_id", f.EndedAtDateID, len(s.Calendar), TableDimCalendar); err != nil {
			return err
		}
	}
	return nil
}
