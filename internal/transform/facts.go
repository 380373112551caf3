//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

// copyRef clones a nullable surrogate key so fact rows never share pointers.
func copyRef(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// buildSalesOrders builds fact_sales_order and the parent-order index used
// by the line item, payment and shipment builders.
func (b *Builder) buildSalesOrders(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	b.orderIndex = make(map[string]warehouse.SalesOrder, len(ds.SalesOrders))
	for i := range ds.SalesOrders {
		f, err := b.factSalesOrder(&ds.SalesOrders[i])
		if err != nil {
			if b.skip(err) {
				continue
			}
			return err
		}
		if _, dup := b.orderIndex[f.OrderKey]; dup {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceSalesOrder, Key: f.OrderKey,
				Field: "order_id", Reason: "duplicate order_id",
			}
		}
		f.ID = int64(len(snap.SalesOrders) + 1)
		snap.SalesOrders = append(snap.SalesOrders, f)
		b.orderIndex[f.OrderKey] = f
	}
	return nil
}

func (b *Builder) factSalesOrder(o *rawdata.SalesOrder) (warehouse.SalesOrder, error) {
	const fact = warehouse.TableFactSalesOrder
	f := warehouse.SalesOrder{
		OrderKey:     strings.TrimSpace(o.OrderID),
		OrderTime:    timeOfDay(o.OrderDate),
		Status:       o.Status,
		CurrencyCode: strings.ToUpper(strings.TrimSpace(o.CurrencyCode)),
		Subtotal:     o.Subtotal,
		TaxAmount:    o.TaxAmount,
		ShippingFee:  o.ShippingFee,
		TotalAmount:  o.TotalAmount,
	}
	if f.OrderKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceSalesOrder, Field: "order_id", Reason: "required value is missing",
		}
	}

	customerKey := strings.TrimSpace(o.CustomerID)
	if customerKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceSalesOrder, Key: f.OrderKey,
			Field: "customer_id", Reason: "required value is missing",
		}
	}
	channelKey := canonicalChannel(o.ChannelCode)
	if channelKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceSalesOrder, Key: f.OrderKey,
			Field: "channel_code", Reason: "required value is missing",
		}
	}
	if o.OrderDate.IsZero() {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceSalesOrder, Key: f.OrderKey,
			Field: "order_date", Reason: "required value is missing",
		}
	}

	var err error
	if f.CustomerID, err = b.resolveKey(fact, f.OrderKey, DimCustomer, customerKey); err != nil {
		return f, err
	}
	if f.ChannelID, err = b.resolveKey(fact, f.OrderKey, DimChannel, channelKey); err != nil {
		return f, err
	}
	if f.OrderDateID, err = b.resolveKey(fact, f.OrderKey, DimCalendar, dateKey(o.OrderDate)); err != nil {
		return f, err
	}
	if f.StoreID, err = b.resolveOptionalKey(fact, f.OrderKey, DimStore, strings.TrimSpace(o.StoreID)); err != nil {
		return f, err
	}
	if f.BillingAddressID, err = b.resolveOptionalKey(fact, f.OrderKey, DimAddress, strings.TrimSpace(o.BillingAddressID)); err != nil {
		return f, err
	}
	if f.ShippingAddressID, err = b.resolveOptionalKey(fact, f.OrderKey, DimAddress, strings.TrimSpace(o.ShippingAddressID)); err != nil {
		return f, err
	}
	return f, nil
}

// buildSalesOrderItems builds fact_sales_order_item. Order-level keys come
// from the parent order's fact row; line_total is derived here.
func (b *Builder) buildSalesOrderItems(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	seen := make(map[string]struct{}, len(ds.SalesOrderItems))
	for i := range ds.SalesOrderItems {
		f, err := b.factSalesOrderItem(&ds.SalesOrderItems[i])
		if err != nil {
			if b.skip(err) {
				continue
			}
			return err
		}
		if _, dup := seen[f.OrderItemKey]; dup {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceSalesOrderItem, Key: f.OrderItemKey,
				Field: "order_item_id", Reason: "duplicate order_item_id",
			}
		}
		seen[f.OrderItemKey] = struct{}{}
		f.ID = int64(len(snap.SalesOrderItems) + 1)
		snap.SalesOrderItems = append(snap.SalesOrderItems, f)
	}
	return nil
}

func (b *Builder) factSalesOrderItem(it *rawdata.SalesOrderItem) (warehouse.SalesOrderItem, error) {
	const fact = warehouse.TableFactSalesOrderItem
	f := warehouse.SalesOrderItem{
		OrderItemKey:   strings.TrimSpace(it.OrderItemID),
		OrderKey:       strings.TrimSpace(it.OrderID),
		Quantity:       it.Quantity,
		UnitPrice:      it.UnitPrice,
		DiscountAmount: it.DiscountAmount,
	}
	if f.OrderItemKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceSalesOrderItem, Field: "order_item_id", Reason: "required value is missing",
		}
	}
	if f.OrderKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceSalesOrderItem, Key: f.OrderItemKey,
			Field: "order_id", Reason: "required value is missing",
		}
	}
	skuKey := strings.TrimSpace(it.SKU)
	if skuKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceSalesOrderItem, Key: f.OrderItemKey,
			Field: "sku", Reason: "required value is missing",
		}
	}

	parent, ok := b.orderIndex[f.OrderKey]
	if !ok {
		return f, &UnresolvedReferenceError{
			Fact: fact, RowKey: f.OrderItemKey,
			Target: warehouse.TableFactSalesOrder, Key: f.OrderKey,
		}
	}
	f.CustomerID = parent.CustomerID
	f.ChannelID = parent.ChannelID
	f.StoreID = copyRef(parent.StoreID)
	f.OrderDateID = parent.OrderDateID

	var err error
	if f.ProductID, err = b.resolveKey(fact, f.OrderItemKey, DimProduct, skuKey); err != nil {
		return f, err
	}

	// line_total = unit_price * quantity - discount_amount, exactly.
	quantity := decimal.NewFromInt(int64(it.Quantity))
	f.LineTotal = it.UnitPrice.Mul(quantity).Sub(it.DiscountAmount)
	return f, nil
}

// buildPayments builds fact_payment. The customer and billing address come
// from the parent order; paid_at is nil for payments that never settled.
func (b *Builder) buildPayments(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	seen := make(map[string]struct{}, len(ds.Payments))
	for i := range ds.Payments {
		f, err := b.factPayment(&ds.Payments[i])
		if err != nil {
			if b.skip(err) {
				continue
			}
			return err
		}
		if _, dup := seen[f.PaymentKey]; dup {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourcePayment, Key: f.PaymentKey,
				Field: "payment_id", Reason: "duplicate payment_id",
			}
		}
		seen[f.PaymentKey] = struct{}{}
		f.ID = int64(len(snap.Payments) + 1)
		snap.Payments = append(snap.Payments, f)
	}
	return nil
}

func (b *Builder) factPayment(p *rawdata.Payment) (warehouse.Payment, error) {
	const fact = warehouse.TableFactPayment
	f := warehouse.Payment{
		PaymentKey:     strings.TrimSpace(p.PaymentID),
		OrderKey:       strings.TrimSpace(p.OrderID),
		Method:         p.Method,
		Status:         p.Status,
		Amount:         p.Amount,
		PaidAtTime:     timeOfDay(p.PaidAt),
		TransactionRef: p.TransactionRef,
	}
	if f.PaymentKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourcePayment, Field: "payment_id", Reason: "required value is missing",
		}
	}
	if f.OrderKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourcePayment, Key: f.PaymentKey,
			Field: "order_id", Reason: "required value is missing",
		}
	}

	parent, ok := b.orderIndex[f.OrderKey]
	if !ok {
		return f, &UnresolvedReferenceError{
			Fact: fact, RowKey: f.PaymentKey,
			Target: warehouse.TableFactSalesOrder, Key: f.OrderKey,
		}
	}
	f.CustomerID = parent.CustomerID
	f.BillingAddressID = copyRef(parent.BillingAddressID)

	if !p.PaidAt.IsZero() {
		paidDate, err := b.resolveKey(fact, f.PaymentKey, DimCalendar, dateKey(p.PaidAt))
		if err != nil {
			return f, err
		}
		f.PaidAtDateID = &paidDate
	}
	return f, nil
}

// buildShipments builds fact_shipment. DeliveryDays stays nil until the
// shipment is delivered, or when delivered_at precedes shipped_at.
func (b *Builder) buildShipments(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	seen := make(map[string]struct{}, len(ds.Shipments))
	for i := range ds.Shipments {
		f, err := b.factShipment(&ds.Shipments[i])
		if err != nil {
			if b.skip(err) {
				continue
			}
			return err
		}
		if _, dup := seen[f.ShipmentKey]; dup {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceShipment, Key: f.ShipmentKey,
				Field: "shipment_id", Reason: "duplicate shipment_id",
			}
		}
		seen[f.ShipmentKey] = struct{}{}
		f.ID = int64(len(snap.Shipments) + 1)
		snap.Shipments = append(snap.Shipments, f)
	}
	return nil
}

func (b *Builder) factShipment(s *rawdata.Shipment) (warehouse.Shipment, error) {
	const fact = warehouse.TableFactShipment
	f := warehouse.Shipment{
		ShipmentKey:     strings.TrimSpace(s.ShipmentID),
		OrderKey:        strings.TrimSpace(s.OrderID),
		Carrier:         s.Carrier,
		ShippedAtTime:   timeOfDay(s.ShippedAt),
		DeliveredAtTime: timeOfDay(s.DeliveredAt),
		TrackingNumber:  s.TrackingNumber,
	}
	if f.ShipmentKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceShipment, Field: "shipment_id", Reason: "required value is missing",
		}
	}
	if f.OrderKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceShipment, Key: f.ShipmentKey,
			Field: "order_id", Reason: "required value is missing",
		}
	}
	if s.ShippedAt.IsZero() {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceShipment, Key: f.ShipmentKey,
			Field: "shipped_at", Reason: "required value is missing",
		}
	}

	parent, ok := b.orderIndex[f.OrderKey]
	if !ok {
		return f, &UnresolvedReferenceError{
			Fact: fact, RowKey: f.ShipmentKey,
			Target: warehouse.TableFactSalesOrder, Key: f.OrderKey,
		}
	}
	f.CustomerID = parent.CustomerID
	f.ShippingAddressID = copyRef(parent.ShippingAddressID)

	var err error
	if f.ShippedAtDateID, err = b.resolveKey(fact, f.ShipmentKey, DimCalendar, dateKey(s.ShippedAt)); err != nil {
		return f, err
	}
	if !s.DeliveredAt.IsZero() {
		deliveredDate, err := b.resolveKey(fact, f.ShipmentKey, DimCalendar, dateKey(s.DeliveredAt))
		if err != nil {
			return f, err
		}
		f.DeliveredAtDateID = &deliveredDate

		// Whole calendar days in transit; negative spans leave it unset.
		days := int(dateOnly(s.DeliveredAt).Sub(dateOnly(s.ShippedAt)).Hours() / 24)
		if days >= 0 {
			f.DeliveryDays = &days
		}
	}
	return f, nil
}

// buildNPSResponses builds fact_nps_response.
func (b *Builder) buildNPSResponses(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	seen := make(map[string]struct{}, len(ds.NPSResponses))
	for i := range ds.NPSResponses {
		f, err := b.factNPSResponse(&ds.NPSResponses[i])
		if err != nil {
			if b.skip(err) {
				continue
			}
			return err
		}
		if _, dup := seen[f.NPSKey]; dup {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceNPSResponse, Key: f.NPSKey,
				Field: "nps_id", Reason: "duplicate nps_id",
			}
		}
		seen[f.NPSKey] = struct{}{}
		f.ID = int64(len(snap.NPSResponses) + 1)
		snap.NPSResponses = append(snap.NPSResponses, f)
	}
	return nil
}

func (b *Builder) factNPSResponse(n *rawdata.NPSResponse) (warehouse.NPSResponse, error) {
	const fact = warehouse.TableFactNPSResponse
	f := warehouse.NPSResponse{
		NPSKey:          strings.TrimSpace(n.NPSID),
		RespondedAtTime: timeOfDay(n.RespondedAt),
		Score:           n.Score,
	}
	if f.NPSKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceNPSResponse, Field: "nps_id", Reason: "required value is missing",
		}
	}
	customerKey := strings.TrimSpace(n.CustomerID)
	if customerKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceNPSResponse, Key: f.NPSKey,
			Field: "customer_id", Reason: "required value is missing",
		}
	}
	channelKey := canonicalChannel(n.ChannelCode)
	if channelKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceNPSResponse, Key: f.NPSKey,
			Field: "channel_code", Reason: "required value is missing",
		}
	}
	if n.RespondedAt.IsZero() {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceNPSResponse, Key: f.NPSKey,
			Field: "responded_at", Reason: "required value is missing",
		}
	}

	var err error
	if f.CustomerID, err = b.resolveKey(fact, f.NPSKey, DimCustomer, customerKey); err != nil {
		return f, err
	}
	if f.ChannelID, err = b.resolveKey(fact, f.NPSKey, DimChannel, channelKey); err != nil {
		return f, err
	}
	if f.RespondedAtDateID, err = b.resolveKey(fact, f.NPSKey, DimCalendar, dateKey(n.RespondedAt)); err != nil {
		return f, err
	}
	return f, nil
}

// buildWebSessions builds fact_web_session. Anonymous sessions carry a nil
// customer key.
func (b *Builder) buildWebSessions(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	seen := make(map[string]struct{}, len(ds.WebSessions))
	for i := range ds.WebSessions {
		f, err := b.factWebSession(&ds.WebSessions[i])
		if err != nil {
			if b.skip(err) {
				continue
			}
			return err
		}
		if _, dup := seen[f.SessionKey]; dup {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceWebSession, Key: f.SessionKey,
				Field: "session_id", Reason: "duplicate session_id",
			}
		}
		seen[f.SessionKey] = struct{}{}
		f.ID = int64(len(snap.WebSessions) + 1)
		snap.WebSessions = append(snap.WebSessions, f)
	}
	return nil
}

func (b *Builder) factWebSession(w *rawdata.WebSession) (warehouse.WebSession, error) {
	const fact = warehouse.TableFactWebSession
	f := warehouse.WebSession{
		SessionKey:    strings.TrimSpace(w.SessionID),
		StartedAtTime: timeOfDay(w.StartedAt),
		EndedAtTime:   timeOfDay(w.EndedAt),
		Source:        w.Source,
		Device:        w.Device,
	}
	if f.SessionKey == "" {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceWebSession, Field: "session_id", Reason: "required value is missing",
		}
	}
	if w.StartedAt.IsZero() {
		return f, &rawdata.MalformedInputError{
			Source: rawdata.SourceWebSession, Key: f.SessionKey,
			Field: "started_at", Reason: "required value is missing",
		}
	}

	var err error
	if f.CustomerID, err = b.resolveOptionalKey(fact, f.SessionKey, DimCustomer, strings.TrimSpace(w.CustomerID)); err != nil {
		return f, err
	}
	if f.StartedAtDateID, err = b.resolveKey(fact, f.SessionKey, DimCalendar, dateKey(w.StartedAt)); err != nil {
		return f, err
	}
	if !w.EndedAt.IsZero() {
		endedDate, err := b.resolveKey(fact, f.SessionKey, DimCalendar, dateKey(w.EndedAt))
		if err != nil {
			return f, err
		}
		f.EndedAtDateID = &endedDate
	}
	return f, nil
}
