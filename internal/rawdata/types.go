//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package rawdata loads the raw EcoBottle transactional snapshot: one CSV
// file per source table, read into typed records. Identifiers stay strings,
// money becomes decimal, timestamps become time.Time (the zero value marks
// an absent optional timestamp).
package rawdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source names. Each corresponds to a <name>.csv file in the input directory.
const (
	SourceAddress         = "address"
	SourceChannel         = "channel"
	SourceCustomer        = "customer"
	SourceNPSResponse     = "nps_response"
	SourcePayment         = "payment"
	SourceProduct         = "product"
	SourceProductCategory = "product_category"
	SourceProvince        = "province"
	SourceSalesOrder      = "sales_order"
	SourceSalesOrderItem  = "sales_order_item"
	SourceShipment        = "shipment"
	SourceStore           = "store"
	SourceWebSession      = "web_session"
)

// Sources lists every raw source in load order.
var Sources = []string{
	SourceAddress,
	SourceChannel,
	SourceCustomer,
	SourceNPSResponse,
	SourcePayment,
	SourceProduct,
	SourceProductCategory,
	SourceProvince,
	SourceSalesOrder,
	SourceSalesOrderItem,
	SourceShipment,
	SourceStore,
	SourceWebSession,
}

// sourceHeaders defines the expected CSV column order of every raw source.
var sourceHeaders = map[string][]string{
	SourceAddress:         {"address_id", "line1", "line2", "city", "province_id", "postal_code", "country_code", "created_at"},
	SourceChannel:         {"code", "name"},
	SourceCustomer:        {"customer_id", "email", "first_name", "last_name", "phone", "status", "created_at"},
	SourceNPSResponse:     {"nps_id", "customer_id", "channel_code", "score", "responded_at"},
	SourcePayment:         {"payment_id", "order_id", "method", "status", "amount", "paid_at", "transaction_ref"},
	SourceProduct:         {"sku", "name", "category_id", "list_price", "status", "created_at"},
	SourceProductCategory: {"category_id", "name", "parent_id"},
	SourceProvince:        {"province_id", "name", "code"},
	SourceSalesOrder: {"order_id", "customer_id", "channel_code", "store_id", "order_date",
		"billing_address_id", "shipping_address_id", "status", "currency_code",
		"subtotal", "tax_amount", "shipping_fee", "total_amount"},
	SourceSalesOrderItem: {"order_item_id", "order_id", "sku", "quantity", "unit_price", "discount_amount"},
	SourceShipment:       {"shipment_id", "order_id", "carrier", "shipped_at", "delivered_at", "tracking_number"},
	SourceStore:          {"store_id", "name", "address_id"},
	SourceWebSession:     {"session_id", "customer_id", "started_at", "ended_at", "source", "device"},
}

// Header returns the CSV column order of a raw source, nil if the source is
// unknown.
func Header(source string) []string {
	return sourceHeaders[source]
}

// Customer is one row of the raw customer extract.
type Customer struct {
	CustomerID string
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	Status     string
	CreatedAt  time.Time
}

// Product is one row of the raw product catalog. SKU is the natural key.
type Product struct {
	SKU        string
	Name       string
	CategoryID string
	ListPrice  decimal.Decimal
	Status     string
	CreatedAt  time.Time
}

// ProductCategory is a catalog category; ParentID is empty for top-level
// categories.
type ProductCategory struct {
	CategoryID string
	Name       string
	ParentID   string
}

// Channel is a sales channel (e.g. ONLINE, OFFLINE). Code is the natural key.
type Channel struct {
	Code string
	Name string
}

// Address is one row of the raw address book. The same physical address may
// appear under several AddressIDs.
type Address struct {
	AddressID   string
	Line1       string
	Line2       string
	City        string
	ProvinceID  string
	PostalCode  string
	CountryCode string
	CreatedAt   time.Time
}

// Province is a lookup row used to denormalize province names and codes.
type Province struct {
	ProvinceID string
	Name       string
	Code       string
}

// Store is a physical store; AddressID may be empty.
type Store struct {
	StoreID   string
	Name      string
	AddressID string
}

// SalesOrder is one order header.
type SalesOrder struct {
	OrderID           string
	CustomerID        string
	ChannelCode       string
	StoreID           string // empty for online orders
	OrderDate         time.Time
	BillingAddressID  string // empty when not captured
	ShippingAddressID string // empty for store pickup
	Status            string
	CurrencyCode      string
	Subtotal          decimal.Decimal
	TaxAmount         decimal.Decimal
	ShippingFee       decimal.Decimal
	TotalAmount       decimal.Decimal
}

// SalesOrderItem is one order line. Products are referenced by SKU.
type SalesOrderItem struct {
	OrderItemID    string
	OrderID        string
	SKU            string
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
}

// Payment is one payment attempt against an order. PaidAt is zero when the
// payment never settled.
type Payment struct {
	PaymentID      string
	OrderID        string
	Method         string
	Status         string
	Amount         decimal.Decimal
	PaidAt         time.Time
	TransactionRef string
}

// Shipment is one outbound shipment. DeliveredAt is zero while in transit.
type Shipment struct {
	ShipmentID     string
	OrderID        string
	Carrier        string
	ShippedAt      time.Time
	DeliveredAt    time.Time
	TrackingNumber string
}

// WebSession is one tracked website visit. CustomerID is empty for anonymous
// sessions, EndedAt is zero when the session never closed cleanly.
type WebSession struct {
	SessionID  string
	CustomerID string
	StartedAt  time.Time
	EndedAt    time.Time
	Source     string
	Device     string
}

// NPSResponse is one answer to the post-purchase NPS survey.
type NPSResponse struct {
	NPSID       string
	CustomerID  string
	ChannelCode string
	Score       int
	RespondedAt time.Time
}

// Dataset holds one complete raw snapshot, one slice per source.
type Dataset struct {
	Addresses       []Address
	Channels        []Channel
	Customers       []Customer
	NPSResponses    []NPSResponse
	Payments        []Payment
	Products        []Product
	Categories      []ProductCategory
	Provinces       []Province
	SalesOrders     []SalesOrder
	SalesOrderItems []SalesOrderItem
	Shipments       []Shipment
	Stores          []Store
	WebSessions     []WebSession
}

// TotalRows returns the row count across all sources.
func (d *Dataset) TotalRows() int {
	return len(d.Addresses) + len(d.Channels) + len(d.Customers) +
		len(d.NPSResponses) + len(d.Payments) + len(d.Products) +
		len(d.Categories) + len(d.Provinces) + len(d.SalesOrders) +
		len(d.SalesOrderItems) + len(d.Shipments) + len(d.Stores) +
		len(d.WebSessions)
}
