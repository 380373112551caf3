//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse defines the star-schema output model: six dimension
// tables and six fact tables. Surrogate keys are sequential int64 starting
// at 1 per table; nullable foreign keys and measures are pointers; a zero
// time.Time in a dimension attribute means the value is unknown.
package warehouse

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Value layouts shared by the CSV writer and the PostgreSQL loader.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Table names in load order (dimensions before facts).
const (
	TableDimCalendar        = "dim_calendar"
	TableDimCustomer        = "dim_customer"
	TableDimProduct         = "dim_product"
	TableDimChannel         = "dim_channel"
	TableDimAddress         = "dim_address"
	TableDimStore           = "dim_store"
	TableFactSalesOrder     = "fact_sales_order"
	TableFactSalesOrderItem = "fact_sales_order_item"
	TableFactPayment        = "fact_payment"
	TableFactShipment       = "fact_shipment"
	TableFactNPSResponse    = "fact_nps_response"
	TableFactWebSession     = "fact_web_session"
)

// TableInfo describes one warehouse table.
type TableInfo struct {
	Name  string
	Kind  string // "dimension" or "fact"
	Grain string
}

// Tables lists every warehouse table in load order.
var Tables = []TableInfo{
	{TableDimCalendar, "dimension", "one row per distinct date seen anywhere in the raw snapshot"},
	{TableDimCustomer, "dimension", "one row per customer"},
	{TableDimProduct, "dimension", "one row per product SKU"},
	{TableDimChannel, "dimension", "one row per sales channel"},
	{TableDimAddress, "dimension", "one row per distinct physical address"},
	{TableDimStore, "dimension", "one row per store"},
	{TableFactSalesOrder, "fact", "one row per order header"},
	{TableFactSalesOrderItem, "fact", "one row per order line item"},
	{TableFactPayment, "fact", "one row per payment attempt"},
	{TableFactShipment, "fact", "one row per shipment"},
	{TableFactNPSResponse, "fact", "one row per NPS survey response"},
	{TableFactWebSession, "fact", "one row per tracked web session"},
}

// CanonicalAddressKey builds the natural key of a dim_address row. Two raw
// addresses with the same key describe the same physical address and fold
// into one dimension row.
func CanonicalAddressKey(line1, city, postalCode string) string {
	return strings.ToLower(strings.TrimSpace(line1)) + "|" +
		strings.ToLower(strings.TrimSpace(city)) + "|" +
		strings.ToLower(strings.TrimSpace(postalCode))
}

// CalendarDay is one dim_calendar row.
type CalendarDay struct {
	ID         int64
	Date       time.Time
	Day        int
	Month      int
	Year       int
	DayName    string
	MonthName  string
	Quarter    int
	WeekNumber int // ISO week
	YearMonth  string
	IsWeekend  bool
}

// Customer is one dim_customer row. CustomerKey is the raw customer_id.
type Customer struct {
	ID          int64
	CustomerKey string
	Email       string
	FirstName   string
	LastName    string
	Phone       string
	Status      string
	CreatedAt   time.Time
}

// Product is one dim_product row. ProductKey is the SKU; category names are
// denormalized from the raw category lookup.
type Product struct {
	ID                 int64
	ProductKey         string
	Name               string
	ListPrice          decimal.Decimal
	Status             string
	CreatedAt          time.Time
	CategoryName       string
	ParentCategoryName string
}

// Channel is one dim_channel row. ChannelKey is the channel code.
type Channel struct {
	ID         int64
	ChannelKey string
	Name       string
}

// Address is one dim_address row. The natural key is the canonical
// (line1, city, postal_code) tuple; there is no separate key column.
type Address struct {
	ID           int64
	Line1        string
	Line2        string
	City         string
	ProvinceName string
	ProvinceCode string
	PostalCode   string
	CountryCode  string
	CreatedAt    time.Time
}

// Store is one dim_store row with its address and province denormalized.
// Address fields are empty and CreatedAt is zero when the store's address
// is unknown.
type Store struct {
	ID           int64
	StoreKey     string
	Name         string
	Line         string
	City         string
	ProvinceName string
	ProvinceCode string
	PostalCode   string
	CountryCode  string
	CreatedAt    time.Time
}

// SalesOrder is one fact_sales_order row.
type SalesOrder struct {
	ID                int64
	OrderKey          string
	CustomerID        int64
	ChannelID         int64
	StoreID           *int64
	OrderDateID       int64
	OrderTime         string
	BillingAddressID  *int64
	ShippingAddressID *int64
	Status            string
	CurrencyCode      string
	Subtotal          decimal.Decimal
	TaxAmount         decimal.Decimal
	ShippingFee       decimal.Decimal
	TotalAmount       decimal.Decimal
}

// SalesOrderItem is one fact_sales_order_item row. Order-level keys are
// denormalized from the parent order; LineTotal is derived as
// unit_price*quantity - discount_amount.
type SalesOrderItem struct {
	ID             int64
	OrderItemKey   string
	OrderKey       string
	CustomerID     int64
	ChannelID      int64
	StoreID        *int64
	ProductID      int64
	OrderDateID    int64
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal
}

// Payment is one fact_payment row. PaidAtDateID is nil for payments that
// never settled.
type Payment struct {
	ID               int64
	PaymentKey       string
	OrderKey         string
	CustomerID       int64
	BillingAddressID *int64
	Method           string
	Status           string
	Amount           decimal.Decimal
	PaidAtDateID     *int64
	PaidAtTime       string
	TransactionRef   string
}

// Shipment is one fact_shipment row. DeliveryDays (dias_de_entrega) is nil
// until the shipment is delivered, or when the delivery timestamp precedes
// the ship timestamp.
type Shipment struct {
	ID                int64
	ShipmentKey       string
	OrderKey          string
	CustomerID        int64
	ShippingAddressID *int64
	Carrier           string
	ShippedAtDateID   int64
	ShippedAtTime     string
	DeliveredAtDateID *int64
	DeliveredAtTime   string
	TrackingNumber    string
	DeliveryDays      *int
}

// NPSResponse is one fact_nps_response row.
type NPSResponse struct {
	ID                int64
	NPSKey            string
	CustomerID        int64
	ChannelID         int64
	RespondedAtDateID int64
	RespondedAtTime   string
	Score             int
}

// WebSession is one fact_web_session row. CustomerID is nil for anonymous
// sessions.
type WebSession struct {
	ID              int64
	SessionKey      string
	CustomerID      *int64
	StartedAtDateID int64
	StartedAtTime   string
	EndedAtDateID   *int64
	EndedAtTime     string
	Source          string
	Device          string
}

// Snapshot is one fully built warehouse: every dimension and fact table for
// a single run.
type Snapshot struct {
	Calendar  []CalendarDay
	Customers []Customer
	Products  []Product
	Channels  []Channel
	Addresses []Address
	Stores    []Store

	SalesOrders     []SalesOrder
	SalesOrderItems []SalesOrderItem
	Payments        []Payment
	Shipments       []Shipment
	NPSResponses    []NPSResponse
	WebSessions     []WebSession
}

// RowCount returns the number of rows in the named table.
func (s *Snapshot) RowCount(table string) int {
	switch table {
	case TableDimCalendar:
		return len(s.Calendar)
	case TableDimCustomer:
		return len(s.Customers)
	case TableDimProduct:
		return len(s.Products)
	case TableDimChannel:
		return len(s.Channels)
	case TableDimAddress:
		return len(s.Addresses)
	case TableDimStore:
		return len(s.Stores)
	case TableFactSalesOrder:
		return len(s.SalesOrders)
	case TableFactSalesOrderItem:
		return len(s.SalesOrderItems)
	case TableFactPayment:
		return len(s.Payments)
	case TableFactShipment:
		return len(s.Shipments)
	case TableFactNPSResponse:
		return len(s.NPSResponses)
	case TableFactWebSession:
		return len(s.WebSessions)
	}
	return 0
}

// TotalRows returns the row count across all tables.
func (s *Snapshot) TotalRows() int {
	total := 0
	for _, t := range Tables {
		total += s.RowCount(t.Name)
	}
	return total
}
