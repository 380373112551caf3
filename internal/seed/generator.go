//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package seed

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wenceslao015/mkt-tp-final/internal/config"
	"github.com/wenceslao015/mkt-tp-final/internal/logging"
	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
)

const timestampLayout = "2006-01-02 15:04:05"

// Generated activity falls inside one calendar year. Reference rows
// (customers, products, addresses) are created in the first half so orders
// never predate the records they point at.
var (
	windowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowMid   = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
)

const storeCount = 6

var provinces = []struct{ id, name, code string }{
	{"P-1", "Ciudad Autónoma de Buenos Aires", "AR-C"},
	{"P-2", "Buenos Aires", "AR-B"},
	{"P-3", "Córdoba", "AR-X"},
	{"P-4", "Santa Fe", "AR-S"},
	{"P-5", "Mendoza", "AR-M"},
	{"P-6", "Tucumán", "AR-T"},
	{"P-7", "Salta", "AR-A"},
	{"P-8", "Entre Ríos", "AR-E"},
	{"P-9", "Misiones", "AR-N"},
	{"P-10", "Neuquén", "AR-Q"},
}

var channels = []struct{ code, name string }{
	{"ONLINE", "Online store"},
	{"RETAIL", "Retail store"},
	{"MARKETPLACE", "Marketplace"},
}

var channelWeights = []int{60, 30, 10}

var categories = []struct{ id, name, parent string }{
	{"CAT-1", "Bottles", ""},
	{"CAT-2", "Classic", "CAT-1"},
	{"CAT-3", "Thermal", "CAT-1"},
	{"CAT-4", "Sports", "CAT-1"},
	{"CAT-5", "Accessories", ""},
	{"CAT-6", "Caps", "CAT-5"},
	{"CAT-7", "Sleeves", "CAT-5"},
}

// leafCategories are the categories products are assigned to.
var leafCategories = []string{"CAT-2", "CAT-3", "CAT-4", "CAT-6", "CAT-7"}

var cities = []string{
	"CABA", "La Plata", "Córdoba", "Rosario", "Mendoza",
	"San Miguel de Tucumán", "Salta", "Paraná", "Posadas", "Neuquén",
}

var productLines = []string{"Classic", "Thermo", "Sport", "Kids", "Pro", "Urban"}
var productSizes = []string{"350ml", "500ml", "750ml", "1L"}

var customerStatuses = []string{"active", "inactive", "blocked"}
var customerStatusWeights = []int{85, 10, 5}

var orderStatuses = []string{"completed", "delivered", "paid", "created", "cancelled"}
var orderStatusWeights = []int{45, 25, 15, 10, 5}

var paymentMethods = []string{"card", "mercadopago", "transfer", "cash"}
var paymentMethodWeights = []int{50, 30, 15, 5}

var carriers = []string{"Andreani", "OCA", "Correo Argentino", "Urbano"}

var trafficSources = []string{"google", "instagram", "direct", "newsletter", "facebook"}
var trafficSourceWeights = []int{35, 25, 20, 10, 10}

var devices = []string{"mobile", "desktop", "tablet"}
var deviceWeights = []int{60, 35, 5}

// taxRate is the Argentine IVA applied to order subtotals.
var taxRate = decimal.NewFromFloat(0.21)

var shippingFees = []decimal.Decimal{
	decimal.Zero,
	decimal.NewFromInt(500),
	decimal.NewFromInt(750),
	decimal.NewFromInt(990),
}

var shippingFeeWeights = []int{30, 30, 25, 15}

// Generate writes a full set of referentially consistent raw CSV extracts
// into dir. A non-zero cfg.Seed makes the output reproducible.
func Generate(dir string, cfg config.SeedConfig) error {
	start := time.Now()

	f := NewFaker()
	if cfg.Seed != 0 {
		f = NewFakerWithSeed(cfg.Seed)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating seed directory %s: %w", dir, err)
	}

	g := &generator{f: f, dir: dir, cfg: cfg}
	if err := g.run(); err != nil {
		return err
	}

	logging.Info().
		Str("dir", dir).
		Int("sources", len(rawdata.Sources)).
		Int("rows", g.rows).
		Dur("elapsed", time.Since(start)).
		Msg("Raw snapshot generated")

	return nil
}

type generator struct {
	f    *Faker
	dir  string
	cfg  config.SeedConfig
	rows int
}

// Cross-source linkage carried between generation steps.
type seedAddress struct {
	id   string
	city string
}

type seedCustomer struct {
	id        string
	addressID string
	createdAt time.Time
}

type seedProduct struct {
	sku   string
	price decimal.Decimal
}

type seedOrder struct {
	id          string
	customer    seedCustomer
	channelCode string
	shippingID  string
	date        time.Time
	total       decimal.Decimal
	status      string
	deliveredAt time.Time // zero until a shipment delivers
}

func (g *generator) run() error {
	if err := g.writeProvinces(); err != nil {
		return err
	}
	if err := g.writeChannels(); err != nil {
		return err
	}
	if err := g.writeCategories(); err != nil {
		return err
	}

	addresses, err := g.writeAddresses()
	if err != nil {
		return err
	}
	customers, err := g.writeCustomers(addresses)
	if err != nil {
		return err
	}
	products, err := g.writeProducts()
	if err != nil {
		return err
	}
	if err := g.writeStores(addresses); err != nil {
		return err
	}

	orders, err := g.writeOrdersAndItems(customers, products)
	if err != nil {
		return err
	}
	if err := g.writePayments(orders); err != nil {
		return err
	}
	if err := g.writeShipments(orders); err != nil {
		return err
	}
	if err := g.writeNPSResponses(orders); err != nil {
		return err
	}
	return g.writeWebSessions(customers)
}

func (g *generator) writeProvinces() error {
	rows := make([][]string, 0, len(provinces))
	for _, p := range provinces {
		rows = append(rows, []string{p.id, p.name, p.code})
	}
	return g.writeSource(rawdata.SourceProvince, rows)
}

func (g *generator) writeChannels() error {
	rows := make([][]string, 0, len(channels))
	for _, c := range channels {
		rows = append(rows, []string{c.code, c.name})
	}
	return g.writeSource(rawdata.SourceChannel, rows)
}

func (g *generator) writeCategories() error {
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{c.id, c.name, c.parent})
	}
	return g.writeSource(rawdata.SourceProductCategory, rows)
}

// writeAddresses generates one address per customer plus one per store.
// Customer i lives at address i; stores take the tail of the slice.
func (g *generator) writeAddresses() ([]seedAddress, error) {
	count := g.cfg.Customers + storeCount
	addresses := make([]seedAddress, 0, count)
	rows := make([][]string, 0, count)

	for i := 0; i < count; i++ {
		a := seedAddress{
			id:   fmt.Sprintf("AD-%d", i+1),
			city: Choose(g.f, cities),
		}
		line2 := g.f.NullableString(
			fmt.Sprintf("Piso %d Depto %d", g.f.Int(1, 12), g.f.Int(1, 8)), 0.7)
		rows = append(rows, []string{
			a.id,
			g.f.Street(),
			line2,
			a.city,
			Choose(g.f, provinces).id,
			g.f.Digits(4),
			"AR",
			stamp(g.f.DateRange(windowStart, windowMid)),
		})
		addresses = append(addresses, a)
	}

	if err := g.writeSource(rawdata.SourceAddress, rows); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (g *generator) writeCustomers(addresses []seedAddress) ([]seedCustomer, error) {
	customers := make([]seedCustomer, 0, g.cfg.Customers)
	rows := make([][]string, 0, g.cfg.Customers)

	for i := 0; i < g.cfg.Customers; i++ {
		c := seedCustomer{
			id:        fmt.Sprintf("C-%d", i+1),
			addressID: addresses[i].id,
			createdAt: g.f.DateRange(windowStart, windowMid),
		}
		rows = append(rows, []string{
			c.id,
			g.f.Email(),
			g.f.FirstName(),
			g.f.LastName(),
			g.f.Phone(),
			ChooseWeighted(g.f, customerStatuses, customerStatusWeights),
			stamp(c.createdAt),
		})
		customers = append(customers, c)
	}

	if err := g.writeSource(rawdata.SourceCustomer, rows); err != nil {
		return nil, err
	}
	return customers, nil
}

func (g *generator) writeProducts() ([]seedProduct, error) {
	products := make([]seedProduct, 0, g.cfg.Products)
	rows := make([][]string, 0, g.cfg.Products)

	for i := 0; i < g.cfg.Products; i++ {
		p := seedProduct{
			sku:   fmt.Sprintf("SKU-%d", i+1),
			price: decimal.NewFromFloat(g.f.Price(500, 5000)).Round(2),
		}
		name := fmt.Sprintf("%s %s", Choose(g.f, productLines), Choose(g.f, productSizes))
		status := "active"
		if g.f.Int(1, 100) <= 10 {
			status = "discontinued"
		}
		rows = append(rows, []string{
			p.sku,
			name,
			Choose(g.f, leafCategories),
			p.price.StringFixed(2),
			status,
			stamp(g.f.DateRange(windowStart, windowMid)),
		})
		products = append(products, p)
	}

	if err := g.writeSource(rawdata.SourceProduct, rows); err != nil {
		return nil, err
	}
	return products, nil
}

func (g *generator) writeStores(addresses []seedAddress) error {
	rows := make([][]string, 0, storeCount)
	for i := 0; i < storeCount; i++ {
		addr := addresses[g.cfg.Customers+i]
		rows = append(rows, []string{
			fmt.Sprintf("S-%d", i+1),
			"EcoBottle " + addr.city,
			addr.id,
		})
	}
	return g.writeSource(rawdata.SourceStore, rows)
}

// writeOrdersAndItems generates orders with one to four line items each.
// Line items price at the product's list price so extracts stay coherent;
// order totals are recomputed from the generated lines.
func (g *generator) writeOrdersAndItems(customers []seedCustomer, products []seedProduct) ([]seedOrder, error) {
	orders := make([]seedOrder, 0, g.cfg.Orders)
	orderRows := make([][]string, 0, g.cfg.Orders)
	var itemRows [][]string
	itemSeq := 0

	for i := 0; i < g.cfg.Orders; i++ {
		o := seedOrder{
			id:          fmt.Sprintf("O-%d", i+1),
			customer:    Choose(g.f, customers),
			channelCode: ChooseWeighted(g.f, channels, channelWeights).code,
			status:      ChooseWeighted(g.f, orderStatuses, orderStatusWeights),
		}
		o.date = g.f.DateRange(o.customer.createdAt, windowEnd)

		storeID := ""
		if o.channelCode == "RETAIL" {
			storeID = fmt.Sprintf("S-%d", g.f.Int(1, storeCount))
			// Most retail purchases are carried out of the store.
			if g.f.Int(1, 100) <= 40 {
				o.shippingID = o.customer.addressID
			}
		} else {
			o.shippingID = o.customer.addressID
		}

		subtotal := decimal.Zero
		for n := g.f.Int(1, 4); n > 0; n-- {
			itemSeq++
			p := Choose(g.f, products)
			qty := g.f.Int(1, 5)
			gross := p.price.Mul(decimal.NewFromInt(int64(qty)))
			discount := decimal.Zero
			if g.f.Int(1, 100) <= 20 {
				discount = gross.Mul(decimal.NewFromFloat(0.1)).Round(2)
			}
			subtotal = subtotal.Add(gross.Sub(discount))

			itemRows = append(itemRows, []string{
				fmt.Sprintf("I-%d", itemSeq),
				o.id,
				p.sku,
				strconv.Itoa(qty),
				p.price.StringFixed(2),
				discount.StringFixed(2),
			})
		}

		tax := subtotal.Mul(taxRate).Round(2)
		fee := decimal.Zero
		if o.shippingID != "" {
			fee = ChooseWeighted(g.f, shippingFees, shippingFeeWeights)
		}
		o.total = subtotal.Add(tax).Add(fee)

		orderRows = append(orderRows, []string{
			o.id,
			o.customer.id,
			o.channelCode,
			storeID,
			stamp(o.date),
			o.customer.addressID,
			o.shippingID,
			o.status,
			"ARS",
			subtotal.StringFixed(2),
			tax.StringFixed(2),
			fee.StringFixed(2),
			o.total.StringFixed(2),
		})
		orders = append(orders, o)
	}

	if err := g.writeSource(rawdata.SourceSalesOrder, orderRows); err != nil {
		return nil, err
	}
	if err := g.writeSource(rawdata.SourceSalesOrderItem, itemRows); err != nil {
		return nil, err
	}
	return orders, nil
}

// writePayments generates a settled payment for every order past "created".
// Cancelled orders settle as failed or refunded, and a tenth of the approved
// payments get a preceding failed attempt.
func (g *generator) writePayments(orders []seedOrder) error {
	var rows [][]string
	seq := 0

	addRow := func(o seedOrder, status string, paidAt time.Time) {
		seq++
		rows = append(rows, []string{
			fmt.Sprintf("PAY-%d", seq),
			o.id,
			ChooseWeighted(g.f, paymentMethods, paymentMethodWeights),
			status,
			o.total.StringFixed(2),
			stampOrEmpty(paidAt),
			"TXN-" + g.f.Digits(10),
		})
	}

	for _, o := range orders {
		switch o.status {
		case "created":
			// No payment attempt yet.
		case "cancelled":
			if g.f.Bool() {
				addRow(o, "failed", time.Time{})
			} else {
				addRow(o, "refunded", o.date.Add(time.Duration(g.f.Int(1, 1440))*time.Minute))
			}
		default:
			if g.f.Int(1, 100) <= 10 {
				addRow(o, "failed", time.Time{})
			}
			addRow(o, "approved", o.date.Add(time.Duration(g.f.Int(1, 1440))*time.Minute))
		}
	}

	return g.writeSource(rawdata.SourcePayment, rows)
}

// writeShipments generates shipments for paid, delivered and completed orders
// that have a shipping address. Delivered and completed orders get a delivery
// timestamp, which is recorded back on the order for the NPS step.
func (g *generator) writeShipments(orders []seedOrder) error {
	var rows [][]string
	seq := 0

	for i := range orders {
		o := &orders[i]
		if o.shippingID == "" {
			continue
		}
		if o.status != "paid" && o.status != "delivered" && o.status != "completed" {
			continue
		}

		seq++
		shippedAt := o.date.Add(time.Duration(g.f.Int(24, 96)) * time.Hour)
		if o.status != "paid" {
			o.deliveredAt = shippedAt.Add(time.Duration(g.f.Int(24, 168)) * time.Hour)
		}

		rows = append(rows, []string{
			fmt.Sprintf("SH-%d", seq),
			o.id,
			Choose(g.f, carriers),
			stamp(shippedAt),
			stampOrEmpty(o.deliveredAt),
			"TRK-" + g.f.Digits(9),
		})
	}

	return g.writeSource(rawdata.SourceShipment, rows)
}

// writeNPSResponses surveys roughly a third of the delivered orders.
func (g *generator) writeNPSResponses(orders []seedOrder) error {
	var rows [][]string
	seq := 0

	for _, o := range orders {
		if o.deliveredAt.IsZero() || g.f.Int(1, 100) > 30 {
			continue
		}

		seq++
		var score int
		switch ChooseWeighted(g.f, []string{"promoter", "passive", "detractor"}, []int{40, 35, 25}) {
		case "promoter":
			score = g.f.Int(9, 10)
		case "passive":
			score = g.f.Int(7, 8)
		default:
			score = g.f.Int(0, 6)
		}

		rows = append(rows, []string{
			fmt.Sprintf("N-%d", seq),
			o.customer.id,
			o.channelCode,
			strconv.Itoa(score),
			stamp(o.deliveredAt.Add(time.Duration(g.f.Int(1, 120)) * time.Hour)),
		})
	}

	return g.writeSource(rawdata.SourceNPSResponse, rows)
}

// writeWebSessions generates one session per configured order; about a third
// are anonymous and a tenth never record an end time.
func (g *generator) writeWebSessions(customers []seedCustomer) error {
	rows := make([][]string, 0, g.cfg.Orders)

	for i := 0; i < g.cfg.Orders; i++ {
		customerID := ""
		if g.f.Int(1, 100) <= 70 {
			customerID = Choose(g.f, customers).id
		}
		startedAt := g.f.DateRange(windowStart, windowEnd)
		endedAt := time.Time{}
		if g.f.Int(1, 100) <= 90 {
			endedAt = startedAt.Add(time.Duration(g.f.Int(5, 40)) * time.Minute)
		}

		rows = append(rows, []string{
			fmt.Sprintf("WS-%d", i+1),
			customerID,
			stamp(startedAt),
			stampOrEmpty(endedAt),
			ChooseWeighted(g.f, trafficSources, trafficSourceWeights),
			ChooseWeighted(g.f, devices, deviceWeights),
		})
	}

	return g.writeSource(rawdata.SourceWebSession, rows)
}

func (g *generator) writeSource(source string, rows [][]string) error {
	path := filepath.Join(g.dir, source+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rawdata.Header(source)); err != nil {
		return fmt.Errorf("writing %s header: %w", source, err)
	}
	for _, rec := range rows {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing %s: %w", source, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", source, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	g.rows += len(rows)
	logging.Debug().
		Str("source", source).
		Int("rows", len(rows)).
		Msg("Raw source written")

	return nil
}

func stamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func stampOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return stamp(t)
}
