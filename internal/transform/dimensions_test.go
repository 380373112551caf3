package transform

import (
	"strings"
	"testing"

	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

func TestBuildCustomersFirstSeenOrder(t *testing.T) {
	ds := &rawdata.Dataset{
		Customers: []rawdata.Customer{
			{CustomerID: "C5", Email: "e5@example.com", CreatedAt: ts("2024-01-01")},
			{CustomerID: "C2", Email: "e2@example.com", CreatedAt: ts("2024-01-02")},
			{CustomerID: "C9", Email: "e9@example.com", CreatedAt: ts("2024-01-03")},
		},
	}
	b := New(Options{})
	snap := &warehouse.Snapshot{}
	if err := b.buildCustomers(ds, snap); err != nil {
		t.Fatalf("buildCustomers failed: %v", err)
	}

	wantKeys := []string{"C5", "C2", "C9"}
	for i, want := range wantKeys {
		if snap.Customers[i].CustomerKey != want {
			t.Errorf("row %d: key %q, want %q", i, snap.Customers[i].CustomerKey, want)
		}
		if snap.Customers[i].ID != int64(i+1) {
			t.Errorf("row %d: ID %d, want %d", i, snap.Customers[i].ID, i+1)
		}
		surrogate, ok := b.resolver.Resolve(DimCustomer, want)
		if !ok || surrogate != int64(i+1) {
			t.Errorf("resolver(%s): got %d/%v, want %d", want, surrogate, ok, i+1)
		}
	}
}

func TestBuildCustomersLastSeenWins(t *testing.T) {
	// The same customer id appears twice with different emails: one row,
	// the later attributes, exactly one conflict warning.
	ds := &rawdata.Dataset{
		Customers: []rawdata.Customer{
			{CustomerID: "C1", Email: "a@x.com", FirstName: "Ana", CreatedAt: ts("2024-01-01")},
			{CustomerID: "C2", Email: "b@x.com", FirstName: "Bruno", CreatedAt: ts("2024-01-02")},
			{CustomerID: "C1", Email: "b2@x.com", FirstName: "Ana", CreatedAt: ts("2024-01-01")},
		},
	}
	b := New(Options{})
	snap := &warehouse.Snapshot{}
	if err := b.buildCustomers(ds, snap); err != nil {
		t.Fatalf("buildCustomers failed: %v", err)
	}

	if len(snap.Customers) != 2 {
		t.Fatalf("Expected 2 customers, got %d", len(snap.Customers))
	}
	// C1 keeps surrogate 1 (first seen) with the last-seen email.
	if snap.Customers[0].ID != 1 || snap.Customers[0].CustomerKey != "C1" {
		t.Errorf("C1 should keep surrogate 1, got %+v", snap.Customers[0])
	}
	if snap.Customers[0].Email != "b2@x.com" {
		t.Errorf("Email: got %q, want last-seen b2@x.com", snap.Customers[0].Email)
	}

	warnings := b.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Kind != WarnAttributeConflict {
		t.Errorf("Warning kind: got %q, want %q", warnings[0].Kind, WarnAttributeConflict)
	}
	if warnings[0].Key != "C1" {
		t.Errorf("Warning key: got %q, want C1", warnings[0].Key)
	}
}

func TestBuildCustomersIdenticalDuplicateIsSilent(t *testing.T) {
	c := rawdata.Customer{CustomerID: "C1", Email: "a@x.com", FirstName: "Ana", CreatedAt: ts("2024-01-01")}
	ds := &rawdata.Dataset{Customers: []rawdata.Customer{c, c}}

	b := New(Options{})
	snap := &warehouse.Snapshot{}
	if err := b.buildCustomers(ds, snap); err != nil {
		t.Fatalf("buildCustomers failed: %v", err)
	}
	if len(snap.Customers) != 1 {
		t.Fatalf("Expected 1 customer, got %d", len(snap.Customers))
	}
	if len(b.Warnings()) != 0 {
		t.Errorf("Identical duplicate should not warn, got %v", b.Warnings())
	}
}

func TestBuildCustomersCanonicalization(t *testing.T) {
	ds := &rawdata.Dataset{
		Customers: []rawdata.Customer{
			{CustomerID: " C1 ", Email: " Ana.Garcia@Example.COM ", CreatedAt: ts("2024-01-01")},
		},
	}
	b := New(Options{})
	snap := &warehouse.Snapshot{}
	if err := b.buildCustomers(ds, snap); err != nil {
		t.Fatalf("buildCustomers failed: %v", err)
	}
	if snap.Customers[0].CustomerKey != "C1" {
		t.Errorf("key should be trimmed, got %q", snap.Customers[0].CustomerKey)
	}
	if snap.Customers[0].Email != "ana.garcia@example.com" {
		t.Errorf("email should be lowercased, got %q", snap.Customers[0].Email)
	}
	if _, ok := b.resolver.Resolve(DimCustomer, "C1"); !ok {
		t.Error("trimmed key should resolve")
	}
}

func TestBuildCustomersMissingKey(t *testing.T) {
	ds := &rawdata.Dataset{
		Customers: []rawdata.Customer{{CustomerID: "  ", CreatedAt: ts("2024-01-01")}},
	}
	b := New(Options{})
	err := b.buildCustomers(ds, &warehouse.Snapshot{})
	if err == nil {
		t.Fatal("Expected error for blank customer_id")
	}
	if !strings.Contains(err.Error(), "customer_id") {
		t.Errorf("Error should name the field, got: %v", err)
	}
}

func TestBuildProductsCategoryDenormalization(t *testing.T) {
	ds := &rawdata.Dataset{
		Categories: []rawdata.ProductCategory{
			{CategoryID: "CAT-0", Name: "Bottles"},
			{CategoryID: "CAT-1", Name: "Classic", ParentID: "CAT-0"},
		},
		Products: []rawdata.Product{
			{SKU: "SKU-1", Name: "Classic 750ml", CategoryID: "CAT-1", ListPrice: dec("1500.00"), CreatedAt: ts("2024-01-02")},
			{SKU: "SKU-2", Name: "Gift Card", CategoryID: "CAT-0", ListPrice: dec("5000.00"), CreatedAt: ts("2024-01-02")},
			{SKU: "SKU-3", Name: "Mystery Item", CategoryID: "CAT-9", ListPrice: dec("100.00"), CreatedAt: ts("2024-01-02")},
			{SKU: "SKU-4", Name: "Uncategorized", CategoryID: "", ListPrice: dec("200.00"), CreatedAt: ts("2024-01-02")},
		},
	}
	b := New(Options{})
	snap := &warehouse.Snapshot{}
	if err := b.buildProducts(ds, snap); err != nil {
		t.Fatalf("buildProducts failed: %v", err)
	}

	tests := []struct {
		sku      string
		category string
		parent   string
	}{
		{"SKU-1", "Classic", "Bottles"},
		{"SKU-2", "Bottles", "Sin Categoría"},
		{"SKU-3", "Sin Categoría", "Sin Categoría"},
		{"SKU-4", "Sin Categoría", "Sin Categoría"},
	}
	for i, tt := range tests {
		row := snap.Products[i]
		if row.ProductKey != tt.sku {
			t.Fatalf("row %d: key %q, want %q", i, row.ProductKey, tt.sku)
		}
		if row.CategoryName != tt.category {
			t.Errorf("%s: CategoryName %q, want %q", tt.sku, row.CategoryName, tt.category)
		}
		if row.ParentCategoryName != tt.parent {
			t.Errorf("%s: ParentCategoryName %q, want %q", tt.sku, row.ParentCategoryName, tt.parent)
		}
	}

	// Only the unknown category warns; an absent category id is legitimate.
	warnings := b.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if warnings[0].Kind != WarnMissingLookup || warnings[0].Key != "SKU-3" {
		t.Errorf("Unexpected warning: %+v", warnings[0])
	}
}

func TestBuildChannelsCanonicalCode(t *testing.T) {
	ds := &rawdata.Dataset{
		Channels: []rawdata.Channel{
			{Code: "online", Name: "Online store"},
			{Code: "ONLINE ", Name: "Online store"},
			{Code: "OFFLINE", Name: "Physical stores"},
		},
	}
	b := New(Options{})
	snap := &warehouse.Snapshot{}
	if err := b.buildChannels(ds, snap); err != nil {
		t.Fatalf("buildChannels failed: %v", err)
	}

	if len(snap.Channels) != 2 {
		t.Fatalf("Expected 2 channels, got %d", len(snap.Channels))
	}
	if snap.Channels[0].ChannelKey != "ONLINE" {
		t.Errorf("key should be uppercased, got %q", snap.Channels[0].ChannelKey)
	}
	if len(b.Warnings()) != 0 {
		t.Errorf("Same-name duplicate should not warn, got %v", b.Warnings())
	}
	if surrogate, ok := b.resolver.Resolve(DimChannel, "ONLINE"); !ok || surrogate != 1 {
		t.Errorf("resolver(ONLINE): got %d/%v, want 1", surrogate, ok)
	}
}

func TestBuildAddressesFoldsDuplicates(t *testing.T) {
	ds := &rawdata.Dataset{
		Provinces: []rawdata.Province{
			{ProvinceID: "P-1", Name: "Ciudad Autónoma de Buenos Aires", Code: "AR-C"},
		},
		Addresses: []rawdata.Address{
			{AddressID: "AD-1", Line1: "Av. Corrientes 1234", City: "CABA", ProvinceID: "P-1", PostalCode: "C1043", CountryCode: "ar", CreatedAt: ts("2024-01-05 10:00:00")},
			{AddressID: "AD-2", Line1: "AV. CORRIENTES 1234", City: "caba", ProvinceID: "P-1", PostalCode: "C1043", CountryCode: "ar", CreatedAt: ts("2024-01-05 10:00:00")},
			{AddressID: "AD-3", Line1: "Calle 50 742", City: "La Plata", ProvinceID: "P-9", PostalCode: "B1900", CountryCode: "ar", CreatedAt: ts("2024-01-06 11:30:00")},
		},
	}
	b := New(Options{})
	snap := &warehouse.Snapshot{}
	if err := b.buildAddresses(ds, snap); err != nil {
		t.Fatalf("buildAddresses failed: %v", err)
	}

	if len(snap.Addresses) != 2 {
		t.Fatalf("Expected 2 addresses after folding, got %d", len(snap.Addresses))
	}

	// Both raw ids for the folded address resolve to the same surrogate.
	sk1, ok1 := b.resolver.Resolve(DimAddress, "AD-1")
	sk2, ok2 := b.resolver.Resolve(DimAddress, "AD-2")
	if !ok1 || !ok2 || sk1 != sk2 || sk1 != 1 {
		t.Errorf("folded ids: AD-1=%d/%v AD-2=%d/%v, want both 1", sk1, ok1, sk2, ok2)
	}

	// Province denormalized where the lookup hits, empty where it misses.
	if snap.Addresses[0].ProvinceCode != "AR-C" {
		t.Errorf("ProvinceCode: got %q, want AR-C", snap.Addresses[0].ProvinceCode)
	}
	if snap.Addresses[1].ProvinceName != "" || snap.Addresses[1].ProvinceCode != "" {
		t.Errorf("Unknown province should leave attributes empty, got %+v", snap.Addresses[1])
	}

	// AD-2 differs only in casing of the tuple fields, which canonicalization
	// absorbs, so the only warnings are the conflicting line casing and the
	// missing province.
	var missing, conflicts int
	for _, w := range b.Warnings() {
		switch w.Kind {
		case WarnMissingLookup:
			missing++
		case WarnAttributeConflict:
			conflicts++
		}
	}
	if missing != 1 {
		t.Errorf("Expected 1 missing-lookup warning, got %d", missing)
	}
	if conflicts != 1 {
		t.Errorf("Expected 1 attribute-conflict warning (line1 casing differs), got %d", conflicts)
	}
}

func TestBuildStoresDenormalization(t *testing.T) {
	ds := &rawdata.Dataset{
		Provinces: []rawdata.Province{
			{ProvinceID: "P-2", Name: "Buenos Aires", Code: "AR-B"},
		},
		Addresses: []rawdata.Address{
			{AddressID: "AD-2", Line1: "Calle 50 742", City: "La Plata", ProvinceID: "P-2", PostalCode: "B1900", CountryCode: "AR", CreatedAt: ts("2024-01-06 11:30:00")},
		},
		Stores: []rawdata.Store{
			{StoreID: "S-1", Name: "EcoBottle La Plata", AddressID: "AD-2"},
			{StoreID: "S-2", Name: "EcoBottle Pop-up", AddressID: "AD-9"},
			{StoreID: "S-3", Name: "EcoBottle Online Hub", AddressID: ""},
		},
	}
	b := New(Options{})
	snap := &warehouse.Snapshot{}
	if err := b.buildStores(ds, snap); err != nil {
		t.Fatalf("buildStores failed: %v", err)
	}

	if len(snap.Stores) != 3 {
		t.Fatalf("Expected 3 stores, got %d", len(snap.Stores))
	}

	s1 := snap.Stores[0]
	if s1.Line != "Calle 50 742" || s1.City != "La Plata" || s1.ProvinceCode != "AR-B" {
		t.Errorf("S-1 address not denormalized: %+v", s1)
	}
	if s1.CreatedAt.IsZero() {
		t.Error("S-1 should carry its address created_at")
	}

	s2 := snap.Stores[1]
	if s2.Line != "" || !s2.CreatedAt.IsZero() {
		t.Errorf("S-2 with unknown address should stay empty: %+v", s2)
	}

	// Only the dangling address warns; an absent address id is legitimate.
	warnings := b.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if warnings[0].Kind != WarnMissingLookup || warnings[0].Key != "S-2" {
		t.Errorf("Unexpected warning: %+v", warnings[0])
	}
}
