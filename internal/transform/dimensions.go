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
	"fmt"
	"strings"

	"github.com/wenceslao015/mkt-tp-final/internal/rawdata"
	"github.com/wenceslao015/mkt-tp-final/internal/warehouse"
)

// noCategory is the fallback category label, kept from the upstream
// reporting convention.
const noCategory = "Sin Categoría"

// canonicalChannel uppercases a raw channel code; channel codes are
// case-insensitive natural keys.
func canonicalChannel(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// buildCustomers dedups customers by customer_id. Surrogate keys follow
// first-seen order; conflicting duplicates resolve last-seen-wins with a
// warning.
func (b *Builder) buildCustomers(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	index := make(map[string]int, len(ds.Customers))
	for i := range ds.Customers {
		c := &ds.Customers[i]
		key := strings.TrimSpace(c.CustomerID)
		if key == "" {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceCustomer, Row: i + 1,
				Field: "customer_id", Reason: "required value is missing",
			}
		}
		row := warehouse.Customer{
			CustomerKey: key,
			Email:       strings.ToLower(strings.TrimSpace(c.Email)),
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			Phone:       c.Phone,
			Status:      c.Status,
			CreatedAt:   c.CreatedAt,
		}
		if j, ok := index[key]; ok {
			row.ID = snap.Customers[j].ID
			if row != snap.Customers[j] {
				b.warn(Warning{
					Kind: WarnAttributeConflict, Table: warehouse.TableDimCustomer, Key: key,
					Message: fmt.Sprintf("conflicting duplicate for customer %q, keeping last seen", key),
				})
				snap.Customers[j] = row
			}
			continue
		}
		row.ID = int64(len(snap.Customers) + 1)
		index[key] = len(snap.Customers)
		snap.Customers = append(snap.Customers, row)
		b.resolver.Add(DimCustomer, key, row.ID)
	}
	return nil
}

// buildProducts dedups products by SKU and denormalizes the category and
// parent category names.
func (b *Builder) buildProducts(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	categories := make(map[string]rawdata.ProductCategory, len(ds.Categories))
	for _, c := range ds.Categories {
		categories[strings.TrimSpace(c.CategoryID)] = c
	}

	index := make(map[string]int, len(ds.Products))
	for i := range ds.Products {
		p := &ds.Products[i]
		key := strings.TrimSpace(p.SKU)
		if key == "" {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceProduct, Row: i + 1,
				Field: "sku", Reason: "required value is missing",
			}
		}
		categoryName, parentName := b.categoryNames(categories, strings.TrimSpace(p.CategoryID), key)
		row := warehouse.Product{
			ProductKey:         key,
			Name:               p.Name,
			ListPrice:          p.ListPrice,
			Status:             p.Status,
			CreatedAt:          p.CreatedAt,
			CategoryName:       categoryName,
			ParentCategoryName: parentName,
		}
		if j, ok := index[key]; ok {
			row.ID = snap.Products[j].ID
			if !sameProduct(row, snap.Products[j]) {
				b.warn(Warning{
					Kind: WarnAttributeConflict, Table: warehouse.TableDimProduct, Key: key,
					Message: fmt.Sprintf("conflicting duplicate for product %q, keeping last seen", key),
				})
				snap.Products[j] = row
			}
			continue
		}
		row.ID = int64(len(snap.Products) + 1)
		index[key] = len(snap.Products)
		snap.Products = append(snap.Products, row)
		b.resolver.Add(DimProduct, key, row.ID)
	}
	return nil
}

// categoryNames resolves a product's category and parent category names,
// falling back to the no-category label when either is absent or unknown.
func (b *Builder) categoryNames(categories map[string]rawdata.ProductCategory, categoryID, sku string) (string, string) {
	if categoryID == "" {
		return noCategory, noCategory
	}
	category, ok := categories[categoryID]
	if !ok {
		b.warn(Warning{
			Kind: WarnMissingLookup, Table: warehouse.TableDimProduct, Key: sku,
			Message: fmt.Sprintf("product category %q not found, using %q", categoryID, noCategory),
		})
		return noCategory, noCategory
	}
	parentID := strings.TrimSpace(category.ParentID)
	if parentID == "" {
		return category.Name, noCategory
	}
	parent, ok := categories[parentID]
	if !ok {
		b.warn(Warning{
			Kind: WarnMissingLookup, Table: warehouse.TableDimProduct, Key: sku,
			Message: fmt.Sprintf("parent category %q not found, using %q", parentID, noCategory),
		})
		return category.Name, noCategory
	}
	return category.Name, parent.Name
}

// sameProduct compares every attribute; ListPrice needs value equality, so
// plain struct comparison would misreport equal prices.
func sameProduct(a, b warehouse.Product) bool {
	return a.ProductKey == b.ProductKey &&
		a.Name == b.Name &&
		a.ListPrice.Equal(b.ListPrice) &&
		a.Status == b.Status &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.CategoryName == b.CategoryName &&
		a.ParentCategoryName == b.ParentCategoryName
}

// buildChannels dedups channels by canonical (uppercased) code.
func (b *Builder) buildChannels(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	index := make(map[string]int, len(ds.Channels))
	for i := range ds.Channels {
		c := &ds.Channels[i]
		key := canonicalChannel(c.Code)
		if key == "" {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceChannel, Row: i + 1,
				Field: "code", Reason: "required value is missing",
			}
		}
		row := warehouse.Channel{ChannelKey: key, Name: c.Name}
		if j, ok := index[key]; ok {
			row.ID = snap.Channels[j].ID
			if row != snap.Channels[j] {
				b.warn(Warning{
					Kind: WarnAttributeConflict, Table: warehouse.TableDimChannel, Key: key,
					Message: fmt.Sprintf("conflicting duplicate for channel %q, keeping last seen", key),
				})
				snap.Channels[j] = row
			}
			continue
		}
		row.ID = int64(len(snap.Channels) + 1)
		index[key] = len(snap.Channels)
		snap.Channels = append(snap.Channels, row)
		b.resolver.Add(DimChannel, key, row.ID)
	}
	return nil
}

// buildAddresses folds raw addresses into one row per canonical
// (line1, city, postal_code) tuple and registers every raw address_id as a
// resolver alias for the surviving row. Province attributes are denormalized
// from the province lookup.
func (b *Builder) buildAddresses(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	provinces := provinceIndex(ds)
	index := make(map[string]int, len(ds.Addresses))
	for i := range ds.Addresses {
		a := &ds.Addresses[i]
		id := strings.TrimSpace(a.AddressID)
		if id == "" {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceAddress, Row: i + 1,
				Field: "address_id", Reason: "required value is missing",
			}
		}
		provinceName, provinceCode := b.provinceNames(provinces, strings.TrimSpace(a.ProvinceID), warehouse.TableDimAddress, id)
		row := warehouse.Address{
			Line1:        a.Line1,
			Line2:        a.Line2,
			City:         a.City,
			ProvinceName: provinceName,
			ProvinceCode: provinceCode,
			PostalCode:   a.PostalCode,
			CountryCode:  strings.ToUpper(strings.TrimSpace(a.CountryCode)),
			CreatedAt:    a.CreatedAt,
		}
		key := warehouse.CanonicalAddressKey(a.Line1, a.City, a.PostalCode)
		if j, ok := index[key]; ok {
			row.ID = snap.Addresses[j].ID
			if row != snap.Addresses[j] {
				b.warn(Warning{
					Kind: WarnAttributeConflict, Table: warehouse.TableDimAddress, Key: id,
					Message: fmt.Sprintf("address %q duplicates an existing address with conflicting attributes, keeping last seen", id),
				})
				snap.Addresses[j] = row
			}
			b.resolver.Add(DimAddress, id, row.ID)
			continue
		}
		row.ID = int64(len(snap.Addresses) + 1)
		index[key] = len(snap.Addresses)
		snap.Addresses = append(snap.Addresses, row)
		b.resolver.Add(DimAddress, id, row.ID)
	}
	return nil
}

// buildStores dedups stores by store_id and denormalizes each store's
// address and province through its raw address_id.
func (b *Builder) buildStores(ds *rawdata.Dataset, snap *warehouse.Snapshot) error {
	addresses := make(map[string]rawdata.Address, len(ds.Addresses))
	for _, a := range ds.Addresses {
		addresses[strings.TrimSpace(a.AddressID)] = a
	}
	provinces := provinceIndex(ds)

	index := make(map[string]int, len(ds.Stores))
	for i := range ds.Stores {
		s := &ds.Stores[i]
		key := strings.TrimSpace(s.StoreID)
		if key == "" {
			return &rawdata.MalformedInputError{
				Source: rawdata.SourceStore, Row: i + 1,
				Field: "store_id", Reason: "required value is missing",
			}
		}
		row := warehouse.Store{StoreKey: key, Name: s.Name}
		if addressID := strings.TrimSpace(s.AddressID); addressID != "" {
			if a, ok := addresses[addressID]; ok {
				row.Line = a.Line1
				row.City = a.City
				row.PostalCode = a.PostalCode
				row.CountryCode = strings.ToUpper(strings.TrimSpace(a.CountryCode))
				row.CreatedAt = a.CreatedAt
				row.ProvinceName, row.ProvinceCode = b.provinceNames(provinces, strings.TrimSpace(a.ProvinceID), warehouse.TableDimStore, key)
			} else {
				b.warn(Warning{
					Kind: WarnMissingLookup, Table: warehouse.TableDimStore, Key: key,
					Message: fmt.Sprintf("store address %q not found, leaving address attributes empty", addressID),
				})
			}
		}
		if j, ok := index[key]; ok {
			row.ID = snap.Stores[j].ID
			if row != snap.Stores[j] {
				b.warn(Warning{
					Kind: WarnAttributeConflict, Table: warehouse.TableDimStore, Key: key,
					Message: fmt.Sprintf("conflicting duplicate for store %q, keeping last seen", key),
				})
				snap.Stores[j] = row
			}
			continue
		}
		row.ID = int64(len(snap.Stores) + 1)
		index[key] = len(snap.Stores)
		snap.Stores = append(snap.Stores, row)
		b.resolver.Add(DimStore, key, row.ID)
	}
	return nil
}

// provinceIndex maps province_id to its lookup row.
func provinceIndex(ds *rawdata.Dataset) map[string]rawdata.Province {
	provinces := make(map[string]rawdata.Province, len(ds.Provinces))
	for _, p := range ds.Provinces {
		provinces[strings.TrimSpace(p.ProvinceID)] = p
	}
	return provinces
}

// provinceNames returns the denormalized province attributes; table and key
// locate the warning when the lookup misses. An empty province_id is
// legitimately absent and produces no warning.
func (b *Builder) provinceNames(provinces map[string]rawdata.Province, provinceID, table, key string) (string, string) {
	if provinceID == "" {
		return "", ""
	}
	p, ok := provinces[provinceID]
	if !ok {
		b.warn(Warning{
			Kind: WarnMissingLookup, Table: table, Key: key,
			Message: fmt.Sprintf("province %q not found, leaving province attributes empty", provinceID),
		})
		return "", ""
	}
	return p.Name, strings.ToUpper(strings.TrimSpace(p.Code))
}
