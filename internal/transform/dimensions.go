//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-etl/internal/record"
	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

type address struct {
	zip, city, state uniqueList
}

func (a *address) add(zip, city, state any) {
	z, _ := record.Text(zip)
	a.zip = a.zip.add(z)
	if c, ok := record.Text(city); ok {
		a.city = a.city.add(record.TitleCase(c))
	}
	if s, ok := record.Text(state); ok {
		a.state = a.state.add(record.TitleCase(s))
	}
}

// groupAddresses merges address columns by key. Keys are returned sorted.
func groupAddresses(src *record.RecordSet, keyCol, zipCol, cityCol, stateCol string) ([]string, map[string]*address, error) {
	if err := src.Require(keyCol, zipCol, cityCol, stateCol); err != nil {
		return nil, nil, err
	}

	groups := make(map[string]*address)
	for i, r := range src.Records {
		id, err := key(src, i, keyCol)
		if err != nil {
			return nil, nil, err
		}
		a, ok := groups[id]
		if !ok {
			a = &address{}
			groups[id] = a
		}
		a.add(r[zipCol], r[cityCol], r[stateCol])
	}

	keys := make([]string, 0, len(groups))
	for id := range groups {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys, groups, nil
}

// Users builds dim_users from user_dataset. A user with several addresses
// gets one row whose ZIP, city and state hold the unique values seen.
func Users(src *record.RecordSet) ([]warehouse.User, error) {
	keys, groups, err := groupAddresses(src, "user_name", "customer_zip_code", "customer_city", "customer_state")
	if err != nil {
		return nil, err
	}

	users := make([]warehouse.User, 0, len(keys))
	for _, id := range keys {
		a := groups[id]
		users = append(users, warehouse.User{
			UserID:  id,
			ZipCode: a.zip.String(),
			City:    a.city.String(),
			State:   a.state.String(),
		})
	}
	return users, nil
}

// Sellers builds dim_sellers from seller_dataset, merging repeated sellers
// the same way as users.
func Sellers(src *record.RecordSet) ([]warehouse.Seller, error) {
	keys, groups, err := groupAddresses(src, "seller_id", "seller_zip_code", "seller_city", "seller_state")
	if err != nil {
		return nil, err
	}

	sellers := make([]warehouse.Seller, 0, len(keys))
	for _, id := range keys {
		a := groups[id]
		sellers = append(sellers, warehouse.Seller{
			SellerID: id,
			ZipCode:  a.zip.String(),
			City:     a.city.String(),
			State:    a.state.String(),
		})
	}
	return sellers, nil
}

// Source column names for products. The misspellings are part of the raw
// dataset.
var productColumns = []string{
	"product_id", "product_category", "product_name_lenght",
	"product_description_lenght", "product_photos_qty", "product_weight_g",
	"product_length_cm", "product_height_cm", "product_width_cm",
}

// Products builds dim_products from products_dataset. Exact duplicate rows
// collapse; rows sharing a product id with different attributes fail with
// ErrDuplicateKey.
func Products(src *record.RecordSet) ([]warehouse.Product, error) {
	if err := src.Require(productColumns...); err != nil {
		return nil, err
	}

	var products []warehouse.Product
	seen := make(map[string]int)
	for i, r := range src.Records {
		id, err := key(src, i, "product_id")
		if err != nil {
			return nil, err
		}

		p := warehouse.Product{ProductID: id}
		if c, ok := record.Text(r["product_category"]); ok {
			c = record.Category(c)
			p.Category = &c
		}
		ints := []struct {
			col string
			dst **int64
		}{
			{"product_name_lenght", &p.NameLength},
			{"product_description_lenght", &p.DescriptionLength},
			{"product_photos_qty", &p.PhotosQuantity},
		}
		for _, f := range ints {
			if *f.dst, err = optionalInt(src, i, f.col); err != nil {
				return nil, err
			}
		}
		floats := []struct {
			col string
			dst **float64
		}{
			{"product_weight_g", &p.WeightGrams},
			{"product_length_cm", &p.LengthCm},
			{"product_height_cm", &p.HeightCm},
			{"product_width_cm", &p.WidthCm},
		}
		for _, f := range floats {
			if *f.dst, err = optionalFloat(src, i, f.col); err != nil {
				return nil, err
			}
		}

		if j, ok := seen[id]; ok {
			if !reflect.DeepEqual(products[j], p) {
				return nil, duplicateKey(src, "product_id", i, id)
			}
			continue
		}
		seen[id] = len(products)
		products = append(products, p)
	}
	return products, nil
}

// paymentGroup accumulates the rows of one order's payments.
type paymentGroup struct {
	sequential   []string
	installments []string
	types        []string
	value        decimal.Decimal
}

// Payments builds dim_payments from payment_dataset. The order id becomes
// the payment id; sequential numbers, installments and types are sorted
// and joined, and values are summed exactly.
func Payments(src *record.RecordSet) ([]warehouse.Payment, error) {
	cols := []string{"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value"}
	if err := src.Require(cols...); err != nil {
		return nil, err
	}

	groups := make(map[string]*paymentGroup)
	for i, r := range src.Records {
		id, err := key(src, i, "order_id")
		if err != nil {
			return nil, err
		}
		seq, err := requiredInt(src, i, "payment_sequential")
		if err != nil {
			return nil, err
		}
		inst, err := requiredInt(src, i, "payment_installments")
		if err != nil {
			return nil, err
		}
		value, ok, err := record.Decimal(r["payment_value"])
		if err != nil {
			return nil, src.CoerceError("payment_value", i, r["payment_value"], err)
		}

		g, found := groups[id]
		if !found {
			g = &paymentGroup{}
			groups[id] = g
		}
		g.sequential = append(g.sequential, strconv.FormatInt(seq, 10))
		g.installments = append(g.installments, strconv.FormatInt(inst, 10))
		if t, ok := record.Text(r["payment_type"]); ok {
			g.types = append(g.types, record.Category(t))
		}
		if ok {
			g.value = g.value.Add(value)
		}
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	payments := make([]warehouse.Payment, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		types := slices.Clone(g.types)
		slices.Sort(types)
		payments = append(payments, warehouse.Payment{
			PaymentID:    id,
			Sequential:   joinSorted(g.sequential),
			Installments: joinSorted(g.installments),
			Type:         strings.Join(types, warehouse.ListSeparator),
			Value:        g.value,
		})
	}
	return payments, nil
}
