//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package fact assembles the order line fact table from the conformed
// dimensions and aggregates.
package fact

import (
	"time"

	"github.com/pgEdge/pgedge-etl/internal/calendar"
	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

// Inputs holds every table the fact table is joined from.
type Inputs struct {
	Orders   []warehouse.Order
	Items    []warehouse.OrderItem
	Users    []warehouse.User
	Sellers  []warehouse.Seller
	Products []warehouse.Product
	Payments []warehouse.Payment
	Feedback []warehouse.Feedback
	Dates    []warehouse.Date
	Times    []warehouse.Time
}

// Stats summarizes data quality observations made while assembling.
type Stats struct {
	Rows               int
	Late               int
	OrdersWithoutItems int
	NegativeShipping   int
	MissingUsers       int
	MissingPayments    int
}

// Assemble left-joins orders to their line items (one fact row per line
// item, or one row with null item columns for an order without items),
// then to every dimension and to the calendar once per temporal role.
// A foreign key is only set when the referenced row exists.
func Assemble(in Inputs) ([]warehouse.Fact, Stats) {
	var stats Stats

	itemsByOrder := make(map[string][]warehouse.OrderItem)
	for _, item := range in.Items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	users := index(in.Users, func(u warehouse.User) string { return u.UserID })
	sellers := index(in.Sellers, func(s warehouse.Seller) string { return s.SellerID })
	products := index(in.Products, func(p warehouse.Product) string { return p.ProductID })
	payments := index(in.Payments, func(p warehouse.Payment) string { return p.PaymentID })
	feedback := index(in.Feedback, func(f warehouse.Feedback) string { return f.FeedbackID })
	cal := calendar.NewIndex(in.Dates, in.Times)

	facts := make([]warehouse.Fact, 0, len(in.Items))
	for _, o := range in.Orders {
		base := warehouse.Fact{
			OrderID:                  o.OrderID,
			OrderStatus:              o.Status,
			OrderDateKey:             cal.DateKey(o.OrderDate),
			OrderTimeKey:             cal.TimeKey(o.OrderDate),
			DeliveredDateKey:         cal.DateKey(o.DeliveredDate),
			DeliveredTimeKey:         cal.TimeKey(o.DeliveredDate),
			EstimatedDeliveryDateKey: cal.DateKey(o.EstimatedDeliveryDate),
			EstimatedDeliveryTimeKey: cal.TimeKey(o.EstimatedDeliveryDate),
			OrderApprovedDateKey:     cal.DateKey(o.ApprovedDate),
			OrderApprovedTimeKey:     cal.TimeKey(o.ApprovedDate),
			PickupDateKey:            cal.DateKey(o.PickupDate),
			PickupTimeKey:            cal.TimeKey(o.PickupDate),
		}

		if u, ok := users[o.UserID]; ok {
			base.UserID = ptr(u.UserID)
			base.UserState = ptr(u.State)
		} else {
			stats.MissingUsers++
		}
		if p, ok := payments[o.OrderID]; ok {
			base.PaymentID = ptr(p.PaymentID)
			base.PaymentValue = ptr(p.Value)
		} else {
			stats.MissingPayments++
		}
		if o.FeedbackID != nil {
			if f, ok := feedback[*o.FeedbackID]; ok {
				base.FeedbackID = ptr(f.FeedbackID)
			}
		}

		delivered, deliveredOK := cal.Date(o.DeliveredDate)
		estimated, estimatedOK := cal.Date(o.EstimatedDeliveryDate)
		if deliveredOK && estimatedOK {
			base.DeliveryDelayCheck = delivered.DateKey > estimated.DateKey
			base.DeliveryDelayDays = ptr(DelayDays(delivered.Date, estimated.Date))
		}
		if o.DeliveredDate != nil && o.PickupDate != nil {
			days := calendar.DaysBetween(*o.PickupDate, *o.DeliveredDate)
			base.ShippingDays = &days
		}

		items := itemsByOrder[o.OrderID]
		if len(items) == 0 {
			stats.OrdersWithoutItems++
			facts = append(facts, base)
			continue
		}
		for _, item := range items {
			row := base
			if p, ok := products[item.ProductID]; ok {
				row.ProductID = ptr(p.ProductID)
			}
			if s, ok := sellers[item.SellerID]; ok {
				row.SellerID = ptr(s.SellerID)
			}
			row.Quantity = ptr(item.Quantity)
			facts = append(facts, row)
		}
	}

	for _, f := range facts {
		if f.DeliveryDelayCheck {
			stats.Late++
		}
		if f.ShippingDays != nil && *f.ShippingDays < 0 {
			stats.NegativeShipping++
		}
	}
	stats.Rows = len(facts)
	return facts, stats
}

// DelayDays returns the whole days delivery ran past the estimate, never
// negative.
func DelayDays(delivered, estimated time.Time) int {
	return max(0, calendar.DaysBetween(estimated, delivered))
}

func index[T any](rows []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(rows))
	for _, r := range rows {
		m[key(r)] = r
	}
	return m
}

func ptr[T any](v T) *T {
	return &v
}
