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
	"cmp"
	"reflect"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-etl/internal/record"
	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

// FeedbackID synthesizes the key of the n-th (zero based) occurrence of a
// raw feedback id.
func FeedbackID(raw string, n int) string {
	return raw + "_" + strconv.Itoa(n)
}

// Feedback builds dim_feedbacks from feedback_dataset. Raw feedback ids
// repeat across orders, so each occurrence gets an ordinal suffix.
// Timestamps are parsed best-effort; the score is required.
func Feedback(src *record.RecordSet) ([]warehouse.Feedback, error) {
	cols := []string{"feedback_id", "order_id", "feedback_score", "feedback_form_sent_date", "feedback_answer_date"}
	if err := src.Require(cols...); err != nil {
		return nil, err
	}

	occurrences := make(map[string]int)
	feedback := make([]warehouse.Feedback, 0, src.Len())
	for i, r := range src.Records {
		raw, err := key(src, i, "feedback_id")
		if err != nil {
			return nil, err
		}
		score, err := requiredInt(src, i, "feedback_score")
		if err != nil {
			return nil, err
		}
		orderID, _ := record.Text(r["order_id"])

		n := occurrences[raw]
		occurrences[raw] = n + 1

		feedback = append(feedback, warehouse.Feedback{
			FeedbackID:   FeedbackID(raw, n),
			OrderID:      orderID,
			Score:        score,
			FormSentDate: record.Timestamp(r["feedback_form_sent_date"]),
			AnswerDate:   record.Timestamp(r["feedback_answer_date"]),
		})
	}
	return feedback, nil
}

// OrderTimestampColumns are the order_dataset columns parsed as timestamps.
var OrderTimestampColumns = []string{
	"order_date", "order_approved_date", "pickup_date", "delivered_date", "estimated_time_delivery",
}

// Orders builds int_orders from order_dataset, attaching the first
// feedback recorded for each order. Unparseable timestamps become null.
// Exact duplicate rows collapse; conflicting rows for one order id fail
// with ErrDuplicateKey.
func Orders(src *record.RecordSet, feedback []warehouse.Feedback) ([]warehouse.Order, error) {
	cols := append([]string{"order_id", "user_name", "order_status"}, OrderTimestampColumns...)
	if err := src.Require(cols...); err != nil {
		return nil, err
	}

	feedbackByOrder := make(map[string]string, len(feedback))
	for _, f := range feedback {
		if f.OrderID == "" {
			continue
		}
		if _, ok := feedbackByOrder[f.OrderID]; !ok {
			feedbackByOrder[f.OrderID] = f.FeedbackID
		}
	}

	var orders []warehouse.Order
	seen := make(map[string]int)
	for i, r := range src.Records {
		id, err := key(src, i, "order_id")
		if err != nil {
			return nil, err
		}
		userID, _ := record.Text(r["user_name"])
		status, _ := record.Text(r["order_status"])

		o := warehouse.Order{
			OrderID:               id,
			UserID:                userID,
			Status:                status,
			OrderDate:             record.Timestamp(r["order_date"]),
			ApprovedDate:          record.Timestamp(r["order_approved_date"]),
			PickupDate:            record.Timestamp(r["pickup_date"]),
			DeliveredDate:         record.Timestamp(r["delivered_date"]),
			EstimatedDeliveryDate: record.Timestamp(r["estimated_time_delivery"]),
		}
		if fid, ok := feedbackByOrder[id]; ok {
			o.FeedbackID = &fid
		}

		if j, ok := seen[id]; ok {
			if !reflect.DeepEqual(orders[j], o) {
				return nil, duplicateKey(src, "order_id", i, id)
			}
			continue
		}
		seen[id] = len(orders)
		orders = append(orders, o)
	}
	return orders, nil
}

type lineKey struct {
	order, product, seller string
}

type lineGroup struct {
	ids      []string
	price    decimal.Decimal
	shipping decimal.Decimal
	rows     int
}

// OrderItems builds int_order_items from order_item_dataset, one row per
// (order, product, seller). Line-item ids are sorted and joined, price and
// shipping cost are summed, and quantity counts the merged rows. The
// pickup limit date is discarded.
func OrderItems(src *record.RecordSet) ([]warehouse.OrderItem, error) {
	cols := []string{"order_id", "order_item_id", "product_id", "seller_id", "price", "shipping_cost"}
	if err := src.Require(cols...); err != nil {
		return nil, err
	}

	groups := make(map[lineKey]*lineGroup)
	for i, r := range src.Records {
		var k lineKey
		var err error
		if k.order, err = key(src, i, "order_id"); err != nil {
			return nil, err
		}
		if k.product, err = key(src, i, "product_id"); err != nil {
			return nil, err
		}
		if k.seller, err = key(src, i, "seller_id"); err != nil {
			return nil, err
		}

		price, priceOK, err := record.Decimal(r["price"])
		if err != nil {
			return nil, src.CoerceError("price", i, r["price"], err)
		}
		shipping, shippingOK, err := record.Decimal(r["shipping_cost"])
		if err != nil {
			return nil, src.CoerceError("shipping_cost", i, r["shipping_cost"], err)
		}

		g, ok := groups[k]
		if !ok {
			g = &lineGroup{}
			groups[k] = g
		}
		if id, ok := record.Text(r["order_item_id"]); ok {
			g.ids = append(g.ids, id)
		}
		if priceOK {
			g.price = g.price.Add(price)
		}
		if shippingOK {
			g.shipping = g.shipping.Add(shipping)
		}
		g.rows++
	}

	keys := make([]lineKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b lineKey) int {
		if a.order != b.order {
			return cmp.Compare(a.order, b.order)
		}
		if a.product != b.product {
			return cmp.Compare(a.product, b.product)
		}
		return cmp.Compare(a.seller, b.seller)
	})

	items := make([]warehouse.OrderItem, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		items = append(items, warehouse.OrderItem{
			OrderID:      k.order,
			ProductID:    k.product,
			SellerID:     k.seller,
			OrderItemIDs: joinSorted(g.ids),
			Price:        g.price,
			ShippingCost: g.shipping,
			Quantity:     g.rows,
		})
	}
	return items, nil
}
