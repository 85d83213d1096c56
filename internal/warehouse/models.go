//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse defines the typed rows of the star schema and the DDL
// used to materialize them.
package warehouse

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// User is a row of dim_users. Address attributes hold the unique values
// seen for the user, in first-seen order, joined with ListSeparator.
type User struct {
	UserID  string
	ZipCode string
	City    string
	State   string
}

// Seller is a row of dim_sellers.
type Seller struct {
	SellerID string
	ZipCode  string
	City     string
	State    string
}

// Product is a row of dim_products.
type Product struct {
	ProductID         string
	Category          *string
	NameLength        *int64
	DescriptionLength *int64
	PhotosQuantity    *int64
	WeightGrams       *float64
	LengthCm          *float64
	HeightCm          *float64
	WidthCm           *float64
}

// Payment is a row of dim_payments. PaymentID is the order id.
type Payment struct {
	PaymentID    string
	Sequential   string
	Installments string
	Type         string
	Value        decimal.Decimal
}

// Feedback is a row of dim_feedbacks.
type Feedback struct {
	FeedbackID   string
	OrderID      string
	Score        int64
	FormSentDate *time.Time
	AnswerDate   *time.Time
}

// Order is a row of int_orders.
type Order struct {
	OrderID               string
	UserID                string
	Status                string
	OrderDate             *time.Time
	ApprovedDate          *time.Time
	PickupDate            *time.Time
	DeliveredDate         *time.Time
	EstimatedDeliveryDate *time.Time
	FeedbackID            *string
}

// OrderItem is a row of int_order_items, one per (order, product, seller).
type OrderItem struct {
	OrderID      string
	ProductID    string
	SellerID     string
	OrderItemIDs string
	Price        decimal.Decimal
	ShippingCost decimal.Decimal
	Quantity     int
}

// Date is a row of dim_date.
type Date struct {
	Date      time.Time
	DateKey   int
	Day       int
	DayName   string
	Month     int
	MonthName string
	Quarter   int
	Year      int
	DayOfWeek int
	IsWeekend bool
	Season    string
}

// Time is a row of dim_time, one per minute of the day.
type Time struct {
	TimeKey   int
	Hour      int
	Minute    int
	Second    int
	AMPM      string
	TimeOfDay string
}

// Fact is a row of fact_order_items. Nullable keys are nil when the
// referenced dimension row does not exist.
type Fact struct {
	OrderID                  string
	UserID                   *string
	ProductID                *string
	SellerID                 *string
	PaymentID                *string
	FeedbackID               *string
	OrderDateKey             *int
	OrderTimeKey             *int
	PaymentValue             *decimal.Decimal
	UserState                *string
	DeliveredDateKey         *int
	DeliveredTimeKey         *int
	DeliveryDelayCheck       bool
	DeliveryDelayDays        *int
	EstimatedDeliveryDateKey *int
	EstimatedDeliveryTimeKey *int
	OrderApprovedDateKey     *int
	OrderApprovedTimeKey     *int
	OrderStatus              string
	PickupDateKey            *int
	PickupTimeKey            *int
	Quantity                 *int
	ShippingDays             *int
}

// ListSeparator joins merged multi-valued attributes.
const ListSeparator = ", "

// DelayFlag renders the late flag the way it is stored.
func DelayFlag(late bool) string {
	if late {
		return "TRUE"
	}
	return "FALSE"
}

// Numeric converts a decimal to its exact PostgreSQL NUMERIC form.
func Numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func nullNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return Numeric(*d)
}
