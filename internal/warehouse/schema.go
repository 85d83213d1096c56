//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Table describes a warehouse table. The definition is the column list of
// a CREATE TABLE statement, with {schema} standing for the quoted schema
// name so that foreign keys can reference sibling tables.
type Table struct {
	Name       string
	Columns    []string
	definition string
}

// Identifier returns the schema-qualified table identifier.
func (t Table) Identifier(schema string) pgx.Identifier {
	return pgx.Identifier{schema, t.Name}
}

// CreateSQL returns the CREATE TABLE statement for the table in schema.
func (t Table) CreateSQL(schema string) string {
	body := strings.ReplaceAll(t.definition, "{schema}", pgx.Identifier{schema}.Sanitize())
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.Identifier(schema).Sanitize(), body)
}

// DropSQL returns the DROP TABLE statement for the table in schema.
// Dependent foreign keys are dropped with it.
func (t Table) DropSQL(schema string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", t.Identifier(schema).Sanitize())
}

// Valuer is implemented by every warehouse row type.
type Valuer interface {
	Values() []any
}

// Rows converts typed rows to the positional form used by COPY.
func Rows[T Valuer](items []T) [][]any {
	rows := make([][]any, len(items))
	for i, item := range items {
		rows[i] = item.Values()
	}
	return rows
}

// UsersTable holds one row per user.
var UsersTable = Table{
	Name:    "dim_users",
	Columns: []string{"user_id", "user_zip_code", "user_city", "user_state"},
	definition: `
    user_id       VARCHAR(255) PRIMARY KEY,
    user_zip_code TEXT,
    user_city     TEXT,
    user_state    TEXT`,
}

// SellersTable holds one row per seller.
var SellersTable = Table{
	Name:    "dim_sellers",
	Columns: []string{"seller_id", "seller_zip_code", "seller_city", "seller_state"},
	definition: `
    seller_id       VARCHAR(255) PRIMARY KEY,
    seller_zip_code TEXT,
    seller_city     TEXT,
    seller_state    TEXT`,
}

// ProductsTable holds one row per product.
var ProductsTable = Table{
	Name: "dim_products",
	Columns: []string{
		"product_id", "product_category", "product_name_length",
		"product_description_length", "product_photos_quantity",
		"product_weight_grams", "product_length_cm", "product_height_cm",
		"product_width_cm",
	},
	definition: `
    product_id                 VARCHAR(255) PRIMARY KEY,
    product_category           TEXT,
    product_name_length        BIGINT,
    product_description_length BIGINT,
    product_photos_quantity    BIGINT,
    product_weight_grams       DOUBLE PRECISION,
    product_length_cm          DOUBLE PRECISION,
    product_height_cm          DOUBLE PRECISION,
    product_width_cm           DOUBLE PRECISION`,
}

// PaymentsTable holds one row per order's merged payments.
var PaymentsTable = Table{
	Name: "dim_payments",
	Columns: []string{
		"payment_id", "payment_sequential", "payment_installments",
		"payment_type", "payment_value",
	},
	definition: `
    payment_id           VARCHAR(255) PRIMARY KEY,
    payment_sequential   TEXT NOT NULL,
    payment_installments TEXT NOT NULL,
    payment_type         TEXT,
    payment_value        NUMERIC NOT NULL`,
}

// FeedbacksTable holds one row per synthesized feedback id.
var FeedbacksTable = Table{
	Name: "dim_feedbacks",
	Columns: []string{
		"feedback_id", "order_id", "feedback_score",
		"feedback_form_sent_date", "feedback_answer_date",
	},
	definition: `
    feedback_id             VARCHAR(255) PRIMARY KEY,
    order_id                VARCHAR(255),
    feedback_score          INTEGER NOT NULL,
    feedback_form_sent_date TIMESTAMP,
    feedback_answer_date    TIMESTAMP`,
}

// OrdersTable is the order aggregate.
var OrdersTable = Table{
	Name: "int_orders",
	Columns: []string{
		"order_id", "user_id", "order_status", "order_date",
		"order_approved_date", "pickup_date", "delivered_date",
		"estimated_delivery_date", "feedback_id",
	},
	definition: `
    order_id                VARCHAR(255) PRIMARY KEY,
    user_id                 VARCHAR(255),
    order_status            TEXT,
    order_date              TIMESTAMP,
    order_approved_date     TIMESTAMP,
    pickup_date             TIMESTAMP,
    delivered_date          TIMESTAMP,
    estimated_delivery_date TIMESTAMP,
    feedback_id             VARCHAR(255)`,
}

// OrderItemsTable is the line-item aggregate.
var OrderItemsTable = Table{
	Name: "int_order_items",
	Columns: []string{
		"order_id", "product_id", "seller_id", "order_item_ids",
		"price", "shipping_cost", "quantity",
	},
	definition: `
    order_id       VARCHAR(255) NOT NULL,
    product_id     VARCHAR(255) NOT NULL,
    seller_id      VARCHAR(255) NOT NULL,
    order_item_ids TEXT NOT NULL,
    price          NUMERIC NOT NULL,
    shipping_cost  NUMERIC NOT NULL,
    quantity       INTEGER NOT NULL,
    PRIMARY KEY (order_id, product_id, seller_id)`,
}

// DateTable is the day-granularity calendar.
var DateTable = Table{
	Name: "dim_date",
	Columns: []string{
		"date_key", "date", "day", "day_name", "month", "month_name",
		"quarter", "year", "day_of_week", "is_weekend", "season",
	},
	definition: `
    date_key    INTEGER PRIMARY KEY,
    date        DATE NOT NULL UNIQUE,
    day         SMALLINT NOT NULL,
    day_name    VARCHAR(9) NOT NULL,
    month       SMALLINT NOT NULL,
    month_name  VARCHAR(9) NOT NULL,
    quarter     SMALLINT NOT NULL,
    year        SMALLINT NOT NULL,
    day_of_week SMALLINT NOT NULL,
    is_weekend  BOOLEAN NOT NULL,
    season      VARCHAR(6) NOT NULL`,
}

// TimeTable is the minute-granularity clock.
var TimeTable = Table{
	Name:    "dim_time",
	Columns: []string{"time_key", "hour", "minute", "second", "am_pm", "time_of_day"},
	definition: `
    time_key    INTEGER PRIMARY KEY,
    hour        SMALLINT NOT NULL,
    minute      SMALLINT NOT NULL,
    second      SMALLINT NOT NULL,
    am_pm       VARCHAR(2) NOT NULL,
    time_of_day VARCHAR(9) NOT NULL`,
}

// FactTable is the denormalized order line fact.
var FactTable = Table{
	Name: "fact_order_items",
	Columns: []string{
		"order_id", "user_id", "product_id", "seller_id", "payment_id",
		"feedback_id", "order_date_key", "order_time_key", "payment_value",
		"user_state", "delivered_date_key", "delivered_time_key",
		"delivery_delay_check", "delivery_delay_days",
		"estimated_delivery_date_key", "estimated_delivery_time_key",
		"order_approved_date_key", "order_approved_time_key", "order_status",
		"pickup_date_key", "pickup_time_key", "quantity", "shipping_days",
	},
	definition: `
    order_id                    VARCHAR(255) NOT NULL,
    user_id                     VARCHAR(255) REFERENCES {schema}.dim_users(user_id),
    product_id                  VARCHAR(255) REFERENCES {schema}.dim_products(product_id),
    seller_id                   VARCHAR(255) REFERENCES {schema}.dim_sellers(seller_id),
    payment_id                  VARCHAR(255) REFERENCES {schema}.dim_payments(payment_id),
    feedback_id                 VARCHAR(255) REFERENCES {schema}.dim_feedbacks(feedback_id),
    order_date_key              INTEGER REFERENCES {schema}.dim_date(date_key),
    order_time_key              INTEGER REFERENCES {schema}.dim_time(time_key),
    payment_value               NUMERIC,
    user_state                  TEXT,
    delivered_date_key          INTEGER REFERENCES {schema}.dim_date(date_key),
    delivered_time_key          INTEGER REFERENCES {schema}.dim_time(time_key),
    delivery_delay_check        VARCHAR(6) NOT NULL,
    delivery_delay_days         INTEGER,
    estimated_delivery_date_key INTEGER REFERENCES {schema}.dim_date(date_key),
    estimated_delivery_time_key INTEGER REFERENCES {schema}.dim_time(time_key),
    order_approved_date_key     INTEGER REFERENCES {schema}.dim_date(date_key),
    order_approved_time_key     INTEGER REFERENCES {schema}.dim_time(time_key),
    order_status                TEXT,
    pickup_date_key             INTEGER REFERENCES {schema}.dim_date(date_key),
    pickup_time_key             INTEGER REFERENCES {schema}.dim_time(time_key),
    quantity                    INTEGER,
    shipping_days               INTEGER`,
}

// Tables lists every warehouse table, referenced tables first.
func Tables() []Table {
	return []Table{
		UsersTable, SellersTable, ProductsTable, PaymentsTable, FeedbacksTable,
		OrdersTable, OrderItemsTable, DateTable, TimeTable, FactTable,
	}
}

// Values implementations follow the column order of each Table.

func (u User) Values() []any {
	return []any{u.UserID, u.ZipCode, u.City, u.State}
}

func (s Seller) Values() []any {
	return []any{s.SellerID, s.ZipCode, s.City, s.State}
}

func (p Product) Values() []any {
	return []any{
		p.ProductID, p.Category, p.NameLength, p.DescriptionLength,
		p.PhotosQuantity, p.WeightGrams, p.LengthCm, p.HeightCm, p.WidthCm,
	}
}

func (p Payment) Values() []any {
	return []any{p.PaymentID, p.Sequential, p.Installments, p.Type, Numeric(p.Value)}
}

func (f Feedback) Values() []any {
	return []any{f.FeedbackID, f.OrderID, f.Score, f.FormSentDate, f.AnswerDate}
}

func (o Order) Values() []any {
	return []any{
		o.OrderID, o.UserID, o.Status, o.OrderDate, o.ApprovedDate,
		o.PickupDate, o.DeliveredDate, o.EstimatedDeliveryDate, o.FeedbackID,
	}
}

func (i OrderItem) Values() []any {
	return []any{
		i.OrderID, i.ProductID, i.SellerID, i.OrderItemIDs,
		Numeric(i.Price), Numeric(i.ShippingCost), i.Quantity,
	}
}

func (d Date) Values() []any {
	return []any{
		d.DateKey, d.Date, d.Day, d.DayName, d.Month, d.MonthName,
		d.Quarter, d.Year, d.DayOfWeek, d.IsWeekend, d.Season,
	}
}

func (t Time) Values() []any {
	return []any{t.TimeKey, t.Hour, t.Minute, t.Second, t.AMPM, t.TimeOfDay}
}

func (f Fact) Values() []any {
	return []any{
		f.OrderID, f.UserID, f.ProductID, f.SellerID, f.PaymentID,
		f.FeedbackID, f.OrderDateKey, f.OrderTimeKey, nullNumeric(f.PaymentValue),
		f.UserState, f.DeliveredDateKey, f.DeliveredTimeKey,
		DelayFlag(f.DeliveryDelayCheck), f.DeliveryDelayDays,
		f.EstimatedDeliveryDateKey, f.EstimatedDeliveryTimeKey,
		f.OrderApprovedDateKey, f.OrderApprovedTimeKey, f.OrderStatus,
		f.PickupDateKey, f.PickupTimeKey, f.Quantity, f.ShippingDays,
	}
}
