//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-etl/internal/logging"
	"github.com/pgEdge/pgedge-etl/internal/transform"
)

// User is a row of the raw user file. A user appears once per address.
type User struct {
	UserName string `csv:"user_name"`
	ZipCode  string `csv:"customer_zip_code"`
	City     string `csv:"customer_city"`
	State    string `csv:"customer_state"`
}

// Seller is a row of the raw seller file.
type Seller struct {
	SellerID string `csv:"seller_id"`
	ZipCode  string `csv:"seller_zip_code"`
	City     string `csv:"seller_city"`
	State    string `csv:"seller_state"`
}

// Product is a row of the raw product file. Column names keep the
// misspellings of the source export.
type Product struct {
	ProductID         string `csv:"product_id"`
	Category          string `csv:"product_category"`
	NameLength        *int   `csv:"product_name_lenght"`
	DescriptionLength *int   `csv:"product_description_lenght"`
	PhotosQuantity    *int   `csv:"product_photos_qty"`
	WeightGrams       *int   `csv:"product_weight_g"`
	LengthCm          *int   `csv:"product_length_cm"`
	HeightCm          *int   `csv:"product_height_cm"`
	WidthCm           *int   `csv:"product_width_cm"`
}

// Payment is a row of the raw payment file.
type Payment struct {
	OrderID      string          `csv:"order_id"`
	Sequential   int             `csv:"payment_sequential"`
	Type         string          `csv:"payment_type"`
	Installments int             `csv:"payment_installments"`
	Value        decimal.Decimal `csv:"payment_value"`
}

// Feedback is a row of the raw feedback file.
type Feedback struct {
	FeedbackID   string `csv:"feedback_id"`
	OrderID      string `csv:"order_id"`
	Score        int    `csv:"feedback_score"`
	FormSentDate string `csv:"feedback_form_sent_date"`
	AnswerDate   string `csv:"feedback_answer_date"`
}

// Order is a row of the raw order file.
type Order struct {
	OrderID               string `csv:"order_id"`
	UserName              string `csv:"user_name"`
	Status                string `csv:"order_status"`
	OrderDate             string `csv:"order_date"`
	ApprovedDate          string `csv:"order_approved_date"`
	PickupDate            string `csv:"pickup_date"`
	DeliveredDate         string `csv:"delivered_date"`
	EstimatedDeliveryDate string `csv:"estimated_time_delivery"`
}

// OrderItem is a row of the raw order item file.
type OrderItem struct {
	OrderID      string          `csv:"order_id"`
	OrderItemID  int             `csv:"order_item_id"`
	ProductID    string          `csv:"product_id"`
	SellerID     string          `csv:"seller_id"`
	Price        decimal.Decimal `csv:"price"`
	ShippingCost decimal.Decimal `csv:"shipping_cost"`
}

// Dataset holds one generated copy of every raw source.
type Dataset struct {
	Users      []User
	Sellers    []Seller
	Products   []Product
	Payments   []Payment
	Feedback   []Feedback
	Orders     []Order
	OrderItems []OrderItem
}

// Config controls the size and shape of a generated dataset.
type Config struct {
	// Orders is the number of orders. Every other source is sized from it.
	Orders int

	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64

	// Profile names the Activity that order times follow.
	Profile string
}

// Every Nth entity carries one of the irregularities the pipeline must
// cope with.
const (
	secondAddressEvery  = 10
	splitPaymentEvery   = 20
	reusedFeedbackEvery = 50
	missingDatesEvery   = 25
	repeatedItemEvery   = 8
)

var (
	// The generated orders fall inside the default calendar range.
	orderWindowStart = time.Date(2016, 9, 4, 0, 0, 0, 0, time.UTC)
	orderWindowEnd   = time.Date(2018, 9, 3, 23, 59, 59, 0, time.UTC)

	categories = []string{
		"health_beauty", "computers_accessories", "bed_bath_table",
		"sports_leisure", "furniture_decor", "housewares", "watches_gifts",
		"telephony", "auto", "toys", "cool_stuff", "garden_tools",
	}

	paymentTypes   = []string{"credit_card", "blipay", "voucher", "debit_card"}
	paymentWeights = []int{75, 19, 5, 1}

	undeliveredStatuses = []string{"shipped", "canceled", "invoiced", "processing"}

	feedbackScores  = []int{1, 2, 3, 4, 5}
	feedbackWeights = []int{11, 3, 8, 19, 59}
)

// Generator builds raw datasets.
type Generator struct {
	faker    *Faker
	cfg      Config
	activity Activity
}

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg Config) (*Generator, error) {
	activity, err := ActivityProfile(cfg.Profile)
	if err != nil {
		return nil, err
	}

	f := NewFaker()
	if cfg.Seed != 0 {
		f = NewFakerWithSeed(cfg.Seed)
	}
	if cfg.Orders < 1 {
		cfg.Orders = 1
	}
	return &Generator{faker: f, cfg: cfg, activity: activity}, nil
}

// Generate builds a dataset. Sources reference each other consistently:
// every order belongs to a generated user and every item to a generated
// product and seller.
func (g *Generator) Generate() *Dataset {
	ds := &Dataset{}
	f := g.faker

	users := g.users(ds, max(1, g.cfg.Orders*3/4))
	sellers := g.sellers(ds, max(1, g.cfg.Orders/10))
	products := g.products(ds, max(1, g.cfg.Orders/3))

	for i := 0; i < g.cfg.Orders; i++ {
		orderID := f.ID()
		order := g.order(orderID, Choose(f, users), i)
		ds.Orders = append(ds.Orders, order.row)

		total := g.items(ds, orderID, products, sellers, i)
		g.payments(ds, orderID, total, i)

		// The first order always has feedback so the file is never empty.
		if i == 0 || i%reusedFeedbackEvery == reusedFeedbackEvery-1 || f.Int(1, 100) <= 95 {
			g.feedback(ds, orderID, order, i)
		}
	}
	return ds
}

func (g *Generator) users(ds *Dataset, n int) []string {
	f := g.faker
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.ID()
		ds.Users = append(ds.Users, User{UserName: ids[i], ZipCode: f.Zip(), City: f.City(), State: f.State()})
		if i%secondAddressEvery == secondAddressEvery-1 {
			ds.Users = append(ds.Users, User{UserName: ids[i], ZipCode: f.Zip(), City: f.City(), State: f.State()})
		}
	}
	return ids
}

func (g *Generator) sellers(ds *Dataset, n int) []string {
	f := g.faker
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.ID()
		s := Seller{SellerID: ids[i], ZipCode: f.Zip(), City: f.City(), State: f.State()}
		ds.Sellers = append(ds.Sellers, s)
		if i%secondAddressEvery == secondAddressEvery-1 {
			// Exact repeat of the same address.
			ds.Sellers = append(ds.Sellers, s)
		}
	}
	return ids
}

func (g *Generator) products(ds *Dataset, n int) []string {
	f := g.faker
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.ID()
		p := Product{
			ProductID:         ids[i],
			Category:          Choose(f, categories),
			NameLength:        f.OptionalInt(f.Int(5, 76), 0.02),
			DescriptionLength: f.OptionalInt(f.Int(4, 3992), 0.02),
			PhotosQuantity:    f.OptionalInt(f.Int(1, 20), 0.02),
			WeightGrams:       f.OptionalInt(f.Int(50, 30000), 0.01),
			LengthCm:          f.OptionalInt(f.Int(7, 105), 0.01),
			HeightCm:          f.OptionalInt(f.Int(2, 105), 0.01),
			WidthCm:           f.OptionalInt(f.Int(6, 118), 0.01),
		}
		if f.Int(1, 100) <= 2 {
			p.Category = ""
		}
		ds.Products = append(ds.Products, p)
	}
	return ids
}

// orderTime draws an order timestamp weighted by the activity profile.
func (g *Generator) orderTime() time.Time {
	for {
		t := g.faker.DateRange(orderWindowStart, orderWindowEnd)
		if g.faker.Float64(0, maxActivity) <= g.activity.Level(t) {
			return t
		}
	}
}

type generatedOrder struct {
	row       Order
	delivered time.Time
	estimated time.Time
}

func (g *Generator) order(id, user string, i int) generatedOrder {
	f := g.faker
	placed := g.orderTime()
	approved := placed.Add(time.Duration(f.Int(5, 48*60)) * time.Minute)
	pickup := approved.Add(time.Duration(f.Int(12, 120)) * time.Hour)
	estimated := time.Date(placed.Year(), placed.Month(), placed.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, f.Int(10, 30))

	// Deliveries are spread around the estimate so some arrive late.
	delivered := pickup.Add(time.Duration(f.Int(24, 24*25)) * time.Hour)

	status := "delivered"
	if i%missingDatesEvery == missingDatesEvery-1 {
		status = Choose(f, undeliveredStatuses)
		delivered = time.Time{}
		if status == "canceled" || status == "processing" {
			pickup = time.Time{}
		}
	}
	if i%(missingDatesEvery*2) == missingDatesEvery {
		approved = time.Time{}
	}

	return generatedOrder{
		row: Order{
			OrderID:               id,
			UserName:              user,
			Status:                status,
			OrderDate:             FormatTime(placed),
			ApprovedDate:          FormatTime(approved),
			PickupDate:            FormatTime(pickup),
			DeliveredDate:         FormatTime(delivered),
			EstimatedDeliveryDate: FormatTime(estimated),
		},
		delivered: delivered,
		estimated: estimated,
	}
}

// items adds one to three distinct product/seller pairs to the order and
// returns the order total. Some pairs are listed twice.
func (g *Generator) items(ds *Dataset, orderID string, products, sellers []string, i int) decimal.Decimal {
	f := g.faker
	total := decimal.Zero
	seq := 0

	type pair struct{ product, seller string }
	seen := make(map[pair]bool)

	for n := f.Int(1, 3); n > 0; n-- {
		p := pair{Choose(f, products), Choose(f, sellers)}
		if seen[p] {
			continue
		}
		seen[p] = true

		price := f.Money(5, 500)
		shipping := f.Money(5, 50)
		repeat := 1
		if seq == 0 && i%repeatedItemEvery == repeatedItemEvery-1 {
			repeat = 2
		}
		for r := 0; r < repeat; r++ {
			seq++
			ds.OrderItems = append(ds.OrderItems, OrderItem{
				OrderID:      orderID,
				OrderItemID:  seq,
				ProductID:    p.product,
				SellerID:     p.seller,
				Price:        price,
				ShippingCost: shipping,
			})
			total = total.Add(price).Add(shipping)
		}
	}
	return total
}

// payments settles total with one payment, or two for a split order.
func (g *Generator) payments(ds *Dataset, orderID string, total decimal.Decimal, i int) {
	f := g.faker
	kind := ChooseWeighted(f, paymentTypes, paymentWeights)
	installments := 1
	if kind == "credit_card" {
		installments = f.Int(1, 10)
	}

	if i%splitPaymentEvery != splitPaymentEvery-1 {
		ds.Payments = append(ds.Payments, Payment{
			OrderID: orderID, Sequential: 1, Type: kind, Installments: installments, Value: total,
		})
		return
	}

	voucher := total.Div(decimal.NewFromInt(int64(f.Int(2, 5)))).Round(2)
	ds.Payments = append(ds.Payments,
		Payment{OrderID: orderID, Sequential: 1, Type: kind, Installments: installments, Value: total.Sub(voucher)},
		Payment{OrderID: orderID, Sequential: 2, Type: "voucher", Installments: 1, Value: voucher},
	)
}

func (g *Generator) feedback(ds *Dataset, orderID string, o generatedOrder, i int) {
	f := g.faker

	id := f.ID()
	if i%reusedFeedbackEvery == reusedFeedbackEvery-1 && len(ds.Feedback) > 0 {
		id = ds.Feedback[len(ds.Feedback)-1].FeedbackID
	}

	sent := o.estimated.AddDate(0, 0, 1)
	if !o.delivered.IsZero() {
		d := o.delivered
		sent = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	}
	answered := sent.Add(time.Duration(f.Int(1, 72*60)) * time.Minute)
	if f.Int(1, 100) <= 3 {
		answered = time.Time{}
	}

	ds.Feedback = append(ds.Feedback, Feedback{
		FeedbackID:   id,
		OrderID:      orderID,
		Score:        ChooseWeighted(f, feedbackScores, feedbackWeights),
		FormSentDate: FormatTime(sent),
		AnswerDate:   FormatTime(answered),
	})
}

// FileSummary reports one written source file.
type FileSummary struct {
	Table string
	Path  string
	Rows  int
	Bytes int64
}

// Write writes every source as <dir>/<source>.csv, named the way the
// loader and transform steps expect.
func (ds *Dataset) Write(dir string) ([]FileSummary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	writers := []struct {
		table string
		rows  int
		write func(string) error
	}{
		{transform.UsersSource, len(ds.Users), func(p string) error { return writeCSV(p, ds.Users) }},
		{transform.SellersSource, len(ds.Sellers), func(p string) error { return writeCSV(p, ds.Sellers) }},
		{transform.ProductsSource, len(ds.Products), func(p string) error { return writeCSV(p, ds.Products) }},
		{transform.PaymentsSource, len(ds.Payments), func(p string) error { return writeCSV(p, ds.Payments) }},
		{transform.FeedbackSource, len(ds.Feedback), func(p string) error { return writeCSV(p, ds.Feedback) }},
		{transform.OrdersSource, len(ds.Orders), func(p string) error { return writeCSV(p, ds.Orders) }},
		{transform.OrderItemsSource, len(ds.OrderItems), func(p string) error { return writeCSV(p, ds.OrderItems) }},
	}

	summaries := make([]FileSummary, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(dir, w.table+".csv")
		if err := w.write(path); err != nil {
			return summaries, fmt.Errorf("write %s: %w", w.table, err)
		}

		s := FileSummary{Table: w.table, Path: path, Rows: w.rows}
		if fi, err := os.Stat(path); err == nil {
			s.Bytes = fi.Size()
		}
		summaries = append(summaries, s)

		logging.Info().
			Str("table", s.Table).
			Int("rows", s.Rows).
			Str("size", FormatSize(s.Bytes)).
			Msg("Wrote dataset file")
	}
	return summaries, nil
}

func writeCSV[T any](path string, rows []T) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	if len(rows) == 0 {
		var zero T
		if err := enc.EncodeHeader(zero); err != nil {
			return err
		}
	} else if err := enc.Encode(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
