package datagen

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-etl/internal/loader"
	"github.com/pgEdge/pgedge-etl/internal/record"
	"github.com/pgEdge/pgedge-etl/internal/transform"
)

func generate(t *testing.T, cfg Config) *Dataset {
	t.Helper()
	g, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	return g.Generate()
}

func TestGenerateDeterministic(t *testing.T) {
	a := generate(t, Config{Orders: 50, Seed: 7})
	b := generate(t, Config{Orders: 50, Seed: 7})
	if !reflect.DeepEqual(a, b) {
		t.Error("Same seed produced different datasets")
	}
}

func TestGenerateShape(t *testing.T) {
	ds := generate(t, Config{Orders: 200, Seed: 42})

	if len(ds.Orders) != 200 {
		t.Fatalf("orders = %d, want 200", len(ds.Orders))
	}

	users := make(map[string]int)
	for _, u := range ds.Users {
		users[u.UserName]++
	}
	if len(users) != 150 {
		t.Errorf("distinct users = %d, want 150", len(users))
	}
	if len(ds.Users) != 165 {
		t.Errorf("user rows = %d, want 165 (15 second addresses)", len(ds.Users))
	}

	products := make(map[string]bool)
	for _, p := range ds.Products {
		products[p.ProductID] = true
	}
	sellers := make(map[string]bool)
	for _, s := range ds.Sellers {
		sellers[s.SellerID] = true
	}

	itemTotals := make(map[string]decimal.Decimal)
	for _, it := range ds.OrderItems {
		if !products[it.ProductID] || !sellers[it.SellerID] {
			t.Fatalf("item %+v references unknown product or seller", it)
		}
		itemTotals[it.OrderID] = itemTotals[it.OrderID].Add(it.Price).Add(it.ShippingCost)
	}

	paid := make(map[string]decimal.Decimal)
	split := 0
	for _, p := range ds.Payments {
		paid[p.OrderID] = paid[p.OrderID].Add(p.Value)
		if p.Sequential == 2 {
			split++
		}
	}
	if split != 10 {
		t.Errorf("split payments = %d, want 10", split)
	}

	undelivered := 0
	for _, o := range ds.Orders {
		if users[o.UserName] == 0 {
			t.Errorf("order %s references unknown user", o.OrderID)
		}
		if _, ok := itemTotals[o.OrderID]; !ok {
			t.Errorf("order %s has no items", o.OrderID)
		}
		if !paid[o.OrderID].Equal(itemTotals[o.OrderID]) {
			t.Errorf("order %s paid %s, items total %s", o.OrderID, paid[o.OrderID], itemTotals[o.OrderID])
		}
		if o.DeliveredDate == "" {
			undelivered++
			if o.Status == "delivered" {
				t.Errorf("delivered order %s has no delivered date", o.OrderID)
			}
		}
	}
	if undelivered != 8 {
		t.Errorf("undelivered orders = %d, want 8", undelivered)
	}

	feedbackIDs := make(map[string]int)
	for _, f := range ds.Feedback {
		feedbackIDs[f.FeedbackID]++
	}
	if len(feedbackIDs) != len(ds.Feedback)-4 {
		t.Errorf("distinct feedback ids = %d of %d rows, want 4 repeats", len(feedbackIDs), len(ds.Feedback))
	}
}

func recordSet(t *testing.T, tbl *loader.Table) *record.RecordSet {
	t.Helper()
	set := record.New(tbl.Name, tbl.ColumnNames()...)
	for _, row := range tbl.Rows {
		r := make(record.Record, len(row))
		for i, c := range tbl.Columns {
			r[c.Name] = row[i]
		}
		set.Append(r)
	}
	return set
}

func TestWriteLoadTransform(t *testing.T) {
	ds := generate(t, Config{Orders: 120, Seed: 3})
	dir := t.TempDir()

	summaries, err := ds.Write(dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if len(summaries) != 7 {
		t.Fatalf("summaries = %d, want 7", len(summaries))
	}

	sets := make(map[string]*record.RecordSet)
	for _, s := range summaries {
		if s.Bytes == 0 {
			t.Errorf("%s is empty", s.Path)
		}
		tbl, err := loader.ReadFile(s.Path)
		if err != nil {
			t.Fatalf("ReadFile(%s) failed: %v", s.Path, err)
		}
		if len(tbl.Rows) != s.Rows {
			t.Errorf("%s: loaded %d rows, wrote %d", s.Table, len(tbl.Rows), s.Rows)
		}
		sets[s.Table] = recordSet(t, tbl)
	}

	files, err := loader.Discover(dir)
	if err != nil || len(files) != 7 {
		t.Fatalf("Discover = %v, %v", files, err)
	}
	if got := filepath.Base(files[0]); got != "feedback_dataset.csv" {
		t.Errorf("first file = %s", got)
	}

	users, err := transform.Users(sets[transform.UsersSource])
	if err != nil {
		t.Fatalf("Users failed: %v", err)
	}
	if len(users) != 90 {
		t.Errorf("users = %d, want 90", len(users))
	}
	if _, err := transform.Sellers(sets[transform.SellersSource]); err != nil {
		t.Errorf("Sellers failed: %v", err)
	}
	if _, err := transform.Products(sets[transform.ProductsSource]); err != nil {
		t.Errorf("Products failed: %v", err)
	}

	payments, err := transform.Payments(sets[transform.PaymentsSource])
	if err != nil {
		t.Fatalf("Payments failed: %v", err)
	}
	if len(payments) != 120 {
		t.Errorf("payments = %d, want one per order", len(payments))
	}

	feedback, err := transform.Feedback(sets[transform.FeedbackSource])
	if err != nil {
		t.Fatalf("Feedback failed: %v", err)
	}
	if len(feedback) != len(ds.Feedback) {
		t.Errorf("feedback = %d, want %d", len(feedback), len(ds.Feedback))
	}

	orders, err := transform.Orders(sets[transform.OrdersSource], feedback)
	if err != nil {
		t.Fatalf("Orders failed: %v", err)
	}
	if len(orders) != 120 {
		t.Errorf("orders = %d, want 120", len(orders))
	}

	items, err := transform.OrderItems(sets[transform.OrderItemsSource])
	if err != nil {
		t.Fatalf("OrderItems failed: %v", err)
	}
	repeated := 0
	for _, it := range items {
		if it.Quantity > 1 {
			repeated++
		}
	}
	if repeated != 15 {
		t.Errorf("line items with quantity > 1 = %d, want 15", repeated)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
