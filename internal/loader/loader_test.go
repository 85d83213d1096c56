package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pgEdge/pgedge-etl/internal/db"
)

func TestInfer(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   ColumnType
	}{
		{"integers", []string{"1", "42", "-7"}, Integer},
		{"whole floats are integers", []string{"1.0", "2"}, Integer},
		{"floats", []string{"1.5", "2"}, Float},
		{"timestamps", []string{"2017-11-24 10:15:00", "2018-01-01"}, Timestamp},
		{"text", []string{"credit_card", "voucher"}, Text},
		{"mixed number and text", []string{"1", "abc"}, Text},
		{"number then date", []string{"12", "2017-11-24"}, Text},
		{"empty cells ignored", []string{"", "3", " "}, Integer},
		{"all empty", []string{"", ""}, Text},
		{"no rows", nil, Text},
		{"codes beyond int64", []string{"12345678901234567890123", "2"}, Float},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Infer(tt.values); got != tt.want {
				t.Errorf("Infer(%v) = %s, want %s", tt.values, got, tt.want)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	if v := Convert(Integer, " 12 "); v != int64(12) {
		t.Errorf("Convert(Integer) = %#v", v)
	}
	if v := Convert(Float, "1.25"); v != 1.25 {
		t.Errorf("Convert(Float) = %#v", v)
	}
	want := time.Date(2017, 11, 24, 10, 15, 0, 0, time.UTC)
	if v, ok := Convert(Timestamp, "2017-11-24 10:15:00").(time.Time); !ok || !v.Equal(want) {
		t.Errorf("Convert(Timestamp) = %#v", v)
	}
	if v := Convert(Text, "sao paulo"); v != "sao paulo" {
		t.Errorf("Convert(Text) = %#v", v)
	}
	for _, typ := range []ColumnType{Integer, Float, Timestamp, Text} {
		if v := Convert(typ, "  "); v != nil {
			t.Errorf("Convert(%s, blank) = %#v, want nil", typ, v)
		}
	}
}

func TestReadCSV(t *testing.T) {
	data := "\ufefforder_id,payment_sequential,payment_value,paid_at\n" +
		"O1,1,80.5,2017-11-24 10:15:00\n" +
		"O2,,30,\n"

	table, err := ReadCSV("payment_dataset", strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	wantTypes := []ColumnType{Text, Integer, Float, Timestamp}
	if len(table.Columns) != len(wantTypes) {
		t.Fatalf("Expected %d columns, got %d", len(wantTypes), len(table.Columns))
	}
	for i, c := range table.Columns {
		if c.Type != wantTypes[i] {
			t.Errorf("Column %s = %s, want %s", c.Name, c.Type, wantTypes[i])
		}
	}
	if table.Columns[0].Name != "order_id" {
		t.Errorf("Byte order mark not stripped: %q", table.Columns[0].Name)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[1][1] != nil || table.Rows[1][3] != nil {
		t.Errorf("Empty cells should be nil: %v", table.Rows[1])
	}
	if table.Rows[1][2] != 30.0 {
		t.Errorf("payment_value = %#v", table.Rows[1][2])
	}
}

func TestReadCSVLongCodes(t *testing.T) {
	table, err := ReadCSV("codes", strings.NewReader("code\n12345678901234567890123\n2\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if got := table.Columns[0].Type; got != Float {
		t.Fatalf("code column = %s, want %s", got, Float)
	}
	if v, ok := table.Rows[0][0].(float64); !ok || v < 1.2e22 {
		t.Errorf("code = %#v, want 1.2345678901234568e+22", table.Rows[0][0])
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"ragged", "a,b\n1,2\n3\n"},
		{"duplicate header", "a,a\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV("t", strings.NewReader(tt.data)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestTableSpec(t *testing.T) {
	table := &Table{
		Name:    "user_dataset",
		Columns: []Column{{"user_name", Text}, {"customer_zip_code", Integer}},
	}

	spec := table.Spec("staging")
	if spec.Identifier.Sanitize() != `"staging"."user_dataset"` {
		t.Errorf("Identifier = %s", spec.Identifier.Sanitize())
	}
	if !strings.Contains(spec.CreateSQL, `"customer_zip_code" BIGINT`) {
		t.Errorf("CreateSQL = %s", spec.CreateSQL)
	}
	if !strings.HasPrefix(spec.DropSQL, "DROP TABLE IF EXISTS") {
		t.Errorf("DropSQL = %s", spec.DropSQL)
	}
}

type fakeReplacer struct {
	mu     sync.Mutex
	tables map[string]int
	fail   map[string]error
}

func (f *fakeReplacer) Replace(_ context.Context, spec db.TableSpec, rows [][]any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := spec.Identifier[len(spec.Identifier)-1]
	if err := f.fail[name]; err != nil {
		return 0, err
	}
	f.tables[name] = len(rows)
	return int64(len(rows)), nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"user_dataset.csv":   "user_name,customer_city\nu1,franca\nu2,campinas\n",
		"seller_dataset.csv": "seller_id,seller_state\ns1,SP\n",
		"notes.txt":          "ignored",
	})

	store := &fakeReplacer{tables: make(map[string]int)}
	summaries, err := New(store, "staging", 2).LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].Table != "seller_dataset" || summaries[1].Table != "user_dataset" {
		t.Errorf("Summaries not in file order: %s, %s", summaries[0].Table, summaries[1].Table)
	}
	if store.tables["user_dataset"] != 2 || store.tables["seller_dataset"] != 1 {
		t.Errorf("Staged tables = %v", store.tables)
	}
}

func TestLoadDirContinuesPastBadFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.csv": "x,y\n1\n",
		"b.csv": "x\n1\n",
	})

	store := &fakeReplacer{tables: make(map[string]int)}
	summaries, err := New(store, "staging", 1).LoadDir(context.Background(), dir)
	if err == nil {
		t.Fatal("Expected error for ragged file")
	}
	if summaries[0].Err == nil || summaries[1].Err != nil {
		t.Errorf("Unexpected per-file errors: %v, %v", summaries[0].Err, summaries[1].Err)
	}
	if store.tables["b"] != 1 {
		t.Error("Good file was not staged")
	}
}

func TestLoadDirStopsWhenUnavailable(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.csv": "x\n1\n",
		"b.csv": "x\n1\n",
	})

	store := &fakeReplacer{
		tables: make(map[string]int),
		fail:   map[string]error{"a": fmt.Errorf("%w: refused", db.ErrUnavailable)},
	}
	summaries, err := New(store, "staging", 1).LoadDir(context.Background(), dir)
	if !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("Expected ErrUnavailable, got %v", err)
	}
	if _, ok := store.tables["b"]; ok {
		t.Error("b was staged after the database went away")
	}
	if !errors.Is(summaries[1].Err, db.ErrUnavailable) {
		t.Errorf("b summary error = %v", summaries[1].Err)
	}
}

func TestDiscoverEmpty(t *testing.T) {
	dir := writeFiles(t, map[string]string{"readme.md": "x"})
	if _, err := Discover(dir); !errors.Is(err, ErrNoFiles) {
		t.Errorf("Expected ErrNoFiles, got %v", err)
	}
}
