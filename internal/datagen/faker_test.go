package datagen

import (
	"regexp"
	"testing"
	"time"
)

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		if v1, v2 := f1.Int(0, 1000), f2.Int(0, 1000); v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
		if id1, id2 := f1.ID(), f2.ID(); id1 != id2 {
			t.Errorf("Same seed produced different ids: %s != %s", id1, id2)
		}
	}
}

func TestFakerID(t *testing.T) {
	f := NewFaker()
	hex := regexp.MustCompile(`^[0-9a-f]{32}$`)
	for i := 0; i < 20; i++ {
		if id := f.ID(); !hex.MatchString(id) {
			t.Errorf("ID %q is not 32 lowercase hex characters", id)
		}
	}
}

func TestFakerAddressParts(t *testing.T) {
	f := NewFaker()
	if f.City() == "" || f.State() == "" || f.Zip() == "" {
		t.Error("address part returned empty string")
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		if v := f.Int(10, 20); v < 10 || v > 20 {
			t.Errorf("Int %d not in range [10, 20]", v)
		}
	}
}

func TestFakerMoney(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 50; i++ {
		m := f.Money(5, 50)
		if m.Exponent() < -2 {
			t.Errorf("Money %s has more than two decimals", m)
		}
		if m.IsNegative() {
			t.Errorf("Money %s is negative", m)
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		d := f.DateRange(start, end)
		if d.Before(start) || d.After(end) {
			t.Errorf("Date %v not in range [%v, %v]", d, start, end)
		}
		if d.Nanosecond() != 0 {
			t.Errorf("Date %v not truncated to the second", d)
		}
	}
}

func TestFakerOptionalInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 10; i++ {
		if p := f.OptionalInt(3, 0); p == nil || *p != 3 {
			t.Error("OptionalInt with 0% probability should always return the value")
		}
		if p := f.OptionalInt(3, 1.1); p != nil {
			t.Error("OptionalInt above 100% probability should always return nil")
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}
	for i := 0; i < 20; i++ {
		got := Choose(f, items)
		if got != "a" && got != "b" && got != "c" {
			t.Errorf("Choose returned %q", got)
		}
	}
	if got := Choose(f, []string{}); got != "" {
		t.Errorf("Choose on empty slice returned %q", got)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 20; i++ {
		if got := ChooseWeighted(f, []string{"never", "always"}, []int{0, 5}); got != "always" {
			t.Errorf("ChooseWeighted returned %q", got)
		}
	}
	if got := ChooseWeighted(f, []int{}, nil); got != 0 {
		t.Errorf("ChooseWeighted on empty slice returned %d", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "" {
		t.Errorf("FormatTime(zero) = %q", got)
	}
	ts := time.Date(2017, 11, 24, 10, 15, 30, 0, time.UTC)
	if got := FormatTime(ts); got != "2017-11-24 10:15:30" {
		t.Errorf("FormatTime = %q", got)
	}
}

func BenchmarkChooseWeighted(b *testing.B) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}
	weights := []int{1, 2, 3, 4, 5}
	for i := 0; i < b.N; i++ {
		ChooseWeighted(f, items, weights)
	}
}
