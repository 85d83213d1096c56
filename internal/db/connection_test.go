package db

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	if cfg.MaxConns < cfg.MinConns {
		t.Errorf("MaxConns %d < MinConns %d", cfg.MaxConns, cfg.MinConns)
	}
}

func TestConnectBadConnString(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://%zz", 0)
	if err == nil {
		t.Fatal("Expected error for malformed connection string")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("A parse error is not a connectivity error")
	}
}

func TestClassify(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	plain := errors.New("relation does not exist")

	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
	}{
		{"nil", nil, false},
		{"network", netErr, true},
		{"wrapped network", errors.Join(errors.New("copy"), netErr), true},
		{"already classified", ErrUnavailable, true},
		{"sql error", plain, false},
		{"deadline", context.DeadlineExceeded, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if errors.Is(got, ErrUnavailable) != tt.wantUnavailable {
				t.Errorf("classify(%v) = %v, unavailable want %v", tt.err, got, tt.wantUnavailable)
			}
			if tt.err != nil && !errors.Is(got, tt.err) {
				t.Errorf("classify lost the original error")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if v := normalize(int32(7)); v != int64(7) {
		t.Errorf("int32 normalized to %T", v)
	}
	if v := normalize(int16(7)); v != int64(7) {
		t.Errorf("int16 normalized to %T", v)
	}
	if v := normalize(float32(1.5)); v != float64(1.5) {
		t.Errorf("float32 normalized to %T", v)
	}

	n := warehouse.Numeric(decimal.RequireFromString("12.34"))
	d, ok := normalize(n).(decimal.Decimal)
	if !ok || !d.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("numeric normalized to %v", normalize(n))
	}
	if v := normalize(pgtype.Numeric{NaN: true, Valid: true}); v != nil {
		t.Errorf("NaN numeric should be null, got %v", v)
	}
	if v := normalize("text"); v != "text" {
		t.Errorf("text changed to %v", v)
	}
}

func TestWarehouseSpec(t *testing.T) {
	spec := WarehouseSpec(warehouse.UsersTable, "dw")
	if spec.Identifier.Sanitize() != `"dw"."dim_users"` {
		t.Errorf("Identifier = %s", spec.Identifier.Sanitize())
	}
	if len(spec.Columns) != 4 {
		t.Errorf("Columns = %v", spec.Columns)
	}
	if RowsKey("dim_users") != "rows.dim_users" {
		t.Errorf("RowsKey = %s", RowsKey("dim_users"))
	}
}
