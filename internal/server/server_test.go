package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/pgEdge/pgedge-etl/internal/report"
)

type fakeCharts struct{}

func (fakeCharts) Chart(_ context.Context, name string) (report.Chart, error) {
	switch name {
	case report.TopStates:
		return report.Chart{
			Name:         name,
			LabelColumns: []string{"user_state"},
			ValueColumns: []string{"orders"},
			Points:       []report.Point{{Labels: []string{"Sp"}, Values: []float64{7}}},
		}, nil
	case report.OrdersByHour:
		return report.Chart{Name: name, Points: []report.Point{}, Error: "relation does not exist"}, nil
	}
	return report.Chart{}, fmt.Errorf("%w: %s", report.ErrUnknownChart, name)
}

func (f fakeCharts) All(ctx context.Context) []report.Chart {
	a, _ := f.Chart(ctx, report.TopStates)
	b, _ := f.Chart(ctx, report.OrdersByHour)
	return []report.Chart{a, b}
}

type fakeMeta struct {
	values map[string]string
	err    error
}

func (m fakeMeta) Metadata(context.Context) (map[string]string, error) {
	return m.values, m.err
}

func get(t *testing.T, h http.Handler, path string, data any) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var envelope struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Invalid JSON body %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			t.Fatalf("Invalid data %q: %v", envelope.Data, err)
		}
	}
	return rec.Code, envelope.Response
}

func TestChartEndpoint(t *testing.T) {
	h := New(fakeCharts{}, nil).Handler()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantState  string
	}{
		{"chart", "/api/v1/charts/top_states", http.StatusOK, "success"},
		{"inline query error", "/api/v1/charts/orders_by_hour", http.StatusOK, "success"},
		{"unknown chart", "/api/v1/charts/nope", http.StatusNotFound, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var chart report.Chart
			code, resp := get(t, h, tt.path, &chart)
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			if resp.Status != tt.wantState {
				t.Errorf("envelope status = %q, want %q", resp.Status, tt.wantState)
			}
		})
	}

	var chart report.Chart
	_, _ = get(t, h, "/api/v1/charts/orders_by_hour", &chart)
	if chart.Error != "relation does not exist" {
		t.Errorf("chart error = %q", chart.Error)
	}

	_, resp := get(t, h, "/api/v1/charts/nope", nil)
	if resp.Error == nil || resp.Error.Code != "UNKNOWN_CHART" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	var charts []report.Chart
	code, _ := get(t, New(fakeCharts{}, nil).Handler(), "/api/v1/dashboard", &charts)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(charts) != 2 || charts[0].Points[0].Labels[0] != "Sp" {
		t.Errorf("charts = %+v", charts)
	}
}

func TestChartNamesEndpoint(t *testing.T) {
	var names []string
	_, _ = get(t, New(fakeCharts{}, nil).Handler(), "/api/v1/charts", &names)
	if len(names) != len(report.Names()) {
		t.Errorf("names = %v", names)
	}
}

func TestMetadataEndpoint(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		var meta map[string]string
		h := New(fakeCharts{}, fakeMeta{values: map[string]string{"rows.dim_users": "3"}}).Handler()
		code, _ := get(t, h, "/api/v1/metadata", &meta)
		if code != http.StatusOK || meta["rows.dim_users"] != "3" {
			t.Errorf("status = %d, meta = %v", code, meta)
		}
	})

	t.Run("unavailable", func(t *testing.T) {
		h := New(fakeCharts{}, fakeMeta{err: errors.New("down")}).Handler()
		code, resp := get(t, h, "/api/v1/metadata", nil)
		if code != http.StatusServiceUnavailable || resp.Status != "error" {
			t.Errorf("status = %d, envelope = %q", code, resp.Status)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	var health map[string]string
	code, _ := get(t, New(fakeCharts{}, nil).Handler(), "/api/v1/health", &health)
	if code != http.StatusOK || health["status"] != "ok" {
		t.Errorf("status = %d, health = %v", code, health)
	}
}
