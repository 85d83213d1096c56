//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package report runs the fixed analytical queries over the warehouse.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-etl/internal/logging"
)

// ErrUnknownChart is returned for a chart name that is not defined.
var ErrUnknownChart = errors.New("unknown chart")

// Querier is satisfied by *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Options tune the parameterized charts.
type Options struct {
	MinRouteOrders int
	TopStates      int
}

// Point is one row of a chart: its label columns and its measures.
type Point struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Chart is the result of one query. A failed query leaves Points empty
// and sets Error.
type Chart struct {
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	LabelColumns []string      `json:"label_columns"`
	ValueColumns []string      `json:"value_columns"`
	Points       []Point       `json:"points"`
	Duration     time.Duration `json:"duration_ns"`
	Error        string        `json:"error,omitempty"`
}

type definition struct {
	name   string
	title  string
	labels []string
	values []string
	sql    string
	args   func(Options) []any
	finish func(*Chart)
}

var definitions = []definition{
	{
		name:   KeyMetrics,
		title:  "Key metrics",
		values: []string{"total_orders", "total_revenue", "average_quantity", "delayed_orders"},
		sql:    keyMetricsSQL,
	},
	{
		name:   PaymentDistribution,
		title:  "Most popular payment methods",
		labels: []string{"payment_method"},
		values: []string{"orders"},
		sql:    paymentDistributionSQL,
		finish: addPercentages,
	},
	{
		name:   OrdersByMonth,
		title:  "Orders per month",
		labels: []string{"year_month"},
		values: []string{"orders"},
		sql:    ordersByMonthSQL,
	},
	{
		name:   OrdersByHour,
		title:  "Orders per hour of day",
		labels: []string{"hour"},
		values: []string{"orders"},
		sql:    ordersByHourSQL,
	},
	{
		name:   OrdersBySeason,
		title:  "Orders per season",
		labels: []string{"season"},
		values: []string{"orders"},
		sql:    ordersBySeasonSQL,
	},
	{
		name:   DelayByFeedback,
		title:  "Average delivery delay by feedback score",
		labels: []string{"feedback_score"},
		values: []string{"avg_delay_days"},
		sql:    delayByFeedbackSQL,
	},
	{
		name:   LogisticsRoutes,
		title:  "Busiest seller to customer routes",
		labels: []string{"seller_state", "user_state"},
		values: []string{"orders", "delayed_orders", "avg_delay_days", "avg_shipping_days", "delay_percentage"},
		sql:    logisticsRoutesSQL,
		args:   func(o Options) []any { return []any{o.MinRouteOrders} },
	},
	{
		name:   PaymentByCategory,
		title:  "Payment method by product category",
		labels: []string{"product_category", "payment_method"},
		values: []string{"orders"},
		sql:    paymentByCategorySQL,
	},
	{
		name:   TopStates,
		title:  "States with the most purchases",
		labels: []string{"user_state"},
		values: []string{"orders"},
		sql:    topStatesSQL,
		args:   func(o Options) []any { return []any{o.TopStates} },
	},
}

// Names returns every chart name in display order.
func Names() []string {
	names := make([]string, len(definitions))
	for i, d := range definitions {
		names[i] = d.name
	}
	return names
}

func lookup(name string) (definition, bool) {
	for _, d := range definitions {
		if d.name == name {
			return d, true
		}
	}
	return definition{}, false
}

// Reporter runs chart queries against one warehouse schema.
type Reporter struct {
	q      Querier
	schema string
	opts   Options
}

// New creates a reporter reading from schema.
func New(q Querier, schema string, opts Options) *Reporter {
	if opts.MinRouteOrders < 1 {
		opts.MinRouteOrders = 1
	}
	if opts.TopStates < 1 {
		opts.TopStates = 20
	}
	return &Reporter{q: q, schema: schema, opts: opts}
}

// SQL returns the query text of chart name for this reporter's schema.
func (r *Reporter) SQL(name string) (string, error) {
	d, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
	return r.render(d.sql), nil
}

func (r *Reporter) render(sql string) string {
	return strings.ReplaceAll(sql, "{schema}", pgx.Identifier{r.schema}.Sanitize())
}

// Chart runs one chart. Only an unknown name is an error; query failures
// are reported in Chart.Error.
func (r *Reporter) Chart(ctx context.Context, name string) (Chart, error) {
	d, ok := lookup(name)
	if !ok {
		return Chart{}, fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
	return r.run(ctx, d), nil
}

// All runs every chart, a few at a time, and returns them in display
// order.
func (r *Reporter) All(ctx context.Context) []Chart {
	charts := make([]Chart, len(definitions))

	var g errgroup.Group
	g.SetLimit(4)
	for i, d := range definitions {
		g.Go(func() error {
			charts[i] = r.run(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	return charts
}

func (r *Reporter) run(ctx context.Context, d definition) Chart {
	start := time.Now()
	c := Chart{
		Name:         d.name,
		Title:        d.title,
		LabelColumns: nonNil(d.labels),
		ValueColumns: nonNil(d.values),
		Points:       []Point{},
	}

	var args []any
	if d.args != nil {
		args = d.args(r.opts)
	}

	points, err := r.query(ctx, d, args)
	c.Duration = time.Since(start)
	if err != nil {
		c.Error = err.Error()
		logging.Error().
			Err(err).
			Str("chart", d.name).
			Msg("Chart query failed")
		return c
	}

	c.Points = points
	if d.finish != nil {
		d.finish(&c)
	}

	logging.Debug().
		Str("chart", d.name).
		Int("points", len(c.Points)).
		Dur("duration", c.Duration).
		Msg("Chart query finished")
	return c
}

func (r *Reporter) query(ctx context.Context, d definition, args []any) ([]Point, error) {
	rows, err := r.q.Query(ctx, r.render(d.sql), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []Point{}
	for rows.Next() {
		p := Point{
			Labels: make([]string, len(d.labels)),
			Values: make([]float64, len(d.values)),
		}
		dest := make([]any, 0, len(d.labels)+len(d.values))
		for i := range p.Labels {
			dest = append(dest, &p.Labels[i])
		}
		for i := range p.Values {
			dest = append(dest, &p.Values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// addPercentages appends each point's share of the first measure.
func addPercentages(c *Chart) {
	var total float64
	for _, p := range c.Points {
		total += p.Values[0]
	}
	c.ValueColumns = append(c.ValueColumns, "percentage")
	for i := range c.Points {
		share := 0.0
		if total > 0 {
			share = c.Points[i].Values[0] / total * 100
		}
		c.Points[i].Values = append(c.Points[i].Values, share)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}
