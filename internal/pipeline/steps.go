//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"strconv"

	"github.com/pgEdge/pgedge-etl/internal/calendar"
	"github.com/pgEdge/pgedge-etl/internal/db"
	"github.com/pgEdge/pgedge-etl/internal/fact"
	"github.com/pgEdge/pgedge-etl/internal/logging"
	"github.com/pgEdge/pgedge-etl/internal/record"
	"github.com/pgEdge/pgedge-etl/internal/transform"
	"github.com/pgEdge/pgedge-etl/internal/warehouse"
)

// Step names.
const (
	StepUsers      = "users"
	StepSellers    = "sellers"
	StepProducts   = "products"
	StepPayments   = "payments"
	StepFeedback   = "feedback"
	StepOrders     = "orders"
	StepOrderItems = "order_items"
	StepCalendar   = "calendar"
	StepFact       = "fact"
)

const (
	artifactDates = "calendar.dates"
	artifactTimes = "calendar.times"
)

// ETL returns the graph of the warehouse build.
func ETL() *Graph {
	g, err := NewGraph(
		conform(StepUsers, transform.UsersSource, warehouse.UsersTable, transform.Users),
		conform(StepSellers, transform.SellersSource, warehouse.SellersTable, transform.Sellers),
		conform(StepProducts, transform.ProductsSource, warehouse.ProductsTable, transform.Products),
		conform(StepPayments, transform.PaymentsSource, warehouse.PaymentsTable, transform.Payments),
		conform(StepFeedback, transform.FeedbackSource, warehouse.FeedbacksTable, transform.Feedback),
		conform(StepOrderItems, transform.OrderItemsSource, warehouse.OrderItemsTable, transform.OrderItems),
		calendarStep(),
		ordersStep(),
		factStep(),
	)
	if err != nil {
		panic(err)
	}
	return g
}

// conform builds a step that reads one staging table, conforms it and
// replaces one warehouse table.
func conform[T warehouse.Valuer](name, source string, table warehouse.Table, fn func(*record.RecordSet) ([]T, error)) Step {
	return Step{
		Name:   name,
		Tables: []string{table.Name},
		Run: func(ctx context.Context, env *Env) (int64, error) {
			src, err := env.Store.ReadStaging(ctx, source)
			if err != nil {
				return 0, opError("read", source, err)
			}
			rows, err := fn(src)
			if err != nil {
				return 0, opError("transform", table.Name, err)
			}
			n, err := write(ctx, env, table, rows)
			if err != nil {
				return 0, err
			}
			env.Artifacts.Put(name, rows)
			return n, nil
		},
	}
}

func ordersStep() Step {
	return Step{
		Name:      StepOrders,
		Tables:    []string{warehouse.OrdersTable.Name},
		DependsOn: []string{StepFeedback},
		Run: func(ctx context.Context, env *Env) (int64, error) {
			feedback, err := Get[[]warehouse.Feedback](env.Artifacts, StepFeedback)
			if err != nil {
				return 0, opError("transform", warehouse.OrdersTable.Name, err)
			}
			src, err := env.Store.ReadStaging(ctx, transform.OrdersSource)
			if err != nil {
				return 0, opError("read", transform.OrdersSource, err)
			}
			orders, err := transform.Orders(src, feedback)
			if err != nil {
				return 0, opError("transform", warehouse.OrdersTable.Name, err)
			}
			n, err := write(ctx, env, warehouse.OrdersTable, orders)
			if err != nil {
				return 0, err
			}
			env.Artifacts.Put(StepOrders, orders)
			return n, nil
		},
	}
}

func calendarStep() Step {
	return Step{
		Name:   StepCalendar,
		Tables: []string{warehouse.DateTable.Name, warehouse.TimeTable.Name},
		Run: func(ctx context.Context, env *Env) (int64, error) {
			dates := calendar.Dates(env.CalendarStart, env.CalendarEnd)
			times := calendar.Times()

			nd, err := write(ctx, env, warehouse.DateTable, dates)
			if err != nil {
				return 0, err
			}
			nt, err := write(ctx, env, warehouse.TimeTable, times)
			if err != nil {
				return nd, err
			}
			env.Artifacts.Put(artifactDates, dates)
			env.Artifacts.Put(artifactTimes, times)
			return nd + nt, nil
		},
	}
}

func factStep() Step {
	return Step{
		Name:   StepFact,
		Tables: []string{warehouse.FactTable.Name},
		DependsOn: []string{
			StepUsers, StepSellers, StepProducts, StepPayments,
			StepFeedback, StepOrders, StepOrderItems, StepCalendar,
		},
		Run: func(ctx context.Context, env *Env) (int64, error) {
			in, err := factInputs(env.Artifacts)
			if err != nil {
				return 0, opError("join", warehouse.FactTable.Name, err)
			}

			facts, stats := fact.Assemble(in)
			if stats.NegativeShipping > 0 {
				logging.Warn().
					Int("rows", stats.NegativeShipping).
					Msg("Fact rows with delivery before pickup")
			}
			logging.Debug().
				Int("late", stats.Late).
				Int("orders_without_items", stats.OrdersWithoutItems).
				Int("missing_users", stats.MissingUsers).
				Int("missing_payments", stats.MissingPayments).
				Msg("Fact assembly stats")

			n, err := write(ctx, env, warehouse.FactTable, facts)
			if err != nil {
				return 0, err
			}
			env.Artifacts.Put(StepFact, facts)
			return n, nil
		},
	}
}

func factInputs(a *Artifacts) (fact.Inputs, error) {
	var in fact.Inputs
	var err error
	if in.Orders, err = Get[[]warehouse.Order](a, StepOrders); err != nil {
		return in, err
	}
	if in.Items, err = Get[[]warehouse.OrderItem](a, StepOrderItems); err != nil {
		return in, err
	}
	if in.Users, err = Get[[]warehouse.User](a, StepUsers); err != nil {
		return in, err
	}
	if in.Sellers, err = Get[[]warehouse.Seller](a, StepSellers); err != nil {
		return in, err
	}
	if in.Products, err = Get[[]warehouse.Product](a, StepProducts); err != nil {
		return in, err
	}
	if in.Payments, err = Get[[]warehouse.Payment](a, StepPayments); err != nil {
		return in, err
	}
	if in.Feedback, err = Get[[]warehouse.Feedback](a, StepFeedback); err != nil {
		return in, err
	}
	if in.Dates, err = Get[[]warehouse.Date](a, artifactDates); err != nil {
		return in, err
	}
	if in.Times, err = Get[[]warehouse.Time](a, artifactTimes); err != nil {
		return in, err
	}
	return in, nil
}

// write replaces table with rows and records its row count.
func write[T warehouse.Valuer](ctx context.Context, env *Env, table warehouse.Table, rows []T) (int64, error) {
	n, err := env.Store.ReplaceTable(ctx, table, warehouse.Rows(rows))
	if err != nil {
		return 0, opError("write", table.Name, err)
	}
	err = env.Store.SaveMetadata(ctx, map[string]string{
		db.RowsKey(table.Name): strconv.FormatInt(n, 10),
	})
	if err != nil {
		return n, opError("metadata", table.Name, err)
	}
	return n, nil
}
