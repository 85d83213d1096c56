//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package report

// Chart names.
const (
	KeyMetrics          = "key_metrics"
	PaymentDistribution = "payment_distribution"
	OrdersByMonth       = "orders_by_month"
	OrdersByHour        = "orders_by_hour"
	OrdersBySeason      = "orders_by_season"
	DelayByFeedback     = "delay_by_feedback_score"
	LogisticsRoutes     = "logistics_routes"
	PaymentByCategory   = "payment_by_category"
	TopStates           = "top_states"
)

// Payment types are stored title-cased and merged per order, so only
// single-type orders fall in a named bucket.
const paymentMethodSQL = `
        CASE lower(p.payment_type)
            WHEN 'credit card' THEN 'Credit Card'
            WHEN 'blipay' THEN 'Blipay'
            WHEN 'voucher' THEN 'Voucher'
            ELSE 'Others'
        END`

const keyMetricsSQL = `
    SELECT
        COUNT(DISTINCT order_id)::float8,
        COALESCE(SUM(payment_value), 0)::float8,
        COALESCE(AVG(quantity), 0)::float8,
        (COUNT(DISTINCT order_id) FILTER (
            WHERE delivered_date_key > estimated_delivery_date_key
        ))::float8
    FROM {schema}.fact_order_items`

const paymentDistributionSQL = `
    SELECT` + paymentMethodSQL + ` AS payment_method,
        COUNT(*)::float8 AS orders
    FROM {schema}.fact_order_items f
    JOIN {schema}.dim_payments p ON f.payment_id = p.payment_id
    GROUP BY 1
    ORDER BY 2 DESC, 1`

const ordersByMonthSQL = `
    SELECT
        to_char(make_date(d.year, d.month, 1), 'YYYY-MM') AS year_month,
        COUNT(f.order_id)::float8 AS orders
    FROM {schema}.fact_order_items f
    JOIN {schema}.dim_date d ON f.order_date_key = d.date_key
    GROUP BY d.year, d.month
    ORDER BY d.year, d.month`

const ordersByHourSQL = `
    SELECT
        lpad((order_time_key / 10000)::text, 2, '0') AS hour,
        COUNT(order_id)::float8 AS orders
    FROM {schema}.fact_order_items
    WHERE order_time_key IS NOT NULL
    GROUP BY order_time_key / 10000
    ORDER BY order_time_key / 10000`

const ordersBySeasonSQL = `
    SELECT
        d.season,
        COUNT(f.order_id)::float8 AS orders
    FROM {schema}.fact_order_items f
    JOIN {schema}.dim_date d ON f.order_date_key = d.date_key
    GROUP BY d.season
    ORDER BY
        CASE d.season
            WHEN 'Spring' THEN 1
            WHEN 'Summer' THEN 2
            WHEN 'Fall' THEN 3
            WHEN 'Winter' THEN 4
            ELSE 5
        END`

const delayByFeedbackSQL = `
    SELECT
        fb.feedback_score::text,
        AVG(f.delivery_delay_days)::float8 AS avg_delay_days
    FROM {schema}.fact_order_items f
    JOIN {schema}.dim_feedbacks fb ON f.feedback_id = fb.feedback_id
    WHERE f.delivery_delay_days IS NOT NULL
    GROUP BY fb.feedback_score
    ORDER BY fb.feedback_score`

const logisticsRoutesSQL = `
    SELECT
        COALESCE(s.seller_state, 'Unknown'),
        COALESCE(u.user_state, 'Unknown'),
        COUNT(f.order_id)::float8 AS orders,
        COUNT(*) FILTER (WHERE f.delivery_delay_days > 0)::float8 AS delayed_orders,
        COALESCE(AVG(f.delivery_delay_days), 0)::float8 AS avg_delay_days,
        COALESCE(AVG(f.shipping_days), 0)::float8 AS avg_shipping_days,
        (COUNT(*) FILTER (WHERE f.delivery_delay_days > 0) * 100.0 / COUNT(f.order_id))::float8
            AS delay_percentage
    FROM {schema}.fact_order_items f
    JOIN {schema}.dim_sellers s ON f.seller_id = s.seller_id
    JOIN {schema}.dim_users u ON f.user_id = u.user_id
    GROUP BY s.seller_state, u.user_state
    HAVING COUNT(f.order_id) >= $1
    ORDER BY orders DESC, avg_delay_days DESC`

const paymentByCategorySQL = `
    SELECT
        pr.product_category,` + paymentMethodSQL + ` AS payment_method,
        COUNT(f.order_id)::float8 AS orders
    FROM {schema}.fact_order_items f
    JOIN {schema}.dim_products pr ON f.product_id = pr.product_id
    JOIN {schema}.dim_payments p ON f.payment_id = p.payment_id
    WHERE pr.product_category IS NOT NULL AND pr.product_category <> ''
    GROUP BY pr.product_category, 2
    ORDER BY pr.product_category, orders DESC`

const topStatesSQL = `
    SELECT
        COALESCE(user_state, 'Unknown') AS state,
        COUNT(order_id)::float8 AS orders
    FROM {schema}.fact_order_items
    GROUP BY user_state
    ORDER BY orders DESC, state
    LIMIT $1`
