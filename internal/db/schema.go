//-------------------------------------------------------------------------
//
// EcoBottle Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, EcoBottle, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL for the warehouse star schema: six dimensions, six facts.
// Surrogate keys come from the transform, so primary keys are plain BIGINT.
const createSchemaSQL = `
-- Calendar: one row per distinct date seen in the raw snapshot
CREATE TABLE IF NOT EXISTS dim_calendar (
    id          BIGINT PRIMARY KEY,
    date        DATE NOT NULL UNIQUE,
    day         INTEGER NOT NULL,
    month       INTEGER NOT NULL,
    year        INTEGER NOT NULL,
    day_name    VARCHAR(10) NOT NULL,
    month_name  VARCHAR(10) NOT NULL,
    quarter     INTEGER NOT NULL,
    week_number INTEGER NOT NULL,
    year_month  CHAR(7) NOT NULL,
    is_weekend  BOOLEAN NOT NULL
);

-- Customer dimension, keyed by the raw customer_id
CREATE TABLE IF NOT EXISTS dim_customer (
    id           BIGINT PRIMARY KEY,
    customer_key VARCHAR(50) NOT NULL UNIQUE,
    email        VARCHAR(255),
    first_name   VARCHAR(100),
    last_name    VARCHAR(100),
    phone        VARCHAR(50),
    status       VARCHAR(20),
    created_at   TIMESTAMP
);

-- Product dimension with denormalized category names
CREATE TABLE IF NOT EXISTS dim_product (
    id                   BIGINT PRIMARY KEY,
    product_key          VARCHAR(50) NOT NULL UNIQUE,
    name                 VARCHAR(200),
    list_price           NUMERIC(12,2) NOT NULL,
    status               VARCHAR(20),
    created_at           TIMESTAMP,
    category_name        VARCHAR(100),
    parent_category_name VARCHAR(100)
);

-- Channel dimension
CREATE TABLE IF NOT EXISTS dim_channel (
    id          BIGINT PRIMARY KEY,
    channel_key VARCHAR(20) NOT NULL UNIQUE,
    name        VARCHAR(100)
);

-- Address dimension: one row per distinct physical address
CREATE TABLE IF NOT EXISTS dim_address (
    id            BIGINT PRIMARY KEY,
    line1         VARCHAR(255),
    line2         VARCHAR(255),
    city          VARCHAR(100),
    province_name VARCHAR(100),
    province_code VARCHAR(10),
    postal_code   VARCHAR(20),
    country_code  VARCHAR(2),
    created_at    TIMESTAMP
);

-- Store dimension with denormalized address and province
CREATE TABLE IF NOT EXISTS dim_store (
    id            BIGINT PRIMARY KEY,
    store_key     VARCHAR(50) NOT NULL UNIQUE,
    name          VARCHAR(100),
    line          VARCHAR(255),
    city          VARCHAR(100),
    province_name VARCHAR(100),
    province_code VARCHAR(10),
    postal_code   VARCHAR(20),
    country_code  VARCHAR(2),
    created_at    TIMESTAMP
);

-- Order headers
CREATE TABLE IF NOT EXISTS fact_sales_order (
    id                  BIGINT PRIMARY KEY,
    order_key           VARCHAR(50) NOT NULL UNIQUE,
    customer_id         BIGINT NOT NULL REFERENCES dim_customer(id),
    channel_id          BIGINT NOT NULL REFERENCES dim_channel(id),
    store_id            BIGINT REFERENCES dim_store(id),
    order_date_id       BIGINT NOT NULL REFERENCES dim_calendar(id),
    order_time          CHAR(8) NOT NULL,
    billing_address_id  BIGINT REFERENCES dim_address(id),
    shipping_address_id BIGINT REFERENCES dim_address(id),
    status              VARCHAR(20),
    currency_code       VARCHAR(3),
    subtotal            NUMERIC(12,2) NOT NULL,
    tax_amount          NUMERIC(12,2) NOT NULL,
    shipping_fee        NUMERIC(12,2) NOT NULL,
    total_amount        NUMERIC(12,2) NOT NULL
);

-- Order line items; order_key is the degenerate parent key
CREATE TABLE IF NOT EXISTS fact_sales_order_item (
    id              BIGINT PRIMARY KEY,
    order_item_key  VARCHAR(50) NOT NULL UNIQUE,
    order_key       VARCHAR(50) NOT NULL,
    customer_id     BIGINT NOT NULL REFERENCES dim_customer(id),
    channel_id      BIGINT NOT NULL REFERENCES dim_channel(id),
    store_id        BIGINT REFERENCES dim_store(id),
    product_id      BIGINT NOT NULL REFERENCES dim_product(id),
    order_date_id   BIGINT NOT NULL REFERENCES dim_calendar(id),
    quantity        INTEGER NOT NULL,
    unit_price      NUMERIC(12,2) NOT NULL,
    discount_amount NUMERIC(12,2) NOT NULL,
    line_total      NUMERIC(12,2) NOT NULL
);

-- Payment attempts
CREATE TABLE IF NOT EXISTS fact_payment (
    id                 BIGINT PRIMARY KEY,
    payment_key        VARCHAR(50) NOT NULL UNIQUE,
    order_key          VARCHAR(50) NOT NULL,
    customer_id        BIGINT NOT NULL REFERENCES dim_customer(id),
    billing_address_id BIGINT REFERENCES dim_address(id),
    method             VARCHAR(30),
    status             VARCHAR(20),
    amount             NUMERIC(12,2) NOT NULL,
    paid_at_date_id    BIGINT REFERENCES dim_calendar(id),
    paid_at_time       CHAR(8) NOT NULL,
    transaction_ref    VARCHAR(100)
);

-- Shipments
CREATE TABLE IF NOT EXISTS fact_shipment (
    id                   BIGINT PRIMARY KEY,
    shipment_key         VARCHAR(50) NOT NULL UNIQUE,
    order_key            VARCHAR(50) NOT NULL,
    customer_id          BIGINT NOT NULL REFERENCES dim_customer(id),
    shipping_address_id  BIGINT REFERENCES dim_address(id),
    carrier              VARCHAR(100),
    shipped_at_date_id   BIGINT NOT NULL REFERENCES dim_calendar(id),
    shipped_at_time      CHAR(8) NOT NULL,
    delivered_at_date_id BIGINT REFERENCES dim_calendar(id),
    delivered_at_time    CHAR(8) NOT NULL,
    tracking_number      VARCHAR(100),
    dias_de_entrega      INTEGER
);

-- NPS survey responses
CREATE TABLE IF NOT EXISTS fact_nps_response (
    id                   BIGINT PRIMARY KEY,
    nps_key              VARCHAR(50) NOT NULL UNIQUE,
    customer_id          BIGINT NOT NULL REFERENCES dim_customer(id),
    channel_id           BIGINT NOT NULL REFERENCES dim_channel(id),
    responded_at_date_id BIGINT NOT NULL REFERENCES dim_calendar(id),
    responded_at_time    CHAR(8) NOT NULL,
    score                INTEGER NOT NULL
);

-- Tracked web sessions; customer_id is NULL for anonymous visits
CREATE TABLE IF NOT EXISTS fact_web_session (
    id                 BIGINT PRIMARY KEY,
    session_key        VARCHAR(50) NOT NULL UNIQUE,
    customer_id        BIGINT REFERENCES dim_customer(id),
    started_at_date_id BIGINT NOT NULL REFERENCES dim_calendar(id),
    started_at_time    CHAR(8) NOT NULL,
    ended_at_date_id   BIGINT REFERENCES dim_calendar(id),
    ended_at_time      CHAR(8) NOT NULL,
    source             VARCHAR(50),
    device             VARCHAR(50)
);

-- Create indexes
CREATE INDEX IF NOT EXISTS idx_order_customer ON fact_sales_order(customer_id);
CREATE INDEX IF NOT EXISTS idx_order_channel ON fact_sales_order(channel_id);
CREATE INDEX IF NOT EXISTS idx_order_date ON fact_sales_order(order_date_id);
CREATE INDEX IF NOT EXISTS idx_item_order ON fact_sales_order_item(order_key);
CREATE INDEX IF NOT EXISTS idx_item_product ON fact_sales_order_item(product_id);
CREATE INDEX IF NOT EXISTS idx_item_date ON fact_sales_order_item(order_date_id);
CREATE INDEX IF NOT EXISTS idx_payment_order ON fact_payment(order_key);
CREATE INDEX IF NOT EXISTS idx_payment_customer ON fact_payment(customer_id);
CREATE INDEX IF NOT EXISTS idx_shipment_order ON fact_shipment(order_key);
CREATE INDEX IF NOT EXISTS idx_nps_customer ON fact_nps_response(customer_id);
CREATE INDEX IF NOT EXISTS idx_session_customer ON fact_web_session(customer_id);
CREATE INDEX IF NOT EXISTS idx_session_date ON fact_web_session(started_at_date_id);
`

// Drop schema SQL
const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_web_session CASCADE;
DROP TABLE IF EXISTS fact_nps_response CASCADE;
DROP TABLE IF EXISTS fact_shipment CASCADE;
DROP TABLE IF EXISTS fact_payment CASCADE;
DROP TABLE IF EXISTS fact_sales_order_item CASCADE;
DROP TABLE IF EXISTS fact_sales_order CASCADE;
DROP TABLE IF EXISTS dim_store CASCADE;
DROP TABLE IF EXISTS dim_address CASCADE;
DROP TABLE IF EXISTS dim_channel CASCADE;
DROP TABLE IF EXISTS dim_product CASCADE;
DROP TABLE IF EXISTS dim_customer CASCADE;
DROP TABLE IF EXISTS dim_calendar CASCADE;
`

// CreateSchema creates the warehouse star schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the warehouse star schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}

// SchemaExists checks if the warehouse schema has been created.
func SchemaExists(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_name = 'fact_sales_order'
        )
    `).Scan(&exists)
	return exists, err
}
