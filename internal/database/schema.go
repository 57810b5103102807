package database

import (
	"context"
	"fmt"

	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// schemaStatements creates the local store. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
	    id          INTEGER PRIMARY KEY AUTOINCREMENT,
	    tenant_id   INTEGER NOT NULL,
	    name        TEXT    NOT NULL,
	    price       REAL    NOT NULL DEFAULT 0,
	    stock       INTEGER NOT NULL DEFAULT 0,
	    isAvailable INTEGER NOT NULL DEFAULT 1,
	    image       TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_tenant ON products(tenant_id)`,

	`CREATE TABLE IF NOT EXISTS sales (
	    id        INTEGER PRIMARY KEY AUTOINCREMENT,
	    tenant_id INTEGER NOT NULL,
	    date      TEXT    NOT NULL,
	    total     REAL    NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_tenant_date ON sales(tenant_id, date)`,

	`CREATE TABLE IF NOT EXISTS sales_products (
	    sale_id    INTEGER NOT NULL,
	    product_id INTEGER NOT NULL,
	    tenant_id  INTEGER NOT NULL,
	    quantity   INTEGER NOT NULL,
	    PRIMARY KEY (sale_id, product_id),
	    FOREIGN KEY (sale_id) REFERENCES sales(id),
	    FOREIGN KEY (product_id) REFERENCES products(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_products_tenant ON sales_products(tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_products_product ON sales_products(product_id)`,

	`CREATE TABLE IF NOT EXISTS users (
	    id        INTEGER PRIMARY KEY AUTOINCREMENT,
	    email     TEXT    NOT NULL UNIQUE,
	    password  TEXT    NOT NULL,
	    user_role TEXT    NOT NULL DEFAULT 'employee',
	    tenant_id INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_tenant ON users(tenant_id)`,

	`CREATE TABLE IF NOT EXISTS plans (
	    id         INTEGER PRIMARY KEY AUTOINCREMENT,
	    tenant_id  INTEGER NOT NULL,
	    name       TEXT    NOT NULL,
	    price      REAL    NOT NULL DEFAULT 0,
	    started_at TEXT    NOT NULL,
	    expires_at TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_tenant ON plans(tenant_id)`,
}

// dropStatements removes the sales data tables, children first
var dropStatements = []string{
	"DROP TABLE IF EXISTS sales_products",
	"DROP TABLE IF EXISTS sales",
	"DROP TABLE IF EXISTS products",
}

// EnsureSchema creates any missing tables and indexes. Safe on every start.
func (db *DB) EnsureSchema(ctx context.Context) error {
	return db.execAll(ctx, schemaStatements)
}

// DropSchema removes the sales, line item and product tables. Used for
// development resets; a failure mid-way leaves the remaining tables in place.
func (db *DB) DropSchema(ctx context.Context) error {
	return db.execAll(ctx, dropStatements)
}

func (db *DB) execAll(ctx context.Context, statements []string) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}
	return nil
}

// TableExists reports whether a table is present in the local store
func (db *DB) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	return count > 0, err
}

// ListTenants returns every tenant that owns products or sales
func (db *DB) ListTenants(ctx context.Context) ([]tenant.ID, error) {
	var ids []int64
	err := db.SelectContext(ctx, &ids, `
		SELECT tenant_id FROM products
		UNION
		SELECT tenant_id FROM sales
		ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	tenants := make([]tenant.ID, 0, len(ids))
	for _, id := range ids {
		tenants = append(tenants, tenant.ID(id))
	}
	return tenants, nil
}
