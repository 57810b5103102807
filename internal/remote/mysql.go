package remote

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/matthieukhl/pocketpos/internal/models"
)

// MySQL mirrors records into a MySQL compatible server
type MySQL struct {
	db *sqlx.DB
}

// NewMySQL opens a pool for dsn. No connection is made until first use,
// so a store can be built while offline.
func NewMySQL(dsn string) (*MySQL, error) {
	if dsn == "" {
		return nil, fmt.Errorf("remote dsn is required for the mysql provider")
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	return &MySQL{db: db}, nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		tenant_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		price DOUBLE NOT NULL,
		stock INT NOT NULL,
		isAvailable BOOLEAN NOT NULL,
		image TEXT NULL,
		KEY idx_products_tenant (tenant_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS sales (
		id BIGINT PRIMARY KEY,
		tenant_id BIGINT NOT NULL,
		date VARCHAR(32) NOT NULL,
		total DOUBLE NOT NULL,
		KEY idx_sales_tenant_date (tenant_id, date)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS sales_products (
		sale_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		tenant_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		PRIMARY KEY (sale_id, product_id)
	) ENGINE=InnoDB`,
}

// Setup creates the mirror tables
func (m *MySQL) Setup(ctx context.Context) error {
	for _, stmt := range mysqlSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create mirror table: %w", err)
		}
	}
	return nil
}

func (m *MySQL) UpsertProduct(ctx context.Context, p models.Product) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO products (id, tenant_id, name, price, stock, isAvailable, image)
		VALUES (:id, :tenant_id, :name, :price, :stock, :isAvailable, :image)
		ON DUPLICATE KEY UPDATE
			tenant_id = VALUES(tenant_id), name = VALUES(name), price = VALUES(price),
			stock = VALUES(stock), isAvailable = VALUES(isAvailable), image = VALUES(image)
	`, toProductRow(p))
	if err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", p.ID, err)
	}
	return nil
}

func (m *MySQL) UpsertSale(ctx context.Context, s models.Sale) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO sales (id, tenant_id, date, total)
		VALUES (:id, :tenant_id, :date, :total)
		ON DUPLICATE KEY UPDATE
			tenant_id = VALUES(tenant_id), date = VALUES(date), total = VALUES(total)
	`, toSaleRow(s))
	if err != nil {
		return fmt.Errorf("failed to upsert sale %d: %w", s.ID, err)
	}
	return nil
}

func (m *MySQL) UpsertSaleItem(ctx context.Context, item models.SaleItem) error {
	_, err := m.db.NamedExecContext(ctx, `
		INSERT INTO sales_products (sale_id, product_id, tenant_id, quantity)
		VALUES (:sale_id, :product_id, :tenant_id, :quantity)
		ON DUPLICATE KEY UPDATE
			tenant_id = VALUES(tenant_id), quantity = VALUES(quantity)
	`, toSaleItemRow(item))
	if err != nil {
		return fmt.Errorf("failed to upsert sale item %s: %w", SaleItemKey(item.SaleID, item.ProductID), err)
	}
	return nil
}

func (m *MySQL) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQL) Close() error {
	return m.db.Close()
}

var _ Store = (*MySQL)(nil)
