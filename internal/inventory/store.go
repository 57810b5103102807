// Package inventory manages a tenant's products and their stock levels.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/logger"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// DefaultLowStockThreshold is the reorder level used when none is given
const DefaultLowStockThreshold = 20

const productColumns = `id, tenant_id, name, price, stock, isAvailable, image`

type Store struct {
	db  *database.DB
	log *zap.Logger
}

func NewStore(db *database.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: logger.OrNop(log).Named("inventory")}
}

// CreateProduct inserts a product for the tenant and returns its id
func (s *Store) CreateProduct(ctx context.Context, t tenant.ID, in models.ProductInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO products (tenant_id, name, price, stock, isAvailable, image)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.Int64(), in.Name, in.Price, in.Stock, in.IsAvailable, in.Image)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read product id: %w", err)
	}

	s.log.Debug("product created", zap.Int64("tenant_id", t.Int64()), zap.Int64("product_id", id))
	return id, nil
}

// ListProducts returns the tenant's products in insertion order
func (s *Store) ListProducts(ctx context.Context, t tenant.ID) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = ? ORDER BY id`, t.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct returns one of the tenant's products, or ErrNotFound
func (s *Store) GetProduct(ctx context.Context, id int64, t tenant.ID) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p,
		`SELECT `+productColumns+` FROM products WHERE id = ? AND tenant_id = ?`, id, t.Int64())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// UpdateProduct replaces every mutable field of a product
func (s *Store) UpdateProduct(ctx context.Context, id int64, t tenant.ID, in models.ProductInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, price = ?, stock = ?, isAvailable = ?, image = ?
		WHERE id = ? AND tenant_id = ?
	`, in.Name, in.Price, in.Stock, in.IsAvailable, in.Image, id, t.Int64())
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectOne(result, id)
}

// SetImage points a product at a stored image
func (s *Store) SetImage(ctx context.Context, id int64, t tenant.ID, uri string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE products SET image = ? WHERE id = ? AND tenant_id = ?`, uri, id, t.Int64())
	if err != nil {
		return fmt.Errorf("failed to set product image: %w", err)
	}
	return expectOne(result, id)
}

// AdjustStock adds delta (negative to remove) to a product's stock and
// returns the new level
func (s *Store) AdjustStock(ctx context.Context, id int64, t tenant.ID, delta int) (int, error) {
	var stock int
	err := s.db.GetContext(ctx, &stock, `
		UPDATE products SET stock = stock + ?
		WHERE id = ? AND tenant_id = ?
		RETURNING stock
	`, delta, id, t.Int64())
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	if stock < 0 {
		s.log.Warn("stock below zero after adjustment",
			zap.Int64("tenant_id", t.Int64()), zap.Int64("product_id", id), zap.Int("stock", stock))
	}
	return stock, nil
}

// DeleteProduct removes a product. Products with recorded sales cannot be
// deleted while the line items reference them.
func (s *Store) DeleteProduct(ctx context.Context, id int64, t tenant.ID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = ? AND tenant_id = ?`, id, t.Int64())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectOne(result, id)
}

// ListLowStock returns products with stock below threshold, lowest first
func (s *Store) ListLowStock(ctx context.Context, t tenant.ID, threshold int) ([]models.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = ? AND stock < ?
		ORDER BY stock ASC, id ASC
	`, t.Int64(), threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	return products, nil
}

func expectOne(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	return nil
}
