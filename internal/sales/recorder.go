// Package sales records completed checkouts and the stock they consume.
package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/logger"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

type Recorder struct {
	db  *database.DB
	log *zap.Logger

	// StrictStock rejects a sale that would take a product below zero.
	// Off by default: quantity checks belong to the scanning flow.
	StrictStock bool
}

func NewRecorder(db *database.DB, log *zap.Logger) *Recorder {
	return &Recorder{db: db, log: logger.OrNop(log).Named("sales")}
}

// RecordSale stores a sale with its line items and decrements stock for
// each line, all in one transaction. Nothing is written if any step fails.
func (r *Recorder) RecordSale(ctx context.Context, t tenant.ID, date time.Time, total float64, items []models.LineItem) (int64, error) {
	lines, err := mergeLines(items)
	if err != nil {
		return 0, err
	}
	if total < 0 {
		return 0, models.Invalid("total must be non-negative")
	}
	if date.IsZero() {
		date = time.Now()
	}

	var saleID int64
	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO sales (tenant_id, date, total) VALUES (?, ?, ?)`,
			t.Int64(), models.FormatSaleDate(date), total)
		if err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}

		saleID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read sale id: %w", err)
		}

		for _, line := range lines {
			stock, err := r.decrementStock(ctx, tx, t, line)
			if err != nil {
				return err
			}
			if stock < 0 {
				r.log.Warn("product oversold",
					zap.Int64("tenant_id", t.Int64()),
					zap.Int64("product_id", line.ProductID),
					zap.Int("stock", stock))
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO sales_products (sale_id, product_id, tenant_id, quantity)
				VALUES (?, ?, ?, ?)
			`, saleID, line.ProductID, t.Int64(), line.Quantity)
			if err != nil {
				return fmt.Errorf("failed to insert line item for product %d: %w", line.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		r.log.Info("sale rolled back", zap.Int64("tenant_id", t.Int64()), zap.Error(err))
		return 0, err
	}

	r.log.Debug("sale recorded",
		zap.Int64("tenant_id", t.Int64()),
		zap.Int64("sale_id", saleID),
		zap.Float64("total", total),
		zap.Int("lines", len(lines)))
	return saleID, nil
}

func (r *Recorder) decrementStock(ctx context.Context, tx *sqlx.Tx, t tenant.ID, line models.LineItem) (int, error) {
	query := `UPDATE products SET stock = stock - ? WHERE id = ? AND tenant_id = ? RETURNING stock`
	args := []any{line.Quantity, line.ProductID, t.Int64()}
	if r.StrictStock {
		query = `UPDATE products SET stock = stock - ? WHERE id = ? AND tenant_id = ? AND stock >= ? RETURNING stock`
		args = append(args, line.Quantity)
	}

	var stock int
	err := tx.GetContext(ctx, &stock, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		if r.StrictStock {
			return 0, r.explainMissing(ctx, tx, t, line)
		}
		return 0, fmt.Errorf("product %d: %w", line.ProductID, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to decrement stock for product %d: %w", line.ProductID, err)
	}
	return stock, nil
}

// explainMissing tells an unknown product apart from one without enough stock
func (r *Recorder) explainMissing(ctx context.Context, tx *sqlx.Tx, t tenant.ID, line models.LineItem) error {
	var stock int
	err := tx.GetContext(ctx, &stock,
		`SELECT stock FROM products WHERE id = ? AND tenant_id = ?`, line.ProductID, t.Int64())
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product %d: %w", line.ProductID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read stock for product %d: %w", line.ProductID, err)
	}
	return fmt.Errorf("product %d has %d, %d requested: %w",
		line.ProductID, stock, line.Quantity, models.ErrInsufficientStock)
}

// mergeLines validates the requested lines and folds repeated products into
// one line each, keeping first-seen order
func mergeLines(items []models.LineItem) ([]models.LineItem, error) {
	if len(items) == 0 {
		return nil, models.Invalid("sale has no line items")
	}

	index := make(map[int64]int, len(items))
	lines := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if err := models.ValidateLineItem(item); err != nil {
			return nil, err
		}
		if i, ok := index[item.ProductID]; ok {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, item)
	}
	return lines, nil
}
