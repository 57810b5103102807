package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

const itemsQuery = `
	SELECT sp.sale_id, sp.product_id, sp.tenant_id, sp.quantity,
	       COALESCE(p.name, '') AS name, COALESCE(p.price, 0) AS price
	FROM sales_products sp
	LEFT JOIN products p ON p.id = sp.product_id
	WHERE sp.tenant_id = ?`

// GetSale returns one sale with its line items
func (r *Recorder) GetSale(ctx context.Context, id int64, t tenant.ID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.GetContext(ctx, &sale,
		`SELECT id, tenant_id, date, total FROM sales WHERE id = ? AND tenant_id = ?`, id, t.Int64())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sale %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	items := []models.SaleItem{}
	err = r.db.SelectContext(ctx, &items,
		itemsQuery+` AND sp.sale_id = ? ORDER BY sp.rowid`, t.Int64(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale items: %w", err)
	}
	sale.Items = items

	return &sale, nil
}

// ListSales returns every sale of the tenant with its line items, oldest first
func (r *Recorder) ListSales(ctx context.Context, t tenant.ID) ([]models.Sale, error) {
	return r.listSales(ctx, t, "", "")
}

// ListSalesBetween returns the tenant's sales dated in [from, to)
func (r *Recorder) ListSalesBetween(ctx context.Context, t tenant.ID, from, to time.Time) ([]models.Sale, error) {
	return r.listSales(ctx, t, models.FormatSaleDate(from), models.FormatSaleDate(to))
}

func (r *Recorder) listSales(ctx context.Context, t tenant.ID, from, to string) ([]models.Sale, error) {
	salesQuery := `SELECT id, tenant_id, date, total FROM sales WHERE tenant_id = ?`
	itemQuery := itemsQuery
	args := []any{t.Int64()}
	if from != "" {
		salesQuery += ` AND date >= ? AND date < ?`
		itemQuery += ` AND sp.sale_id IN (SELECT id FROM sales WHERE tenant_id = ? AND date >= ? AND date < ?)`
		args = append(args, from, to)
	}

	sales := []models.Sale{}
	if err := r.db.SelectContext(ctx, &sales, salesQuery+` ORDER BY date, id`, args...); err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	itemArgs := []any{t.Int64()}
	if from != "" {
		itemArgs = append(itemArgs, t.Int64(), from, to)
	}
	var items []models.SaleItem
	if err := r.db.SelectContext(ctx, &items, itemQuery+` ORDER BY sp.sale_id, sp.rowid`, itemArgs...); err != nil {
		return nil, fmt.Errorf("failed to list sale items: %w", err)
	}

	bySale := make(map[int64][]models.SaleItem, len(sales))
	for _, item := range items {
		bySale[item.SaleID] = append(bySale[item.SaleID], item)
	}
	for i := range sales {
		sales[i].Items = bySale[sales[i].ID]
	}

	return sales, nil
}
