// Package reconcile pushes local records to the remote store.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/logger"
	"github.com/matthieukhl/pocketpos/internal/metrics"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/remote"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// Reconciler brings the remote copy of a tenant up to date
type Reconciler interface {
	Reconcile(ctx context.Context, t tenant.ID) (Report, error)
}

// Count tallies upsert outcomes for one table
type Count struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Report summarises one reconcile pass
type Report struct {
	Tenant    tenant.ID     `json:"tenant"`
	Products  Count         `json:"products"`
	Sales     Count         `json:"sales"`
	SaleItems Count         `json:"sale_items"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
}

// Failed is the number of records that did not reach the remote
func (r Report) Failed() int {
	return r.Products.Failed + r.Sales.Failed + r.SaleItems.Failed
}

// Sent is the number of records upserted
func (r Report) Sent() int {
	return r.Products.Sent + r.Sales.Sent + r.SaleItems.Sent
}

// FullResend upserts every local product, sale and line item of a tenant
// on each pass. Nothing marks a record as synced, so a record that failed
// is simply sent again next time.
type FullResend struct {
	db     *database.DB
	remote remote.Store
	log    *zap.Logger
}

func NewFullResend(db *database.DB, rs remote.Store, log *zap.Logger) *FullResend {
	return &FullResend{db: db, remote: rs, log: logger.OrNop(log).Named("reconcile")}
}

// Reconcile returns an error only when local records cannot be read or ctx
// ends. Remote failures are logged and counted in the report.
func (f *FullResend) Reconcile(ctx context.Context, t tenant.ID) (report Report, err error) {
	report = Report{Tenant: t, Started: time.Now()}
	metrics.SyncRunsTotal.Inc()
	defer func() { report.Duration = time.Since(report.Started) }()

	// read everything up front so no rows stay open during network calls
	var products []models.Product
	if err := f.db.SelectContext(ctx, &products,
		`SELECT id, tenant_id, name, price, stock, isAvailable, image FROM products WHERE tenant_id = ? ORDER BY id`, t.Int64()); err != nil {
		return report, fmt.Errorf("failed to read local products: %w", err)
	}

	var sales []models.Sale
	if err := f.db.SelectContext(ctx, &sales,
		`SELECT id, tenant_id, date, total FROM sales WHERE tenant_id = ? ORDER BY id`, t.Int64()); err != nil {
		return report, fmt.Errorf("failed to read local sales: %w", err)
	}

	var items []models.SaleItem
	if err := f.db.SelectContext(ctx, &items, `
		SELECT sale_id, product_id, tenant_id, quantity
		FROM sales_products WHERE tenant_id = ?
		ORDER BY sale_id, product_id
	`, t.Int64()); err != nil {
		return report, fmt.Errorf("failed to read local sale items: %w", err)
	}

	log := f.log.With(zap.Int64("tenant", t.Int64()))

	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := f.remote.UpsertProduct(ctx, p)
		f.tally(log, &report.Products, remote.TableProducts, fmt.Sprint(p.ID), err)
	}

	// sales before their line items so remote foreign keys resolve
	for _, s := range sales {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := f.remote.UpsertSale(ctx, s)
		f.tally(log, &report.Sales, remote.TableSales, fmt.Sprint(s.ID), err)
	}

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := f.remote.UpsertSaleItem(ctx, it)
		f.tally(log, &report.SaleItems, remote.TableSaleItems, remote.SaleItemKey(it.SaleID, it.ProductID), err)
	}

	log.Info("reconcile finished",
		zap.Int("sent", report.Sent()),
		zap.Int("failed", report.Failed()),
		zap.Duration("took", time.Since(report.Started)))

	return report, nil
}

func (f *FullResend) tally(log *zap.Logger, c *Count, table, key string, err error) {
	if err != nil {
		c.Failed++
		metrics.SyncRecordsTotal.WithLabelValues(table, metrics.ResultFailed).Inc()
		log.Warn("failed to push record", zap.String("table", table), zap.String("key", key), zap.Error(err))
		return
	}
	c.Sent++
	metrics.SyncRecordsTotal.WithLabelValues(table, metrics.ResultSent).Inc()
}

var _ Reconciler = (*FullResend)(nil)
