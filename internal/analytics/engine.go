// Package analytics computes the dashboard figures of a tenant from the
// local store. Every query runs at call time; nothing is cached.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/inventory"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// DayLayout is how calendar days are keyed in series
const DayLayout = "2006-01-02"

// Totals are the revenue and units sold over a period
type Totals struct {
	Revenue float64 `json:"revenue" db:"revenue"`
	Units   int64   `json:"units" db:"units"`
}

// BestSeller is the product with the most units sold
type BestSeller struct {
	ProductID int64   `json:"product_id" db:"product_id"`
	Name      string  `json:"name" db:"name"`
	Quantity  int64   `json:"quantity" db:"quantity"`
	Price     float64 `json:"price" db:"price"`
}

// DayTotal is the revenue of one calendar day
type DayTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// Dashboard bundles the home screen figures
type Dashboard struct {
	Date         string           `json:"date"`
	Today        Totals           `json:"today"`
	MostSold     *BestSeller      `json:"most_sold"`
	WeekDelta    float64          `json:"week_delta"`
	WeekSeries   []DayTotal       `json:"week_series"`
	LowStock     []models.Product `json:"low_stock"`
	TotalRevenue float64          `json:"total_revenue"`
}

type Engine struct {
	db       *database.DB
	products *inventory.Store
	loc      *time.Location
	now      func() time.Time

	lowStockThreshold int
}

type Option func(*Engine)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone calendar days and weeks are computed in
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLowStockThreshold sets the reorder level used by Dashboard
func WithLowStockThreshold(n int) Option {
	return func(e *Engine) { e.lowStockThreshold = n }
}

func NewEngine(db *database.DB, products *inventory.Store, opts ...Option) *Engine {
	e := &Engine{
		db:                db,
		products:          products,
		loc:               time.Local,
		now:               time.Now,
		lowStockThreshold: inventory.DefaultLowStockThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location is the zone days are computed in
func (e *Engine) Location() *time.Location {
	return e.loc
}

// DailyTotals returns revenue and units sold on the calendar day containing
// day. A zero day means today. Days without sales give zero totals.
func (e *Engine) DailyTotals(ctx context.Context, t tenant.ID, day time.Time) (Totals, error) {
	if day.IsZero() {
		day = e.now()
	}
	from := e.dayStart(day)
	to := from.AddDate(0, 0, 1)
	lo, hi := models.FormatSaleDate(from), models.FormatSaleDate(to)

	// revenue comes from sales, not the join, so multi-line sales count once
	var totals Totals
	err := e.db.GetContext(ctx, &totals, `
		SELECT
			COALESCE((
				SELECT SUM(total) FROM sales
				WHERE tenant_id = ? AND date >= ? AND date < ?
			), 0) AS revenue,
			COALESCE((
				SELECT SUM(sp.quantity)
				FROM sales_products sp
				JOIN sales s ON s.id = sp.sale_id
				WHERE s.tenant_id = ? AND s.date >= ? AND s.date < ?
			), 0) AS units
	`, t.Int64(), lo, hi, t.Int64(), lo, hi)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to compute daily totals: %w", err)
	}
	return totals, nil
}

// MostSoldProduct returns the product with the highest summed quantity, or
// nil when the tenant has no sales. Ties go to the lowest product id.
func (e *Engine) MostSoldProduct(ctx context.Context, t tenant.ID) (*BestSeller, error) {
	var best BestSeller
	err := e.db.GetContext(ctx, &best, `
		SELECT p.id AS product_id, p.name, p.price, SUM(sp.quantity) AS quantity
		FROM sales_products sp
		JOIN products p ON p.id = sp.product_id AND p.tenant_id = sp.tenant_id
		WHERE sp.tenant_id = ?
		GROUP BY p.id, p.name, p.price
		ORDER BY quantity DESC, p.id ASC
		LIMIT 1
	`, t.Int64())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find most sold product: %w", err)
	}
	return &best, nil
}

// WeekRevenue sums sale totals in the Monday-start week containing day
func (e *Engine) WeekRevenue(ctx context.Context, t tenant.ID, day time.Time) (float64, error) {
	from := e.weekStart(day)
	return e.revenueBetween(ctx, t, from, from.AddDate(0, 0, 7))
}

// WeekOverWeekDelta is this week's revenue minus last week's
func (e *Engine) WeekOverWeekDelta(ctx context.Context, t tenant.ID) (float64, error) {
	now := e.now()

	current, err := e.WeekRevenue(ctx, t, now)
	if err != nil {
		return 0, err
	}
	previous, err := e.WeekRevenue(ctx, t, now.AddDate(0, 0, -7))
	if err != nil {
		return 0, err
	}
	return current - previous, nil
}

// CurrentWeekSeries returns one entry per day from Monday through today,
// zero for days without sales
func (e *Engine) CurrentWeekSeries(ctx context.Context, t tenant.ID) ([]DayTotal, error) {
	now := e.now()
	from := e.weekStart(now)
	to := e.dayStart(now).AddDate(0, 0, 1)

	var rows []struct {
		Date  string  `db:"date"`
		Total float64 `db:"total"`
	}
	err := e.db.SelectContext(ctx, &rows, `
		SELECT date, total FROM sales
		WHERE tenant_id = ? AND date >= ? AND date < ?
	`, t.Int64(), models.FormatSaleDate(from), models.FormatSaleDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to load week sales: %w", err)
	}

	// bucket by local calendar day, the stored dates are UTC
	byDay := make(map[string]float64)
	for _, r := range rows {
		at, err := models.ParseSaleDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("sale with unreadable date %q: %w", r.Date, err)
		}
		byDay[at.In(e.loc).Format(DayLayout)] += r.Total
	}

	series := []DayTotal{}
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(DayLayout)
		series = append(series, DayTotal{Date: key, Total: byDay[key]})
	}
	return series, nil
}

// TotalRevenue sums every sale of the tenant
func (e *Engine) TotalRevenue(ctx context.Context, t tenant.ID) (float64, error) {
	var total float64
	err := e.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(total), 0) FROM sales WHERE tenant_id = ?`, t.Int64())
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

// Dashboard computes every home screen figure for today
func (e *Engine) Dashboard(ctx context.Context, t tenant.ID) (*Dashboard, error) {
	now := e.now()
	d := &Dashboard{Date: now.In(e.loc).Format(DayLayout)}

	var err error
	if d.Today, err = e.DailyTotals(ctx, t, now); err != nil {
		return nil, err
	}
	if d.MostSold, err = e.MostSoldProduct(ctx, t); err != nil {
		return nil, err
	}
	if d.WeekDelta, err = e.WeekOverWeekDelta(ctx, t); err != nil {
		return nil, err
	}
	if d.WeekSeries, err = e.CurrentWeekSeries(ctx, t); err != nil {
		return nil, err
	}
	if d.TotalRevenue, err = e.TotalRevenue(ctx, t); err != nil {
		return nil, err
	}
	if e.products != nil {
		if d.LowStock, err = e.products.ListLowStock(ctx, t, e.lowStockThreshold); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (e *Engine) revenueBetween(ctx context.Context, t tenant.ID, from, to time.Time) (float64, error) {
	var total float64
	err := e.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(total), 0) FROM sales
		WHERE tenant_id = ? AND date >= ? AND date < ?
	`, t.Int64(), models.FormatSaleDate(from), models.FormatSaleDate(to))
	if err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return total, nil
}

func (e *Engine) dayStart(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

// weekStart returns midnight of the Monday on or before t
func (e *Engine) weekStart(t time.Time) time.Time {
	d := e.dayStart(t)
	offset := (int(d.Weekday()) + 6) % 7
	return time.Date(d.Year(), d.Month(), d.Day()-offset, 0, 0, 0, 0, e.loc)
}
