package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/database/dbtest"
	"github.com/matthieukhl/pocketpos/internal/inventory"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

const (
	t1 tenant.ID = 11
	t2 tenant.ID = 22
)

var saleTime = time.Date(2024, 5, 6, 14, 0, 0, 0, time.UTC)

type fixture struct {
	db       *database.DB
	products *inventory.Store
	recorder *Recorder
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	return &fixture{
		db:       db,
		products: inventory.NewStore(db, nil),
		recorder: NewRecorder(db, nil),
	}
}

func (f *fixture) product(t *testing.T, tn tenant.ID, name string, price float64, stock int) int64 {
	t.Helper()
	id, err := f.products.CreateProduct(context.Background(), tn, models.ProductInput{
		Name: name, Price: price, Stock: stock, IsAvailable: true,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) stock(t *testing.T, tn tenant.ID, id int64) int {
	t.Helper()
	p, err := f.products.GetProduct(context.Background(), id, tn)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n
}

func TestRecordSaleDecrementsStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sodaID := f.product(t, t1, "Soda", 1.50, 30)

	saleID, err := f.recorder.RecordSale(ctx, t1, saleTime, 7.50, []models.LineItem{
		{ProductID: sodaID, Quantity: 5},
	})
	require.NoError(t, err)
	assert.Positive(t, saleID)

	assert.Equal(t, 25, f.stock(t, t1, sodaID))

	sale, err := f.recorder.GetSale(ctx, saleID, t1)
	require.NoError(t, err)
	assert.Equal(t, 7.50, sale.Total)
	assert.Equal(t, "2024-05-06T14:00:00.000Z", sale.Date)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, sodaID, sale.Items[0].ProductID)
	assert.Equal(t, 5, sale.Items[0].Quantity)
	assert.Equal(t, "Soda", sale.Items[0].Name)
	assert.Equal(t, 1.50, sale.Items[0].Price)
	assert.Equal(t, t1.Int64(), sale.Items[0].TenantID)
}

func TestRecordSaleUnknownProductRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sodaID := f.product(t, t1, "Soda", 1.50, 30)

	_, err := f.recorder.RecordSale(ctx, t1, saleTime, 10, []models.LineItem{
		{ProductID: sodaID, Quantity: 2},
		{ProductID: 9999, Quantity: 1},
	})
	require.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, 30, f.stock(t, t1, sodaID))
	assert.Zero(t, f.count(t, "sales"))
	assert.Zero(t, f.count(t, "sales_products"))
}

func TestRecordSaleRejectsOtherTenantsProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	foreign := f.product(t, t2, "Soda", 1.50, 30)

	_, err := f.recorder.RecordSale(ctx, t1, saleTime, 1.5, []models.LineItem{
		{ProductID: foreign, Quantity: 1},
	})
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 30, f.stock(t, t2, foreign))
	assert.Zero(t, f.count(t, "sales"))
}

func TestRecordSaleValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.product(t, t1, "Soda", 1.50, 30)

	_, err := f.recorder.RecordSale(ctx, t1, saleTime, 0, nil)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.recorder.RecordSale(ctx, t1, saleTime, 0, []models.LineItem{{ProductID: id, Quantity: 0}})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.recorder.RecordSale(ctx, t1, saleTime, -1, []models.LineItem{{ProductID: id, Quantity: 1}})
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.Zero(t, f.count(t, "sales"))
	assert.Equal(t, 30, f.stock(t, t1, id))
}

func TestRecordSaleMergesRepeatedProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	soda := f.product(t, t1, "Soda", 1.50, 30)
	chips := f.product(t, t1, "Chips", 2.00, 10)

	saleID, err := f.recorder.RecordSale(ctx, t1, saleTime, 8.50, []models.LineItem{
		{ProductID: soda, Quantity: 2},
		{ProductID: chips, Quantity: 1},
		{ProductID: soda, Quantity: 1},
	})
	require.NoError(t, err)

	sale, err := f.recorder.GetSale(ctx, saleID, t1)
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, soda, sale.Items[0].ProductID)
	assert.Equal(t, 3, sale.Items[0].Quantity)
	assert.Equal(t, chips, sale.Items[1].ProductID)

	assert.Equal(t, 27, f.stock(t, t1, soda))
	assert.Equal(t, 9, f.stock(t, t1, chips))
}

func TestRecordSaleOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.product(t, t1, "Soda", 1.50, 2)

	// lenient by default: the caller owns the quantity check
	_, err := f.recorder.RecordSale(ctx, t1, saleTime, 4.5, []models.LineItem{{ProductID: id, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, -1, f.stock(t, t1, id))

	f.recorder.StrictStock = true
	_, err = f.recorder.RecordSale(ctx, t1, saleTime, 1.5, []models.LineItem{{ProductID: id, Quantity: 1}})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, -1, f.stock(t, t1, id))
	assert.Equal(t, 1, f.count(t, "sales"))

	_, err = f.recorder.RecordSale(ctx, t1, saleTime, 1.5, []models.LineItem{{ProductID: 777, Quantity: 1}})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListSales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	soda := f.product(t, t1, "Soda", 1.50, 30)
	other := f.product(t, t2, "Tea", 1.00, 30)

	day1 := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	_, err := f.recorder.RecordSale(ctx, t1, day2, 3, []models.LineItem{{ProductID: soda, Quantity: 2}})
	require.NoError(t, err)
	_, err = f.recorder.RecordSale(ctx, t1, day1, 1.5, []models.LineItem{{ProductID: soda, Quantity: 1}})
	require.NoError(t, err)
	_, err = f.recorder.RecordSale(ctx, t2, day1, 1, []models.LineItem{{ProductID: other, Quantity: 1}})
	require.NoError(t, err)

	all, err := f.recorder.ListSales(ctx, t1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1.5, all[0].Total)
	assert.Equal(t, 3.0, all[1].Total)
	require.Len(t, all[1].Items, 1)
	assert.Equal(t, 2, all[1].Items[0].Quantity)

	window, err := f.recorder.ListSalesBetween(ctx, t1, day2.Truncate(24*time.Hour), day2.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, 3.0, window[0].Total)
	require.Len(t, window[0].Items, 1)

	_, err = f.recorder.GetSale(ctx, all[0].ID, t2)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
