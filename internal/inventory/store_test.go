package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthieukhl/pocketpos/internal/database/dbtest"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

const (
	t1 tenant.ID = 1001
	t2 tenant.ID = 2002
)

func newStore(t *testing.T) *Store {
	return NewStore(dbtest.New(t), nil)
}

func soda(stock int) models.ProductInput {
	return models.ProductInput{Name: "Soda", Price: 1.5, Stock: stock, IsAvailable: true}
}

func TestCreateAndGetProduct(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	img := "file:///soda.png"
	in := soda(30)
	in.Image = &img

	id, err := s.CreateProduct(ctx, t1, in)
	require.NoError(t, err)
	assert.Positive(t, id)

	p, err := s.GetProduct(ctx, id, t1)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, t1.Int64(), p.TenantID)
	assert.Equal(t, "Soda", p.Name)
	assert.Equal(t, 1.5, p.Price)
	assert.Equal(t, 30, p.Stock)
	assert.True(t, p.IsAvailable)
	require.NotNil(t, p.Image)
	assert.Equal(t, img, *p.Image)
}

func TestCreateProductRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.CreateProduct(ctx, t1, models.ProductInput{Name: "Soda", Price: -1})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.CreateProduct(ctx, t1, models.ProductInput{Name: "Soda", Price: 1, Stock: -3})
	assert.ErrorIs(t, err, models.ErrValidation)

	products, err := s.ListProducts(ctx, t1)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id1, err := s.CreateProduct(ctx, t1, soda(10))
	require.NoError(t, err)
	id2, err := s.CreateProduct(ctx, t2, soda(10))
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	list1, err := s.ListProducts(ctx, t1)
	require.NoError(t, err)
	require.Len(t, list1, 1)
	assert.Equal(t, id1, list1[0].ID)

	list2, err := s.ListProducts(ctx, t2)
	require.NoError(t, err)
	require.Len(t, list2, 1)
	assert.Equal(t, id2, list2[0].ID)

	// another tenant's id looks like a missing product
	_, err = s.GetProduct(ctx, id2, t1)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.UpdateProduct(ctx, id2, t1, soda(99)), models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, id2, t1), models.ErrNotFound)

	p, err := s.GetProduct(ctx, id2, t2)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
}

func TestListProductsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	for _, name := range []string{"Water", "Chips", "Bread"} {
		_, err := s.CreateProduct(ctx, t1, models.ProductInput{Name: name, Price: 1, Stock: 1})
		require.NoError(t, err)
	}

	products, err := s.ListProducts(ctx, t1)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Water", products[0].Name)
	assert.Equal(t, "Chips", products[1].Name)
	assert.Equal(t, "Bread", products[2].Name)
}

func TestUpdateProductReplacesFields(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	img := "a.png"
	in := soda(30)
	in.Image = &img
	id, err := s.CreateProduct(ctx, t1, in)
	require.NoError(t, err)

	require.NoError(t, s.UpdateProduct(ctx, id, t1, models.ProductInput{
		Name: "Cola", Price: 2.25, Stock: 12, IsAvailable: false,
	}))

	p, err := s.GetProduct(ctx, id, t1)
	require.NoError(t, err)
	assert.Equal(t, "Cola", p.Name)
	assert.Equal(t, 2.25, p.Price)
	assert.Equal(t, 12, p.Stock)
	assert.False(t, p.IsAvailable)
	assert.Nil(t, p.Image)

	assert.ErrorIs(t, s.UpdateProduct(ctx, 9999, t1, soda(1)), models.ErrNotFound)
	assert.ErrorIs(t, s.UpdateProduct(ctx, id, t1, models.ProductInput{}), models.ErrValidation)
}

func TestAdjustStockAndSetImage(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateProduct(ctx, t1, soda(5))
	require.NoError(t, err)

	stock, err := s.AdjustStock(ctx, id, t1, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, stock)

	stock, err = s.AdjustStock(ctx, id, t1, -20)
	require.NoError(t, err)
	assert.Equal(t, -5, stock)

	_, err = s.AdjustStock(ctx, id, t2, 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.SetImage(ctx, id, t1, "https://cdn/soda.jpg"))
	p, err := s.GetProduct(ctx, id, t1)
	require.NoError(t, err)
	require.NotNil(t, p.Image)
	assert.Equal(t, "https://cdn/soda.jpg", *p.Image)
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	id, err := s.CreateProduct(ctx, t1, soda(5))
	require.NoError(t, err)
	require.NoError(t, s.DeleteProduct(ctx, id, t1))

	_, err = s.GetProduct(ctx, id, t1)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, id, t1), models.ErrNotFound)
}

func TestListLowStock(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	stocks := map[string]int{"A": 25, "B": 3, "C": 20, "D": 19, "E": 0}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		_, err := s.CreateProduct(ctx, t1, models.ProductInput{Name: name, Price: 1, Stock: stocks[name]})
		require.NoError(t, err)
	}
	// another tenant's low stock never shows up
	_, err := s.CreateProduct(ctx, t2, models.ProductInput{Name: "Z", Price: 1, Stock: 1})
	require.NoError(t, err)

	low, err := s.ListLowStock(ctx, t1, 0)
	require.NoError(t, err)

	names := make([]string, 0, len(low))
	for _, p := range low {
		names = append(names, p.Name)
		assert.Less(t, p.Stock, DefaultLowStockThreshold)
		assert.Equal(t, t1.Int64(), p.TenantID)
	}
	assert.Equal(t, []string{"E", "B", "D"}, names)

	low, err = s.ListLowStock(ctx, t1, 5)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "E", low[0].Name)
	assert.Equal(t, "B", low[1].Name)
}
