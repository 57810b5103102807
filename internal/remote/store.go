// Package remote mirrors local records to a cloud store. Every write is an
// upsert by natural key, so resending a record is harmless.
package remote

import (
	"context"
	"fmt"

	"github.com/matthieukhl/pocketpos/internal/models"
)

// Remote table names, shared by every backend
const (
	TableProducts  = "products"
	TableSales     = "sales"
	TableSaleItems = "sales_products"
)

// Store is a remote mirror of the local tables
type Store interface {
	UpsertProduct(ctx context.Context, p models.Product) error
	UpsertSale(ctx context.Context, s models.Sale) error
	UpsertSaleItem(ctx context.Context, item models.SaleItem) error
	Ping(ctx context.Context) error
	Close() error
}

// productRow is the mirrored shape of a product
type productRow struct {
	ID          int64   `json:"id" db:"id" bson:"id"`
	TenantID    int64   `json:"tenant_id" db:"tenant_id" bson:"tenant_id"`
	Name        string  `json:"name" db:"name" bson:"name"`
	Price       float64 `json:"price" db:"price" bson:"price"`
	Stock       int     `json:"stock" db:"stock" bson:"stock"`
	IsAvailable bool    `json:"isAvailable" db:"isAvailable" bson:"isAvailable"`
	Image       *string `json:"image" db:"image" bson:"image"`
}

type saleRow struct {
	ID       int64   `json:"id" db:"id" bson:"id"`
	TenantID int64   `json:"tenant_id" db:"tenant_id" bson:"tenant_id"`
	Date     string  `json:"date" db:"date" bson:"date"`
	Total    float64 `json:"total" db:"total" bson:"total"`
}

// saleItemRow leaves out the product name and price joined in on reads
type saleItemRow struct {
	SaleID    int64 `json:"sale_id" db:"sale_id" bson:"sale_id"`
	ProductID int64 `json:"product_id" db:"product_id" bson:"product_id"`
	TenantID  int64 `json:"tenant_id" db:"tenant_id" bson:"tenant_id"`
	Quantity  int   `json:"quantity" db:"quantity" bson:"quantity"`
}

func toProductRow(p models.Product) productRow {
	return productRow{
		ID: p.ID, TenantID: p.TenantID, Name: p.Name, Price: p.Price,
		Stock: p.Stock, IsAvailable: p.IsAvailable, Image: p.Image,
	}
}

func toSaleRow(s models.Sale) saleRow {
	return saleRow{ID: s.ID, TenantID: s.TenantID, Date: s.Date, Total: s.Total}
}

func toSaleItemRow(it models.SaleItem) saleItemRow {
	return saleItemRow{SaleID: it.SaleID, ProductID: it.ProductID, TenantID: it.TenantID, Quantity: it.Quantity}
}

// SaleItemKey is the natural key of a mirrored line item
func SaleItemKey(saleID, productID int64) string {
	return fmt.Sprintf("%d:%d", saleID, productID)
}
