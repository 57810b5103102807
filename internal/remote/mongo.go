package remote

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matthieukhl/pocketpos/internal/models"
)

// Mongo mirrors each table into a collection of the same name, keyed by
// the record's natural key in _id.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo builds a client for uri. The driver connects lazily, so this
// succeeds while offline.
func NewMongo(ctx context.Context, uri, database string, timeout time.Duration) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("remote url is required for the mongo provider")
	}

	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetTimeout(timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) UpsertProduct(ctx context.Context, p models.Product) error {
	row := toProductRow(p)
	doc := bson.M{
		"_id":         row.ID,
		"tenant_id":   row.TenantID,
		"name":        row.Name,
		"price":       row.Price,
		"stock":       row.Stock,
		"isAvailable": row.IsAvailable,
		"image":       row.Image,
	}
	if err := m.replace(ctx, TableProducts, row.ID, doc); err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", p.ID, err)
	}
	return nil
}

func (m *Mongo) UpsertSale(ctx context.Context, s models.Sale) error {
	row := toSaleRow(s)
	doc := bson.M{
		"_id":       row.ID,
		"tenant_id": row.TenantID,
		"date":      row.Date,
		"total":     row.Total,
	}
	if err := m.replace(ctx, TableSales, row.ID, doc); err != nil {
		return fmt.Errorf("failed to upsert sale %d: %w", s.ID, err)
	}
	return nil
}

func (m *Mongo) UpsertSaleItem(ctx context.Context, item models.SaleItem) error {
	row := toSaleItemRow(item)
	// field order matters for an embedded _id
	key := bson.D{{Key: "sale_id", Value: row.SaleID}, {Key: "product_id", Value: row.ProductID}}
	doc := bson.M{
		"_id":        key,
		"sale_id":    row.SaleID,
		"product_id": row.ProductID,
		"tenant_id":  row.TenantID,
		"quantity":   row.Quantity,
	}
	if err := m.replace(ctx, TableSaleItems, key, doc); err != nil {
		return fmt.Errorf("failed to upsert sale item %s: %w", SaleItemKey(row.SaleID, row.ProductID), err)
	}
	return nil
}

func (m *Mongo) replace(ctx context.Context, collection string, id any, doc bson.M) error {
	_, err := m.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
