package remote

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/matthieukhl/pocketpos/internal/models"
)

// ErrOffline is returned by a Memory store that has been taken offline
var ErrOffline = errors.New("remote store offline")

// Memory keeps mirrored records in process. It backs tests and offline demos.
type Memory struct {
	mu        sync.Mutex
	offline   bool
	products  map[int64]models.Product
	sales     map[int64]models.Sale
	saleItems map[string]models.SaleItem
	writes    int

	// FailFunc, when set, is consulted before every upsert. A non-nil
	// result fails that write.
	FailFunc func(table string, key string) error
}

func NewMemory() *Memory {
	return &Memory{
		products:  make(map[int64]models.Product),
		sales:     make(map[int64]models.Sale),
		saleItems: make(map[string]models.SaleItem),
	}
}

// SetOnline controls whether Ping and upserts succeed
func (m *Memory) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = !online
}

func (m *Memory) check(table, key string) error {
	if m.offline {
		return ErrOffline
	}
	if m.FailFunc != nil {
		return m.FailFunc(table, key)
	}
	return nil
}

func (m *Memory) UpsertProduct(ctx context.Context, p models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(TableProducts, strconv.FormatInt(p.ID, 10)); err != nil {
		return err
	}
	m.products[p.ID] = p
	m.writes++
	return nil
}

func (m *Memory) UpsertSale(ctx context.Context, s models.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Items = nil
	if err := m.check(TableSales, strconv.FormatInt(s.ID, 10)); err != nil {
		return err
	}
	m.sales[s.ID] = s
	m.writes++
	return nil
}

func (m *Memory) UpsertSaleItem(ctx context.Context, item models.SaleItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := SaleItemKey(item.SaleID, item.ProductID)
	if err := m.check(TableSaleItems, key); err != nil {
		return err
	}
	item.Name, item.Price = "", 0
	m.saleItems[key] = item
	m.writes++
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return ErrOffline
	}
	return ctx.Err()
}

func (m *Memory) Close() error { return nil }

// Products returns the mirrored products ordered by id
func (m *Memory) Products() []models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sales returns the mirrored sales ordered by id
func (m *Memory) Sales() []models.Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Sale, 0, len(m.sales))
	for _, s := range m.sales {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SaleItems returns the mirrored line items ordered by sale then product
func (m *Memory) SaleItems() []models.SaleItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SaleItem, 0, len(m.saleItems))
	for _, it := range m.saleItems {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SaleID != out[j].SaleID {
			return out[i].SaleID < out[j].SaleID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out
}

// Writes counts successful upserts, including overwrites
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

var _ Store = (*Memory)(nil)
