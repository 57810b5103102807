package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthieukhl/pocketpos/internal/models"
)

type captured struct {
	method string
	path   string
	query  string
	header http.Header
	body   map[string]any
}

func newTestServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	var (
		mu   sync.Mutex
		reqs []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone()}
		if r.Method == http.MethodPost {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		}
		mu.Lock()
		reqs = append(reqs, c)
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), reqs...)
	}
}

func TestRESTUpsertProduct(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusCreated)
	r, err := NewREST(srv.URL+"/", "", "secret", time.Second)
	require.NoError(t, err)

	img := "https://cdn/x.jpg"
	err = r.UpsertProduct(context.Background(), models.Product{
		ID: 7, TenantID: 42, Name: "Soda", Price: 1.5, Stock: 9, IsAvailable: true, Image: &img,
	})
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	got := reqs[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/rest/v1/products", got.path)
	assert.Equal(t, "on_conflict=id", got.query)
	assert.Equal(t, "secret", got.header.Get("apikey"))
	assert.Equal(t, "Bearer secret", got.header.Get("Authorization"))
	assert.Contains(t, got.header.Get("Prefer"), "resolution=merge-duplicates")
	assert.Equal(t, "Soda", got.body["name"])
	assert.Equal(t, true, got.body["isAvailable"])
	assert.Equal(t, float64(42), got.body["tenant_id"])
}

func TestRESTUpsertSaleItemKey(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusCreated)
	r, err := NewREST(srv.URL, "", "secret", time.Second)
	require.NoError(t, err)

	err = r.UpsertSaleItem(context.Background(), models.SaleItem{
		SaleID: 3, ProductID: 7, TenantID: 42, Quantity: 2, Name: "Soda", Price: 1.5,
	})
	require.NoError(t, err)

	got := requests()[0]
	assert.Equal(t, "/rest/v1/sales_products", got.path)
	assert.Equal(t, "on_conflict=sale_id%2Cproduct_id", got.query)
	assert.NotContains(t, got.body, "name")
	assert.Equal(t, float64(2), got.body["quantity"])
}

func TestRESTErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusConflict)
	r, err := NewREST(srv.URL, "", "secret", time.Second)
	require.NoError(t, err)

	err = r.UpsertSale(context.Background(), models.Sale{ID: 1, TenantID: 42, Total: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestRESTPing(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK)
	r, err := NewREST(srv.URL, "", "secret", time.Second)
	require.NoError(t, err)

	require.NoError(t, r.Ping(context.Background()))
	assert.Equal(t, "/rest/v1/", requests()[0].path)

	down, _ := newTestServer(t, http.StatusServiceUnavailable)
	r, err = NewREST(down.URL, "", "secret", time.Second)
	require.NoError(t, err)
	assert.Error(t, r.Ping(context.Background()))
}

func TestNewRESTKeyFromEnv(t *testing.T) {
	t.Setenv("POS_TEST_REMOTE_KEY", "from-env")

	r, err := NewREST("https://example.test", "POS_TEST_REMOTE_KEY", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "from-env", r.apiKey)

	_, err = NewREST("https://example.test", "POS_TEST_REMOTE_KEY_UNSET", "", 0)
	assert.Error(t, err)

	_, err = NewREST("", "", "key", 0)
	assert.Error(t, err)
}

func TestRESTReusesConnections(t *testing.T) {
	var dialed atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// some backends answer an upsert with the stored row
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":1,"name":"` + strings.Repeat("x", 2048) + `"}]`))
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			dialed.Add(1)
		}
	}
	srv.Start()
	t.Cleanup(srv.Close)

	r, err := NewREST(srv.URL, "", "secret", time.Second)
	require.NoError(t, err)
	defer r.Close()

	const upserts = 20
	for i := 1; i <= upserts; i++ {
		require.NoError(t, r.UpsertProduct(context.Background(), models.Product{ID: int64(i), TenantID: 1, Name: "Soda"}))
	}
	assert.Less(t, int(dialed.Load()), upserts/4)
}
