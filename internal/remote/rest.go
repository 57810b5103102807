package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/matthieukhl/pocketpos/internal/models"
)

// REST mirrors records through a PostgREST endpoint, the API Supabase
// exposes over its Postgres tables.
type REST struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewREST(baseURL, apiKeyEnv, directAPIKey string, timeout time.Duration) (*REST, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("remote url is required for the rest provider")
	}

	var apiKey string

	// First try direct API key from config
	if directAPIKey != "" {
		apiKey = directAPIKey
	} else if apiKeyEnv != "" {
		apiKey = os.Getenv(apiKeyEnv)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in config or environment variable %s", apiKeyEnv)
	}

	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (r *REST) UpsertProduct(ctx context.Context, p models.Product) error {
	return r.upsert(ctx, TableProducts, "id", toProductRow(p))
}

func (r *REST) UpsertSale(ctx context.Context, s models.Sale) error {
	return r.upsert(ctx, TableSales, "id", toSaleRow(s))
}

func (r *REST) UpsertSaleItem(ctx context.Context, item models.SaleItem) error {
	return r.upsert(ctx, TableSaleItems, "sale_id,product_id", toSaleItemRow(item))
}

// Ping fetches the API root, which lists the exposed tables
func (r *REST) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/rest/v1/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach remote: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("remote ping returned %d", resp.StatusCode)
	}
	return nil
}

func (r *REST) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *REST) upsert(ctx context.Context, table, onConflict string, row any) error {
	jsonData, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal %s row: %w", table, err)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?on_conflict=%s", r.baseURL, table, url.QueryEscape(onConflict))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("remote %s upsert error %d: %s", table, resp.StatusCode, string(body))
	}
	// drain so the connection goes back to the pool
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (r *REST) authorize(req *http.Request) {
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))
}

// Compile-time interface check
var _ Store = (*REST)(nil)
