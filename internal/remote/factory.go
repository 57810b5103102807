package remote

import (
	"context"
	"fmt"

	"github.com/matthieukhl/pocketpos/internal/config"
)

// New creates a remote store based on configuration
func New(ctx context.Context, cfg *config.RemoteConfig) (Store, error) {
	switch cfg.Provider {
	case "rest", "supabase":
		return NewREST(cfg.URL, cfg.APIKeyEnv, cfg.APIKey, cfg.Timeout)
	case "mysql":
		return NewMySQL(cfg.DSN)
	case "mongo":
		return NewMongo(ctx, cfg.URL, cfg.Database, cfg.Timeout)
	case "memory", "mock":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported remote provider: %s", cfg.Provider)
	}
}
