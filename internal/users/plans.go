package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

// plan timestamps are stored as RFC 3339 text in UTC
type planRow struct {
	ID        int64   `db:"id"`
	TenantID  int64   `db:"tenant_id"`
	Name      string  `db:"name"`
	Price     float64 `db:"price"`
	StartedAt string  `db:"started_at"`
	ExpiresAt string  `db:"expires_at"`
}

func (r planRow) plan() (*models.Plan, error) {
	started, err := time.Parse(time.RFC3339, r.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("plan %d has bad start: %w", r.ID, err)
	}
	expires, err := time.Parse(time.RFC3339, r.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("plan %d has bad expiry: %w", r.ID, err)
	}
	return &models.Plan{
		ID: r.ID, TenantID: r.TenantID, Name: r.Name, Price: r.Price,
		StartedAt: started, ExpiresAt: expires,
	}, nil
}

// SetPlan subscribes a tenant to a plan for the given number of months
func (s *Store) SetPlan(ctx context.Context, t tenant.ID, name string, price float64, start time.Time, months int) (*models.Plan, error) {
	switch {
	case name == "":
		return nil, models.Invalid("plan name is required")
	case price < 0:
		return nil, models.Invalid("plan price must be non-negative")
	case months <= 0:
		return nil, models.Invalid("plan must last at least one month")
	}
	if start.IsZero() {
		start = s.now()
	}

	row := planRow{
		TenantID:  t.Int64(),
		Name:      name,
		Price:     price,
		StartedAt: start.UTC().Truncate(time.Second).Format(time.RFC3339),
		ExpiresAt: start.AddDate(0, months, 0).UTC().Truncate(time.Second).Format(time.RFC3339),
	}
	result, err := s.db.NamedExecContext(ctx, `
		INSERT INTO plans (tenant_id, name, price, started_at, expires_at)
		VALUES (:tenant_id, :name, :price, :started_at, :expires_at)
	`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert plan: %w", err)
	}
	if row.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read plan id: %w", err)
	}

	s.log.Info("plan set", zap.Int64("tenant_id", t.Int64()), zap.String("plan", name), zap.String("expires_at", row.ExpiresAt))
	return row.plan()
}

// CurrentPlan returns the most recently started plan still active now, or
// ErrNotFound
func (s *Store) CurrentPlan(ctx context.Context, t tenant.ID) (*models.Plan, error) {
	now := s.now().UTC().Format(time.RFC3339)

	var row planRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, tenant_id, name, price, started_at, expires_at FROM plans
		WHERE tenant_id = ? AND started_at <= ? AND expires_at > ?
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`, t.Int64(), now, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active plan for tenant %d: %w", t.Int64(), models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return row.plan()
}
