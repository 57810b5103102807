// Package users keeps the local account and plan records that map a login
// to its tenant.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/matthieukhl/pocketpos/internal/database"
	"github.com/matthieukhl/pocketpos/internal/logger"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

type Store struct {
	db  *database.DB
	log *zap.Logger
	now func() time.Time

	// Cost is the bcrypt work factor for new hashes
	Cost int
}

func NewStore(db *database.DB, log *zap.Logger) *Store {
	return &Store{
		db:   db,
		log:  logger.OrNop(log).Named("users"),
		now:  time.Now,
		Cost: bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. Owners get the tenant derived from their
// email; employees start unassigned until linked to an owner.
func (s *Store) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	reg.Email = normalizeEmail(reg.Email)
	if reg.Role == "" {
		reg.Role = models.RoleOwner
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	var exists int
	if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM users WHERE email = ?`, reg.Email); err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists > 0 {
		return nil, models.Invalid("email %s is already registered", reg.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.Cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	t := tenant.Unassigned
	if reg.Role == models.RoleOwner {
		t = tenant.FromEmail(reg.Email)
		s.warnOnCollision(ctx, reg.Email, t)
	}

	user := &models.User{Email: reg.Email, Password: string(hash), Role: reg.Role, TenantID: t.Int64()}

	result, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (email, password, user_role, tenant_id)
		VALUES (:email, :password, :user_role, :tenant_id)
	`, user)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	if user.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", user.Role), zap.Int64("tenant_id", user.TenantID))
	return user, nil
}

// warnOnCollision logs when another owner already holds the derived tenant
func (s *Store) warnOnCollision(ctx context.Context, email string, t tenant.ID) {
	var holder string
	err := s.db.GetContext(ctx, &holder,
		`SELECT email FROM users WHERE tenant_id = ? AND user_role = ? AND email <> ? LIMIT 1`,
		t.Int64(), models.RoleOwner, email)
	if err == nil {
		s.log.Warn("tenant id collision between owner accounts",
			zap.Int64("tenant_id", t.Int64()), zap.String("email", email), zap.String("existing", holder))
	}
}

// GetByEmail returns the account for email, or ErrNotFound
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u,
		`SELECT id, email, password, user_role, tenant_id FROM users WHERE email = ?`, normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Authenticate checks a password and returns the account. Unknown emails
// and wrong passwords both give ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return u, nil
}

// TenantForEmail resolves the tenant an account works in
func (s *Store) TenantForEmail(ctx context.Context, email string) (tenant.ID, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return tenant.Unassigned, err
	}
	return tenant.ID(u.TenantID), nil
}

// LinkTenant attaches an employee account to an owner's tenant, as read
// from the owner's QR link.
func (s *Store) LinkTenant(ctx context.Context, email string, t tenant.ID) error {
	if t == tenant.Unassigned {
		return models.Invalid("tenant is required")
	}

	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.Role == models.RoleOwner {
		return models.Invalid("owner accounts keep their own tenant")
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET tenant_id = ? WHERE id = ?`, t.Int64(), u.ID); err != nil {
		return fmt.Errorf("failed to link user: %w", err)
	}

	s.log.Info("employee linked", zap.Int64("user_id", u.ID), zap.Int64("tenant_id", t.Int64()))
	return nil
}
