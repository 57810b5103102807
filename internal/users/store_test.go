package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/matthieukhl/pocketpos/internal/database/dbtest"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

func newStore(t *testing.T) *Store {
	s := NewStore(dbtest.New(t), nil)
	s.Cost = bcrypt.MinCost
	return s
}

func TestRegisterOwner(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	u, err := s.Register(ctx, models.Registration{Email: " Ana@Shop.com ", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "ana@shop.com", u.Email)
	assert.Equal(t, models.RoleOwner, u.Role)
	assert.Equal(t, tenant.FromEmail("ana@shop.com").Int64(), u.TenantID)
	assert.NotEqual(t, "hunter22", u.Password)

	got, err := s.TenantForEmail(ctx, "ANA@shop.com")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID(u.TenantID), got)

	_, err = s.Register(ctx, models.Registration{Email: "ana@shop.com", Password: "another1"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRegisterValidation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, reg := range []models.Registration{
		{Email: "not-an-email", Password: "hunter22"},
		{Email: "a@b.com", Password: "123"},
		{Email: "a@b.com", Password: "hunter22", Role: "admin"},
	} {
		_, err := s.Register(ctx, reg)
		assert.ErrorIs(t, err, models.ErrValidation, "%+v", reg)
	}
}

func TestAuthenticate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, models.Registration{Email: "ana@shop.com", Password: "hunter22"})
	require.NoError(t, err)

	u, err := s.Authenticate(ctx, "ana@shop.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ana@shop.com", u.Email)

	_, err = s.Authenticate(ctx, "ana@shop.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody@shop.com", "hunter22")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestLinkTenant(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	owner, err := s.Register(ctx, models.Registration{Email: "ana@shop.com", Password: "hunter22"})
	require.NoError(t, err)
	emp, err := s.Register(ctx, models.Registration{Email: "leo@shop.com", Password: "hunter22", Role: models.RoleEmployee})
	require.NoError(t, err)
	assert.Equal(t, tenant.Unassigned.Int64(), emp.TenantID)

	require.NoError(t, s.LinkTenant(ctx, "leo@shop.com", tenant.ID(owner.TenantID)))
	got, err := s.TenantForEmail(ctx, "leo@shop.com")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID(owner.TenantID), got)

	assert.ErrorIs(t, s.LinkTenant(ctx, "ana@shop.com", 7), models.ErrValidation)
	assert.ErrorIs(t, s.LinkTenant(ctx, "leo@shop.com", tenant.Unassigned), models.ErrValidation)
	assert.ErrorIs(t, s.LinkTenant(ctx, "ghost@shop.com", 7), models.ErrNotFound)
}

func TestPlans(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.CurrentPlan(ctx, 9)
	assert.ErrorIs(t, err, models.ErrNotFound)

	old, err := s.SetPlan(ctx, 9, "basic", 5, now.AddDate(0, -3, 0), 1)
	require.NoError(t, err)
	assert.False(t, old.Active(now))

	_, err = s.CurrentPlan(ctx, 9)
	assert.ErrorIs(t, err, models.ErrNotFound)

	p, err := s.SetPlan(ctx, 9, "pro", 12.5, now.AddDate(0, 0, -1), 12)
	require.NoError(t, err)
	assert.True(t, p.ExpiresAt.Equal(now.AddDate(0, 0, -1).AddDate(0, 12, 0)))

	cur, err := s.CurrentPlan(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "pro", cur.Name)
	assert.True(t, cur.Active(now))

	_, err = s.SetPlan(ctx, 9, "pro", 12.5, now, 0)
	assert.ErrorIs(t, err, models.ErrValidation)
}
