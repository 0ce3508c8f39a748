package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metahire/models"
	"metahire/store"
)

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	in := newStaffAccount()
	profile, err := env.svc.Auth.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, profile.Role)

	_, err = env.svc.Auth.Register(ctx, in)
	assert.True(t, IsConflict(err))

	_, err = env.svc.Auth.Login(ctx, in.Email, "wrong-password")
	assert.True(t, IsUnauthorized(err))
	_, err = env.svc.Auth.Login(ctx, "nobody@example.com", in.Password)
	assert.True(t, IsUnauthorized(err))

	res, err := env.svc.Auth.Login(ctx, " "+in.Email+" ", in.Password)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, profile.ID, res.Profile.ID)

	got, sess, err := env.svc.Auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)
	assert.Equal(t, res.Session.ID, sess.ID)
	assert.True(t, CallerFor(got).IsStaff())

	require.NoError(t, env.svc.Auth.Logout(ctx, sess.ID))
	_, _, err = env.svc.Auth.Authenticate(ctx, res.Token)
	assert.True(t, IsUnauthorized(err))

	_, _, err = env.svc.Auth.Authenticate(ctx, "not-a-token")
	assert.True(t, IsUnauthorized(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.LoginAttempts.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.LoginAttempts.WithLabelValues("failure")))
}

func TestAuthenticateUsesCurrentRole(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	in := newStaffAccount()
	profile, err := env.svc.Auth.Register(ctx, in)
	require.NoError(t, err)
	res, err := env.svc.Auth.Login(ctx, in.Email, in.Password)
	require.NoError(t, err)

	profile.Role = models.RoleSuperadmin
	require.NoError(t, env.store.Profiles().Update(ctx, profile))
	got, _, err := env.svc.Auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, CallerFor(got).IsSuperadmin())

	_, err = env.store.Profiles().Delete(ctx, store.Where("id", profile.ID))
	require.NoError(t, err)
	_, _, err = env.svc.Auth.Authenticate(ctx, res.Token)
	assert.True(t, IsUnauthorized(err))
}

func TestEnsureSuperadmin(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	in := NewAccount{Email: "Owner@Example.com", Password: "change-me", FullName: "Owner"}
	created, err := env.svc.Auth.EnsureSuperadmin(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, created.Role)

	again, err := env.svc.Auth.EnsureSuperadmin(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	staffIn := newStaffAccount()
	staff, err := env.svc.Auth.Register(ctx, staffIn)
	require.NoError(t, err)
	promoted, err := env.svc.Auth.EnsureSuperadmin(ctx, staffIn)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, promoted.ID)
	assert.Equal(t, models.RoleSuperadmin, promoted.Role)

	_, err = env.svc.Auth.Login(ctx, in.Email, in.Password)
	require.NoError(t, err)
}
