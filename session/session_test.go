package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metahire/models"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testProfile() *models.Profile {
	return &models.Profile{
		Base:  models.Base{ID: "7d0d7a39-4b7f-4d7e-9a83-0b8bb3d6f3a1"},
		Email: "staff@example.com",
		Role:  models.RoleStaff,
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	s := &Session{ID: "abc", ProfileID: "p1", Email: "a@example.com", Role: models.RoleStaff}
	require.NoError(t, store.Save(ctx, s, time.Minute))
	assert.True(t, mr.Exists("session:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ProfileID)
	assert.Equal(t, models.RoleStaff, got.Role)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "gone"}, time.Minute))
	require.NoError(t, store.Delete(ctx, "gone"))
	_, err := store.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "x"}, time.Minute))
	_, err := store.Get(ctx, "x")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerLifecycle(t *testing.T) {
	_, client := setupTestRedis(t)
	m := NewManager(NewRedisStore(client), "test-secret", time.Hour)
	ctx := context.Background()

	token, s, err := m.Create(ctx, testProfile())
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	got, err := m.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "staff@example.com", got.Email)

	require.NoError(t, m.Destroy(ctx, s.ID))
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerRejectsForeignTokens(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	issuer := NewManager(store, "secret-a", time.Hour)
	other := NewManager(store, "secret-b", time.Hour)

	token, _, err := issuer.Create(ctx, testProfile())
	require.NoError(t, err)

	_, err = other.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Resolve(ctx, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManagerRejectsExpiredTokens(t *testing.T) {
	m := NewManager(NewMemoryStore(), "secret", time.Minute)
	ctx := context.Background()

	token, _, err := m.Create(ctx, testProfile())
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
