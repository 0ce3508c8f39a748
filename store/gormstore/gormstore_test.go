package gormstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"metahire/models"
	"metahire/store"
	"metahire/store/storetest"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory(context.Background(), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openSQLite(t)
	})
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)", sqliteDSN(":memory:"))
	assert.Equal(t, "crm.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("crm.db"))
	assert.Equal(t, "file:crm.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:crm.db?mode=rwc"))
}

func TestOnDiskPersists(t *testing.T) {
	path := t.TempDir() + "/crm.db"
	s, err := OpenSQLite(path, logger.Silent)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))

	lead := storetest.Fixtures{T: t, Store: s}.Lead(nil, nil)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path, logger.Silent)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Leads().FindByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.FirstName, got.FirstName)
}

func TestUnconditionalDeleteRefused(t *testing.T) {
	s := openSQLite(t)
	_, err := s.Leads().Delete(context.Background(), store.All())
	assert.ErrorIs(t, err, errUnconditionalDelete)
}

func TestMemoryDatabasesArePrivate(t *testing.T) {
	a, b := openSQLite(t), openSQLite(t)
	storetest.Fixtures{T: t, Store: a}.Lead(nil, nil)

	n, err := b.Leads().Count(context.Background(), store.All())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAtomicRollbackKeepsOtherWrites(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	failed := errors.New("batch failed")

	done := make(chan error, 1)
	err := s.Atomic(ctx, func(tx store.Store) error {
		if err := tx.Leads().Insert(ctx, &models.Lead{FirstName: "Rolled", LastName: "Back"}); err != nil {
			return err
		}
		// Blocks on the single connection until the transaction ends.
		go func() {
			done <- s.Leads().Insert(ctx, &models.Lead{FirstName: "Kept", LastName: "Write"})
		}()
		return failed
	})
	require.ErrorIs(t, err, failed)
	require.NoError(t, <-done)

	leads, err := s.Leads().FindWhere(ctx, store.All())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Kept", leads[0].FirstName)
}

func TestAtomicNested(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx store.Store) error {
		return tx.Atomic(ctx, func(inner store.Store) error {
			return inner.Leads().Insert(ctx, &models.Lead{FirstName: "Nested", LastName: "Lead"})
		})
	})
	require.NoError(t, err)

	n, err := s.Leads().Count(ctx, store.All())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
