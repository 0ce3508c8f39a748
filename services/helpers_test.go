package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"metahire/metrics"
	"metahire/models"
	"metahire/session"
	"metahire/store"
	"metahire/store/gormstore"
	"metahire/store/storetest"
)

var errStoreDown = errors.New("store unavailable")

type testEnv struct {
	store    *gormstore.Store
	fx       storetest.Fixtures
	svc      *Services
	metrics  *metrics.Metrics
	sessions *session.Manager
	admin    *models.Profile
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestEnv builds the services over a fresh in-memory sqlite database. wrap, when
// given, decorates the store the services see; fixtures always write to the
// undecorated store.
func newTestEnv(t *testing.T, wrap func(store.Store) store.Store) *testEnv {
	t.Helper()
	st, err := gormstore.OpenMemory(context.Background(), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var svcStore store.Store = st
	if wrap != nil {
		svcStore = wrap(st)
	}

	m := metrics.New(prometheus.NewRegistry())
	sessions := session.NewManager(session.NewMemoryStore(), "test-secret", time.Hour)
	svc := New(svcStore, sessions, m, quietLogger(), Options{
		Hasher:      PasswordHasher{Cost: bcrypt.MinCost},
		PhoneRegion: "US",
	})

	fx := storetest.Fixtures{T: t, Store: st}
	return &testEnv{
		store:    st,
		fx:       fx,
		svc:      svc,
		metrics:  m,
		sessions: sessions,
		admin:    fx.Profile(models.RoleSuperadmin),
	}
}

func (e *testEnv) superadmin() Caller {
	return Superadmin(e.admin.ID)
}

func (e *testEnv) count(t *testing.T, n func(ctx context.Context) (int64, error)) int64 {
	t.Helper()
	got, err := n(context.Background())
	require.NoError(t, err)
	return got
}

func (e *testEnv) customers(t *testing.T) int64 {
	return e.count(t, func(ctx context.Context) (int64, error) {
		return e.store.Customers().Count(ctx, store.All())
	})
}

func (e *testEnv) history(t *testing.T, leadID string) int64 {
	return e.count(t, func(ctx context.Context) (int64, error) {
		return e.store.History().Count(ctx, store.Where("lead_id", leadID))
	})
}

// faultyRepo fails selected operations of an underlying repository.
type faultyRepo[T any] struct {
	store.Repository[T]
	failInsert func() bool
	failReads  bool
}

func (r faultyRepo[T]) Insert(ctx context.Context, rows ...*T) error {
	if r.failInsert != nil && r.failInsert() {
		return errStoreDown
	}
	return r.Repository.Insert(ctx, rows...)
}

func (r faultyRepo[T]) FindWhere(ctx context.Context, f store.Filter) ([]T, error) {
	if r.failReads {
		return nil, errStoreDown
	}
	return r.Repository.FindWhere(ctx, f)
}

func (r faultyRepo[T]) Count(ctx context.Context, f store.Filter) (int64, error) {
	if r.failReads {
		return 0, errStoreDown
	}
	return r.Repository.Count(ctx, f)
}

// faultyStore injects failures into a store, including the stores handed to
// Atomic callbacks.
type faultyStore struct {
	store.Store
	customerInsert  func() bool
	leadInsert      func() bool
	assignmentsDown bool
}

func (s *faultyStore) Customers() store.Repository[models.Customer] {
	return faultyRepo[models.Customer]{Repository: s.Store.Customers(), failInsert: s.customerInsert}
}

func (s *faultyStore) Leads() store.Repository[models.Lead] {
	return faultyRepo[models.Lead]{Repository: s.Store.Leads(), failInsert: s.leadInsert}
}

func (s *faultyStore) Assignments() store.Repository[models.CampaignAssignment] {
	return faultyRepo[models.CampaignAssignment]{Repository: s.Store.Assignments(), failReads: s.assignmentsDown}
}

func (s *faultyStore) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.Atomic(ctx, func(tx store.Store) error {
		inner := *s
		inner.Store = tx
		return fn(&inner)
	})
}

func always() bool { return true }

// failOnCall returns a predicate that is true only on the nth call.
func failOnCall(n int) func() bool {
	calls := 0
	return func() bool {
		calls++
		return calls == n
	}
}
