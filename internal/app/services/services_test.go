package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/enrollment/internal/app/migrations"
	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/app/repositories"
	"github.com/yigit/enrollment/internal/db"
	"github.com/yigit/enrollment/internal/pkg/cache"
	"github.com/yigit/enrollment/internal/pkg/schedule"
)

type testEnv struct {
	gateway     repositories.Gateway
	store       cache.Store
	cache       *OfferingCache
	ledger      *CapacityLedger
	enrollments EnrollmentService
	offerings   OfferingService
}

type envOption func(*envConfig)

type envConfig struct {
	open         func(t *testing.T) repositories.Gateway
	store        cache.Store
	countPending bool
	retries      int
	wrap         func(repositories.Gateway) repositories.Gateway
}

func withStore(store cache.Store) envOption {
	return func(c *envConfig) { c.store = store }
}

// withPostgres runs the environment against the database named by
// ENROLLMENT_TEST_POSTGRES_DSN, skipping the test when it is unset.
func withPostgres() envOption {
	return func(c *envConfig) { c.open = openPostgresGateway }
}

func withConfirmedOnlyAtCreation() envOption {
	return func(c *envConfig) { c.countPending = false }
}

func withGateway(wrap func(repositories.Gateway) repositories.Gateway) envOption {
	return func(c *envConfig) { c.wrap = wrap }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{open: openSQLiteGateway, store: cache.NewMemoryStore(), countPending: true, retries: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	gw := cfg.open(t)
	t.Cleanup(func() { _ = gw.Close() })

	var gateway repositories.Gateway = gw
	if cfg.wrap != nil {
		gateway = cfg.wrap(gw)
	}

	logger := zerolog.Nop()
	offeringCache := NewOfferingCache(cfg.store, OfferingCacheConfig{
		KeyPrefix:      "test",
		SnapshotTTL:    60 * time.Second,
		LastVisitedTTL: 120 * time.Second,
	}, logger)
	ledger := NewCapacityLedger(cfg.countPending)

	return &testEnv{
		gateway:     gateway,
		store:       cfg.store,
		cache:       offeringCache,
		ledger:      ledger,
		enrollments: NewEnrollmentService(gateway, ledger, offeringCache, EnrollmentConfig{ConflictRetries: cfg.retries}, logger),
		offerings:   NewOfferingService(gateway, ledger, offeringCache, logger),
	}
}

func openSQLiteGateway(t *testing.T) repositories.Gateway {
	t.Helper()
	gw, err := repositories.OpenSQLiteGateway(context.Background(), filepath.Join(t.TempDir(), "enrollment.db"))
	require.NoError(t, err)
	return gw
}

// openPostgresGateway migrates a throwaway schema and points a pool at it.
func openPostgresGateway(t *testing.T) repositories.Gateway {
	t.Helper()
	dsn := os.Getenv("ENROLLMENT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ENROLLMENT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	schema := "enrollment_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close(context.Background())
	})

	poolConfig, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	poolConfig.ConnConfig.RuntimeParams["search_path"] = schema
	poolConfig.MaxConns = 16
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)
	require.NoError(t, migrations.NewMigrator(pool).Migrate(ctx))

	return repositories.NewPostgresGateway(&db.PostgresDB{Pool: pool})
}

func clockAt(t *testing.T, s string) schedule.Clock {
	t.Helper()
	c, err := schedule.ParseClock(s)
	require.NoError(t, err)
	return c
}

// createOffering creates an active offering through the service.
func (e *testEnv) createOffering(t *testing.T, code string, capacity int, start, end string) *models.Offering {
	t.Helper()
	o, err := e.offerings.Create(context.Background(), &models.Offering{
		Code:     code,
		Name:     "Course " + code,
		Credits:  3,
		Capacity: capacity,
		StartsAt: clockAt(t, start),
		EndsAt:   clockAt(t, end),
	})
	require.NoError(t, err)
	return o
}
