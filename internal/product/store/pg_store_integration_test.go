package store

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	perrors "github.com/abgdnv/productcatalog/internal/product/errors"
	"github.com/abgdnv/productcatalog/pkg/bootstrap"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "PRODUCT_SKIP_INTEGRATION_TESTS"

// PgStoreSuite is a test suite for the PostgreSQL ProductStore implementation.
type PgStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       *PgStore
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts a PostgreSQL container, applies the embedded migrations and builds the store.
func (s *PgStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. Start a PostgreSQL container and wait until it accepts connections.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("products"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. Connect, retrying while the server finishes its start-up
	for i := range 10 {
		s.logger.Info("Connecting to PostgreSQL", "attempt", i+1)
		s.dbPool, err = bootstrap.NewDbPool(s.ctx, connStr, 5*time.Second)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 4. Database migration
	require.NoError(s.T(), bootstrap.MigrateUp(Migrations, MigrationsDir, connStr), "Failed to apply migrations")
	s.logger.Info("Migrations applied")

	s.store = NewPgStore(s.dbPool)
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *PgStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties the products table and restarts the identity.
func (s *PgStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE products RESTART IDENTITY")
	require.NoError(s.T(), err, "Failed to truncate products table")
}

// TestPgStoreIntegration runs the PgStore integration tests.
func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PgStoreSuite))
}

func (s *PgStoreSuite) TestFindAll_Empty() {
	products, err := s.store.FindAll(s.ctx)

	require.NoError(s.T(), err)
	require.NotNil(s.T(), products)
	assert.Empty(s.T(), products)
}

func (s *PgStoreSuite) TestCreateAndFindAll() {
	idA, err := s.store.Create(s.ctx, "Product 1", 50.0)
	require.NoError(s.T(), err)
	idB, err := s.store.Create(s.ctx, "Product 2", 0)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(1), idA)
	assert.Equal(s.T(), int64(2), idB)

	products, err := s.store.FindAll(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), products, 2)
	assert.Equal(s.T(), Product{ID: idA, Name: "Product 1", Price: 50.0}, products[0])
	assert.Equal(s.T(), Product{ID: idB, Name: "Product 2", Price: 0}, products[1])
}

func (s *PgStoreSuite) TestConcurrentCreates() {
	const workers = 20
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]struct{})
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.store.Create(s.ctx, "Concurrent", float64(i))
			assert.NoError(s.T(), err)
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(s.T(), ids, workers, "every create must get a distinct id")
}

func (s *PgStoreSuite) TestCreate_EmptyNameViolatesConstraint() {
	_, err := s.store.Create(s.ctx, "", 1)

	var storageErr *perrors.StorageError
	require.ErrorAs(s.T(), err, &storageErr)
}

func (s *PgStoreSuite) TestPing() {
	require.NoError(s.T(), s.store.Ping(s.ctx))
}
