package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alchemy-game-studios/game-planner/internal/util"
	"github.com/alchemy-game-studios/game-planner/pkg/cache"
	"github.com/alchemy-game-studios/game-planner/pkg/leaselock"
	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	"github.com/alchemy-game-studios/game-planner/pkg/store/memory"
	neo4jstore "github.com/alchemy-game-studios/game-planner/pkg/store/neo4j"
	pgstore "github.com/alchemy-game-studios/game-planner/pkg/store/pgx"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var ErrUnknownBackend = errors.New("unknown backend")

const seedLockKey = "canon:seed-import"

// Backend holds the opened graph and cache plus what is needed to probe and
// close them.
type Backend struct {
	Graph   store.GraphStorage
	Cache   cache.Store
	checks  []func(context.Context) error
	closers []func()
}

// Ready runs every registered health probe.
func (b *Backend) Ready(ctx context.Context) error {
	for _, check := range b.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources in reverse opening order.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// OpenBackend builds the graph selected by GRAPH_BACKEND and the cache
// selected by CACHE_BACKEND.
func OpenBackend(ctx context.Context) (*Backend, error) {
	b := &Backend{}
	if err := b.openGraph(ctx, util.GetEnvString("GRAPH_BACKEND", "memory")); err != nil {
		b.Close()
		return nil, err
	}
	c, err := b.openCache(ctx, util.GetEnvString("CACHE_BACKEND", "memory"))
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Cache = c
	return b, nil
}

// OpenCache builds only the cache, for processes that never read the graph.
func OpenCache(ctx context.Context) (*Backend, error) {
	b := &Backend{}
	c, err := b.openCache(ctx, util.GetEnvString("CACHE_BACKEND", "memory"))
	if err != nil {
		b.Close()
		return nil, err
	}
	b.Cache = c
	return b, nil
}

func (b *Backend) openGraph(ctx context.Context, kind string) error {
	seedFile := util.GetEnv("GRAPH_SEED_FILE")

	switch kind {
	case "memory":
		if seedFile == "" {
			logger.Info("[Server][Backend] No seed file, serving the demo canon")
			b.Graph = memory.Demo()
			return nil
		}
		g, err := memory.LoadFile(seedFile)
		if err != nil {
			return err
		}
		b.Graph = g
		return nil

	case "neo4j":
		database := util.GetEnv("NEO4J_DATABASE")
		driver, err := neo4jstore.Connect(ctx, neo4jstore.Params{
			URI:      util.GetEnvString("NEO4J_URI", "neo4j://localhost:7687"),
			User:     util.GetEnvString("NEO4J_USER", "neo4j"),
			Password: util.GetEnv("NEO4J_PASSWORD"),
			Database: database,
		})
		if err != nil {
			return err
		}
		b.closers = append(b.closers, func() { driver.Close(context.Background()) })
		b.checks = append(b.checks, driver.VerifyConnectivity)
		if err := neo4jstore.EnsureConstraints(ctx, driver, database); err != nil {
			return fmt.Errorf("failed to create neo4j constraints: %w", err)
		}
		g := neo4jstore.New(driver, database)
		b.Graph = g
		return importSeed(ctx, g, seedFile)

	case "postgres":
		dbURL := util.GetEnv("DATABASE_URL")
		if util.GetEnvBool("DB_MIGRATE", false) {
			if err := runMigrations(util.GetEnvString("MIGRATIONS_PATH", "file://migrations"), dbURL); err != nil {
				return err
			}
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.checks = append(b.checks, pool.Ping)
		g := pgstore.NewGraphDBStorageWithConnection(pool,
			pgstore.WithBatchSize(util.GetEnvInt("GRAPH_BATCH_SIZE", 500)))
		b.Graph = g
		if seedFile == "" {
			return nil
		}
		// Instances starting together import the seed one at a time.
		opts := leaselock.Options{TTL: 2 * time.Minute, Wait: true, WaitJitter: 250 * time.Millisecond}
		return leaselock.New(pool).WithLease(ctx, seedLockKey, opts, func(ctx context.Context) error {
			return importSeed(ctx, g, seedFile)
		})
	}
	return fmt.Errorf("%w: GRAPH_BACKEND=%q", ErrUnknownBackend, kind)
}

func (b *Backend) openCache(ctx context.Context, kind string) (cache.Store, error) {
	switch kind {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cache.RedisParams{
			Addr:     util.GetEnvString("REDIS_ADDR", "localhost:6379"),
			Password: util.GetEnv("REDIS_PASSWORD"),
			DB:       util.GetEnvInt("REDIS_DB", 0),
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.checks = append(b.checks, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		return cache.NewRedisStore(client), nil
	}
	return nil, fmt.Errorf("%w: CACHE_BACKEND=%q", ErrUnknownBackend, kind)
}

func importSeed(ctx context.Context, importer store.Importer, path string) error {
	if path == "" {
		return nil
	}
	seed, err := store.ReadSeedFile(path)
	if err != nil {
		return err
	}
	return importer.Import(ctx, seed)
}

func runMigrations(source, dbURL string) error {
	m, err := migrate.New(source, dbURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("[Server][Backend] Migrations applied", "source", source)
	return nil
}
