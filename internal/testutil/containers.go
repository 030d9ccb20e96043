// Package testutil starts throwaway Postgres and Redis containers for
// integration tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"

	"go-market/internal/db"
)

const containerTTL = 10 * time.Minute

// ErrNoDocker is returned when no Docker daemon is reachable.
var ErrNoDocker = errors.New("docker is not available")

type Postgres struct {
	DB       *db.Database
	pool     *dockertest.Pool
	resource *dockertest.Resource
}

func newPool() (*dockertest.Pool, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocker, err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDocker, err)
	}
	pool.MaxWait = 2 * time.Minute
	return pool, nil
}

func hostConfig(config *docker.HostConfig) {
	config.AutoRemove = true
	config.RestartPolicy = docker.RestartPolicy{Name: "no"}
}

// StartPostgres runs postgres, connects and migrates the schema.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	pool, err := newPool()
	if err != nil {
		return nil, err
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=market",
			"POSTGRES_PASSWORD=market",
			"POSTGRES_DB=market_test",
		},
	}, hostConfig)
	if err != nil {
		return nil, fmt.Errorf("could not start postgres: %w", err)
	}
	_ = resource.Expire(uint(containerTTL.Seconds()))

	dsn := fmt.Sprintf("postgres://market:market@%s/market_test?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var database *db.Database
	if err := pool.Retry(func() error {
		var errRetry error
		database, errRetry = db.NewDatabase(ctx, dsn)
		return errRetry
	}); err != nil {
		_ = pool.Purge(resource)
		return nil, fmt.Errorf("could not connect to postgres: %w", err)
	}

	if err := database.AutoMigrate(ctx); err != nil {
		_ = database.Close()
		_ = pool.Purge(resource)
		return nil, err
	}
	return &Postgres{DB: database, pool: pool, resource: resource}, nil
}

// Reset empties every table between tests.
func (p *Postgres) Reset(ctx context.Context) error {
	_, err := p.DB.Conn.ExecContext(ctx, `TRUNCATE favorites, messages, listings RESTART IDENTITY`)
	return err
}

func (p *Postgres) Close() {
	_ = p.DB.Close()
	_ = p.pool.Purge(p.resource)
}

// StartRedis runs redis and returns a connected client and a cleanup func.
func StartRedis(ctx context.Context) (*redis.Client, func(), error) {
	pool, err := newPool()
	if err != nil {
		return nil, nil, err
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, hostConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("could not start redis: %w", err)
	}
	_ = resource.Expire(uint(containerTTL.Seconds()))

	client := redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
	if err := pool.Retry(func() error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = pool.Purge(resource)
		return nil, nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	return client, func() {
		_ = client.Close()
		_ = pool.Purge(resource)
	}, nil
}
