// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the global connection pool. While nil, result persistence is
// disabled and finished games are only broadcast, never stored.
var DB *pgxpool.Pool

// ConnectDB connects the global pool from the POSTGRES_*/PG_* environment
// variables. An unset PG_HOST leaves persistence disabled.
func ConnectDB(logger *logrus.Logger) error {
	host := os.Getenv("PG_HOST")
	if host == "" {
		logger.Info("PG_HOST not set, result persistence disabled")
		return nil
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("db ping error: %w", err)
	}

	DB = pool
	logger.Infof("Connected to database at %s:%s", host, os.Getenv("PG_PORT"))
	return nil
}
