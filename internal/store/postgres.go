// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

// Package store provides PostgreSQL connectivity and schema management.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// connectTimeout bounds the whole connect-and-ping sequence, including
// backoff while the database is still coming up.
const connectTimeout = 30 * time.Second

// Connect opens a pgx connection pool and pings it until the database
// answers, with fibonacci backoff. Per-request operations are never
// retried; this only smooths over the database starting after us.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	backoff := retry.NewFibonacci(500 * time.Millisecond)
	backoff = retry.WithMaxDuration(connectTimeout, backoff)

	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			slog.Debug("database not ready, retrying", "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	}); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}

	return pool, nil
}
