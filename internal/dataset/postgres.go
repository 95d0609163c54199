package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eshopco/telemetry-api/internal/domain"
)

const postgresLoadTimeout = 10 * time.Second

// PostgresProvider reads the telemetry_samples table once. The pool is
// closed after the read; the service never writes back.
type PostgresProvider struct {
	databaseURL string
}

// NewPostgresProvider builds a provider for the given connection string.
func NewPostgresProvider(databaseURL string) *PostgresProvider {
	return &PostgresProvider{databaseURL: strings.TrimSpace(databaseURL)}
}

func (p *PostgresProvider) Name() string { return "postgres" }

func (p *PostgresProvider) Load(ctx context.Context) (Result, error) {
	if p.databaseURL == "" {
		return Result{}, errors.New("database url not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, postgresLoadTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, p.databaseURL)
	if err != nil {
		return Result{}, fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return Result{}, fmt.Errorf("ping: %w", err)
	}

	rows, err := pool.Query(ctx, `SELECT region, latency_ms, uptime FROM telemetry_samples ORDER BY id`)
	if err != nil {
		return Result{}, fmt.Errorf("query telemetry_samples: %w", err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0)
	for rows.Next() {
		var record domain.Record
		if err := rows.Scan(&record.Region, &record.LatencyMS, &record.Uptime); err != nil {
			return Result{}, fmt.Errorf("scan telemetry_samples: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("read telemetry_samples: %w", err)
	}

	normalized, err := normalize(records)
	if err != nil {
		return Result{}, fmt.Errorf("validate telemetry_samples: %w", err)
	}
	return Result{Records: normalized, Source: "postgres"}, nil
}
