package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"log/slog"

	"github.com/eshopco/telemetry-api/internal/domain"
)

// Result carries the records a provider produced and a label describing
// where they came from.
type Result struct {
	Records []domain.Record
	Source  string
}

// Provider supplies telemetry records from one concrete source.
type Provider interface {
	Name() string
	Load(ctx context.Context) (Result, error)
}

// Load tries providers in order and returns the first successful result.
// Each failure is logged and the chain moves on; when every provider fails
// the caller gets the joined errors instead of a silently substituted
// dataset.
func Load(ctx context.Context, logger *slog.Logger, providers ...Provider) (Result, error) {
	if len(providers) == 0 {
		return Result{}, errors.New("dataset: no providers configured")
	}
	var failures []error
	for _, provider := range providers {
		result, err := provider.Load(ctx)
		if err != nil {
			if logger != nil {
				logger.Warn("dataset provider failed", "provider", provider.Name(), "error", err)
			}
			failures = append(failures, fmt.Errorf("%s: %w", provider.Name(), err))
			continue
		}
		if logger != nil {
			logger.Info("dataset loaded", "provider", provider.Name(), "source", result.Source, "records", len(result.Records))
		}
		return result, nil
	}
	return Result{}, fmt.Errorf("dataset: all providers failed: %w", errors.Join(failures...))
}

// normalize validates records and lowercases region identifiers in place.
// Offending records are reported by index so a bad row in a large file can
// be located.
func normalize(records []domain.Record) ([]domain.Record, error) {
	for i := range records {
		region := strings.ToLower(strings.TrimSpace(records[i].Region))
		if region == "" {
			return nil, fmt.Errorf("record %d: region is required", i)
		}
		if math.IsNaN(records[i].LatencyMS) || math.IsInf(records[i].LatencyMS, 0) {
			return nil, fmt.Errorf("record %d: latency_ms must be finite", i)
		}
		if records[i].LatencyMS < 0 {
			return nil, fmt.Errorf("record %d: latency_ms must be non-negative", i)
		}
		if math.IsNaN(records[i].Uptime) || records[i].Uptime < 0 || records[i].Uptime > 1 {
			return nil, fmt.Errorf("record %d: uptime must be within [0, 1]", i)
		}
		records[i].Region = region
	}
	return records, nil
}
