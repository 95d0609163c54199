package dataset

import (
	"context"

	"github.com/eshopco/telemetry-api/internal/domain"
)

// EmbeddedProvider serves the reference dataset compiled into the binary.
// It never fails, which makes it the terminal entry of a provider chain.
type EmbeddedProvider struct{}

func (EmbeddedProvider) Name() string { return "embedded" }

func (EmbeddedProvider) Load(_ context.Context) (Result, error) {
	records := make([]domain.Record, len(embeddedRecords))
	copy(records, embeddedRecords)
	return Result{Records: records, Source: "embedded"}, nil
}

var embeddedRecords = []domain.Record{
	{Region: "apac", LatencyMS: 132.85, Uptime: 0.98216},
	{Region: "apac", LatencyMS: 158.65, Uptime: 0.98449},
	{Region: "apac", LatencyMS: 210.02, Uptime: 0.97439},
	{Region: "apac", LatencyMS: 175.03, Uptime: 0.9888},
	{Region: "apac", LatencyMS: 156.38, Uptime: 0.97809},
	{Region: "apac", LatencyMS: 169.18, Uptime: 0.98332},
	{Region: "apac", LatencyMS: 167.93, Uptime: 0.98236},
	{Region: "apac", LatencyMS: 113.83, Uptime: 0.98592},
	{Region: "apac", LatencyMS: 177.43, Uptime: 0.99437},
	{Region: "apac", LatencyMS: 203.85, Uptime: 0.99137},
	{Region: "apac", LatencyMS: 219.17, Uptime: 0.98774},
	{Region: "apac", LatencyMS: 184.01, Uptime: 0.99043},
	{Region: "emea", LatencyMS: 215.32, Uptime: 0.97201},
	{Region: "emea", LatencyMS: 165.35, Uptime: 0.98221},
	{Region: "emea", LatencyMS: 113.86, Uptime: 0.98619},
	{Region: "emea", LatencyMS: 152.11, Uptime: 0.98282},
	{Region: "emea", LatencyMS: 189.73, Uptime: 0.9713},
	{Region: "emea", LatencyMS: 122.49, Uptime: 0.97366},
	{Region: "emea", LatencyMS: 180.42, Uptime: 0.97796},
	{Region: "emea", LatencyMS: 149.34, Uptime: 0.98406},
	{Region: "emea", LatencyMS: 190.12, Uptime: 0.98774},
	{Region: "emea", LatencyMS: 209.3, Uptime: 0.98798},
	{Region: "emea", LatencyMS: 199.34, Uptime: 0.98362},
	{Region: "emea", LatencyMS: 132.64, Uptime: 0.9851},
	{Region: "amer", LatencyMS: 130.38, Uptime: 0.97866},
	{Region: "amer", LatencyMS: 155.75, Uptime: 0.97379},
	{Region: "amer", LatencyMS: 207.35, Uptime: 0.98876},
	{Region: "amer", LatencyMS: 116.86, Uptime: 0.97658},
	{Region: "amer", LatencyMS: 146.43, Uptime: 0.98099},
	{Region: "amer", LatencyMS: 206.86, Uptime: 0.9869},
	{Region: "amer", LatencyMS: 174.05, Uptime: 0.99031},
	{Region: "amer", LatencyMS: 139.62, Uptime: 0.97104},
	{Region: "amer", LatencyMS: 135.89, Uptime: 0.98546},
	{Region: "amer", LatencyMS: 168.0, Uptime: 0.98838},
	{Region: "amer", LatencyMS: 112.87, Uptime: 0.99292},
	{Region: "amer", LatencyMS: 152.29, Uptime: 0.98653},
}
