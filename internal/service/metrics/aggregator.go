package metrics

import (
	"math"
	"sort"
	"strings"

	"github.com/eshopco/telemetry-api/internal/domain"
)

// RegionMetrics is the aggregate statistics payload for one region.
type RegionMetrics struct {
	AvgLatency float64 `json:"avg_latency"`
	P95Latency float64 `json:"p95_latency"`
	AvgUptime  float64 `json:"avg_uptime"`
	Breaches   int     `json:"breaches"`
}

// Options controls how requested region identifiers are matched against
// stored records.
type Options struct {
	// CaseSensitive switches matching to exact comparison. The zero value
	// compares identifiers case-insensitively.
	CaseSensitive bool
}

// Compute derives aggregate statistics for every requested region. Each
// identifier in regions becomes a key in the result, spelled exactly as
// requested; duplicates collapse into one entry. A region with no matching
// records yields the zero RegionMetrics, distinguishing "no data" from a
// measured zero.
func Compute(dataset domain.Dataset, regions []string, thresholdMS int, opts Options) map[string]RegionMetrics {
	results := make(map[string]RegionMetrics, len(regions))
	for _, region := range regions {
		results[region] = computeRegion(dataset, region, thresholdMS, opts)
	}
	return results
}

func computeRegion(dataset domain.Dataset, region string, thresholdMS int, opts Options) RegionMetrics {
	match := region
	if !opts.CaseSensitive {
		match = strings.ToLower(region)
	}
	var (
		latencies  []float64
		latencySum float64
		uptimeSum  float64
		breaches   int
	)
	for _, record := range dataset.Records() {
		stored := record.Region
		if !opts.CaseSensitive {
			stored = strings.ToLower(stored)
		}
		if stored != match {
			continue
		}
		latencies = append(latencies, record.LatencyMS)
		latencySum += record.LatencyMS
		uptimeSum += record.Uptime
		if record.LatencyMS > float64(thresholdMS) {
			breaches++
		}
	}
	if len(latencies) == 0 {
		return RegionMetrics{}
	}
	count := float64(len(latencies))
	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)
	return RegionMetrics{
		AvgLatency: round2(latencySum / count),
		P95Latency: round2(percentile(sorted, 0.95)),
		AvgUptime:  round4(uptimeSum / count),
		Breaches:   breaches,
	}
}

// percentile interpolates linearly between the two nearest ranks of the
// sorted sample. values must be sorted ascending.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p <= 0 {
		return values[0]
	}
	if p >= 1 {
		return values[len(values)-1]
	}
	pos := p * float64(len(values)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return values[lower]
	}
	weight := pos - float64(lower)
	return values[lower]*(1-weight) + values[upper]*weight
}

// round2 and round4 round half away from zero at two and four decimal
// places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
