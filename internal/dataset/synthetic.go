package dataset

import (
	"context"
	"math/rand"
	"time"

	"github.com/eshopco/telemetry-api/internal/domain"
)

// SyntheticProvider generates a seeded random dataset for development. It
// is never part of a fallback chain; selecting it is an explicit
// configuration choice.
type SyntheticProvider struct {
	regions   []string
	perRegion int
	seed      int64
}

// NewSyntheticProvider builds a generator. Zero or missing arguments fall
// back to the reference regions, twelve records per region, and a
// time-based seed.
func NewSyntheticProvider(regions []string, perRegion int, seed int64) *SyntheticProvider {
	if len(regions) == 0 {
		regions = []string{"amer", "emea", "apac"}
	}
	if perRegion <= 0 {
		perRegion = 12
	}
	return &SyntheticProvider{regions: regions, perRegion: perRegion, seed: seed}
}

func (p *SyntheticProvider) Name() string { return "synthetic" }

func (p *SyntheticProvider) Load(_ context.Context) (Result, error) {
	seed := p.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	random := rand.New(rand.NewSource(seed))
	records := make([]domain.Record, 0, len(p.regions)*p.perRegion)
	for _, region := range p.regions {
		for i := 0; i < p.perRegion; i++ {
			records = append(records, domain.Record{
				Region:    region,
				LatencyMS: 80 + random.Float64()*170,
				Uptime:    0.95 + random.Float64()*0.05,
			})
		}
	}
	normalized, err := normalize(records)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: normalized, Source: "synthetic"}, nil
}
