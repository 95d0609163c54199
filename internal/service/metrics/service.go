package metrics

import (
	"github.com/eshopco/telemetry-api/internal/domain"
)

// Service answers region statistics queries over a dataset snapshot.
type Service struct {
	dataset domain.Dataset
	opts    Options
}

// New constructs a Service bound to the given snapshot.
func New(dataset domain.Dataset, opts Options) Service {
	return Service{dataset: dataset, opts: opts}
}

// RegionMetrics computes aggregate statistics for each requested region
// against the configured latency threshold.
func (s Service) RegionMetrics(regions []string, thresholdMS int) map[string]RegionMetrics {
	return Compute(s.dataset, regions, thresholdMS, s.opts)
}

// Regions lists the distinct region identifiers present in the dataset.
func (s Service) Regions() []string {
	return s.dataset.Regions()
}

// DatasetSize reports how many records back the service.
func (s Service) DatasetSize() int {
	return s.dataset.Len()
}
