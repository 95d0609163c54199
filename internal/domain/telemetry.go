package domain

import "sort"

// Record is a single telemetry observation reported by a serving region.
type Record struct {
	Region    string
	LatencyMS float64
	Uptime    float64
}

// Dataset is an immutable snapshot of telemetry records, built once at
// startup and shared read-only across requests.
type Dataset struct {
	records []Record
}

// NewDataset copies records into a snapshot. Mutating the input slice
// afterwards does not affect the dataset.
func NewDataset(records []Record) Dataset {
	copied := make([]Record, len(records))
	copy(copied, records)
	return Dataset{records: copied}
}

// Len reports the number of records in the snapshot.
func (d Dataset) Len() int {
	return len(d.records)
}

// Records exposes the snapshot for iteration. Callers must treat the
// returned slice as read-only.
func (d Dataset) Records() []Record {
	return d.records
}

// Regions returns the distinct region identifiers in the snapshot, sorted
// ascending.
func (d Dataset) Regions() []string {
	seen := make(map[string]struct{}, len(d.records))
	regions := make([]string, 0)
	for _, record := range d.records {
		if _, ok := seen[record.Region]; ok {
			continue
		}
		seen[record.Region] = struct{}{}
		regions = append(regions, record.Region)
	}
	sort.Strings(regions)
	return regions
}
