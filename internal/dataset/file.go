package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eshopco/telemetry-api/internal/domain"
)

// FileProvider loads records from the first readable file in an ordered
// list of candidate paths. JSON and YAML are supported, chosen by file
// extension.
type FileProvider struct {
	paths []string
}

// NewFileProvider builds a provider probing the given paths in order.
func NewFileProvider(paths ...string) *FileProvider {
	return &FileProvider{paths: paths}
}

// fileRecord mirrors a record on disk. A timestamp field is accepted for
// compatibility with exported datasets and discarded.
type fileRecord struct {
	Region    string  `json:"region" yaml:"region"`
	LatencyMS float64 `json:"latency_ms" yaml:"latency_ms"`
	Uptime    float64 `json:"uptime" yaml:"uptime"`
	Timestamp string  `json:"timestamp" yaml:"timestamp"`
}

func (p *FileProvider) Name() string { return "file" }

// Load probes each candidate path. An unreadable path moves the probe
// along; a readable file that fails to parse or validate aborts the load
// so a corrupt dataset is never papered over by a later candidate.
func (p *FileProvider) Load(ctx context.Context) (Result, error) {
	if len(p.paths) == 0 {
		return Result{}, errors.New("no candidate paths configured")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	var probeErrs []error
	for _, path := range p.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			probeErrs = append(probeErrs, err)
			continue
		}
		records, err := decodeRecords(path, data)
		if err != nil {
			return Result{}, fmt.Errorf("parse %s: %w", path, err)
		}
		normalized, err := normalize(records)
		if err != nil {
			return Result{}, fmt.Errorf("validate %s: %w", path, err)
		}
		return Result{Records: normalized, Source: "file:" + path}, nil
	}
	return Result{}, fmt.Errorf("no readable dataset file: %w", errors.Join(probeErrs...))
}

func decodeRecords(path string, data []byte) ([]domain.Record, error) {
	var raw []fileRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	records := make([]domain.Record, len(raw))
	for i, r := range raw {
		records[i] = domain.Record{Region: r.Region, LatencyMS: r.LatencyMS, Uptime: r.Uptime}
	}
	return records, nil
}
