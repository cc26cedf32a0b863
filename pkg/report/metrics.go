package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// RunStats summarises a run for the metrics textfile.
type RunStats struct {
	Results  map[string]int // endpoint count per result status
	Changes  int            // compliance corrections applied
	Duration time.Duration
	Finished time.Time
}

// WriteMetrics writes stats in the Prometheus text format for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteMetrics(path string, stats RunStats) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	for _, mf := range metricFamilies(stats) {
		if _, err := expfmt.MetricFamilyToText(tmp, mf); err != nil {
			tmp.Close()
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func metricFamilies(stats RunStats) []*dto.MetricFamily {
	results := make([]string, 0, len(stats.Results))
	for r := range stats.Results {
		results = append(results, r)
	}
	sort.Strings(results)

	endpoints := &dto.MetricFamily{
		Name: proto.String("epaudit_endpoints"),
		Help: proto.String("Endpoints processed in the last run by result."),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, r := range results {
		endpoints.Metric = append(endpoints.Metric, &dto.Metric{
			Label: []*dto.LabelPair{{Name: proto.String("result"), Value: proto.String(r)}},
			Gauge: &dto.Gauge{Value: proto.Float64(float64(stats.Results[r]))},
		})
	}

	return []*dto.MetricFamily{
		endpoints,
		gauge("epaudit_compliance_changes", "Compliance corrections applied in the last run.", float64(stats.Changes)),
		gauge("epaudit_run_duration_seconds", "Wall time of the last run.", stats.Duration.Seconds()),
		gauge("epaudit_last_run_timestamp_seconds", "Unix time the last run finished.", float64(stats.Finished.Unix())),
	}
}

func gauge(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(value)}}},
	}
}
