package artifact

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is an optional in-process recorder for compress and query
// operations. It registers on its own private registry; callers that want
// the gauges scraped can Gather from Registry themselves. Nothing here
// serves HTTP.
type Metrics struct {
	Registry *prometheus.Registry

	CompressOps    prometheus.Counter
	QueryOps       prometheus.Counter
	BytesIn        prometheus.Counter
	BytesOut       prometheus.Counter
	ColumnsDecoded prometheus.Counter
	LinesSkipped   prometheus.Counter
}

// NewMetrics creates a recorder with all counters registered.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		CompressOps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logpress_compress_operations_total",
			Help: "Completed compression runs.",
		}),
		QueryOps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logpress_query_operations_total",
			Help: "Completed query evaluations.",
		}),
		BytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logpress_input_bytes_total",
			Help: "Raw log bytes ingested.",
		}),
		BytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logpress_artifact_bytes_total",
			Help: "Artifact bytes produced.",
		}),
		ColumnsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logpress_columns_decoded_total",
			Help: "Column blocks materialized by queries.",
		}),
		LinesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logpress_lines_skipped_total",
			Help: "Input lines skipped as unreadable.",
		}),
	}
	reg.MustRegister(m.CompressOps, m.QueryOps, m.BytesIn, m.BytesOut, m.ColumnsDecoded, m.LinesSkipped)

	return m
}
