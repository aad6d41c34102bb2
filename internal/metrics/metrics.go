package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ReportsStored is the number of reports in the database after the last write.
	ReportsStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "problempad",
		Subsystem: "api",
		Name:      "reports_stored",
		Help:      "Number of reports currently stored.",
	})

	// ReportWritesTotal counts write requests by operation and result.
	ReportWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "problempad",
		Subsystem: "api",
		Name:      "report_writes_total",
		Help:      "Total report write operations, labeled by operation (create, replace, delete) and result.",
	}, []string{"op", "result"})

	// ExportTasksTotal counts workbook export tasks by kind and result.
	ExportTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "problempad",
		Subsystem: "export",
		Name:      "tasks_total",
		Help:      "Total workbook export tasks, labeled by kind (append, rebuild) and result.",
	}, []string{"kind", "result"})

	// ExportDurationSeconds is the time spent writing the workbook per task.
	ExportDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "problempad",
		Subsystem: "export",
		Name:      "duration_seconds",
		Help:      "Time to write the workbook for one export task.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	// SSEClients is the number of connected event stream clients.
	SSEClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "problempad",
		Subsystem: "events",
		Name:      "clients",
		Help:      "Number of connected report event stream clients.",
	})
)

// Register registers the server metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsStored,
			ReportWritesTotal,
			ExportTasksTotal,
			ExportDurationSeconds,
			SSEClients,
		)
	})
}

// Result turns an error into a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
