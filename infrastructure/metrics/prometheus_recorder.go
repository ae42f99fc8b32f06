package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qctracker/models"
)

var allStatuses = []models.QCStatus{
	models.StatusPending,
	models.StatusLevel1Complete,
	models.StatusLevel2Complete,
	models.StatusCompleted,
}

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	operations        *prometheus.CounterVec
	persistenceErrors *prometheus.CounterVec
	shipments         *prometheus.GaugeVec
}

// NewPrometheusRecorder registers the QC collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qctracker",
			Name:      "operations_total",
			Help:      "QC operations by kind and outcome.",
		}, []string{"operation", "result"}),
		persistenceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qctracker",
			Name:      "persistence_errors_total",
			Help:      "Failed reads and writes against the store.",
		}, []string{"operation"}),
		shipments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "qctracker",
			Name:      "shipments",
			Help:      "Shipments in the live collection by QC status.",
		}, []string{"status"}),
	}
	reg.MustRegister(r.operations, r.persistenceErrors, r.shipments)
	return r
}

func (r *PrometheusRecorder) IncOperation(op string, result ResultLabel) {
	r.operations.WithLabelValues(op, string(result)).Inc()
}

func (r *PrometheusRecorder) IncPersistenceError(op string) {
	r.persistenceErrors.WithLabelValues(op).Inc()
}

func (r *PrometheusRecorder) SetShipmentsByStatus(counts map[models.QCStatus]int) {
	for _, status := range allStatuses {
		r.shipments.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

// Handler exposes the collectors of g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
