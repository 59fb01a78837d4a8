package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// gNB-CU-specific metrics
var (
	CUConnectedUEs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cu_connected_ues",
			Help: "Number of UE associations currently tracked by this CU",
		},
	)

	CUF1APProcedures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cu_f1ap_procedures_total",
			Help: "Total number of F1AP procedures handled, by procedure and result",
		},
		[]string{"procedure", "result"},
	)
)

// SetCUConnectedUEs sets the count of UE associations tracked by this CU.
func SetCUConnectedUEs(count int) {
	CUConnectedUEs.Set(float64(count))
}

// RecordCUF1APProcedure records one F1AP procedure outcome.
func RecordCUF1APProcedure(procedure, result string) {
	CUF1APProcedures.WithLabelValues(procedure, result).Inc()
}
