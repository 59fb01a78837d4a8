package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// gNB-specific metrics
var (
	GNBConnectedUEs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gnb_connected_ues",
			Help: "Number of UE associations currently tracked by this gNB",
		},
	)

	GNBNGAPProcedures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gnb_ngap_procedures_total",
			Help: "Total number of NGAP procedures handled, by procedure and result",
		},
		[]string{"procedure", "result"},
	)

	GNBAMFConnectionUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gnb_amf_connection_up",
			Help: "1 if the last AMF heartbeat succeeded, 0 otherwise",
		},
	)
)

// SetGNBConnectedUEs sets the count of UE associations tracked by this gNB.
func SetGNBConnectedUEs(count int) {
	GNBConnectedUEs.Set(float64(count))
}

// RecordGNBNGAPProcedure records one NGAP procedure outcome.
func RecordGNBNGAPProcedure(procedure, result string) {
	GNBNGAPProcedures.WithLabelValues(procedure, result).Inc()
}

// SetGNBAMFConnectionUp records whether the last AMF heartbeat succeeded.
func SetGNBAMFConnectionUp(up bool) {
	if up {
		GNBAMFConnectionUp.Set(1)
	} else {
		GNBAMFConnectionUp.Set(0)
	}
}
