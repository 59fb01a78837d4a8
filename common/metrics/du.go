package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// gNB-DU-specific metrics
var (
	DUActiveUEs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "du_active_ues",
			Help: "Number of UEs currently tracked by this DU's MAC layer",
		},
	)

	DUF1APProcedures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "du_f1ap_procedures_total",
			Help: "Total number of F1AP procedures handled, by procedure and result",
		},
		[]string{"procedure", "result"},
	)

	DUPRACHDetections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "du_prach_detections_total",
			Help: "Total number of PRACH preambles processed",
		},
	)

	DUHARQRetransmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "du_harq_retransmissions_total",
			Help: "Total number of HARQ NACK-triggered retransmission counts recorded",
		},
	)

	DUSlotsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "du_slots_processed_total",
			Help: "Total number of PHY slot ticks processed",
		},
	)
)

// SetDUActiveUEs sets the count of UEs tracked by this DU.
func SetDUActiveUEs(count int) {
	DUActiveUEs.Set(float64(count))
}

// RecordDUF1APProcedure records one F1AP procedure outcome.
func RecordDUF1APProcedure(procedure, result string) {
	DUF1APProcedures.WithLabelValues(procedure, result).Inc()
}

// RecordDUPRACHDetection records one processed PRACH preamble.
func RecordDUPRACHDetection() {
	DUPRACHDetections.Inc()
}

// RecordDUHARQRetransmission records one HARQ NACK.
func RecordDUHARQRetransmission() {
	DUHARQRetransmissions.Inc()
}

// RecordDUSlotProcessed records one PHY slot tick.
func RecordDUSlotProcessed() {
	DUSlotsProcessed.Inc()
}
