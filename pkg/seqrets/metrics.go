package seqrets

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gregLibert/seqrets-card/pkg/iso7816"
)

const (
	// Namespace is the Prometheus namespace for all card metrics.
	Namespace = "seqrets_card"

	LabelOperation   = "operation"
	LabelStatus      = "status"
	LabelInstruction = "instruction"
	LabelStatusWord  = "status_word"

	StatusSuccess = "success"
)

// Metrics instruments card operations. A nil *Metrics records nothing.
type Metrics struct {
	// OperationsTotal counts operations by name and outcome (success or error kind).
	OperationsTotal *prometheus.CounterVec

	// OperationDuration tracks operation latency including connect and disconnect.
	OperationDuration *prometheus.HistogramVec

	// APDUExchangesTotal counts physical exchanges by instruction and returned status word.
	APDUExchangesTotal *prometheus.CounterVec
}

// NewMetrics creates the card metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Total number of card operations by type and status",
			},
			[]string{LabelOperation, LabelStatus},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of card operations in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{LabelOperation},
		),
		APDUExchangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "apdu_exchanges_total",
				Help:      "Total number of APDU exchanges by instruction and status word",
			},
			[]string{LabelInstruction, LabelStatusWord},
		),
	}
}

func (m *Metrics) observeAPDU(instruction string, sw iso7816.StatusWord) {
	if m == nil {
		return
	}
	m.APDUExchangesTotal.WithLabelValues(instruction, fmt.Sprintf("%04X", uint16(sw))).Inc()
}

func (m *Metrics) observeOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = KindOf(err).String()
	}
	m.OperationsTotal.WithLabelValues(op, status).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
