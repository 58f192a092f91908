package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftwish_sync_operations_total",
		Help: "Sync operations by name and outcome.",
	}, []string{"operation", "status"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "giftwish_sync_events_total",
		Help: "Events broadcast on the bus by kind.",
	}, []string{"kind"})
)

func observeOperation(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	operationsTotal.WithLabelValues(op, status).Inc()
}
