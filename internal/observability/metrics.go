package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsTransitionedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickets_transitioned_total",
		Help: "Total number of tickets moved into a status",
	}, []string{"status"})

	InventoryOperationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_operation_failures_total",
		Help: "Total number of failed inventory operations",
	}, []string{"operation", "reason"})

	ExpiredTicketsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expired_tickets_deleted_total",
		Help: "Total number of tickets removed by the expiry sweeper",
	})
)
