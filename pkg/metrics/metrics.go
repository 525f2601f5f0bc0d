// Package metrics exports alias table state and events to Prometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	hwaliasNamespace = "hwalias"
	storeSubsystem   = "store"
)

var (
	// Entries is the number of entries in the alias table.
	Entries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: hwaliasNamespace,
			Subsystem: storeSubsystem,
			Name:      "entries",
			Help:      "Number of entries in the alias table.",
		}, []string{"node"})

	// Capacity is the fixed capacity of the alias table.
	Capacity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: hwaliasNamespace,
			Subsystem: storeSubsystem,
			Name:      "capacity",
			Help:      "Fixed capacity of the alias table.",
		}, []string{"node"})

	// Resets counts resets of the alias table to its defaults.
	Resets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: hwaliasNamespace,
			Subsystem: storeSubsystem,
			Name:      "resets_total",
			Help:      "Resets of the alias table to defaults, by reason.",
		}, []string{"node", "reason"})

	// StorageErrors counts failed storage loads and saves.
	StorageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: hwaliasNamespace,
			Subsystem: storeSubsystem,
			Name:      "storage_errors_total",
			Help:      "Failed non-volatile storage operations.",
		}, []string{"node", "op"})

	// Operations counts insert and remove calls by outcome.
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: hwaliasNamespace,
			Subsystem: storeSubsystem,
			Name:      "operations_total",
			Help:      "Alias table mutations by operation and result.",
		}, []string{"node", "op", "result"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{Entries, Capacity, Resets, StorageErrors, Operations}
}

// Register registers all collectors with reg. Collectors that are already
// registered are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
