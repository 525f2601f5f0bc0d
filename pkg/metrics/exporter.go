package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var NodeName string // to be initialized on startup or via setter

// UpdateEntriesMetrics sets the Entries and Capacity gauges
func UpdateEntriesMetrics(count, capacity int) {
	Entries.With(prometheus.Labels{"node": NodeName}).Set(float64(count))
	Capacity.With(prometheus.Labels{"node": NodeName}).Set(float64(capacity))
}

// UpdateResetMetrics increments the Resets counter for the given reason
func UpdateResetMetrics(reason string) {
	Resets.With(prometheus.Labels{"node": NodeName, "reason": reason}).Inc()
}

// UpdateStorageErrorMetrics increments the StorageErrors counter for a load or save
func UpdateStorageErrorMetrics(op string) {
	StorageErrors.With(prometheus.Labels{"node": NodeName, "op": op}).Inc()
}

// UpdateOperationMetrics increments the Operations counter for an operation outcome
func UpdateOperationMetrics(op, result string) {
	Operations.With(prometheus.Labels{"node": NodeName, "op": op, "result": result}).Inc()
}

// Recorder forwards alias store events to the package metrics.
type Recorder struct{}

// ObserveEntries ...
func (Recorder) ObserveEntries(count, capacity int) { UpdateEntriesMetrics(count, capacity) }

// ObserveReset ...
func (Recorder) ObserveReset(reason string) { UpdateResetMetrics(reason) }

// ObserveStorageError ...
func (Recorder) ObserveStorageError(op string) { UpdateStorageErrorMetrics(op) }

// ObserveOperation ...
func (Recorder) ObserveOperation(op, result string) { UpdateOperationMetrics(op, result) }
