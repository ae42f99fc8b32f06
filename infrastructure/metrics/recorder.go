// Package metrics defines the observability hooks of the QC coordinator and
// a Prometheus implementation of them.
package metrics

import "qctracker/models"

// ResultLabel enumerates operation outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultInvalid ResultLabel = "invalid"
	ResultRefused ResultLabel = "refused"
	ResultError   ResultLabel = "error"
)

// Recorder receives coordinator events. NoopRecorder is used when metrics
// are not configured.
type Recorder interface {
	IncOperation(op string, result ResultLabel)
	IncPersistenceError(op string)
	SetShipmentsByStatus(counts map[models.QCStatus]int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncOperation(string, ResultLabel)             {}
func (NoopRecorder) IncPersistenceError(string)                   {}
func (NoopRecorder) SetShipmentsByStatus(map[models.QCStatus]int) {}
