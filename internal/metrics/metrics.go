// Package metrics exposes Prometheus instruments for the record store.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/paste-go/internal/paste"
)

// Store operations.
const (
	OperationCreate = "create"
	OperationRead   = "read"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// Outcome labels a finished store operation.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeConflict Outcome = "conflict"
	OutcomeNotFound Outcome = "not_found"
	OutcomeExpired  Outcome = "expired"
	OutcomeFailed   Outcome = "failed"
	OutcomeError    Outcome = "error"
)

// OutcomeOf classifies err as returned by paste.Repository.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, paste.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, paste.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, paste.ErrExpired):
		return OutcomeExpired
	case errors.Is(err, paste.ErrCommitFailed):
		return OutcomeFailed
	default:
		return OutcomeError
	}
}

// Recorder holds the service instruments.
type Recorder struct {
	operations  *prometheus.CounterVec
	uploadBytes prometheus.Histogram
	gatherer    prometheus.Gatherer
}

// NewRecorder registers the instruments on reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paste_store_operations_total",
			Help: "Record store operations by outcome.",
		}, []string{"operation", "outcome"}),
		uploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "paste_upload_bytes",
			Help:    "Size of uploaded payloads in bytes.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		}),
		gatherer: reg,
	}
}

// Observe counts one store operation.
func (r *Recorder) Observe(operation string, err error) {
	r.operations.WithLabelValues(operation, string(OutcomeOf(err))).Inc()
}

// ObserveUpload records the size of an accepted upload.
func (r *Recorder) ObserveUpload(size int) {
	r.uploadBytes.Observe(float64(size))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
