package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

var (
	// RequestTotal cuenta peticiones HTTP por método, ruta y estado.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scavhunt_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scavhunt_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// QueriesTotal cuenta las compilaciones de listados por colección y resultado.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scavhunt_queries_total",
			Help: "Total number of compiled list queries by outcome",
		},
		[]string{"target", "outcome"},
	)
	// OutboxPublished cuenta los eventos relayados desde cada outbox.
	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scavhunt_outbox_published_total",
			Help: "Total number of outbox events published",
		},
		[]string{"outbox"},
	)
)

// Outcomes de QueriesTotal.
const (
	OutcomeOK                 = "ok"
	OutcomeClientError        = "client_error"
	OutcomePageOutOfRange     = "page_out_of_range"
	OutcomeStorageUnavailable = "storage_unavailable"
	OutcomeError              = "error"
)

// QueryOutcome clasifica el resultado de compilar y ejecutar un listado.
func QueryOutcome(err error) string {
	var pageErr *query.PageOutOfRangeError
	var clientErr *query.ClientRequestError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &pageErr):
		return OutcomePageOutOfRange
	case errors.As(err, &clientErr):
		return OutcomeClientError
	case errors.Is(err, sharedDomain.ErrStorageUnavailable):
		return OutcomeStorageUnavailable
	}
	return OutcomeError
}

// ObserveQuery registra el resultado de un listado.
func ObserveQuery(target string, err error) {
	QueriesTotal.WithLabelValues(target, QueryOutcome(err)).Inc()
}
