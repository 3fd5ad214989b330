// Package metrics holds the Prometheus collectors of the service.
// Collectors exist from package init so callers can record unconditionally;
// Register exposes them on a registry.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of a password reset attempt
const (
	ResetSucceeded     = "success"
	ResetInvalidToken  = "invalid_token"
	ResetUserMissing   = "user_missing"
	ResetEmailMismatch = "email_mismatch"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RecoveryTokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recovery_tokens_issued_total",
		Help: "Password recovery tokens issued",
	})

	RecoveryTokensInvalidated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recovery_tokens_invalidated_total",
		Help: "Valid recovery tokens superseded by a newer token",
	})

	RecoveryEmailFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recovery_email_failures_total",
		Help: "Recovery emails rejected by the mail provider",
	})

	PasswordResets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "password_resets_total",
		Help: "Password reset attempts by outcome",
	}, []string{"outcome"})

	RecoveryTokensValid = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recovery_tokens_valid",
		Help: "Recovery tokens that are currently unused and unexpired",
	})

	CatalogStaleRows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_query_stale_rows_total",
		Help: "Products selected for a page but gone before hydration",
	})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestsTotal,
		HTTPRequestDuration,
		RecoveryTokensIssued,
		RecoveryTokensInvalidated,
		RecoveryEmailFailures,
		PasswordResets,
		RecoveryTokensValid,
		CatalogStaleRows,
		CacheLookups,
	}
}

// Register adds every collector to reg. Collectors already present are accepted.
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

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
