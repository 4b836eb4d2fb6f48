package adapt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var integrityWarningsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dochi_client",
		Name:      "data_integrity_warnings_total",
		Help:      "Wire values replaced by a default because they were malformed.",
	},
	[]string{"field"},
)

func integrityWarning(field, got, fallback string) {
	integrityWarningsTotal.WithLabelValues(field).Inc()
	log.Warn().
		Str("field", field).
		Str("got", got).
		Str("fallback", fallback).
		Msg("data integrity: unexpected wire value, using default")
}
