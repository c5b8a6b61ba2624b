package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	IngestRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailgate_ingest_requests_total",
			Help: "Total number of inbound submissions by outcome",
		},
		[]string{"outcome"},
	)

	IngestMessageBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mailgate_ingest_message_bytes",
			Help:    "Size of accepted raw messages in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	IngestSignatureEnforced = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mailgate_ingest_signature_enforced",
			Help: "1 when inbound submissions must carry a valid signature",
		},
	)
)

// Routing and delivery metrics
var (
	RouteMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailgate_route_matches_total",
			Help: "Total number of matched routes by action",
		},
		[]string{"action"},
	)

	DeliveryHandoffTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailgate_delivery_handoff_total",
			Help: "Total number of delivery hand-offs by kind and result",
		},
		[]string{"kind", "result"},
	)
)

var (
	ArtifactAuditTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailgate_artifact_audit_total",
			Help: "Raw artifact audit results",
		},
		[]string{"result"},
	)
)

const (
	OutcomeAccepted     = "accepted"
	OutcomeNotRetained  = "not_retained"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid"
	OutcomeUnsupported  = "unsupported"
	OutcomeUnknown      = "unknown_domain"
	OutcomeFailed       = "failed"

	ResultOK     = "ok"
	ResultError  = "error"
	ResultMissed = "missing"
)
