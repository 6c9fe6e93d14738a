// Package observability provides Prometheus and OpenTelemetry
// instrumentation for umps-go, adapted from the teacher's
// coreengine/observability package: the same promauto-registered
// CounterVec/HistogramVec shape, re-labeled for messages, proxies,
// authentication decisions, and the packet cache instead of pipelines and
// LLM calls.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umps_messages_published_total",
			Help: "Total number of messages published onto a broadcast proxy",
		},
		[]string{"message_type"},
	)

	messagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umps_messages_received_total",
			Help: "Total number of messages received from a broadcast subscriber",
		},
		[]string{"message_type"},
	)

	proxyForwardedFramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umps_proxy_forwarded_frames_total",
			Help: "Total number of multi-part frames forwarded by a broadcast or router/dealer proxy",
		},
		[]string{"proxy", "direction"},
	)

	authenticationDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "umps_authentication_decisions_total",
			Help: "Total number of authenticator decisions",
		},
		[]string{"security_level", "outcome"}, // outcome: allowed, denied
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "umps_request_duration_seconds",
			Help:    "Request/router call duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"message_type", "status"}, // status: ok, timeout, error
	)

	packetCacheOccupancy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "umps_packet_cache_occupancy",
			Help: "Number of packets currently cached for a SNCL",
		},
		[]string{"sncl"},
	)

	commandDispatchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "umps_command_dispatch_duration_seconds",
			Help:    "Module command plane ping round-trip duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"module"},
	)
)

// RecordMessagePublished records one message published on a broadcast
// proxy's frontend.
func RecordMessagePublished(messageType string) {
	messagesPublishedTotal.WithLabelValues(messageType).Inc()
}

// RecordMessageReceived records one message decoded by a subscriber.
func RecordMessageReceived(messageType string) {
	messagesReceivedTotal.WithLabelValues(messageType).Inc()
}

// RecordProxyForward records one frame set forwarded by a proxy in the
// given direction ("frontend->backend" or "backend->frontend").
func RecordProxyForward(proxy, direction string) {
	proxyForwardedFramesTotal.WithLabelValues(proxy, direction).Inc()
}

// RecordAuthenticationDecision records one authenticator decision.
func RecordAuthenticationDecision(securityLevel, outcome string) {
	authenticationDecisionsTotal.WithLabelValues(securityLevel, outcome).Inc()
}

// RecordRequestDuration records a request/router call's duration and
// terminal status.
func RecordRequestDuration(messageType, status string, durationMS int) {
	requestDurationSeconds.WithLabelValues(messageType, status).Observe(float64(durationMS) / 1000.0)
}

// SetPacketCacheOccupancy records the current packet count for sncl.
func SetPacketCacheOccupancy(sncl string, count int) {
	packetCacheOccupancy.WithLabelValues(sncl).Set(float64(count))
}

// RecordCommandDispatchDuration records a module command plane ping's
// round-trip duration.
func RecordCommandDispatchDuration(module string, durationMS int) {
	commandDispatchDurationSeconds.WithLabelValues(module).Observe(float64(durationMS) / 1000.0)
}
