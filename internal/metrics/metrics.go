package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aida"

// HTTP metrics (incremented by middleware).
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "path_pattern", "status_code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path_pattern"})
)

// Transcript stream metrics.
var (
	StreamConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcript_stream_connections_total",
		Help:      "Transcript socket connections opened.",
	})

	StreamReconnectAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcript_stream_reconnect_attempts_total",
		Help:      "Scheduled transcript socket reconnect attempts.",
	})

	StreamMalformedMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcript_stream_malformed_messages_total",
		Help:      "Transcript messages dropped because they could not be decoded.",
	})

	StreamFragmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transcript_stream_fragments_total",
		Help:      "Transcript fragments received.",
	}, []string{"final"})
)

// Session metrics (incremented by the orchestrator).
var (
	SessionState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_state",
		Help:      "Current session state (0 muted, 1 connecting, 2 unmuted).",
	})

	SessionTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Session state transitions.",
	}, []string{"from", "to"})

	SessionConnectFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_connect_failures_total",
		Help:      "Failed connect sequences by the step that failed.",
	}, []string{"step"})

	SessionInterruptionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_interruptions_total",
		Help:      "Barge-in interruptions received from the session.",
	})

	SessionCancelledResponsesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cancelled_responses_total",
		Help:      "Responses cancelled after an interruption.",
	})

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Spoken commands detected in finalized utterances.",
	}, []string{"command"})

	FinalizedUtterancesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalized_utterances_total",
		Help:      "Utterances appended to the transcript log.",
	}, []string{"source"})
)

// Realtime session client and export metrics.
var (
	RealtimeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_events_total",
		Help:      "Realtime session events by direction and type.",
	}, []string{"direction", "type"})

	PublishedMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "published_messages_total",
		Help:      "Transcript export messages by kind and result.",
	}, []string{"kind", "result"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		StreamConnectionsTotal,
		StreamReconnectAttemptsTotal,
		StreamMalformedMessagesTotal,
		StreamFragmentsTotal,
		SessionState,
		SessionTransitionsTotal,
		SessionConnectFailuresTotal,
		SessionInterruptionsTotal,
		SessionCancelledResponsesTotal,
		CommandsTotal,
		FinalizedUtterancesTotal,
		RealtimeEventsTotal,
		PublishedMessagesTotal,
	)
}

// InstrumentHandler returns middleware that records HTTP request metrics.
// It uses chi's route pattern as the path label to avoid cardinality explosion.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		pattern := ""
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			pattern = routeCtx.RoutePattern()
		}
		if pattern == "" {
			pattern = "unknown"
		}

		HTTPRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(sw.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
