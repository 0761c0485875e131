package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Pipeline metrics
	pipelineRuns         *prometheus.CounterVec
	pipelineDuration     *prometheus.HistogramVec
	pipelineStepDuration *prometheus.HistogramVec

	// Messaging metrics
	routerMessages *prometheus.CounterVec

	// Credential metrics
	rotations *prometheus.CounterVec

	// Provider metrics
	providerCalls    *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec

	// Bridge metrics
	bridgeRequests        *prometheus.CounterVec
	bridgeRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		pipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rosetta_pipeline_runs_total",
				Help: "Total number of translation pipeline runs by outcome",
			},
			[]string{"outcome"},
		),

		pipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rosetta_pipeline_duration_seconds",
				Help:    "End to end translation pipeline duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"outcome"},
		),

		pipelineStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rosetta_pipeline_step_duration_seconds",
				Help:    "Duration of individual pipeline steps in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step", "status"},
		),

		routerMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rosetta_router_messages_total",
				Help: "Total number of messages seen by context routers",
			},
			[]string{"context", "action", "status"},
		),

		rotations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rosetta_credential_resolutions_total",
				Help: "Total number of active credential resolutions by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rosetta_provider_requests_total",
				Help: "Total number of AI provider requests by status",
			},
			[]string{"provider", "status"},
		),

		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rosetta_provider_request_duration_seconds",
				Help:    "AI provider request latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"provider"},
		),

		bridgeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rosetta_bridge_requests_total",
				Help: "Total number of bridge RPCs by method and gRPC code",
			},
			[]string{"method", "code"},
		),

		bridgeRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rosetta_bridge_request_duration_seconds",
				Help:    "Bridge RPC duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.pipelineRuns,
		m.pipelineDuration,
		m.pipelineStepDuration,
		m.routerMessages,
		m.rotations,
		m.providerCalls,
		m.providerDuration,
		m.bridgeRequests,
		m.bridgeRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) RecordPipelineRun(outcome string, duration time.Duration) {
	m.pipelineRuns.WithLabelValues(outcome).Inc()
	m.pipelineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) RecordPipelineStep(step, status string, duration time.Duration) {
	m.pipelineStepDuration.WithLabelValues(step, status).Observe(duration.Seconds())
}

func (m *Metrics) RecordRouterMessage(context, action, status string) {
	m.routerMessages.WithLabelValues(context, action, status).Inc()
}

func (m *Metrics) RecordRotation(provider, outcome string) {
	m.rotations.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordProviderCall(provider, status string, duration time.Duration) {
	m.providerCalls.WithLabelValues(provider, status).Inc()
	m.providerDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordBridgeRequest(method, code string, duration time.Duration) {
	m.bridgeRequests.WithLabelValues(method, code).Inc()
	m.bridgeRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// StepTimer measures one pipeline step.
type StepTimer struct {
	start    time.Time
	recorder Recorder
	step     string
}

func NewStepTimer(recorder Recorder, step string) *StepTimer {
	return &StepTimer{start: time.Now(), recorder: recorder, step: step}
}

// Done records the step as a success when err is nil.
func (st *StepTimer) Done(err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	st.recorder.RecordPipelineStep(st.step, status, time.Since(st.start))
}
