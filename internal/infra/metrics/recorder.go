// Package metrics records what the pipeline, routers, resolver and bridge
// do, for scraping by Prometheus.
package metrics

import "time"

// Status labels shared by several metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInvalid = "invalid"
	StatusIgnored = "ignored"
)

// Recorder is what components depend on. Tests and the CLI use Noop.
type Recorder interface {
	RecordPipelineRun(outcome string, duration time.Duration)
	RecordPipelineStep(step, status string, duration time.Duration)
	RecordRouterMessage(context, action, status string)
	RecordRotation(provider, outcome string)
	RecordProviderCall(provider, status string, duration time.Duration)
	RecordBridgeRequest(method, code string, duration time.Duration)
}

type Noop struct{}

func (Noop) RecordPipelineRun(string, time.Duration)           {}
func (Noop) RecordPipelineStep(string, string, time.Duration)  {}
func (Noop) RecordRouterMessage(string, string, string)        {}
func (Noop) RecordRotation(string, string)                     {}
func (Noop) RecordProviderCall(string, string, time.Duration)  {}
func (Noop) RecordBridgeRequest(string, string, time.Duration) {}
