// Package metrics provides a minimal instrumentation interface with a no-op
// default and an optional Prometheus-backed implementation.
package metrics

import (
	"sync"
	"time"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	IncCacheLookup(cache string, hit bool)
	IncProviderRun(provider string, outcome string)
	ObserveProviderSeconds(provider string, outcome string, seconds float64)
	ObserveAssemblySeconds(target string, success bool, seconds float64)
	ObserveAssemblyEntities(target string, count int)
}

// Provider outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

type noopRecorder struct{}

func (noopRecorder) IncCacheLookup(string, bool)                    {}
func (noopRecorder) IncProviderRun(string, string)                  {}
func (noopRecorder) ObserveProviderSeconds(string, string, float64) {}
func (noopRecorder) ObserveAssemblySeconds(string, bool, float64)   {}
func (noopRecorder) ObserveAssemblyEntities(string, int)            {}

var (
	recMu    sync.RWMutex
	recorder Recorder = noopRecorder{}
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder. A nil recorder restores the no-op.
func SetRecorder(r Recorder) {
	recMu.Lock()
	defer recMu.Unlock()
	if r == nil {
		r = noopRecorder{}
	}
	recorder = r
}

// TimeProvider times one provider run.
func TimeProvider(provider string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		Default().IncProviderRun(provider, outcome)
		Default().ObserveProviderSeconds(provider, outcome, time.Since(start).Seconds())
	}
}

// TimeAssembly times one assembly for a target type.
func TimeAssembly(target string) func(success bool, entities int) {
	start := time.Now()
	return func(success bool, entities int) {
		Default().ObserveAssemblySeconds(target, success, time.Since(start).Seconds())
		if success {
			Default().ObserveAssemblyEntities(target, entities)
		}
	}
}
