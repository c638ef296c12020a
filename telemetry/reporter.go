// Package telemetry perists github.com/rcrowley/go-metrics
// metrics.Registry to a monitoring backend.
package telemetry

// A Reporter continuously scans metrics.Registry and
// sends all metrics to a monitoring backend.
//
// Start blocks until Stop is called, so callers usually run it on
// its own goroutine. Stop waits for the final flush.
type Reporter interface {
	Name() string

	Start() error
	Stop()
}

var Default Reporter
