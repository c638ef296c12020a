// Package metricscloudwatch publishes github.com/rcrowley/go-metrics
// instruments to AWS CloudWatch.
package metricscloudwatch

var (
	// Version is the unified version of the whole metrics-cloudwatch project.
	// Each component shares the same version info.
	Version = "unknown"

	// BuildId is the SCM commit id.
	BuildId = "?"

	// BuiltAt is the time when build.sh was run.
	BuiltAt = "1970"
)
