package cloudwatch

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Default name of the metric type dimension attached to every datum, and
// its per-instrument values.
const (
	DefTypeDimName = "metricType"

	DefTypeDimValGauge        = "gauge"
	DefTypeDimValCounterCount = "counterSum"
	DefTypeDimValMeterCount   = "meterSum"
	DefTypeDimValHistoSamples = "histogramSamples"
	DefTypeDimValHistoStats   = "histogramStats"
	DefTypeDimValTimerSamples = "timerSamples"
	DefTypeDimValTimerStats   = "timerStats"
)

type config struct {
	namespace string
	interval  time.Duration

	// reporter-wide dimension tokens appended to every instrument key
	// before demuxing, e.g. "env=prod machine=web01*"
	dimensions string

	// stamp datums with local now instead of letting CloudWatch stamp
	// them on receipt
	timestampLocal bool

	typeDimName            string
	typeDimValGauge        string
	typeDimValCounterCount string
	typeDimValMeterCount   string
	typeDimValHistoSamples string
	typeDimValHistoStats   string
	typeDimValTimerSamples string
	typeDimValTimerStats   string

	// applied to fully decoded datums right before submission
	filter func(types.MetricDatum) bool
}

// NewConfig creates a reporter config with the default metric type
// dimension names. All metrics are submitted under the given CloudWatch
// namespace at each interval.
func NewConfig(namespace string, interval time.Duration) *config {
	return &config{
		namespace: namespace,
		interval:  interval,

		typeDimName:            DefTypeDimName,
		typeDimValGauge:        DefTypeDimValGauge,
		typeDimValCounterCount: DefTypeDimValCounterCount,
		typeDimValMeterCount:   DefTypeDimValMeterCount,
		typeDimValHistoSamples: DefTypeDimValHistoSamples,
		typeDimValHistoStats:   DefTypeDimValHistoStats,
		typeDimValTimerSamples: DefTypeDimValTimerSamples,
		typeDimValTimerStats:   DefTypeDimValTimerStats,

		filter: func(types.MetricDatum) bool { return true },
	}
}

// WithDimensions sets reporter-wide dimensions automatically appended to
// every metric key, in the same encoded form as the keys themselves.
func (c *config) WithDimensions(dimensions string) *config {
	c.dimensions = dimensions
	return c
}

// WithTimestampLocal makes the reporter timestamp datums with local now.
// The default leaves timestamps unset so that CloudWatch stamps the data
// on receipt.
func (c *config) WithTimestampLocal(timestampLocal bool) *config {
	c.timestampLocal = timestampLocal
	return c
}

func (c *config) WithTypeDimName(name string) *config {
	c.typeDimName = name
	return c
}

func (c *config) WithTypeDimValGauge(val string) *config {
	c.typeDimValGauge = val
	return c
}

func (c *config) WithTypeDimValCounterCount(val string) *config {
	c.typeDimValCounterCount = val
	return c
}

func (c *config) WithTypeDimValMeterCount(val string) *config {
	c.typeDimValMeterCount = val
	return c
}

func (c *config) WithTypeDimValHistoSamples(val string) *config {
	c.typeDimValHistoSamples = val
	return c
}

func (c *config) WithTypeDimValHistoStats(val string) *config {
	c.typeDimValHistoStats = val
	return c
}

func (c *config) WithTypeDimValTimerSamples(val string) *config {
	c.typeDimValTimerSamples = val
	return c
}

func (c *config) WithTypeDimValTimerStats(val string) *config {
	c.typeDimValTimerStats = val
	return c
}

// WithFilter sets a predicate applied to each demuxed datum right before
// submission. Unlike a registry-level filter it sees the decoded name and
// dimensions. Datums failing the predicate are dropped.
func (c *config) WithFilter(filter func(types.MetricDatum) bool) *config {
	c.filter = filter
	return c
}
