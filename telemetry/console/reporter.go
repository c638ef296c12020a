// Package console is a telemetry.Reporter that dumps the registry to the
// log instead of CloudWatch. Handy for dry runs of the demo publisher.
package console

import (
	"fmt"
	"sort"
	"time"

	"github.com/funkygao/log4go"
	"github.com/jlhood/metrics-cloudwatch/telemetry"
	"github.com/rcrowley/go-metrics"
)

var _ telemetry.Reporter = &runner{}

type runner struct {
	reg      metrics.Registry
	interval time.Duration

	quiting, quit chan struct{}
}

// New creates a console reporter which will log the metrics from the
// given registry at each interval.
func New(r metrics.Registry, interval time.Duration) telemetry.Reporter {
	this := &runner{
		reg:      r,
		interval: interval,
		quiting:  make(chan struct{}),
		quit:     make(chan struct{}),
	}

	return this
}

func (*runner) Name() string {
	return "console"
}

func (this *runner) Stop() {
	close(this.quiting)
	<-this.quit
}

func (this *runner) Start() error {
	intervalTicker := time.Tick(this.interval)
	for {
		select {
		case <-this.quiting:
			// flush
			this.dump()
			close(this.quit)
			return nil

		case <-intervalTicker:
			this.dump()
		}
	}
}

func (this *runner) dump() {
	sortedNames := make([]string, 0, 1000)
	metricsMap := make(map[string]interface{}, 1000)
	this.reg.Each(func(name string, i interface{}) {
		metricsMap[name] = i
		sortedNames = append(sortedNames, name)
	})

	sort.Strings(sortedNames)
	for _, name := range sortedNames {
		switch metric := metricsMap[name].(type) {
		case metrics.Counter:
			log4go.Info(fmt.Sprintf("cnter %s: count: %d", name, metric.Count()))

		case metrics.Gauge:
			log4go.Info(fmt.Sprintf("gauge %s: value: %d", name, metric.Value()))

		case metrics.GaugeFloat64:
			log4go.Info(fmt.Sprintf("gauge %s: value: %f", name, metric.Value()))

		case metrics.Healthcheck:
			metric.Check()
			log4go.Info(fmt.Sprintf("hthck %s: error: %v", name, metric.Error()))

		case metrics.Histogram:
			h := metric.Snapshot()
			ps := h.Percentiles([]float64{0.5, 0.75, 0.95, 0.99, 0.999})
			log4go.Info(fmt.Sprintf("histg %s: count: %d min: %d max: %d mean: %.2f stddev: %.2f median: %.2f 75%%: %.2f 95%%: %.2f 99%%: %.2f 99.9%%: %.2f",
				name,
				h.Count(),
				h.Min(),
				h.Max(),
				h.Mean(),
				h.StdDev(),
				ps[0],
				ps[1],
				ps[2],
				ps[3],
				ps[4],
			))

		case metrics.Meter:
			m := metric.Snapshot()
			log4go.Info(fmt.Sprintf("meter %s: count: %d 1-min: %.2f 5-min: %.2f 15-min: %.2f mean: %.2f",
				name,
				m.Count(),
				m.Rate1(),
				m.Rate5(),
				m.Rate15(),
				m.RateMean(),
			))

		case metrics.Timer:
			t := metric.Snapshot()
			ps := t.Percentiles([]float64{0.5, 0.75, 0.95, 0.99, 0.999})
			log4go.Info(fmt.Sprintf("timer %s: count: %d min: %d max: %d mean: %.2f stddev: %.2f median: %.2f 75%%: %.2f 95%%: %.2f 99%%: %.2f 99.9%%: %.2f 1-min: %.2f 5-min: %.2f 15-min: %.2f mean-rate: %.2f",
				name,
				t.Count(),
				t.Min(),
				t.Max(),
				t.Mean(),
				t.StdDev(),
				ps[0],
				ps[1],
				ps[2],
				ps[3],
				ps[4],
				t.Rate1(),
				t.Rate5(),
				t.Rate15(),
				t.RateMean(),
			))
		}
	}
}
