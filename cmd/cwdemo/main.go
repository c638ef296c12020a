// cwdemo feeds one of every instrument kind into the default registry and
// publishes it through the CloudWatch reporter. Run it, watch the namespace
// fill up, ctrl-c to flush and quit.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	stdlog "log"
	"math"
	"math/rand"
	"os"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/funkygao/golib/signal"
	log "github.com/funkygao/log4go"
	metricscloudwatch "github.com/jlhood/metrics-cloudwatch"
	"github.com/jlhood/metrics-cloudwatch/telemetry"
	"github.com/jlhood/metrics-cloudwatch/telemetry/cloudwatch"
	"github.com/jlhood/metrics-cloudwatch/telemetry/console"
	"github.com/rcrowley/go-metrics"
)

var (
	namespace  string
	interval   time.Duration
	dimensions string
	region     string
	dryrun     bool
	v          bool
)

func init() {
	flag.StringVar(&namespace, "namespace", "cwdemo", "cloudwatch metric namespace")
	flag.DurationVar(&interval, "interval", time.Minute, "reporting interval")
	flag.StringVar(&dimensions, "dimensions", "unit=test group=first", "reporter-wide dimensions")
	flag.StringVar(&region, "region", "", "aws region, default from environment")
	flag.BoolVar(&dryrun, "dryrun", false, "dump metrics to console instead of cloudwatch")
	flag.BoolVar(&v, "version", false, "version")
	flag.Parse()
}

func main() {
	if v {
		fmt.Fprintf(os.Stderr, "%s-%s\n", metricscloudwatch.Version, metricscloudwatch.BuildId)
		os.Exit(0)
	}

	setupLogging()

	log.Info("cwdemo[%s] starting...", metricscloudwatch.BuildId)

	startedAt := time.Now()
	closed := make(chan struct{})
	signal.RegisterHandler(func(sig os.Signal) {
		log.Info("cwdemo[%s] got signal: %s", metricscloudwatch.BuildId, strings.ToUpper(sig.String()))

		if telemetry.Default != nil {
			log.Info("stopping reporter and flushing metrics...")
			telemetry.Default.Stop()
		}

		log.Info("cwdemo[%s] %s bye!", metricscloudwatch.BuildId, time.Since(startedAt))
		close(closed)
	}, syscall.SIGINT, syscall.SIGTERM)

	setupTelemetry()

	counter := metrics.NewRegisteredCounter("TheCounter TestDim=Yellow TestToken* machine=number1*", metrics.DefaultRegistry)
	meter := metrics.NewRegisteredMeter("TheMeter", metrics.DefaultRegistry)
	histogram := metrics.NewRegisteredHistogram("TheHistogram", metrics.DefaultRegistry, metrics.NewExpDecaySample(1028, 0.015))
	timer := metrics.NewRegisteredTimer("TheTimer", metrics.DefaultRegistry)
	metrics.NewRegisteredFunctionalGauge("TheGauge", metrics.DefaultRegistry, func() int64 { return 1 })
	// the reporter must skip this one: not a number
	metrics.NewRegisteredFunctionalGaugeFloat64("TheGauge notNumeric", metrics.DefaultRegistry, func() float64 { return math.NaN() })

	tick := time.Tick(time.Second)
	for {
		select {
		case <-closed:
			return

		case <-tick:
			counter.Inc(1)
			meter.Mark(1)
			histogram.Update(rand.Int63n(100))
			timer.Time(func() {
				time.Sleep(time.Duration(rand.Int63n(20)) * time.Millisecond)
			})
		}
	}
}

func setupLogging() {
	stdlog.SetOutput(ioutil.Discard)

	for _, filter := range log.Global {
		filter.Level = log.DEBUG
	}
	log.AddFilter("stdout", log.DEBUG, log.NewConsoleLogWriter())
}

func setupTelemetry() {
	if dryrun {
		telemetry.Default = console.New(metrics.DefaultRegistry, interval)
		go telemetry.Default.Start()
		return
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic(err)
	}

	cf := cloudwatch.NewConfig(namespace, interval).
		WithDimensions(dimensions).
		WithTimestampLocal(true)
	telemetry.Default = cloudwatch.New(metrics.DefaultRegistry, cw.NewFromConfig(cfg), cf)
	go telemetry.Default.Start()
}
