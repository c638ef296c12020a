// Package cloudwatch persists github.com/rcrowley/go-metrics
// metrics.Registry to AWS CloudWatch.
//
// Metric keys are demuxed with telemetry.DemuxKey, so a single registry
// entry like "TheCounter TestDim=Yellow machine=web01*" fans out into one
// datum per permutation, each dimensioned accordingly.
package cloudwatch

import (
	"context"
	"runtime/debug"
	"time"

	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	log "github.com/funkygao/log4go"
	"github.com/jlhood/metrics-cloudwatch/telemetry"
	"github.com/rcrowley/go-metrics"
)

// Client is the slice of the CloudWatch API this reporter submits with.
// *cloudwatch.Client of aws-sdk-go-v2 satisfies it.
type Client interface {
	PutMetricData(ctx context.Context, params *cw.PutMetricDataInput, optFns ...func(*cw.Options)) (*cw.PutMetricDataOutput, error)
}

var _ telemetry.Reporter = &runner{}

type runner struct {
	cf     *config
	reg    metrics.Registry
	client Client
	deltas *deltaTracker

	quiting, quit chan struct{}
}

// New creates a CloudWatch reporter which will put the metrics from the
// given registry at each config interval once started.
func New(r metrics.Registry, c Client, cf *config) telemetry.Reporter {
	return newRunner(r, c, cf)
}

func newRunner(r metrics.Registry, c Client, cf *config) *runner {
	return &runner{
		reg:     r,
		client:  c,
		cf:      cf,
		deltas:  newDeltaTracker(),
		quiting: make(chan struct{}),
		quit:    make(chan struct{}),
	}
}

func (*runner) Name() string {
	return "cloudwatch"
}

func (this *runner) Stop() {
	close(this.quiting)
	<-this.quit
}

func (this *runner) Start() error {
	intervalTicker := time.Tick(this.cf.interval)
	for {
		select {
		case <-this.quiting:
			// flush
			this.report()
			close(this.quit)
			return nil

		case <-intervalTicker:
			this.report()
		}
	}
}

// report runs one collection cycle. A panic escaping the cycle is logged
// and swallowed here: were it to reach Start's loop the ticker would die
// and all future cycles would silently stop.
func (this *runner) report() {
	defer func() {
		if err := recover(); err != nil {
			log.Error("cloudwatch report cycle: %v\n%s", err, string(debug.Stack()))
		}
	}()

	this.publish(this.export())
}
