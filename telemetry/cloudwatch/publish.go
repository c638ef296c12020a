package cloudwatch

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cw "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	log "github.com/funkygao/log4go"
)

// maxDatumsPerRequest is the CloudWatch PutMetricData hard limit.
const maxDatumsPerRequest = 20

// publish ships one cycle's datums. Batches go out concurrently and are
// all awaited: a failed batch is logged and dropped, it never blocks or
// aborts the others. No retry, the data is simply lost for this cycle.
func (this *runner) publish(datums []types.MetricDatum) {
	// CloudWatch rejects statistic sets with no samples
	nonEmpty := datums[:0]
	for _, d := range datums {
		if d.StatisticValues != nil && aws.ToFloat64(d.StatisticValues.SampleCount) <= 0 {
			continue
		}
		nonEmpty = append(nonEmpty, d)
	}

	// local now vs. cloudwatch-assigned receipt time
	if this.cf.timestampLocal {
		now := aws.Time(time.Now())
		for i := range nonEmpty {
			nonEmpty[i].Timestamp = now
		}
	}

	filtered := nonEmpty[:0]
	for _, d := range nonEmpty {
		if this.cf.filter(d) {
			filtered = append(filtered, d)
		}
	}

	batches := partition(filtered, maxDatumsPerRequest)

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []types.MetricDatum) {
			defer wg.Done()
			defer func() {
				if err := recover(); err != nil {
					log.Error("cloudwatch put batch %d/%d: %v", i+1, len(batches), err)
				}
			}()

			_, err := this.client.PutMetricData(context.Background(), &cw.PutMetricDataInput{
				Namespace:  aws.String(this.cf.namespace),
				MetricData: batch,
			})
			if err != nil {
				log.Error("cloudwatch put batch %d/%d (%d datums): %v", i+1, len(batches), len(batch), err)
			}
		}(i, batch)
	}
	wg.Wait()

	log.Debug("sent %d datums to cloudwatch namespace %s", len(filtered), this.cf.namespace)
}

func partition(datums []types.MetricDatum, size int) [][]types.MetricDatum {
	var batches [][]types.MetricDatum
	for len(datums) > size {
		batches = append(batches, datums[:size])
		datums = datums[size:]
	}
	if len(datums) > 0 {
		batches = append(batches, datums)
	}
	return batches
}
