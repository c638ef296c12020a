package cloudwatch

import (
	"math"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/jlhood/metrics-cloudwatch/telemetry"
	"github.com/rcrowley/go-metrics"
)

// nanos -> millis on timer statistic sets
const timerRescale = 1e-6

// export translates the current registry contents into CloudWatch datums.
// Names are scanned in sorted order so datum and batch composition is
// reproducible.
func (this *runner) export() []types.MetricDatum {
	sortedNames := make([]string, 0, 64)
	byName := make(map[string]interface{}, 64)
	this.reg.Each(func(name string, i interface{}) {
		sortedNames = append(sortedNames, name)
		byName[name] = i
	})
	sort.Strings(sortedNames)

	var datums []types.MetricDatum
	for _, name := range sortedNames {
		switch m := byName[name].(type) {
		case metrics.Gauge:
			datums = append(datums, this.gaugeDatums(name, float64(m.Value()))...)

		case metrics.GaugeFloat64:
			v := m.Value()
			if math.IsNaN(v) || math.IsInf(v, 0) {
				// unreportable, not an error
				continue
			}
			datums = append(datums, this.gaugeDatums(name, v)...)

		case metrics.Counter:
			datums = append(datums, this.counterDatums(name, this.cf.typeDimValCounterCount, m)...)

		case metrics.Meter:
			datums = append(datums, this.counterDatums(name, this.cf.typeDimValMeterCount, m)...)

		case metrics.Histogram:
			datums = append(datums, this.counterDatums(name, this.cf.typeDimValHistoSamples, m)...)
			s := m.Sample()
			datums = append(datums, this.samplingDatums(name, this.cf.typeDimValHistoStats, 1.0,
				float64(sum(s.Values())), float64(s.Size()), float64(s.Min()), float64(s.Max()))...)

		case metrics.Timer:
			datums = append(datums, this.counterDatums(name, this.cf.typeDimValTimerSamples, m)...)
			t := m.Snapshot()
			datums = append(datums, this.samplingDatums(name, this.cf.typeDimValTimerStats, timerRescale,
				float64(t.Sum()), timerSampleCount(t), float64(t.Min()), float64(t.Max()))...)

		case metrics.Healthcheck:
			// ignored
		}
	}

	return datums
}

func (this *runner) gaugeDatums(key string, value float64) []types.MetricDatum {
	return this.newDatums(key, this.cf.typeDimValGauge, func(d *types.MetricDatum) {
		d.Value = aws.Float64(value)
	})
}

func (this *runner) counterDatums(key, typeDimValue string, m counting) []types.MetricDatum {
	diff := this.deltas.diff(m)
	if diff == 0 {
		// unchanged since the last cycle, save the submission cost
		return nil
	}

	return this.newDatums(key, typeDimValue, func(d *types.MetricDatum) {
		d.Value = aws.Float64(float64(diff))
		d.Unit = types.StandardUnitCount
	})
}

// samplingDatums builds statistic set datums from the latest sample
// snapshot. Not gated on the delta: an unchanged distribution still
// reports, and the zero-sample case is filtered out by publish.
func (this *runner) samplingDatums(key, typeDimValue string, rescale, sum, sampleCount, min, max float64) []types.MetricDatum {
	stats := &types.StatisticSet{
		Sum:         aws.Float64(sum * rescale),
		SampleCount: aws.Float64(sampleCount),
		Minimum:     aws.Float64(min * rescale),
		Maximum:     aws.Float64(max * rescale),
	}

	return this.newDatums(key, typeDimValue, func(d *types.MetricDatum) {
		d.StatisticValues = stats
	})
}

// timerSampleCount recovers how many values the timer reservoir holds.
// Timer has no Sample accessor, and Count is the lifetime event count,
// which overstates a full reservoir. Sum and Mean run over the very
// values held, so their ratio is the reservoir size.
func timerSampleCount(t metrics.Timer) float64 {
	mean := t.Mean()
	if mean == 0 {
		// nothing recorded yet, or only zero durations. Count keeps
		// the statistic set coherent either way.
		return float64(t.Count())
	}
	return math.Round(float64(t.Sum()) / mean)
}

// newDatums demuxes one encoded key into datums, one per permutation,
// each carrying the metric type dimension. fill injects the measurement.
func (this *runner) newDatums(key, typeDimValue string, fill func(*types.MetricDatum)) []types.MetricDatum {
	variants := telemetry.DemuxKey(this.appendGlobalDimensions(key))
	datums := make([]types.MetricDatum, 0, len(variants))
	for _, v := range variants {
		d := types.MetricDatum{
			MetricName: aws.String(v.Name),
			Dimensions: this.dimensions(v.Dimensions, typeDimValue),
		}
		fill(&d)
		datums = append(datums, d)
	}
	return datums
}

// dimensions flattens a demuxed dimension set plus the metric type
// dimension, sorted by name. The type dimension wins over a same-named
// encoded one: dimension names are unique per datum.
func (this *runner) dimensions(dims map[string]string, typeDimValue string) []types.Dimension {
	names := make([]string, 0, len(dims)+1)
	for name := range dims {
		if name != this.cf.typeDimName {
			names = append(names, name)
		}
	}
	names = append(names, this.cf.typeDimName)
	sort.Strings(names)

	out := make([]types.Dimension, 0, len(names))
	for _, name := range names {
		value := dims[name]
		if name == this.cf.typeDimName {
			value = typeDimValue
		}
		out = append(out, types.Dimension{Name: aws.String(name), Value: aws.String(value)})
	}
	return out
}

func (this *runner) appendGlobalDimensions(key string) string {
	if strings.TrimSpace(this.cf.dimensions) == "" {
		return key
	}
	return key + telemetry.NameTokenDelimiter + this.cf.dimensions
}

func sum(values []int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}
