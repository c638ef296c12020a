package cloudwatch

import (
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/funkygao/assert"
	"github.com/rcrowley/go-metrics"
)

func dimensionMap(d types.MetricDatum) map[string]string {
	m := make(map[string]string, len(d.Dimensions))
	for _, dim := range d.Dimensions {
		m[*dim.Name] = *dim.Value
	}
	return m
}

func TestExportCounter(t *testing.T) {
	reg := metrics.NewRegistry()
	c := metrics.NewRegisteredCounter("TheCounter", reg)
	c.Inc(5)

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 1, len(datums))
	assert.Equal(t, "TheCounter", *datums[0].MetricName)
	assert.Equal(t, 5.0, *datums[0].Value)
	assert.Equal(t, types.StandardUnitCount, datums[0].Unit)
	assert.Equal(t, map[string]string{DefTypeDimName: DefTypeDimValCounterCount}, dimensionMap(datums[0]))

	// delta of an unchanged counter is 0: nothing emitted this cycle
	assert.Equal(t, 0, len(r.export()))

	c.Inc(3)
	datums = r.export()
	assert.Equal(t, 1, len(datums))
	assert.Equal(t, 3.0, *datums[0].Value)
}

func TestExportMeter(t *testing.T) {
	reg := metrics.NewRegistry()
	m := metrics.NewRegisteredMeter("TheMeter", reg)
	m.Mark(7)

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 1, len(datums))
	assert.Equal(t, 7.0, *datums[0].Value)
	assert.Equal(t, DefTypeDimValMeterCount, dimensionMap(datums[0])[DefTypeDimName])
}

func TestExportGauge(t *testing.T) {
	reg := metrics.NewRegistry()
	metrics.NewRegisteredFunctionalGauge("TheGauge", reg, func() int64 { return 42 })

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 1, len(datums))
	assert.Equal(t, 42.0, *datums[0].Value)
	assert.Equal(t, DefTypeDimValGauge, dimensionMap(datums[0])[DefTypeDimName])

	// gauges are not delta tracked, they report every cycle
	assert.Equal(t, 1, len(r.export()))
}

func TestExportGaugeNotANumber(t *testing.T) {
	reg := metrics.NewRegistry()
	metrics.NewRegisteredFunctionalGaugeFloat64("TheGauge notNumeric", reg, func() float64 { return math.NaN() })
	metrics.NewRegisteredFunctionalGaugeFloat64("TheGauge infinite", reg, func() float64 { return math.Inf(1) })

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	// silently skipped, no datum and no panic
	assert.Equal(t, 0, len(r.export()))
}

func TestExportHistogram(t *testing.T) {
	reg := metrics.NewRegistry()
	h := metrics.NewRegisteredHistogram("TheHistogram", reg, metrics.NewUniformSample(1028))
	h.Update(1)
	h.Update(2)
	h.Update(3)

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 2, len(datums))

	samples, stats := datums[0], datums[1]
	assert.Equal(t, 3.0, *samples.Value)
	assert.Equal(t, DefTypeDimValHistoSamples, dimensionMap(samples)[DefTypeDimName])

	assert.Equal(t, DefTypeDimValHistoStats, dimensionMap(stats)[DefTypeDimName])
	assert.Equal(t, 6.0, *stats.StatisticValues.Sum)
	assert.Equal(t, 3.0, *stats.StatisticValues.SampleCount)
	assert.Equal(t, 1.0, *stats.StatisticValues.Minimum)
	assert.Equal(t, 3.0, *stats.StatisticValues.Maximum)

	// unchanged histogram: the samples datum is delta gated away, the
	// stats datum still reflects the latest snapshot
	datums = r.export()
	assert.Equal(t, 1, len(datums))
	assert.Equal(t, DefTypeDimValHistoStats, dimensionMap(datums[0])[DefTypeDimName])
}

func TestExportTimer(t *testing.T) {
	reg := metrics.NewRegistry()
	tm := metrics.NewRegisteredTimer("TheTimer", reg)
	tm.Update(20 * time.Millisecond)

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 2, len(datums))

	samples, stats := datums[0], datums[1]
	assert.Equal(t, 1.0, *samples.Value)
	assert.Equal(t, DefTypeDimValTimerSamples, dimensionMap(samples)[DefTypeDimName])

	// nanos rescaled to millis
	assert.Equal(t, DefTypeDimValTimerStats, dimensionMap(stats)[DefTypeDimName])
	assert.Equal(t, 20.0, *stats.StatisticValues.Sum)
	assert.Equal(t, 20.0, *stats.StatisticValues.Minimum)
	assert.Equal(t, 20.0, *stats.StatisticValues.Maximum)
	assert.Equal(t, 1.0, *stats.StatisticValues.SampleCount)
}

func TestExportTimerOutlivesReservoir(t *testing.T) {
	reg := metrics.NewRegistry()
	tm := metrics.NewRegisteredTimer("TheTimer", reg)
	// well past the 1028 values the default reservoir holds
	for i := 0; i < 5000; i++ {
		tm.Update(time.Millisecond)
	}

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 2, len(datums))

	stats := datums[1].StatisticValues
	assert.Equal(t, 1028.0, *stats.SampleCount)

	// sum and sample count must cover the same held values, otherwise
	// the implied mean is diluted by the events the reservoir dropped
	mean := *stats.Sum / *stats.SampleCount
	if math.Abs(mean-1.0) > 1e-9 {
		t.Fatalf("implied mean %vms of a timer fed only 1ms durations", mean)
	}
}

func TestExportHistogramOutlivesReservoir(t *testing.T) {
	reg := metrics.NewRegistry()
	h := metrics.NewRegisteredHistogram("TheHistogram", reg, metrics.NewExpDecaySample(1028, 0.015))
	for i := 0; i < 5000; i++ {
		h.Update(7)
	}

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 2, len(datums))
	assert.Equal(t, 5000.0, *datums[0].Value)

	stats := datums[1].StatisticValues
	assert.Equal(t, 1028.0, *stats.SampleCount)
	assert.Equal(t, 7.0, *stats.Sum / *stats.SampleCount)
}

func TestExportDemuxesKeys(t *testing.T) {
	reg := metrics.NewRegistry()
	c := metrics.NewRegisteredCounter("TheCounter TestDim=Yellow TestToken* machine=number1*", reg)
	c.Inc(1)

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 4, len(datums))
	for _, d := range datums {
		dims := dimensionMap(d)
		assert.Equal(t, "Yellow", dims["TestDim"])
		assert.Equal(t, DefTypeDimValCounterCount, dims[DefTypeDimName])
		assert.Equal(t, 1.0, *d.Value)
	}
	assert.Equal(t, "TheCounter", *datums[0].MetricName)
	assert.Equal(t, "TheCounter TestToken", *datums[2].MetricName)
}

func TestExportGlobalDimensions(t *testing.T) {
	reg := metrics.NewRegistry()
	metrics.NewRegisteredCounter("TheCounter", reg).Inc(1)

	cf := NewConfig("Test", time.Minute).WithDimensions("unit=test group=first")
	r := newRunner(reg, &fakeClient{}, cf)

	datums := r.export()
	assert.Equal(t, 1, len(datums))
	dims := dimensionMap(datums[0])
	assert.Equal(t, "test", dims["unit"])
	assert.Equal(t, "first", dims["group"])
}

func TestExportDimensionsSortedAndUnique(t *testing.T) {
	reg := metrics.NewRegistry()
	// an encoded dimension colliding with the type dimension name loses
	metrics.NewRegisteredCounter("TheCounter b=2 a=1 metricType=bogus", reg).Inc(1)

	r := newRunner(reg, &fakeClient{}, NewConfig("Test", time.Minute))

	datums := r.export()
	assert.Equal(t, 1, len(datums))
	assert.Equal(t, 3, len(datums[0].Dimensions))
	assert.Equal(t, "a", *datums[0].Dimensions[0].Name)
	assert.Equal(t, "b", *datums[0].Dimensions[1].Name)
	assert.Equal(t, DefTypeDimName, *datums[0].Dimensions[2].Name)
	assert.Equal(t, DefTypeDimValCounterCount, *datums[0].Dimensions[2].Value)
}
