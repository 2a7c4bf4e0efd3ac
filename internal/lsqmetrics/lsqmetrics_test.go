package lsqmetrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"

	"github.com/mfkiwl/RTKLIB-1/internal/lsqmetrics"
)

func Test_ObserveVerdict_IncrementsLabeledCounter(t *testing.T) {
	assert := assert.New(t)

	c := lsqmetrics.New()
	c.ObserveVerdict("SUCCEED")
	c.ObserveVerdict("SUCCEED")
	c.ObserveVerdict("NOISY")

	m := &dto.Metric{}
	err := c.Verdicts.WithLabelValues("SUCCEED").Write(m)
	assert.NoError(err)
	assert.Equal(2.0, m.GetCounter().GetValue())
}

func Test_ObserveSolverStats_RecordsIntoBothHistograms(t *testing.T) {
	assert := assert.New(t)

	c := lsqmetrics.New()
	c.ObserveSolverStats(4, 0)
	c.ObserveSolverStats(6, 12)

	irls := &dto.Metric{}
	assert.NoError(c.IRLSIterations.Write(irls))
	assert.Equal(uint64(2), irls.GetHistogram().GetSampleCount())
	assert.Equal(10.0, irls.GetHistogram().GetSampleSum())

	ransac := &dto.Metric{}
	assert.NoError(c.RANSACTrials.Write(ransac))
	assert.Equal(uint64(2), ransac.GetHistogram().GetSampleCount())
	assert.Equal(12.0, ransac.GetHistogram().GetSampleSum())
}

func Test_Collect_ReturnsAllCollectors(t *testing.T) {
	assert := assert.New(t)

	c := lsqmetrics.New()
	collectors := c.Collect()
	assert.Len(collectors, 3)

	reg := prometheus.NewRegistry()
	for _, col := range collectors {
		assert.NoError(reg.Register(col))
	}
}
