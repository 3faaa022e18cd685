package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUtterance(t *testing.T) {
	c := New()
	c.RecordUtterance(StatusSuccess)
	c.RecordUtterance(StatusSuccess)
	c.RecordUtterance(StatusSkipped)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.utterancesTotal.WithLabelValues(StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.utterancesTotal.WithLabelValues(StatusSkipped)))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.utterancesTotal.WithLabelValues(StatusError)))
}

func TestCounters(t *testing.T) {
	c := New()
	c.RecordTruncation()
	c.RecordDegenerate()
	c.RecordDegenerate()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.decoderTruncations))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.degenerateSignals))
}

func TestHistograms(t *testing.T) {
	c := New()
	c.ObserveStage(StageVocode, 120*time.Millisecond)
	c.Time(StageMix)()
	c.ObserveGain(3.2)
	c.ObserveFrames(420)

	assert.Equal(t, 2, testutil.CollectAndCount(c.stageDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(c.normalizationGain))
	assert.Equal(t, 1, testutil.CollectAndCount(c.decoderFramesPerRun))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveStage(StageAcoustic, time.Second)
		c.Time(StageWrite)()
		c.RecordUtterance(StatusError)
		c.RecordTruncation()
		c.RecordDegenerate()
		c.ObserveGain(1)
		c.ObserveFrames(1)
	})
}

func TestHandler(t *testing.T) {
	c := New()
	c.RecordUtterance(StatusSuccess)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `glados_utterances_total{status="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
