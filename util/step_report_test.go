package util

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStepReport(t *testing.T) {
	var b bytes.Buffer
	r := NewStepReport(StepReportOpts{
		Name:   "sample",
		MinPct: 0.1,
		Writer: &b,
	})

	r.Report()
	require.Equal(t, 0, r.Reported())
	require.Empty(t, b.String())

	for _, v := range []int64{100, 100, 100, 200, 300, 4000} {
		require.NoError(t, r.Histogram().RecordValue(v))
	}
	r.Report()

	require.Equal(t, 1, r.Reported())
	require.Contains(t, b.String(), "name=sample steps=6")
	require.Contains(t, b.String(), "p50=")
	require.Equal(t, int64(0), r.Histogram().TotalCount())
}

func BenchmarkStepReport(b *testing.B) {
	r := NewStepReport(StepReportOpts{
		Name:   "sample",
		Writer: io.Discard,
	})

	last := time.Now()
	for i := 0; i < b.N; i++ {
		now := time.Now()
		_ = r.Histogram().RecordValue(now.Sub(last).Nanoseconds())
		last = now
		if i%4096 == 0 {
			r.Report()
		}
	}
}
