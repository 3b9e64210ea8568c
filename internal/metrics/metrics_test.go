package metrics

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freqcheck/internal/freqtest"
)

// gather returns every sample of the collector keyed by name and label value
func gather(t *testing.T, c *Collector) map[string]float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)
	samples := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, label := range m.GetLabel() {
				key += "/" + label.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				samples[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				samples[key] = m.GetGauge().GetValue()
			}
		}
	}
	return samples
}

func TestNewCollector(t *testing.T) {
	samples := gather(t, NewCollector(31250))
	assert.Equal(t, 31250.0, samples["freqcheck_reference_ticks"])
	for _, verdict := range []string{"pass", "overflow", "deviation"} {
		value, ok := samples["freqcheck_evaluations_total/"+verdict]
		assert.True(t, ok, verdict)
		assert.Equal(t, 0.0, value)
	}
}

func TestObserve(t *testing.T) {
	c := NewCollector(1000)
	c.Observe(freqtest.Evaluation{Elapsed: 1200, Difference: 200, Verdict: freqtest.VerdictPass})
	c.Observe(freqtest.Evaluation{Elapsed: 1100, Difference: 100, Verdict: freqtest.VerdictPass})
	c.Observe(freqtest.Evaluation{Elapsed: 66536, Difference: 65536, Overflows: 1, Verdict: freqtest.VerdictOverflow})
	samples := gather(t, c)
	assert.Equal(t, 2.0, samples["freqcheck_evaluations_total/pass"])
	assert.Equal(t, 1.0, samples["freqcheck_evaluations_total/overflow"])
	assert.Equal(t, 0.0, samples["freqcheck_evaluations_total/deviation"])
	assert.Equal(t, 1.0, samples["freqcheck_faults_total/overflow"])
	_, ok := samples["freqcheck_faults_total/deviation"]
	assert.False(t, ok)
	assert.Equal(t, 66536.0, samples["freqcheck_elapsed_ticks"])
	assert.Equal(t, 65536.0, samples["freqcheck_deviation_ticks"])
	assert.Equal(t, 1.0, samples["freqcheck_overflow_count"])
}

func TestExposition(t *testing.T) {
	c := NewCollector(1000)
	c.Observe(freqtest.Evaluation{Elapsed: 1300, Difference: 300, Verdict: freqtest.VerdictDeviation})
	server := httptest.NewServer(promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))
	defer server.Close()
	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `freqcheck_faults_total{reason="deviation"} 1`), text)
	assert.Contains(t, text, "freqcheck_deviation_ticks 300")
}

func TestServeShutdown(t *testing.T) {
	server := NewCollector(1000).Serve("127.0.0.1:0")
	assert.Equal(t, "127.0.0.1:0", server.Addr)
	assert.NoError(t, server.Shutdown(context.Background()))
}
