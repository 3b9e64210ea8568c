// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

// Package metrics exports frequency test evaluations as Prometheus metrics.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"freqcheck/internal/freqtest"
)

const namespace = "freqcheck"

// Collector holds the frequency test metrics.
type Collector struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	faults      *prometheus.CounterVec
	elapsed     prometheus.Gauge
	deviation   prometheus.Gauge
	overflows   prometheus.Gauge
	reference   prometheus.Gauge
}

// NewCollector registers the metrics in a private registry.
func NewCollector(referenceCount uint32) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Reference ticks evaluated, by verdict",
		}, []string{"verdict"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Frequency faults reported, by reason",
		}, []string{"reason"}),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "elapsed_ticks",
			Help:      "Tick source ticks counted in the latest window",
		}),
		deviation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deviation_ticks",
			Help:      "Absolute difference between elapsed and reference ticks in the latest window",
		}),
		overflows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overflow_count",
			Help:      "Tick source overflows counted in the latest window",
		}),
		reference: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_ticks",
			Help:      "Expected tick source ticks per reference interval",
		}),
	}
	c.registry.MustRegister(c.evaluations, c.faults, c.elapsed, c.deviation, c.overflows, c.reference)
	c.reference.Set(float64(referenceCount))
	// zero valued series for every verdict
	for _, v := range []freqtest.Verdict{freqtest.VerdictPass, freqtest.VerdictOverflow, freqtest.VerdictDeviation} {
		c.evaluations.WithLabelValues(string(v))
	}
	return c
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one evaluation. It is suitable for freqtest.Test.Observe.
func (c *Collector) Observe(eval freqtest.Evaluation) {
	c.evaluations.WithLabelValues(string(eval.Verdict)).Inc()
	if !eval.Passed() {
		c.faults.WithLabelValues(string(eval.Verdict)).Inc()
	}
	c.elapsed.Set(float64(eval.Elapsed))
	c.deviation.Set(float64(eval.Difference))
	c.overflows.Set(float64(eval.Overflows))
}

// Serve exposes the metrics at /metrics on listenAddr in the background.
// The returned server can be shut down by the caller.
func (c *Collector) Serve(listenAddr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 3 * time.Second,
	}
	slog.Info("Starting Prometheus metrics server", slog.String("address", listenAddr))
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Prometheus HTTP server ListenAndServe error", slog.String("error", err.Error()))
		}
	}()
	return server
}
