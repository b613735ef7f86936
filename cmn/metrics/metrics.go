// Package metrics exposes NM/SS operation counters on a small Prometheus
// /metrics HTTP listener, independent of the line-oriented data protocol.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wordstore/wordstore/cmn/nlog"
)

// Tracker is the common counter set a role (NM or SS) registers.
type Tracker struct {
	Requests *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewTracker(role string) *Tracker {
	return &Tracker{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordstore",
			Subsystem: role,
			Name:      "requests_total",
			Help:      "Number of requests handled, by command.",
		}, []string{"cmd"}),
		Errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordstore",
			Subsystem: role,
			Name:      "errors_total",
			Help:      "Number of error responses, by command.",
		}, []string{"cmd"}),
		Latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wordstore",
			Subsystem: role,
			Name:      "request_seconds",
			Help:      "Request handling latency, by command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cmd"}),
	}
}

// Serve starts the /metrics HTTP listener in its own goroutine; a port of
// 0 disables it.
func Serve(port int) {
	if port <= 0 {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			nlog.Warningf("metrics listener on %s exited: %v", addr, err)
		}
	}()
}
