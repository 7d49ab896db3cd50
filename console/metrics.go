/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package console

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	actionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txconsole_action_total",
			Help: "All control actions sent to the coordinator",
		},
		[]string{"action", "result"})
	fetchSummary = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "txconsole_fetch_duration_seconds",
			Help: "Latency of console list queries",
		},
		[]string{"kind", "result"})
	sessionGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "txconsole_sessions",
			Help: "Global sessions on the current page by status",
		},
		[]string{"status"})
)

func init() {
	prometheus.MustRegister(actionTotal, fetchSummary, sessionGauge)
}

func resultLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "succeed"
}

func actionMetrics(a Action, err error) {
	actionTotal.WithLabelValues(a.String(), resultLabel(err)).Inc()
}

func fetchMetrics(kind string, begin time.Time, err error) {
	fetchSummary.WithLabelValues(kind, resultLabel(err)).Observe(time.Since(begin).Seconds())
}

func sessionMetrics(rows []GlobalSession) {
	sessionGauge.Reset()
	for _, r := range rows {
		sessionGauge.WithLabelValues(r.StatusLabel().Label).Inc()
	}
}
