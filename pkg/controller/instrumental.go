/*
 Copyright 2025 Basalt Authors.

 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package controller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mgmOperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mgm_operation_latency_seconds",
			Help:    "The latency of metadata manager operation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"operation"},
	)
	mgmOperationErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mgm_operation_errors",
			Help: "The count of metadata manager operations encountering errors.",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		mgmOperationLatency,
		mgmOperationErrorCounter,
	)
}

func logOperationLatency(operation string, startAt time.Time) {
	mgmOperationLatency.WithLabelValues(operation).Observe(time.Since(startAt).Seconds())
}

func logOperationError(operation string, err error) error {
	if err != nil {
		mgmOperationErrorCounter.WithLabelValues(operation).Inc()
	}
	return err
}
