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

package events

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	entryActionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mgm_entry_actions_total",
			Help: "The count of entry actions observed on the event bus.",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(
		entryActionCounter,
	)
}
