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

package metrics

import (
	"os"

	"github.com/getsentry/sentry-go"
)

func init() {
	sentryDSN, hasConfig := os.LookupEnv("SENTRY_DSN")
	if hasConfig && sentryDSN != "" {
		_ = sentry.Init(sentry.ClientOptions{Dsn: sentryDSN, TracesSampleRate: 0.6})
	}
}
