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
	"github.com/hyponet/eventbus"
	"go.uber.org/zap"

	"github.com/basaltfs/basalt/pkg/types"
	"github.com/basaltfs/basalt/utils/logger"
)

// ActionListener consumes every entry action published on the bus and turns
// it into a log line and a counter sample. It runs on bus goroutines and
// must stay off the namespace lock.
type ActionListener struct {
	lid    string
	logger *zap.SugaredLogger
}

func StartActionListener() *ActionListener {
	l := &ActionListener{logger: logger.NewLogger("entryActions")}
	l.lid = eventbus.Subscribe(TopicAllActions, l.handleEvent)
	return l
}

func (l *ActionListener) handleEvent(evt *types.EntryEvent) {
	entryActionCounter.WithLabelValues(evt.Type).Inc()
	l.logger.Debugw("entry action", "action", evt.Type, "entry", evt.RefID, "path", evt.Data.Path)
}

func (l *ActionListener) Stop() {
	eventbus.Unsubscribe(l.lid)
}
