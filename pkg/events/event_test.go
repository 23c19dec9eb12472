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
	"time"

	"github.com/hyponet/eventbus"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/basaltfs/basalt/pkg/types"
)

var _ = Describe("TestEntryActionFanout", func() {
	en := &types.Entry{ID: 42, Name: "blob.dat", Size: 1024}

	Context("single action topic", func() {
		It("subscriber should receive the published event", func() {
			got := make(chan *types.EntryEvent, 1)
			lid := eventbus.Subscribe(EntryActionTopic(ActionTypeCommit), func(evt *types.EntryEvent) {
				got <- evt
			})
			defer eventbus.Unsubscribe(lid)

			Publish(ActionTypeCommit, "/data/blob.dat", en)

			var evt *types.EntryEvent
			Eventually(got, time.Second).Should(Receive(&evt))
			Expect(evt.Type).Should(Equal(ActionTypeCommit))
			Expect(evt.RefID).Should(Equal(int64(42)))
			Expect(evt.Data.Path).Should(Equal("/data/blob.dat"))
			Expect(evt.Source).Should(Equal("mgmCore"))
		})
	})

	Context("wildcard topic", func() {
		It("should see every action kind", func() {
			got := make(chan string, 4)
			lid := eventbus.Subscribe(TopicAllActions, func(evt *types.EntryEvent) {
				got <- evt.Type
			})
			defer eventbus.Unsubscribe(lid)

			Publish(ActionTypeCreate, "/data/blob.dat", en)
			Publish(ActionTypeDestroy, "/data/blob.dat", en)

			seen := map[string]bool{}
			for i := 0; i < 2; i++ {
				var action string
				Eventually(got, time.Second).Should(Receive(&action))
				seen[action] = true
			}
			Expect(seen).Should(HaveKey(ActionTypeCreate))
			Expect(seen).Should(HaveKey(ActionTypeDestroy))
		})
	})

	Context("action listener", func() {
		It("should count observed actions", func() {
			l := StartActionListener()
			defer l.Stop()

			before := testutil.ToFloat64(entryActionCounter.WithLabelValues(ActionTypeMkdir))
			Publish(ActionTypeMkdir, "/data", &types.Entry{ID: 7, Name: "data", IsGroup: true})

			Eventually(func() float64 {
				return testutil.ToFloat64(entryActionCounter.WithLabelValues(ActionTypeMkdir))
			}, time.Second).Should(BeNumerically(">", before))
		})
	})
})
