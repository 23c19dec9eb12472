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

package placement

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/basaltfs/basalt/pkg/types"
)

var _ = Describe("TestFilePlacement", func() {
	ctx := context.TODO()

	Context("plain layout", func() {
		It("should pick exactly one node with most free space", func() {
			layout := types.NewLayoutID(types.LayoutPlain, types.ChecksumAdler32, 1)
			selected, err := scheduler.FilePlacement(ctx, 1, 1, "", layout, "default")
			Expect(err).Should(BeNil())
			Expect(selected).Should(Equal([]int64{5}))
		})
	})

	Context("replica layout", func() {
		It("three stripes should span three fault domains", func() {
			layout := types.NewLayoutID(types.LayoutReplica, types.ChecksumAdler32, 3)
			selected, err := scheduler.FilePlacement(ctx, 1, 1, "", layout, "default")
			Expect(err).Should(BeNil())
			Expect(len(selected)).Should(Equal(3))

			seen := map[int64]struct{}{}
			domains := map[string]struct{}{}
			for _, id := range selected {
				_, dup := seen[id]
				Expect(dup).Should(BeFalse())
				seen[id] = struct{}{}

				node, err := reg.Resolve(id)
				Expect(err).Should(BeNil())
				domains[node.GroupTag] = struct{}{}
			}
			Expect(len(domains)).Should(Equal(3))
		})
		It("more stripes than usable nodes should be no space", func() {
			// node 13 sits under the free-space floor
			layout := types.NewLayoutID(types.LayoutReplica, types.ChecksumAdler32, 5)
			_, err := scheduler.FilePlacement(ctx, 1, 1, "", layout, "default")
			Expect(err).Should(Equal(types.ErrNoSpace))
		})
		It("same-domain fallback should still fill the selection", func() {
			layout := types.NewLayoutID(types.LayoutReplica, types.ChecksumAdler32, 4)
			selected, err := scheduler.FilePlacement(ctx, 1, 1, "", layout, "default")
			Expect(err).Should(BeNil())
			Expect(selected).Should(ConsistOf(int64(5), int64(7), int64(9), int64(11)))
		})
	})

	Context("quota exhausted identity", func() {
		It("should be no space", func() {
			Expect(quotaEngine.RegisterNode(ctx, 700)).Should(BeNil())
			quotaEngine.BindSpace("default", 700)
			Expect(quotaEngine.SetUserLimit(ctx, 700, 66, 1024, 0)).Should(BeNil())
			Expect(quotaEngine.ApplyDelta(ctx, 700, 66, 66, 2048, 2048, 1)).Should(BeNil())

			layout := types.NewLayoutID(types.LayoutPlain, types.ChecksumAdler32, 1)
			_, err := scheduler.FilePlacement(ctx, 66, 66, "", layout, "default")
			Expect(err).Should(Equal(types.ErrNoSpace))
		})
	})

	Context("unhealthy space", func() {
		It("no healthy candidate should be no space", func() {
			Expect(reg.UpdateHealth(15, false)).Should(BeNil())
			layout := types.NewLayoutID(types.LayoutPlain, types.ChecksumAdler32, 1)
			_, err := scheduler.FilePlacement(ctx, 1, 1, "", layout, "cold")
			Expect(err).Should(Equal(types.ErrNoSpace))
			Expect(reg.UpdateHealth(15, true)).Should(BeNil())
		})
	})
})

var _ = Describe("TestFileAccess", func() {
	ctx := context.TODO()
	locations := []int64{5, 7, 9}

	Context("forced node", func() {
		It("forced node holding a copy should be chosen", func() {
			idx, err := scheduler.FileAccess(ctx, 9, locations, false)
			Expect(err).Should(BeNil())
			Expect(idx).Should(Equal(2))
		})
		It("forced node without a copy should fall through", func() {
			idx, err := scheduler.FileAccess(ctx, 15, locations, false)
			Expect(err).Should(BeNil())
			Expect(idx).Should(Equal(0))
		})
	})

	Context("write access", func() {
		It("first healthy location should be chosen", func() {
			Expect(reg.UpdateHealth(5, false)).Should(BeNil())
			idx, err := scheduler.FileAccess(ctx, 0, locations, true)
			Expect(err).Should(BeNil())
			Expect(idx).Should(Equal(1))
			Expect(reg.UpdateHealth(5, true)).Should(BeNil())
		})
	})

	Context("read access", func() {
		It("healthiest replica should be chosen", func() {
			idx, err := scheduler.FileAccess(ctx, 0, locations, false)
			Expect(err).Should(BeNil())
			Expect(idx).Should(Equal(0))
		})
		It("empty location list should be not found", func() {
			_, err := scheduler.FileAccess(ctx, 0, nil, false)
			Expect(err).Should(Equal(types.ErrNotFound))
		})
		It("all unhealthy should be not found", func() {
			for _, id := range locations {
				Expect(reg.UpdateHealth(id, false)).Should(BeNil())
			}
			_, err := scheduler.FileAccess(ctx, 0, locations, false)
			Expect(err).Should(Equal(types.ErrNotFound))
			for _, id := range locations {
				Expect(reg.UpdateHealth(id, true)).Should(BeNil())
			}
		})
	})
})
