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

package quota

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/basaltfs/basalt/pkg/types"
)

var _ = Describe("TestQuotaNodeLifecycle", func() {
	ctx := context.TODO()

	Context("register and remove", func() {
		It("register should be succeed", func() {
			Expect(engine.RegisterNode(ctx, 1001)).Should(BeNil())
			Expect(engine.IsRegistered(ctx, 1001)).Should(BeTrue())
		})
		It("duplicate register should be already exists", func() {
			Expect(engine.RegisterNode(ctx, 1001)).Should(Equal(types.ErrIsExist))
		})
		It("remove should drop all counters", func() {
			Expect(engine.ApplyDelta(ctx, 1001, 1, 1, 100, 100, 1)).Should(BeNil())
			Expect(engine.RemoveNode(ctx, 1001)).Should(BeNil())
			Expect(engine.IsRegistered(ctx, 1001)).Should(BeFalse())

			Expect(engine.RegisterNode(ctx, 1001)).Should(BeNil())
			used, err := engine.UsedBytesByUser(ctx, 1001, 1)
			Expect(err).Should(BeNil())
			Expect(used).Should(Equal(int64(0)))
		})
		It("remove unregistered should be not found", func() {
			Expect(engine.RemoveNode(ctx, 9999)).Should(Equal(types.ErrNotFound))
		})
	})

	Context("nearest node from ancestor chain", func() {
		It("first registered ancestor should win", func() {
			subtree, ok := engine.NearestNode(ctx, []int64{5555, 1001, 1})
			Expect(ok).Should(BeTrue())
			Expect(subtree).Should(Equal(int64(1001)))
		})
		It("no registered ancestor should be miss", func() {
			_, ok := engine.NearestNode(ctx, []int64{5555, 6666})
			Expect(ok).Should(BeFalse())
		})
	})
})

var _ = Describe("TestQuotaAccounting", func() {
	ctx := context.TODO()
	const subtree = int64(2000)

	Context("book deltas for replicated files", func() {
		It("register should be succeed", func() {
			Expect(engine.RegisterNode(ctx, subtree)).Should(BeNil())
		})
		It("creates should accumulate logical and physical bytes", func() {
			// 4 files of 1k with replication factor 3
			for i := 0; i < 4; i++ {
				Expect(engine.ApplyDelta(ctx, subtree, 42, 7, 1024, 3072, 1)).Should(BeNil())
			}

			used, err := engine.UsedBytesByUser(ctx, subtree, 42)
			Expect(err).Should(BeNil())
			Expect(used).Should(Equal(int64(4096)))

			physical, err := engine.PhysicalBytesByUser(ctx, subtree, 42)
			Expect(err).Should(BeNil())
			Expect(physical).Should(Equal(int64(12288)))

			files, err := engine.FileCountByUser(ctx, subtree, 42)
			Expect(err).Should(BeNil())
			Expect(files).Should(Equal(int64(4)))
		})
		It("group counters should mirror user counters", func() {
			used, err := engine.UsedBytesByGroup(ctx, subtree, 7)
			Expect(err).Should(BeNil())
			Expect(used).Should(Equal(int64(4096)))

			files, err := engine.FileCountByGroup(ctx, subtree, 7)
			Expect(err).Should(BeNil())
			Expect(files).Should(Equal(int64(4)))
		})
		It("removes should settle negative deltas", func() {
			Expect(engine.ApplyDelta(ctx, subtree, 42, 7, -1024, -3072, -1)).Should(BeNil())

			used, err := engine.UsedBytesByUser(ctx, subtree, 42)
			Expect(err).Should(BeNil())
			Expect(used).Should(Equal(int64(3072)))

			files, err := engine.FileCountByUser(ctx, subtree, 42)
			Expect(err).Should(BeNil())
			Expect(files).Should(Equal(int64(3)))
		})
		It("delta on unregistered subtree should be not found", func() {
			Expect(engine.ApplyDelta(ctx, 8888, 42, 7, 1, 1, 1)).Should(Equal(types.ErrNotFound))
		})
	})
})

var _ = Describe("TestQuotaHeadroom", func() {
	ctx := context.TODO()
	const subtree = int64(3000)

	Context("space bound to a limited subtree", func() {
		It("setup should be succeed", func() {
			Expect(engine.RegisterNode(ctx, subtree)).Should(BeNil())
			engine.BindSpace("cold", subtree)
			Expect(engine.SetUserLimit(ctx, subtree, 42, 4096, 0)).Should(BeNil())
		})
		It("unbound space should always have headroom", func() {
			ok, err := engine.HasHeadroom(ctx, "unbound", 42, 7)
			Expect(err).Should(BeNil())
			Expect(ok).Should(BeTrue())
		})
		It("under the limit should have headroom", func() {
			Expect(engine.ApplyDelta(ctx, subtree, 42, 7, 1024, 1024, 1)).Should(BeNil())
			ok, err := engine.HasHeadroom(ctx, "cold", 42, 7)
			Expect(err).Should(BeNil())
			Expect(ok).Should(BeTrue())
		})
		It("at the limit should be exhausted", func() {
			Expect(engine.ApplyDelta(ctx, subtree, 42, 7, 3072, 3072, 1)).Should(BeNil())
			ok, err := engine.HasHeadroom(ctx, "cold", 42, 7)
			Expect(err).Should(BeNil())
			Expect(ok).Should(BeFalse())
		})
		It("file count limit should constrain too", func() {
			Expect(engine.SetGroupLimit(ctx, subtree, 8, 0, 2)).Should(BeNil())
			Expect(engine.ApplyDelta(ctx, subtree, 43, 8, 0, 0, 2)).Should(BeNil())
			ok, err := engine.HasHeadroom(ctx, "cold", 43, 8)
			Expect(err).Should(BeNil())
			Expect(ok).Should(BeFalse())
		})
	})
})
