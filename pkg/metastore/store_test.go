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

package metastore

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/basaltfs/basalt/config"
	"github.com/basaltfs/basalt/pkg/types"
)

func newRoot() *types.Entry {
	root := types.NewEntry("/", true)
	root.ID = 1
	root.ParentID = 1
	return root
}

func describeMetaStore(name string, builder func() Meta) bool {
	return Describe("TestMetaStore-"+name, func() {
		ctx := context.TODO()
		var (
			store Meta
			root  *types.Entry
		)

		Context("entry crud", func() {
			It("init should be succeed", func() {
				store = builder()
				root = newRoot()
				Expect(store.CreateEntry(ctx, root)).Should(BeNil())
			})
			It("create child should be succeed", func() {
				en := types.NewEntry("f1.dat", false)
				en.ParentID = root.ID
				Expect(store.CreateEntry(ctx, en)).Should(BeNil())

				got, err := store.FindEntry(ctx, root.ID, "f1.dat")
				Expect(err).Should(BeNil())
				Expect(got.ID).Should(Equal(en.ID))
			})
			It("duplicate sibling name should be already exists", func() {
				en := types.NewEntry("f1.dat", false)
				en.ParentID = root.ID
				Expect(store.CreateEntry(ctx, en)).Should(Equal(types.ErrIsExist))
			})
			It("update should persist locations", func() {
				en, err := store.FindEntry(ctx, root.ID, "f1.dat")
				Expect(err).Should(BeNil())
				en.Size = 4096
				en.AddLocation(5)
				en.AddLocation(7)
				Expect(store.UpdateEntry(ctx, en)).Should(BeNil())

				got, err := store.GetEntry(ctx, en.ID)
				Expect(err).Should(BeNil())
				Expect(got.Size).Should(Equal(int64(4096)))
				Expect(got.Locations).Should(Equal([]int64{5, 7}))
			})
			It("self-parented root should not list as its own child", func() {
				children, err := store.ListChildren(ctx, root.ID)
				Expect(err).Should(BeNil())
				Expect(len(children)).Should(Equal(1))
				Expect(children[0].Name).Should(Equal("f1.dat"))
			})
			It("remove populated parent should be not empty", func() {
				sub := types.NewEntry("sub", true)
				sub.ParentID = root.ID
				Expect(store.CreateEntry(ctx, sub)).Should(BeNil())
				inner := types.NewEntry("inner.dat", false)
				inner.ParentID = sub.ID
				Expect(store.CreateEntry(ctx, inner)).Should(BeNil())

				Expect(store.RemoveEntry(ctx, sub.ID)).Should(Equal(types.ErrNotEmpty))
				Expect(store.RemoveEntry(ctx, inner.ID)).Should(BeNil())
				Expect(store.RemoveEntry(ctx, sub.ID)).Should(BeNil())
			})
			It("get removed entry should be not found", func() {
				en, err := store.FindEntry(ctx, root.ID, "f1.dat")
				Expect(err).Should(BeNil())
				Expect(store.RemoveEntry(ctx, en.ID)).Should(BeNil())
				_, err = store.GetEntry(ctx, en.ID)
				Expect(err).Should(Equal(types.ErrNotFound))
			})
		})
	})
}

var _ = describeMetaStore("memory", func() Meta {
	store, err := NewMetaStorage(config.MemoryMeta, config.Meta{})
	Expect(err).Should(BeNil())
	return store
})

var _ = describeMetaStore("sqlite", func() Meta {
	store, err := NewMetaStorage(config.SqliteMeta, config.Meta{
		Type: config.SqliteMeta,
		Path: filepath.Join(workdir, "meta.db"),
	})
	Expect(err).Should(BeNil())
	return store
})

func describeCounterStore(name string, builder func() CounterStore) bool {
	return Describe("TestCounterStore-"+name, func() {
		ctx := context.TODO()
		var store CounterStore

		Context("bucket lifecycle", func() {
			It("init should be succeed", func() {
				store = builder()
				Expect(store.CreateBucket(ctx, "quota_1")).Should(BeNil())
			})
			It("duplicate bucket should be already exists", func() {
				Expect(store.CreateBucket(ctx, "quota_1")).Should(Equal(types.ErrIsExist))
			})
			It("incr should accumulate and negative deltas settle", func() {
				val, err := store.IncrCounter(ctx, "quota_1", "u100:space", 4096)
				Expect(err).Should(BeNil())
				Expect(val).Should(Equal(int64(4096)))

				val, err = store.IncrCounter(ctx, "quota_1", "u100:space", -1024)
				Expect(err).Should(BeNil())
				Expect(val).Should(Equal(int64(3072)))

				val, err = store.GetCounter(ctx, "quota_1", "u100:space")
				Expect(err).Should(BeNil())
				Expect(val).Should(Equal(int64(3072)))
			})
			It("unknown field should read zero", func() {
				val, err := store.GetCounter(ctx, "quota_1", "u999:files")
				Expect(err).Should(BeNil())
				Expect(val).Should(Equal(int64(0)))
			})
			It("unknown bucket should be not found", func() {
				_, err := store.IncrCounter(ctx, "quota_404", "u1:space", 1)
				Expect(err).Should(Equal(types.ErrNotFound))
			})
			It("remove bucket should drop counters", func() {
				Expect(store.RemoveBucket(ctx, "quota_1")).Should(BeNil())
				Expect(store.RemoveBucket(ctx, "quota_1")).Should(Equal(types.ErrNotFound))
			})
		})
	})
}

var _ = describeCounterStore("memory", func() CounterStore {
	store, err := NewCounterStore(config.MemoryCounter, config.Counter{})
	Expect(err).Should(BeNil())
	return store
})

var _ = describeCounterStore("bolt", func() CounterStore {
	store, err := NewCounterStore(config.BoltCounter, config.Counter{
		Type: config.BoltCounter,
		Path: filepath.Join(workdir, "counter.db"),
	})
	Expect(err).Should(BeNil())
	return store
})
