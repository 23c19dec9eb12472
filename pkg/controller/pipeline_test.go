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
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/basaltfs/basalt/pkg/namespace"
	"github.com/basaltfs/basalt/pkg/types"
)

func payloadAttr(payload, key string) string {
	attrs, err := types.DecodeAttributes(payload)
	Expect(err).Should(BeNil())
	val, _ := attrs.Get(key)
	return val
}

func payloadFileID(payload string) int64 {
	fid, err := strconv.ParseInt(payloadAttr(payload, types.AttrFileID), 16, 64)
	Expect(err).Should(BeNil())
	return fid
}

var _ = Describe("TestOpenCreate", func() {
	ctx := context.TODO()
	caller := types.NewVirtualIdentity(100, 100)

	Context("create without parent", func() {
		It("should be not found when make-path is off", func() {
			_, err := ctrl.Open(ctx, caller, "/a/b.dat", types.OpenAttr{Write: true, Create: true})
			Expect(errors.Is(err, types.ErrNotFound)).Should(BeTrue())
		})
		It("should create parent chain when make-path is on", func() {
			red, err := ctrl.Open(ctx, caller, "/a/b.dat", types.OpenAttr{Write: true, Create: true, MakePath: true})
			Expect(err).Should(BeNil())
			Expect(red.Host).ShouldNot(BeEmpty())
			Expect(red.ReplicaIndex).Should(Equal(0))

			Expect(payloadAttr(red.Payload, types.AttrAccess)).Should(Equal(types.AccessCreate))
			Expect(payloadAttr(red.Payload, types.AttrNodeID)).ShouldNot(BeEmpty())
			Expect(payloadAttr(red.Payload, types.AttrManager)).Should(Equal("mgm.example.org:1094"))
			Expect(payloadAttr(red.Payload, types.AttrCapToken)).ShouldNot(BeEmpty())

			// default policy hands out a plain single-copy layout
			lid, err := strconv.ParseInt(payloadAttr(red.Payload, types.AttrLayoutID), 10, 64)
			Expect(err).Should(BeNil())
			Expect(types.LayoutID(lid).StripeCount()).Should(Equal(1))

			cls, err := ctrl.Exists(ctx, "/a")
			Expect(err).Should(BeNil())
			Expect(cls).Should(Equal(namespace.Directory))
		})
		It("intermediate file component should be not a directory", func() {
			_, err := ctrl.Open(ctx, caller, "/a/b.dat/c.dat", types.OpenAttr{Write: true, Create: true, MakePath: true})
			Expect(errors.Is(err, types.ErrNoGroup)).Should(BeTrue())
		})
	})

	Context("exclusive create on existing file", func() {
		It("should be already exists and produce no capability", func() {
			red, err := ctrl.Open(ctx, caller, "/a/b.dat", types.OpenAttr{Write: true, Create: true, Exclusive: true})
			Expect(errors.Is(err, types.ErrIsExist)).Should(BeTrue())
			Expect(red).Should(BeNil())
		})
		It("non-exclusive reuse should be an update", func() {
			st, err := ctrl.Stat(ctx, "/a/b.dat")
			Expect(err).Should(BeNil())
			err = ctrl.Commit(ctx, types.CommitRequest{
				Path: "/a/b.dat", FileID: st.Ino, Size: 256,
				NodeID: 5, MtimeSec: 1700000000,
			})
			Expect(err).Should(BeNil())

			red, err := ctrl.Open(ctx, caller, "/a/b.dat", types.OpenAttr{Write: true, Create: true})
			Expect(err).Should(BeNil())
			Expect(payloadAttr(red.Payload, types.AttrAccess)).Should(Equal(types.AccessUpdate))
		})
	})

	Context("plain reads and writes on missing files", func() {
		It("read of missing path should be not found", func() {
			_, err := ctrl.Open(ctx, caller, "/a/missing.dat", types.OpenAttr{Read: true})
			Expect(errors.Is(err, types.ErrNotFound)).Should(BeTrue())
		})
		It("write without create should be not found", func() {
			_, err := ctrl.Open(ctx, caller, "/a/missing.dat", types.OpenAttr{Write: true})
			Expect(errors.Is(err, types.ErrNotFound)).Should(BeTrue())
		})
		It("open of a directory should be rejected", func() {
			_, err := ctrl.Open(ctx, caller, "/a", types.OpenAttr{Read: true})
			Expect(errors.Is(err, types.ErrIsGroup)).Should(BeTrue())
		})
	})
})

var _ = Describe("TestReplicatedOpen", func() {
	ctx := context.TODO()
	caller := types.NewVirtualIdentity(100, 100)
	var fid int64

	Context("create with replica policy", func() {
		It("placement should span three nodes", func() {
			red, err := ctrl.Open(ctx, caller, "/replicated/big.dat", types.OpenAttr{Write: true, Create: true, MakePath: true})
			Expect(err).Should(BeNil())
			fid = payloadFileID(red.Payload)

			for i := 0; i < 3; i++ {
				idx := strconv.Itoa(i)
				Expect(payloadAttr(red.Payload, types.AttrURL+idx)).Should(HavePrefix("root://"))
				Expect(payloadAttr(red.Payload, types.AttrNodeID+idx)).ShouldNot(BeEmpty())
				Expect(payloadAttr(red.Payload, types.AttrLocalPrefix+idx)).Should(HavePrefix("/data"))
			}
		})
		It("all replica commits should append locations", func() {
			for _, nodeID := range []int64{5, 7, 9} {
				err := ctrl.Commit(ctx, types.CommitRequest{
					Path: "/replicated/big.dat", FileID: fid, Size: 8192,
					NodeID: nodeID, MtimeSec: 1700000000,
				})
				Expect(err).Should(BeNil())
			}
		})
		It("read open should carry every replica and access read", func() {
			red, err := ctrl.Open(ctx, caller, "/replicated/big.dat", types.OpenAttr{Read: true})
			Expect(err).Should(BeNil())
			Expect(red.ReplicaIndex).Should(Equal(0))
			Expect(payloadAttr(red.Payload, types.AttrAccess)).Should(Equal(types.AccessRead))
			Expect(payloadAttr(red.Payload, types.AttrNodeID+"0")).Should(Equal("5"))
			Expect(payloadAttr(red.Payload, types.AttrNodeID+"1")).Should(Equal("7"))
			Expect(payloadAttr(red.Payload, types.AttrNodeID+"2")).Should(Equal("9"))
		})
		It("forced node should pin the replica index", func() {
			red, err := ctrl.Open(ctx, caller, "/replicated/big.dat", types.OpenAttr{Read: true, ForcedNodeID: 9})
			Expect(err).Should(BeNil())
			Expect(red.ReplicaIndex).Should(Equal(2))
			Expect(red.Host).Should(Equal("fst9"))
		})
		It("a deregistered replica should be dropped, not fail the open", func() {
			reg := ctrl.(*controller).registry
			node7, err := reg.Resolve(7)
			Expect(err).Should(BeNil())
			Expect(reg.Remove(7)).Should(BeNil())
			defer func() {
				Expect(reg.Add(node7)).Should(BeNil())
			}()

			red, err := ctrl.Open(ctx, caller, "/replicated/big.dat", types.OpenAttr{Read: true})
			Expect(err).Should(BeNil())
			Expect(red.ReplicaIndex).Should(Equal(0))
			Expect(red.Host).Should(Equal("fst5"))
			Expect(payloadAttr(red.Payload, types.AttrNodeID+"0")).Should(Equal("5"))
			Expect(payloadAttr(red.Payload, types.AttrNodeID+"1")).Should(Equal("9"))
			Expect(payloadAttr(red.Payload, types.AttrNodeID+"2")).Should(BeEmpty())
		})
	})
})

var _ = Describe("TestCommit", func() {
	ctx := context.TODO()
	caller := types.NewVirtualIdentity(100, 100)
	var fid int64

	Context("post-write report", func() {
		It("create file under the quota subtree", func() {
			red, err := ctrl.Open(ctx, caller, "/quota/f.dat", types.OpenAttr{Write: true, Create: true})
			Expect(err).Should(BeNil())
			fid = payloadFileID(red.Payload)
		})
		It("commit should set size, location and mtime", func() {
			err := ctrl.Commit(ctx, types.CommitRequest{
				Path: "/quota/f.dat", FileID: fid, Size: 1024,
				NodeID: 5, MtimeSec: 1700000000, MtimeNS: 42,
				Checksum: []byte{0xde, 0xad},
			})
			Expect(err).Should(BeNil())

			st, err := ctrl.Stat(ctx, "/quota/f.dat")
			Expect(err).Should(BeNil())
			Expect(st.Size).Should(Equal(int64(1024)))
			Expect(st.Ino).Should(Equal(fid))
		})
		It("repeated commit from the same node should be idempotent", func() {
			err := ctrl.Commit(ctx, types.CommitRequest{
				Path: "/quota/f.dat", FileID: fid, Size: 1024,
				NodeID: 5, MtimeSec: 1700000001,
			})
			Expect(err).Should(BeNil())

			usage, err := ctrl.QuotaReport(ctx, "/quota", 100, 100)
			Expect(err).Should(BeNil())
			Expect(usage.UsedBytes).Should(Equal(int64(1024)))
			Expect(usage.FileCount).Should(Equal(int64(1)))
		})
		It("mismatched file id should be conflict and mutate nothing", func() {
			err := ctrl.Commit(ctx, types.CommitRequest{
				Path: "/quota/f.dat", FileID: fid + 1, Size: 9999,
				NodeID: 7, MtimeSec: 1700000002,
			})
			Expect(errors.Is(err, types.ErrConflict)).Should(BeTrue())

			st, err := ctrl.Stat(ctx, "/quota/f.dat")
			Expect(err).Should(BeNil())
			Expect(st.Size).Should(Equal(int64(1024)))
		})
		It("missing mandatory field should be invalid argument", func() {
			err := ctrl.Commit(ctx, types.CommitRequest{Path: "/quota/f.dat", Size: 1})
			Expect(errors.Is(err, types.ErrInvalidArg)).Should(BeTrue())
		})
		It("commit on a vanished path should be not found", func() {
			err := ctrl.Commit(ctx, types.CommitRequest{
				Path: "/quota/vanished.dat", FileID: 1, Size: 1, NodeID: 5, MtimeSec: 1,
			})
			Expect(errors.Is(err, types.ErrNotFound)).Should(BeTrue())
		})
	})

	Context("concurrent replica reports", func() {
		It("all locations survive and quota books the final size once", func() {
			red, err := ctrl.Open(ctx, caller, "/quota/race.dat", types.OpenAttr{Write: true, Create: true})
			Expect(err).Should(BeNil())
			raceFid := payloadFileID(red.Payload)

			var wg sync.WaitGroup
			for _, nodeID := range []int64{5, 7, 9} {
				wg.Add(1)
				go func(id int64) {
					defer GinkgoRecover()
					defer wg.Done()
					commitErr := ctrl.Commit(ctx, types.CommitRequest{
						Path: "/quota/race.dat", FileID: raceFid, Size: 4096,
						NodeID: id, MtimeSec: 1700000000,
					})
					Expect(commitErr).Should(BeNil())
				}(nodeID)
			}
			wg.Wait()

			// every reporting node must be a readable replica
			for _, nodeID := range []int64{5, 7, 9} {
				got, openErr := ctrl.Open(ctx, caller, "/quota/race.dat", types.OpenAttr{Read: true, ForcedNodeID: nodeID})
				Expect(openErr).Should(BeNil())
				Expect(got.Host).Should(Equal("fst" + strconv.FormatInt(nodeID, 10)))
			}

			// f.dat's 1024 bytes are still booked alongside race.dat
			usage, err := ctrl.QuotaReport(ctx, "/quota", 100, 100)
			Expect(err).Should(BeNil())
			Expect(usage.UsedBytes).Should(Equal(int64(1024 + 4096)))
			Expect(usage.FileCount).Should(Equal(int64(2)))

			Expect(ctrl.RemoveFile(ctx, caller, "/quota/race.dat")).Should(BeNil())
		})
	})

	Context("quota settlement on remove", func() {
		It("remove should return the booked bytes", func() {
			Expect(ctrl.RemoveFile(ctx, caller, "/quota/f.dat")).Should(BeNil())

			usage, err := ctrl.QuotaReport(ctx, "/quota", 100, 100)
			Expect(err).Should(BeNil())
			Expect(usage.UsedBytes).Should(Equal(int64(0)))
			Expect(usage.FileCount).Should(Equal(int64(0)))
		})
	})
})

var _ = Describe("TestStatAndListing", func() {
	ctx := context.TODO()
	caller := types.NewVirtualIdentity(100, 100)

	Context("stat files and directories", func() {
		It("prepare tree", func() {
			_, err := ctrl.Mkdir(ctx, caller, "/statdir/sub1", true)
			Expect(err).Should(BeNil())
			_, err = ctrl.Mkdir(ctx, caller, "/statdir/sub2", false)
			Expect(err).Should(BeNil())
			red, err := ctrl.Open(ctx, caller, "/statdir/f.dat", types.OpenAttr{Write: true, Create: true})
			Expect(err).Should(BeNil())
			err = ctrl.Commit(ctx, types.CommitRequest{
				Path: "/statdir/f.dat", FileID: payloadFileID(red.Payload), Size: 10000,
				NodeID: 5, MtimeSec: 1700000000,
			})
			Expect(err).Should(BeNil())
		})
		It("file stat should report the synthetic device and blocks", func() {
			st, err := ctrl.Stat(ctx, "/statdir/f.dat")
			Expect(err).Should(BeNil())
			Expect(st.Dev).Should(Equal(uint64(0xcaff)))
			Expect(st.BlockSize).Should(Equal(4096))
			Expect(st.Blocks).Should(Equal(int64(2)))
			Expect(st.UID).Should(Equal(int64(100)))
		})
		It("directory stat should count child containers", func() {
			st, err := ctrl.Stat(ctx, "/statdir")
			Expect(err).Should(BeNil())
			Expect(st.Mode.IsDir()).Should(BeTrue())
			Expect(st.Size).Should(Equal(int64(2)))
		})
		It("listing should put files before containers", func() {
			dir, err := ctrl.OpenDirectory(ctx, "/statdir")
			Expect(err).Should(BeNil())
			var names []string
			for {
				name, ok := dir.NextEntry()
				if !ok {
					break
				}
				names = append(names, name)
			}
			Expect(names[0]).Should(Equal("f.dat"))
			Expect(strings.Join(names[1:], ",")).Should(ContainSubstring("sub"))
		})
		It("remove non-empty directory should be not empty", func() {
			err := ctrl.RemoveContainer(ctx, caller, "/statdir")
			Expect(errors.Is(err, types.ErrNotEmpty)).Should(BeTrue())
		})
	})
})

var _ = Describe("TestNodeInventory", func() {
	ctx := context.TODO()

	Context("configured nodes", func() {
		It("should list every seeded node ordered by id", func() {
			nodes := ctrl.ListNodes(ctx)
			ids := make([]int64, 0, len(nodes))
			for _, n := range nodes {
				ids = append(ids, n.ID)
				Expect(n.Healthy).Should(BeTrue())
			}
			Expect(ids).Should(Equal([]int64{5, 7, 9}))
		})
	})
})

var _ = Describe("TestCapabilityVerifyEndpoint", func() {
	ctx := context.TODO()
	caller := types.NewVirtualIdentity(100, 100)

	Context("issued token", func() {
		It("should verify and reject tampering", func() {
			red, err := ctrl.Open(ctx, caller, "/cap/sealed.dat", types.OpenAttr{Write: true, Create: true, MakePath: true})
			Expect(err).Should(BeNil())

			token := payloadAttr(red.Payload, types.AttrCapToken)
			attrs, err := ctrl.VerifyCapability(ctx, token)
			Expect(err).Should(BeNil())
			got, _ := attrs.Get(types.AttrPath)
			Expect(got).Should(Equal("/cap/sealed.dat"))
			got, _ = attrs.Get(types.AttrAccess)
			Expect(got).Should(Equal(types.AccessCreate))

			_, err = ctrl.VerifyCapability(ctx, token+"x")
			Expect(errors.Is(err, types.ErrInvalidArg)).Should(BeTrue())
		})
		It("denied caller should never reach placement", func() {
			_, err := ctrl.Open(ctx, types.VirtualIdentity{UID: -1, GID: -1}, "/cap/sealed.dat", types.OpenAttr{Read: true})
			Expect(errors.Is(err, types.ErrNoPerm)).Should(BeTrue())
		})
	})
})
