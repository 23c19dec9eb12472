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
	"runtime/trace"
	"sort"

	"go.uber.org/zap"

	"github.com/basaltfs/basalt/pkg/quota"
	"github.com/basaltfs/basalt/pkg/registry"
	"github.com/basaltfs/basalt/pkg/types"
	"github.com/basaltfs/basalt/utils/logger"
)

// DefaultFreeBytesFloor is the free-space floor below which a node is not
// considered for new placements.
const DefaultFreeBytesFloor = 128 << 20

// Scheduler picks storage nodes for new files and access points for existing
// ones. It works on registry snapshots and may act on slightly stale
// capacity data; staleness surfaces as ErrNoSpace downstream, never a crash.
type Scheduler struct {
	registry       *registry.Registry
	quota          *quota.Engine
	freeBytesFloor uint64
	logger         *zap.SugaredLogger
}

func NewScheduler(reg *registry.Registry, q *quota.Engine) *Scheduler {
	return &Scheduler{
		registry:       reg,
		quota:          q,
		freeBytesFloor: DefaultFreeBytesFloor,
		logger:         logger.NewLogger("scheduler"),
	}
}

// FilePlacement selects layout.StripeCount() distinct nodes for a new file.
// Replica layouts spread across fault domains (node group tags) when enough
// domains have capacity, then fall back to same-domain picks. The result is
// ranked by descending free space within those constraints.
func (s *Scheduler) FilePlacement(ctx context.Context, uid, gid int64, groupTag string, layout types.LayoutID, space string) ([]int64, error) {
	defer trace.StartRegion(ctx, "placement.scheduler.FilePlacement").End()

	ok, err := s.quota.HasHeadroom(ctx, space, uid, gid)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Infow("placement rejected, quota exhausted", "space", space, "uid", uid, "gid", gid)
		return nil, types.ErrNoSpace
	}

	need := layout.StripeCount()
	candidates := s.usableCandidates(space, groupTag)
	if len(candidates) < need {
		s.logger.Infow("placement rejected, not enough usable nodes",
			"space", space, "need", need, "usable", len(candidates))
		return nil, types.ErrNoSpace
	}

	// Rank by descending free space, lowest id on ties.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FreeBytes != candidates[j].FreeBytes {
			return candidates[i].FreeBytes > candidates[j].FreeBytes
		}
		return candidates[i].ID < candidates[j].ID
	})

	if layout.Kind() == types.LayoutReplica || layout.Kind() == types.LayoutStriped {
		return spreadAcrossDomains(candidates, need), nil
	}

	selected := make([]int64, 0, need)
	for _, n := range candidates[:need] {
		selected = append(selected, n.ID)
	}
	return selected, nil
}

// FileAccess picks the index of the location a client should be redirected
// to for an existing file.
func (s *Scheduler) FileAccess(ctx context.Context, forcedNodeID int64, locations []int64, isWrite bool) (int, error) {
	defer trace.StartRegion(ctx, "placement.scheduler.FileAccess").End()

	if len(locations) == 0 {
		return 0, types.ErrNotFound
	}
	if forcedNodeID != 0 {
		for idx, loc := range locations {
			if loc == forcedNodeID {
				return idx, nil
			}
		}
	}

	if isWrite {
		for idx, loc := range locations {
			if s.nodeHealthy(loc) {
				return idx, nil
			}
		}
		return 0, types.ErrNotFound
	}

	// Read path: the healthiest replica wins, ties fall to the lowest
	// node id for determinism.
	best := -1
	var bestFree uint64
	var bestNode int64
	for idx, loc := range locations {
		node, err := s.registry.Resolve(loc)
		if err != nil || !node.Healthy {
			continue
		}
		if best == -1 || node.FreeBytes > bestFree ||
			(node.FreeBytes == bestFree && node.ID < bestNode) {
			best, bestFree, bestNode = idx, node.FreeBytes, node.ID
		}
	}
	if best == -1 {
		return 0, types.ErrNotFound
	}
	return best, nil
}

func (s *Scheduler) usableCandidates(space, groupTag string) []types.StorageNode {
	all := s.registry.Candidates(space)
	usable := all[:0:0]
	for _, n := range all {
		if n.FreeBytes < s.freeBytesFloor {
			continue
		}
		if groupTag != "" && n.GroupTag != groupTag {
			continue
		}
		usable = append(usable, n)
	}
	return usable
}

func (s *Scheduler) nodeHealthy(nodeID int64) bool {
	node, err := s.registry.Resolve(nodeID)
	return err == nil && node.Healthy
}

// spreadAcrossDomains picks one node per distinct group tag in rank order
// until need is met, then fills from the remaining candidates. Candidates
// must already be ranked; len(candidates) >= need.
func spreadAcrossDomains(candidates []types.StorageNode, need int) []int64 {
	selected := make([]int64, 0, need)
	taken := make(map[int64]struct{}, need)
	domains := make(map[string]struct{}, need)

	for _, n := range candidates {
		if len(selected) == need {
			return selected
		}
		if _, seen := domains[n.GroupTag]; seen {
			continue
		}
		domains[n.GroupTag] = struct{}{}
		taken[n.ID] = struct{}{}
		selected = append(selected, n.ID)
	}
	for _, n := range candidates {
		if len(selected) == need {
			break
		}
		if _, picked := taken[n.ID]; picked {
			continue
		}
		taken[n.ID] = struct{}{}
		selected = append(selected, n.ID)
	}
	return selected
}
