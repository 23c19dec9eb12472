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
	"fmt"
	"runtime/trace"
	"sync"

	"go.uber.org/zap"

	"github.com/basaltfs/basalt/pkg/metastore"
	"github.com/basaltfs/basalt/utils/logger"
)

// Counter field tags inside one subtree bucket. The u/g prefix separates the
// per-uid and per-gid hash spaces.
const (
	tagSpace         = "space"
	tagPhysicalSpace = "physical_space"
	tagFiles         = "files"
	tagLimitBytes    = "limit_bytes"
	tagLimitFiles    = "limit_files"
)

// Engine books logical bytes, physical bytes and file counts per namespace
// subtree, split by uid and gid. It is backed by its own counter store and
// never takes the namespace lock.
type Engine struct {
	store  metastore.CounterStore
	spaces map[string]int64
	mux    sync.RWMutex
	logger *zap.SugaredLogger
}

func NewEngine(store metastore.CounterStore) *Engine {
	return &Engine{
		store:  store,
		spaces: map[string]int64{},
		logger: logger.NewLogger("quotaEngine"),
	}
}

// RegisterNode starts quota accounting on a namespace subtree.
func (e *Engine) RegisterNode(ctx context.Context, subtreeID int64) error {
	defer trace.StartRegion(ctx, "quota.engine.RegisterNode").End()
	err := e.store.CreateBucket(ctx, bucketName(subtreeID))
	if err != nil {
		return err
	}
	e.logger.Infow("quota node registered", "subtree", subtreeID)
	return nil
}

// RemoveNode drops a quota subtree and all of its accumulated counters.
func (e *Engine) RemoveNode(ctx context.Context, subtreeID int64) error {
	defer trace.StartRegion(ctx, "quota.engine.RemoveNode").End()
	if err := e.store.RemoveBucket(ctx, bucketName(subtreeID)); err != nil {
		return err
	}

	e.mux.Lock()
	for space, id := range e.spaces {
		if id == subtreeID {
			delete(e.spaces, space)
		}
	}
	e.mux.Unlock()

	e.logger.Infow("quota node removed", "subtree", subtreeID)
	return nil
}

func (e *Engine) IsRegistered(ctx context.Context, subtreeID int64) bool {
	found, err := e.store.HasBucket(ctx, bucketName(subtreeID))
	if err != nil {
		e.logger.Warnw("check quota node failed", "subtree", subtreeID, "err", err)
		return false
	}
	return found
}

// NearestNode picks the first registered subtree from an ancestor chain
// ordered nearest first.
func (e *Engine) NearestNode(ctx context.Context, ancestors []int64) (int64, bool) {
	for _, id := range ancestors {
		if e.IsRegistered(ctx, id) {
			return id, true
		}
	}
	return 0, false
}

// BindSpace ties a placement space name to the quota subtree governing it.
func (e *Engine) BindSpace(space string, subtreeID int64) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.spaces[space] = subtreeID
}

func (e *Engine) SpaceNode(space string) (int64, bool) {
	e.mux.RLock()
	defer e.mux.RUnlock()
	id, ok := e.spaces[space]
	return id, ok
}

// ApplyDelta books one create, remove or commit against a subtree. Deltas are
// applied to the uid and gid counters in one pass; negative results are
// clamped by the caller's bookkeeping discipline, not here.
func (e *Engine) ApplyDelta(ctx context.Context, subtreeID, uid, gid, logical, physical, files int64) error {
	defer trace.StartRegion(ctx, "quota.engine.ApplyDelta").End()
	bucket := bucketName(subtreeID)
	for _, upd := range []struct {
		field string
		delta int64
	}{
		{userField(uid, tagSpace), logical},
		{groupField(gid, tagSpace), logical},
		{userField(uid, tagPhysicalSpace), physical},
		{groupField(gid, tagPhysicalSpace), physical},
		{userField(uid, tagFiles), files},
		{groupField(gid, tagFiles), files},
	} {
		if upd.delta == 0 {
			continue
		}
		if _, err := e.store.IncrCounter(ctx, bucket, upd.field, upd.delta); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) UsedBytesByUser(ctx context.Context, subtreeID, uid int64) (int64, error) {
	return e.store.GetCounter(ctx, bucketName(subtreeID), userField(uid, tagSpace))
}

func (e *Engine) UsedBytesByGroup(ctx context.Context, subtreeID, gid int64) (int64, error) {
	return e.store.GetCounter(ctx, bucketName(subtreeID), groupField(gid, tagSpace))
}

func (e *Engine) PhysicalBytesByUser(ctx context.Context, subtreeID, uid int64) (int64, error) {
	return e.store.GetCounter(ctx, bucketName(subtreeID), userField(uid, tagPhysicalSpace))
}

func (e *Engine) PhysicalBytesByGroup(ctx context.Context, subtreeID, gid int64) (int64, error) {
	return e.store.GetCounter(ctx, bucketName(subtreeID), groupField(gid, tagPhysicalSpace))
}

func (e *Engine) FileCountByUser(ctx context.Context, subtreeID, uid int64) (int64, error) {
	return e.store.GetCounter(ctx, bucketName(subtreeID), userField(uid, tagFiles))
}

func (e *Engine) FileCountByGroup(ctx context.Context, subtreeID, gid int64) (int64, error) {
	return e.store.GetCounter(ctx, bucketName(subtreeID), groupField(gid, tagFiles))
}

// SetUserLimit configures byte/file ceilings for one uid under a subtree.
// Zero means unlimited.
func (e *Engine) SetUserLimit(ctx context.Context, subtreeID, uid, limitBytes, limitFiles int64) error {
	return e.setLimit(ctx, subtreeID, userField(uid, tagLimitBytes), userField(uid, tagLimitFiles), limitBytes, limitFiles)
}

func (e *Engine) SetGroupLimit(ctx context.Context, subtreeID, gid, limitBytes, limitFiles int64) error {
	return e.setLimit(ctx, subtreeID, groupField(gid, tagLimitBytes), groupField(gid, tagLimitFiles), limitBytes, limitFiles)
}

func (e *Engine) setLimit(ctx context.Context, subtreeID int64, bytesField, filesField string, limitBytes, limitFiles int64) error {
	bucket := bucketName(subtreeID)
	cur, err := e.store.GetCounter(ctx, bucket, bytesField)
	if err != nil {
		return err
	}
	if _, err = e.store.IncrCounter(ctx, bucket, bytesField, limitBytes-cur); err != nil {
		return err
	}
	cur, err = e.store.GetCounter(ctx, bucket, filesField)
	if err != nil {
		return err
	}
	_, err = e.store.IncrCounter(ctx, bucket, filesField, limitFiles-cur)
	return err
}

// HasHeadroom reports whether both the (uid, space) and (gid, space) pairs
// are under their configured ceilings. Unbound spaces and unset limits do
// not constrain. The check intentionally happens once, before placement;
// it is not re-verified afterwards.
func (e *Engine) HasHeadroom(ctx context.Context, space string, uid, gid int64) (bool, error) {
	subtreeID, bound := e.SpaceNode(space)
	if !bound {
		return true, nil
	}
	bucket := bucketName(subtreeID)

	for _, pair := range []struct {
		usedBytes, limitBytes string
		usedFiles, limitFiles string
	}{
		{userField(uid, tagPhysicalSpace), userField(uid, tagLimitBytes), userField(uid, tagFiles), userField(uid, tagLimitFiles)},
		{groupField(gid, tagPhysicalSpace), groupField(gid, tagLimitBytes), groupField(gid, tagFiles), groupField(gid, tagLimitFiles)},
	} {
		limit, err := e.store.GetCounter(ctx, bucket, pair.limitBytes)
		if err != nil {
			return false, err
		}
		if limit > 0 {
			used, err := e.store.GetCounter(ctx, bucket, pair.usedBytes)
			if err != nil {
				return false, err
			}
			if used >= limit {
				return false, nil
			}
		}
		limit, err = e.store.GetCounter(ctx, bucket, pair.limitFiles)
		if err != nil {
			return false, err
		}
		if limit > 0 {
			used, err := e.store.GetCounter(ctx, bucket, pair.usedFiles)
			if err != nil {
				return false, err
			}
			if used >= limit {
				return false, nil
			}
		}
	}
	return true, nil
}

func bucketName(subtreeID int64) string {
	return fmt.Sprintf("quota_%d", subtreeID)
}

func userField(uid int64, tag string) string {
	return fmt.Sprintf("u%d:%s", uid, tag)
}

func groupField(gid int64, tag string) string {
	return fmt.Sprintf("g%d:%s", gid, tag)
}
