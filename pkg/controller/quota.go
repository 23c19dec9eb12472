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
	"runtime/trace"
	"time"

	"github.com/pkg/errors"

	"github.com/basaltfs/basalt/pkg/types"
)

// QuotaUsage is the per-identity accounting snapshot of one quota subtree.
type QuotaUsage struct {
	SubtreeID     int64 `json:"subtree_id"`
	UsedBytes     int64 `json:"used_bytes"`
	PhysicalBytes int64 `json:"physical_bytes"`
	FileCount     int64 `json:"file_count"`

	GroupUsedBytes     int64 `json:"group_used_bytes"`
	GroupPhysicalBytes int64 `json:"group_physical_bytes"`
	GroupFileCount     int64 `json:"group_file_count"`
}

// RegisterQuota starts accounting on the container at path. The container is
// created on demand so quota subtrees can be configured ahead of first use.
func (c *controller) RegisterQuota(ctx context.Context, path, space string) error {
	defer trace.StartRegion(ctx, "controller.RegisterQuota").End()
	startAt := time.Now()
	defer logOperationLatency("quota_register", startAt)

	en, err := c.view.Lookup(ctx, path)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return logOperationError("quota_register", errors.Wrapf(err, "register quota %s", path))
		}
		if en, err = c.view.CreateContainer(ctx, path, true, 0, 0); err != nil {
			return logOperationError("quota_register", errors.Wrapf(err, "register quota %s", path))
		}
	}
	if !en.IsGroup {
		return logOperationError("quota_register", errors.Wrapf(types.ErrNoGroup, "register quota %s", path))
	}

	if err = c.quota.RegisterNode(ctx, en.ID); err != nil {
		return logOperationError("quota_register", errors.Wrapf(err, "register quota %s", path))
	}
	if space != "" {
		c.quota.BindSpace(space, en.ID)
	}
	return nil
}

// RemoveQuota stops accounting on a subtree and drops its counters. This is
// an explicit administrative action, never triggered by namespace removals.
func (c *controller) RemoveQuota(ctx context.Context, path string) error {
	defer trace.StartRegion(ctx, "controller.RemoveQuota").End()
	startAt := time.Now()
	defer logOperationLatency("quota_remove", startAt)

	en, err := c.view.Lookup(ctx, path)
	if err != nil {
		return logOperationError("quota_remove", errors.Wrapf(err, "remove quota %s", path))
	}
	if err = c.quota.RemoveNode(ctx, en.ID); err != nil {
		return logOperationError("quota_remove", errors.Wrapf(err, "remove quota %s", path))
	}
	return nil
}

func (c *controller) QuotaReport(ctx context.Context, path string, uid, gid int64) (*QuotaUsage, error) {
	defer trace.StartRegion(ctx, "controller.QuotaReport").End()
	startAt := time.Now()
	defer logOperationLatency("quota_report", startAt)

	usage, err := c.quotaReport(ctx, path, uid, gid)
	if err != nil {
		return nil, logOperationError("quota_report", errors.Wrapf(err, "quota report %s", path))
	}
	return usage, nil
}

func (c *controller) quotaReport(ctx context.Context, path string, uid, gid int64) (*QuotaUsage, error) {
	en, err := c.view.Lookup(ctx, path)
	if err != nil {
		return nil, err
	}
	if !c.quota.IsRegistered(ctx, en.ID) {
		return nil, types.ErrNotFound
	}

	usage := &QuotaUsage{SubtreeID: en.ID}
	if usage.UsedBytes, err = c.quota.UsedBytesByUser(ctx, en.ID, uid); err != nil {
		return nil, err
	}
	if usage.PhysicalBytes, err = c.quota.PhysicalBytesByUser(ctx, en.ID, uid); err != nil {
		return nil, err
	}
	if usage.FileCount, err = c.quota.FileCountByUser(ctx, en.ID, uid); err != nil {
		return nil, err
	}
	if usage.GroupUsedBytes, err = c.quota.UsedBytesByGroup(ctx, en.ID, gid); err != nil {
		return nil, err
	}
	if usage.GroupPhysicalBytes, err = c.quota.PhysicalBytesByGroup(ctx, en.ID, gid); err != nil {
		return nil, err
	}
	if usage.GroupFileCount, err = c.quota.FileCountByGroup(ctx, en.ID, gid); err != nil {
		return nil, err
	}
	return usage, nil
}
