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
	"os"
	"runtime/trace"
	"time"

	"github.com/pkg/errors"

	"github.com/basaltfs/basalt/pkg/events"
	"github.com/basaltfs/basalt/pkg/namespace"
	"github.com/basaltfs/basalt/pkg/types"
)

func (c *controller) Mkdir(ctx context.Context, caller types.VirtualIdentity, path string, recursive bool) (*types.Entry, error) {
	defer trace.StartRegion(ctx, "controller.Mkdir").End()
	startAt := time.Now()
	defer logOperationLatency("mkdir", startAt)

	if err := c.authorizer.Authorize(ctx, caller, path, types.AccessCreate); err != nil {
		return nil, logOperationError("mkdir", errors.Wrapf(err, "mkdir %s", path))
	}
	en, err := c.view.CreateContainer(ctx, path, recursive, caller.UID, caller.GID)
	if err != nil {
		return nil, logOperationError("mkdir", errors.Wrapf(err, "mkdir %s", path))
	}
	events.Publish(events.ActionTypeMkdir, path, en)
	return en, nil
}

func (c *controller) RemoveFile(ctx context.Context, caller types.VirtualIdentity, path string) error {
	defer trace.StartRegion(ctx, "controller.RemoveFile").End()
	startAt := time.Now()
	defer logOperationLatency("rm", startAt)

	if err := c.authorizer.Authorize(ctx, caller, path, types.AccessUpdate); err != nil {
		return logOperationError("rm", errors.Wrapf(err, "rm %s", path))
	}
	en, err := c.view.RemoveFile(ctx, path)
	if err != nil {
		return logOperationError("rm", errors.Wrapf(err, "rm %s", path))
	}
	if err = c.settleQuota(ctx, en, -en.Size, -en.Size*en.LayoutID.ReplicationFactor(), -1); err != nil {
		return logOperationError("rm", errors.Wrapf(err, "rm %s", path))
	}
	events.Publish(events.ActionTypeDestroy, path, en)
	return nil
}

func (c *controller) RemoveContainer(ctx context.Context, caller types.VirtualIdentity, path string) error {
	defer trace.StartRegion(ctx, "controller.RemoveContainer").End()
	startAt := time.Now()
	defer logOperationLatency("rmdir", startAt)

	if err := c.authorizer.Authorize(ctx, caller, path, types.AccessUpdate); err != nil {
		return logOperationError("rmdir", errors.Wrapf(err, "rmdir %s", path))
	}
	if err := c.view.RemoveContainer(ctx, path); err != nil {
		return logOperationError("rmdir", errors.Wrapf(err, "rmdir %s", path))
	}
	return nil
}

// Stat reports the stat-equivalent view of an entry. Directories report
// their child-container count as size; files report synthetic block counts
// derived from the fixed block size.
func (c *controller) Stat(ctx context.Context, path string) (*types.Stat, error) {
	defer trace.StartRegion(ctx, "controller.Stat").End()
	startAt := time.Now()
	defer logOperationLatency("stat", startAt)

	en, err := c.view.Lookup(ctx, path)
	if err != nil {
		return nil, logOperationError("stat", errors.Wrapf(err, "stat %s", path))
	}

	st := &types.Stat{
		Dev:   types.StatDevice,
		Ino:   en.ID,
		UID:   en.UID,
		GID:   en.GID,
		Atime: en.ModifiedAt,
		Mtime: en.ModifiedAt,
		Ctime: en.ChangedAt,
	}
	if en.IsGroup {
		st.Mode = os.ModeDir | 0777
		count, countErr := c.view.CountChildContainers(ctx, path)
		if countErr != nil {
			return nil, logOperationError("stat", errors.Wrapf(countErr, "stat %s", path))
		}
		st.Size = count
		return st, nil
	}
	st.Mode = 0644
	st.Size = en.Size
	st.BlockSize = types.StatBlockSize
	st.Blocks = en.Size / types.StatBlockSize
	return st, nil
}

func (c *controller) OpenDirectory(ctx context.Context, path string) (*namespace.DirStream, error) {
	defer trace.StartRegion(ctx, "controller.OpenDirectory").End()
	startAt := time.Now()
	defer logOperationLatency("ls", startAt)

	dir, err := c.view.OpenDirectory(ctx, path)
	if err != nil {
		return nil, logOperationError("ls", errors.Wrapf(err, "ls %s", path))
	}
	return dir, nil
}

// Exists classifies a path. Containers take precedence over files by
// construction, a name can only be one of the two.
func (c *controller) Exists(ctx context.Context, path string) (namespace.Classification, error) {
	defer trace.StartRegion(ctx, "controller.Exists").End()
	return c.view.Classify(ctx, path)
}
