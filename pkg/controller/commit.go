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

	"github.com/basaltfs/basalt/pkg/events"
	"github.com/basaltfs/basalt/pkg/types"
)

// Commit applies a storage node's post-write report: size, checksum, mtime
// and the reporting node's location. A stale file id is a conflict and
// mutates nothing.
func (c *controller) Commit(ctx context.Context, req types.CommitRequest) error {
	defer trace.StartRegion(ctx, "controller.Commit").End()
	startAt := time.Now()
	defer logOperationLatency("commit", startAt)

	if err := c.commit(ctx, req); err != nil {
		c.logger.Errorw("commit failed", "path", req.Path, "fid", req.FileID, "err", err)
		return logOperationError("commit", errors.Wrapf(err, "commit %s", req.Path))
	}
	return nil
}

func (c *controller) commit(ctx context.Context, req types.CommitRequest) error {
	if req.Path == "" || req.FileID == 0 || req.NodeID == 0 || req.Size < 0 {
		return types.ErrInvalidArg
	}

	prev, en, err := c.view.CommitFile(ctx, req)
	if err != nil {
		return err
	}

	delta := req.Size - prev
	if delta != 0 {
		if err = c.settleQuota(ctx, en, delta, delta*en.LayoutID.ReplicationFactor(), 0); err != nil {
			return err
		}
	}
	events.Publish(events.ActionTypeCommit, req.Path, en)
	return nil
}
