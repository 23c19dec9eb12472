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
	"strconv"

	"github.com/basaltfs/basalt/pkg/types"
)

func itoa(i int) string {
	return strconv.Itoa(i)
}

// settleQuota books a delta against the quota subtree governing en, if any.
// Unregistered subtrees cost nothing.
func (c *controller) settleQuota(ctx context.Context, en *types.Entry, logical, physical, files int64) error {
	ancestors, err := c.view.AncestorIDs(ctx, en)
	if err != nil {
		return err
	}
	subtree, ok := c.quota.NearestNode(ctx, ancestors)
	if !ok {
		return nil
	}
	return c.quota.ApplyDelta(ctx, subtree, en.UID, en.GID, logical, physical, files)
}
