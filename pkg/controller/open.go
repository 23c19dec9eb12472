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

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/basaltfs/basalt/pkg/events"
	"github.com/basaltfs/basalt/pkg/namespace"
	"github.com/basaltfs/basalt/pkg/types"
)

// Open runs the whole redirect pipeline for one request: authorize, resolve
// or create the record, pick a layout and space for new files, schedule
// placement or access, seal the capability and hand back the redirection.
// The namespace lock is never held across placement or sealing.
func (c *controller) Open(ctx context.Context, caller types.VirtualIdentity, path string, attr types.OpenAttr) (*types.Redirection, error) {
	defer trace.StartRegion(ctx, "controller.Open").End()
	startAt := time.Now()
	defer logOperationLatency("open", startAt)

	red, err := c.open(ctx, caller, path, attr)
	if err != nil {
		c.logger.Errorw("open failed", "path", path, "err", err)
		return nil, logOperationError("open", errors.Wrapf(err, "open %s", path))
	}
	return red, nil
}

func (c *controller) open(ctx context.Context, caller types.VirtualIdentity, path string, attr types.OpenAttr) (*types.Redirection, error) {
	access := deriveAccess(attr)
	if err := c.authorizer.Authorize(ctx, caller, path, access); err != nil {
		return nil, err
	}

	if attr.MakePath && attr.Create {
		if err := c.makeParents(ctx, caller, path); err != nil {
			return nil, err
		}
	}

	en, created, err := c.resolveOrCreate(ctx, caller, path, attr)
	if err != nil {
		return nil, err
	}
	if !created && access == types.AccessCreate {
		// reusing an existing record, the storage node sees an update
		access = types.AccessUpdate
	}

	decision := c.policy.Resolve(path)
	if created {
		en.LayoutID = decision.Layout
		if err = c.view.UpdateFile(ctx, en); err != nil {
			return nil, err
		}
		if err = c.settleQuota(ctx, en, 0, 0, 1); err != nil {
			return nil, err
		}
		events.Publish(events.ActionTypeCreate, path, en)
	}

	if attr.Trunc && !created && en.Size > 0 {
		prev := en.Size
		en.Size = 0
		en.ModifiedAt = time.Now()
		if err = c.view.UpdateFile(ctx, en); err != nil {
			return nil, err
		}
		if err = c.settleQuota(ctx, en, -prev, -prev*en.LayoutID.ReplicationFactor(), 0); err != nil {
			return nil, err
		}
	}

	var (
		selected []int64
		chosen   int
	)
	if created {
		selected, err = c.scheduler.FilePlacement(ctx, caller.UID, caller.GID, attr.GroupTag, en.LayoutID, decision.Space)
	} else {
		selected = en.Locations
		chosen, err = c.scheduler.FileAccess(ctx, attr.ForcedNodeID, en.Locations, attr.IsWrite())
	}
	if err != nil {
		return nil, err
	}

	red, err := c.buildRedirection(ctx, caller, path, access, en, selected, chosen)
	if err != nil {
		return nil, err
	}
	events.Publish(events.ActionTypeOpen, path, en)
	return red, nil
}

// deriveAccess maps the open flags onto the single operation kind stamped
// into the capability. Reads are the default.
func deriveAccess(attr types.OpenAttr) string {
	switch {
	case attr.Create:
		return types.AccessCreate
	case attr.IsWrite():
		return types.AccessUpdate
	default:
		return types.AccessRead
	}
}

func (c *controller) makeParents(ctx context.Context, caller types.VirtualIdentity, path string) error {
	parent := namespace.ParentPath(path)
	cls, err := c.view.Classify(ctx, parent)
	if err != nil {
		return err
	}
	switch cls {
	case namespace.Directory:
		return nil
	case namespace.File:
		return types.ErrNoGroup
	}
	_, err = c.view.CreateContainer(ctx, parent, true, caller.UID, caller.GID)
	return err
}

func (c *controller) resolveOrCreate(ctx context.Context, caller types.VirtualIdentity, path string, attr types.OpenAttr) (*types.Entry, bool, error) {
	cls, err := c.view.Classify(ctx, path)
	if err != nil {
		return nil, false, err
	}
	switch cls {
	case namespace.Directory:
		return nil, false, types.ErrIsGroup
	case namespace.Missing:
		if !(attr.IsWrite() && attr.Create) {
			return nil, false, types.ErrNotFound
		}
		en, createErr := c.view.CreateFile(ctx, path, caller.UID, caller.GID)
		if createErr != nil {
			return nil, false, createErr
		}
		return en, true, nil
	default:
		if attr.Create && attr.Exclusive {
			return nil, false, types.ErrIsExist
		}
		en, lookupErr := c.view.Lookup(ctx, path)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		return en, false, nil
	}
}

// buildRedirection assembles the mgm.* attribute set, seals it and targets
// the chosen node.
func (c *controller) buildRedirection(ctx context.Context, caller types.VirtualIdentity, path, access string, en *types.Entry, selected []int64, chosen int) (*types.Redirection, error) {
	if len(selected) == 0 || chosen >= len(selected) {
		return nil, types.ErrNoSpace
	}

	// A location may point at a node that has since left the registry;
	// such replicas are dropped from the redirection rather than failing
	// an open the scheduler already satisfied.
	nodes := make([]types.StorageNode, 0, len(selected))
	primaryIdx := -1
	for idx, nodeID := range selected {
		node, err := c.registry.Resolve(nodeID)
		if err != nil {
			if idx == chosen {
				return nil, err
			}
			c.logger.Warnw("dropping unresolvable replica", "path", path, "node", nodeID)
			continue
		}
		if idx == chosen {
			primaryIdx = len(nodes)
		}
		nodes = append(nodes, node)
	}
	primary := nodes[primaryIdx]
	logID := uuid.New().String()

	var attrs types.Attributes
	attrs.Add(types.AttrAccess, access)
	attrs.Addf(types.AttrUID, "%d", caller.UID)
	attrs.Addf(types.AttrGID, "%d", caller.GID)
	attrs.Addf(types.AttrRealUID, "%d", caller.RealUID())
	attrs.Addf(types.AttrRealGID, "%d", caller.RealGID())
	attrs.Add(types.AttrPath, path)
	attrs.Add(types.AttrManager, c.manager)
	attrs.Addf(types.AttrFileID, "%x", en.ID)
	attrs.Addf(types.AttrLayoutID, "%d", uint32(en.LayoutID))
	attrs.Addf(types.AttrNodeID, "%d", primary.ID)
	attrs.Add(types.AttrLocalPrefix, primary.LocalPrefix)
	if en.LayoutID.ReplicationFactor() > 1 {
		for i, node := range nodes {
			attrs.Addf(types.AttrURL+itoa(i), "%s", node.URL(path))
			attrs.Addf(types.AttrNodeID+itoa(i), "%d", node.ID)
			attrs.Add(types.AttrLocalPrefix+itoa(i), node.LocalPrefix)
		}
	}
	attrs.Add(types.AttrLogID, logID)
	attrs.Addf(types.AttrReplicaIndex, "%d", primaryIdx)
	attrs.Addf(types.AttrExpires, "%d", time.Now().Unix()+c.validSeconds)

	token, err := c.capability.Create(ctx, attrs)
	if err != nil {
		return nil, err
	}

	payload := attrs.Encode() + "&" + types.AttrCapToken + "=" + token
	return &types.Redirection{
		Host:         primary.Host,
		Port:         primary.Port,
		Payload:      payload,
		LogID:        logID,
		ReplicaIndex: primaryIdx,
	}, nil
}

// VerifyCapability opens a previously issued token.
func (c *controller) VerifyCapability(ctx context.Context, token string) (types.Attributes, error) {
	return c.capability.Verify(ctx, token)
}
