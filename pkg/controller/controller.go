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
	"runtime/trace"

	"go.uber.org/zap"

	"github.com/basaltfs/basalt/config"
	"github.com/basaltfs/basalt/pkg/capability"
	"github.com/basaltfs/basalt/pkg/metastore"
	"github.com/basaltfs/basalt/pkg/namespace"
	"github.com/basaltfs/basalt/pkg/placement"
	"github.com/basaltfs/basalt/pkg/policy"
	"github.com/basaltfs/basalt/pkg/quota"
	"github.com/basaltfs/basalt/pkg/registry"
	"github.com/basaltfs/basalt/pkg/types"
	"github.com/basaltfs/basalt/utils/logger"
)

// Controller is the open/commit orchestrator plus the namespace and quota
// admin surface around it.
type Controller interface {
	Open(ctx context.Context, caller types.VirtualIdentity, path string, attr types.OpenAttr) (*types.Redirection, error)
	Commit(ctx context.Context, req types.CommitRequest) error
	VerifyCapability(ctx context.Context, token string) (types.Attributes, error)

	Mkdir(ctx context.Context, caller types.VirtualIdentity, path string, recursive bool) (*types.Entry, error)
	RemoveFile(ctx context.Context, caller types.VirtualIdentity, path string) error
	RemoveContainer(ctx context.Context, caller types.VirtualIdentity, path string) error
	Stat(ctx context.Context, path string) (*types.Stat, error)
	OpenDirectory(ctx context.Context, path string) (*namespace.DirStream, error)
	Exists(ctx context.Context, path string) (namespace.Classification, error)

	RegisterQuota(ctx context.Context, path, space string) error
	RemoveQuota(ctx context.Context, path string) error
	QuotaReport(ctx context.Context, path string, uid, gid int64) (*QuotaUsage, error)

	ListNodes(ctx context.Context) []types.StorageNode
}

type controller struct {
	view       *namespace.View
	quota      *quota.Engine
	registry   *registry.Registry
	scheduler  *placement.Scheduler
	capability *capability.Engine
	policy     *policy.Policy
	authorizer Authorizer

	manager      string
	validSeconds int64

	logger *zap.SugaredLogger
}

var _ Controller = &controller{}

func New(loader config.Loader, meta metastore.Meta, counters metastore.CounterStore) (Controller, error) {
	log := logger.NewLogger("controller")
	defer logger.CostLog(log, "controller bootstrap")()

	cfg, err := loader.GetConfig()
	if err != nil {
		return nil, err
	}

	view, err := namespace.NewView(meta)
	if err != nil {
		return nil, err
	}

	keys, err := capability.NewKeyStore(cfg.Capability.CurrentKey, cfg.Capability.RecentKeys, len(cfg.Capability.RecentKeys))
	if err != nil {
		return nil, err
	}
	pol, err := policy.New(cfg.Policy)
	if err != nil {
		return nil, err
	}

	ctl := &controller{
		view:         view,
		quota:        quota.NewEngine(counters),
		registry:     registry.New(),
		capability:   capability.NewEngine(keys),
		policy:       pol,
		authorizer:   NewAuthorizer(),
		manager:      cfg.Manager,
		validSeconds: cfg.Capability.ValidSeconds,
		logger:       log,
	}
	ctl.scheduler = placement.NewScheduler(ctl.registry, ctl.quota)

	if err = ctl.seed(context.Background(), cfg); err != nil {
		return nil, err
	}
	return ctl, nil
}

// seed loads the configured storage nodes and quota subtrees at boot.
func (c *controller) seed(ctx context.Context, cfg config.Config) error {
	for _, n := range cfg.Nodes {
		err := c.registry.Add(types.StorageNode{
			ID:          n.ID,
			Host:        n.Host,
			Port:        n.Port,
			LocalPrefix: n.LocalPrefix,
			Space:       n.Space,
			GroupTag:    n.GroupTag,
			FreeBytes:   n.FreeBytes,
			Healthy:     true,
		})
		if err != nil {
			return err
		}
	}

	for _, q := range cfg.Quotas {
		if err := c.RegisterQuota(ctx, q.Path, q.Space); err != nil && !errors.Is(err, types.ErrIsExist) {
			return err
		}
	}
	return nil
}

// ListNodes snapshots the storage node inventory for the admin surface.
func (c *controller) ListNodes(ctx context.Context) []types.StorageNode {
	defer trace.StartRegion(ctx, "controller.ListNodes").End()
	return c.registry.All()
}
