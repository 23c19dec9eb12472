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

package registry

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/basaltfs/basalt/pkg/types"
	"github.com/basaltfs/basalt/utils/logger"
)

// Registry tracks the storage nodes known to the manager. Readers get
// point-in-time snapshots, so a scheduler run is never torn by a concurrent
// health or free-space update.
type Registry struct {
	nodes  map[int64]*types.StorageNode
	mux    sync.RWMutex
	logger *zap.SugaredLogger
}

func New() *Registry {
	return &Registry{
		nodes:  map[int64]*types.StorageNode{},
		logger: logger.NewLogger("registry"),
	}
}

// Add registers a storage node. Re-adding an id replaces the previous record.
func (r *Registry) Add(node types.StorageNode) error {
	if node.ID == 0 {
		return types.ErrInvalidArg
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	n := node
	r.nodes[node.ID] = &n
	r.logger.Infow("storage node registered", "node", node.ID, "host", node.HostPort(), "space", node.Space)
	return nil
}

// Resolve returns a copy of one node record.
func (r *Registry) Resolve(nodeID int64) (types.StorageNode, error) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	n, ok := r.nodes[nodeID]
	if !ok {
		return types.StorageNode{}, types.ErrNotFound
	}
	return *n, nil
}

// Candidates snapshots the healthy nodes assigned to a space, ordered by id.
// The slice is private to the caller and can be iterated any number of times.
func (r *Registry) Candidates(space string) []types.StorageNode {
	r.mux.RLock()
	defer r.mux.RUnlock()
	var result []types.StorageNode
	for _, n := range r.nodes {
		if n.Space == space && n.Healthy {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// All snapshots every known node regardless of space.
func (r *Registry) All() []types.StorageNode {
	r.mux.RLock()
	defer r.mux.RUnlock()
	result := make([]types.StorageNode, 0, len(r.nodes))
	for _, n := range r.nodes {
		result = append(result, *n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// UpdateHealth flips the health state of a node.
func (r *Registry) UpdateHealth(nodeID int64, healthy bool) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	n, ok := r.nodes[nodeID]
	if !ok {
		return types.ErrNotFound
	}
	if n.Healthy != healthy {
		r.logger.Infow("storage node health changed", "node", nodeID, "healthy", healthy)
	}
	n.Healthy = healthy
	return nil
}

// UpdateFreeSpace records the latest free-bytes report from a node.
func (r *Registry) UpdateFreeSpace(nodeID int64, freeBytes uint64) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	n, ok := r.nodes[nodeID]
	if !ok {
		return types.ErrNotFound
	}
	n.FreeBytes = freeBytes
	return nil
}

// Remove drops a node from the registry.
func (r *Registry) Remove(nodeID int64) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if _, ok := r.nodes[nodeID]; !ok {
		return types.ErrNotFound
	}
	delete(r.nodes, nodeID)
	r.logger.Infow("storage node removed", "node", nodeID)
	return nil
}
