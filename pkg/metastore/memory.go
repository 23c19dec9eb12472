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

package metastore

import (
	"context"
	"sync"

	"github.com/basaltfs/basalt/pkg/types"
)

type memoryMetaStore struct {
	entries  map[int64]*types.Entry
	children map[int64]map[string]int64
	mux      sync.RWMutex
}

var _ Meta = &memoryMetaStore{}

func newMemoryMetaStore() *memoryMetaStore {
	return &memoryMetaStore{
		entries:  map[int64]*types.Entry{},
		children: map[int64]map[string]int64{},
	}
}

func (m *memoryMetaStore) GetEntry(ctx context.Context, id int64) (*types.Entry, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	en, ok := m.entries[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return copyEntry(en), nil
}

func (m *memoryMetaStore) FindEntry(ctx context.Context, parentID int64, name string) (*types.Entry, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	kids, ok := m.children[parentID]
	if !ok {
		return nil, types.ErrNotFound
	}
	id, ok := kids[name]
	if !ok {
		return nil, types.ErrNotFound
	}
	en, ok := m.entries[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return copyEntry(en), nil
}

func (m *memoryMetaStore) ListChildren(ctx context.Context, parentID int64) ([]*types.Entry, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	var result []*types.Entry
	for _, id := range m.children[parentID] {
		if en, ok := m.entries[id]; ok {
			result = append(result, copyEntry(en))
		}
	}
	return result, nil
}

func (m *memoryMetaStore) HasChildren(ctx context.Context, parentID int64) (bool, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return len(m.children[parentID]) > 0, nil
}

func (m *memoryMetaStore) CreateEntry(ctx context.Context, entry *types.Entry) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	if _, ok := m.entries[entry.ID]; ok {
		return types.ErrIsExist
	}
	kids := m.children[entry.ParentID]
	if kids == nil {
		kids = map[string]int64{}
		m.children[entry.ParentID] = kids
	}
	if _, ok := kids[entry.Name]; ok && entry.ID != entry.ParentID {
		return types.ErrIsExist
	}
	m.entries[entry.ID] = copyEntry(entry)
	if entry.ID != entry.ParentID {
		kids[entry.Name] = entry.ID
	}
	return nil
}

func (m *memoryMetaStore) UpdateEntry(ctx context.Context, entry *types.Entry) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	old, ok := m.entries[entry.ID]
	if !ok {
		return types.ErrNotFound
	}
	if old.Name != entry.Name || old.ParentID != entry.ParentID {
		delete(m.children[old.ParentID], old.Name)
		kids := m.children[entry.ParentID]
		if kids == nil {
			kids = map[string]int64{}
			m.children[entry.ParentID] = kids
		}
		kids[entry.Name] = entry.ID
	}
	m.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (m *memoryMetaStore) RemoveEntry(ctx context.Context, id int64) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	en, ok := m.entries[id]
	if !ok {
		return types.ErrNotFound
	}
	if len(m.children[id]) > 0 {
		return types.ErrNotEmpty
	}
	delete(m.entries, id)
	delete(m.children, id)
	delete(m.children[en.ParentID], en.Name)
	return nil
}

func copyEntry(en *types.Entry) *types.Entry {
	dup := *en
	if en.Locations != nil {
		dup.Locations = append([]int64{}, en.Locations...)
	}
	if en.Checksum != nil {
		dup.Checksum = append([]byte{}, en.Checksum...)
	}
	return &dup
}

type memoryCounterStore struct {
	buckets map[string]map[string]int64
	mux     sync.Mutex
}

var _ CounterStore = &memoryCounterStore{}

func newMemoryCounterStore() *memoryCounterStore {
	return &memoryCounterStore{buckets: map[string]map[string]int64{}}
}

func (m *memoryCounterStore) IncrCounter(ctx context.Context, bucket, field string, delta int64) (int64, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	counters, ok := m.buckets[bucket]
	if !ok {
		return 0, types.ErrNotFound
	}
	counters[field] += delta
	return counters[field], nil
}

func (m *memoryCounterStore) GetCounter(ctx context.Context, bucket, field string) (int64, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	counters, ok := m.buckets[bucket]
	if !ok {
		return 0, types.ErrNotFound
	}
	return counters[field], nil
}

func (m *memoryCounterStore) HasBucket(ctx context.Context, bucket string) (bool, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *memoryCounterStore) CreateBucket(ctx context.Context, bucket string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	if _, ok := m.buckets[bucket]; ok {
		return types.ErrIsExist
	}
	m.buckets[bucket] = map[string]int64{}
	return nil
}

func (m *memoryCounterStore) RemoveBucket(ctx context.Context, bucket string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		return types.ErrNotFound
	}
	delete(m.buckets, bucket)
	return nil
}

func (m *memoryCounterStore) Close() error {
	return nil
}
