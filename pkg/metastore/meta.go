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
	"fmt"

	"github.com/basaltfs/basalt/config"
)

const (
	MemoryMeta   = config.MemoryMeta
	SqliteMeta   = config.SqliteMeta
	PostgresMeta = config.PostgresMeta

	MemoryCounter = config.MemoryCounter
	BoltCounter   = config.BoltCounter
)

func NewMetaStorage(metaType string, meta config.Meta) (Meta, error) {
	switch metaType {
	case MemoryMeta:
		return newMemoryMetaStore(), nil
	case SqliteMeta:
		return newSqliteMetaStore(meta)
	case PostgresMeta:
		return newPostgresMetaStore(meta)
	default:
		return nil, fmt.Errorf("unknown meta store type: %s", metaType)
	}
}

func NewCounterStore(counterType string, counter config.Counter) (CounterStore, error) {
	switch counterType {
	case MemoryCounter:
		return newMemoryCounterStore(), nil
	case BoltCounter:
		return newBoltCounterStore(counter.Path)
	default:
		return nil, fmt.Errorf("unknown counter store type: %s", counterType)
	}
}
