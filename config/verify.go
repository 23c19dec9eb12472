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

package config

import (
	"fmt"
	"strings"
)

func verifyConfig(cfg Config) error {
	switch cfg.Meta.Type {
	case MemoryMeta:
	case SqliteMeta:
		if cfg.Meta.Path == "" {
			return fmt.Errorf("meta path is empty for sqlite meta store")
		}
	case PostgresMeta:
		if cfg.Meta.DSN == "" {
			return fmt.Errorf("meta dsn is empty for postgres meta store")
		}
	default:
		return fmt.Errorf("unknown meta store type %s", cfg.Meta.Type)
	}

	switch cfg.Counter.Type {
	case MemoryCounter:
	case BoltCounter:
		if cfg.Counter.Path == "" {
			return fmt.Errorf("counter path is empty for bolt counter store")
		}
	default:
		return fmt.Errorf("unknown counter store type %s", cfg.Counter.Type)
	}

	if cfg.Capability.CurrentKey == "" {
		return fmt.Errorf("capability current_key is empty")
	}

	nodeIDs := map[int64]struct{}{}
	for _, n := range cfg.Nodes {
		if n.ID == 0 {
			return fmt.Errorf("storage node id must be non-zero")
		}
		if _, dup := nodeIDs[n.ID]; dup {
			return fmt.Errorf("duplicate storage node id %d", n.ID)
		}
		nodeIDs[n.ID] = struct{}{}
		if n.Host == "" || n.LocalPrefix == "" {
			return fmt.Errorf("storage node %d needs host and local_prefix", n.ID)
		}
	}

	for _, q := range cfg.Quotas {
		if !strings.HasPrefix(q.Path, "/") {
			return fmt.Errorf("quota path %q is not absolute", q.Path)
		}
	}
	for _, p := range cfg.Policy {
		if !strings.HasPrefix(p.PathPrefix, "/") {
			return fmt.Errorf("policy prefix %q is not absolute", p.PathPrefix)
		}
	}
	return nil
}
