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

const (
	DefaultSpace        = "default"
	defaultCapValid     = 3600
	defaultManagerPort  = 1094
	defaultManagerIdent = "localhost:1094"
)

func fillDefault(cfg *Config) {
	if cfg.Manager == "" {
		cfg.Manager = defaultManagerIdent
	}
	if cfg.Meta.Type == "" {
		cfg.Meta.Type = MemoryMeta
	}
	if cfg.Counter.Type == "" {
		cfg.Counter.Type = MemoryCounter
	}
	if cfg.Capability.ValidSeconds == 0 {
		cfg.Capability.ValidSeconds = defaultCapValid
	}
	for i := range cfg.Nodes {
		if cfg.Nodes[i].Space == "" {
			cfg.Nodes[i].Space = DefaultSpace
		}
		if cfg.Nodes[i].Port == 0 {
			cfg.Nodes[i].Port = defaultManagerPort
		}
	}
	for i := range cfg.Quotas {
		if cfg.Quotas[i].Space == "" {
			cfg.Quotas[i].Space = DefaultSpace
		}
	}
}
