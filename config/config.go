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

type Config struct {
	// Manager is the identity stamped into every capability, host:port of
	// this metadata service.
	Manager string `json:"manager"`

	Api        Api        `json:"api"`
	Meta       Meta       `json:"meta"`
	Counter    Counter    `json:"counter"`
	Capability Capability `json:"capability"`

	Nodes  []Node       `json:"nodes,omitempty"`
	Quotas []QuotaNode  `json:"quotas,omitempty"`
	Policy []PolicyRule `json:"policy,omitempty"`

	Debug bool `json:"debug,omitempty"`
}

type Api struct {
	Enable bool   `json:"enable"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Pprof  bool   `json:"pprof"`
}

const (
	MemoryMeta   = "memory"
	SqliteMeta   = "sqlite"
	PostgresMeta = "postgres"
)

type Meta struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
	DSN  string `json:"dsn,omitempty"`
}

const (
	MemoryCounter = "memory"
	BoltCounter   = "bolt"
)

type Counter struct {
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

type Capability struct {
	// CurrentKey seals new capabilities; RecentKeys stay valid for
	// verification across a rotation. Sealing keys are derived from the
	// configured secrets.
	CurrentKey string   `json:"current_key"`
	RecentKeys []string `json:"recent_keys,omitempty"`
	// ValidSeconds bounds token lifetime, default 3600.
	ValidSeconds int64 `json:"valid_seconds,omitempty"`
}

type Node struct {
	ID          int64  `json:"id"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	LocalPrefix string `json:"local_prefix"`
	Space       string `json:"space"`
	GroupTag    string `json:"group_tag,omitempty"`
	FreeBytes   uint64 `json:"free_bytes"`
}

// QuotaNode pre-registers quota accounting on a namespace subtree and binds
// it to a space name for placement headroom checks.
type QuotaNode struct {
	Path  string `json:"path"`
	Space string `json:"space,omitempty"`
}

// PolicyRule selects layout and space for new files by longest path prefix.
type PolicyRule struct {
	PathPrefix string `json:"path_prefix"`
	Space      string `json:"space"`
	Layout     string `json:"layout"`
	Stripes    int    `json:"stripes,omitempty"`
	Checksum   string `json:"checksum,omitempty"`
}
