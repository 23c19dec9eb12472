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

package types

import "fmt"

// StorageNode is one registered storage endpoint. GroupTag approximates the
// fault domain (rack, host group) used to spread replica placement.
type StorageNode struct {
	ID          int64  `json:"id"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	LocalPrefix string `json:"local_prefix"`
	Space       string `json:"space"`
	GroupTag    string `json:"group_tag,omitempty"`
	FreeBytes   uint64 `json:"free_bytes"`
	Healthy     bool   `json:"healthy"`
}

func (n StorageNode) HostPort() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// URL is the storage transport endpoint for one file on this node. Paths are
// absolute, so the result reads root://host:port/a/b.dat.
func (n StorageNode) URL(path string) string {
	return fmt.Sprintf("root://%s:%d%s", n.Host, n.Port, path)
}
