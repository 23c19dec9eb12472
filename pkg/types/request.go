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

// OpenAttr carries the recognized open request fields. Exactly one of the
// derived modes (create / truncate / read-only / write-only / read-write)
// applies per request; read-only is the default.
type OpenAttr struct {
	Read      bool `json:"read"`
	Write     bool `json:"write"`
	Create    bool `json:"create"`
	Exclusive bool `json:"exclusive"`
	Trunc     bool `json:"trunc"`
	// MakePath creates missing parent containers before resolving the target.
	MakePath bool `json:"make_path"`

	// ForcedNodeID pins read access to one replica when it is set and the
	// node holds a copy.
	ForcedNodeID int64  `json:"forced_node_id,omitempty"`
	GroupTag     string `json:"group_tag,omitempty"`
}

func (a OpenAttr) IsWrite() bool {
	return a.Write || a.Create || a.Trunc
}

// CommitRequest is the typed form of the post-write commit parameters. All
// fields except Checksum are mandatory.
type CommitRequest struct {
	Path     string `json:"path"`
	FileID   int64  `json:"fid"`
	Size     int64  `json:"size"`
	NodeID   int64  `json:"add_fsid"`
	MtimeSec int64  `json:"mtime"`
	MtimeNS  int64  `json:"mtime_ns"`
	Checksum []byte `json:"checksum,omitempty"`
}

// Redirection is the terminal result of a successful open: the storage node
// the client must contact and the signed capability payload it presents there.
type Redirection struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Payload      string `json:"payload"`
	LogID        string `json:"log_id"`
	ReplicaIndex int    `json:"replica_index"`
}
