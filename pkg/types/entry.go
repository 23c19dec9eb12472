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

import (
	"time"

	"github.com/basaltfs/basalt/utils"
)

const entryNameMaxLength = 255

// Entry is one namespace record: a container or a file. Container entries
// keep no payload fields; file entries carry size, layout and the ordered
// replica/stripe location list.
type Entry struct {
	ID       int64  `json:"id"`
	ParentID int64  `json:"parent_id"`
	Name     string `json:"name"`
	IsGroup  bool   `json:"is_group"`

	UID int64 `json:"uid"`
	GID int64 `json:"gid"`

	Size      int64    `json:"size"`
	LayoutID  LayoutID `json:"layout_id"`
	Locations []int64  `json:"locations,omitempty"`
	Checksum  []byte   `json:"checksum,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	ChangedAt  time.Time `json:"changed_at"`
}

func NewEntry(name string, isGroup bool) *Entry {
	now := time.Now()
	return &Entry{
		ID:         utils.GenerateNewID(),
		Name:       name,
		IsGroup:    isGroup,
		CreatedAt:  now,
		ModifiedAt: now,
		ChangedAt:  now,
	}
}

// HasLocation reports whether node id already appears in the location list.
func (e *Entry) HasLocation(nodeID int64) bool {
	for _, loc := range e.Locations {
		if loc == nodeID {
			return true
		}
	}
	return false
}

func (e *Entry) AddLocation(nodeID int64) {
	if e.HasLocation(nodeID) {
		return
	}
	e.Locations = append(e.Locations, nodeID)
}

func IsValidName(name string) bool {
	return name != "" && len(name) <= entryNameMaxLength
}
