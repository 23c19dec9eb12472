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

package db

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/basaltfs/basalt/pkg/types"
)

type Entry struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	ParentID   int64  `gorm:"column:parent_id;index:entry_parent"`
	Name       string `gorm:"column:name;index:entry_name"`
	IsGroup    bool   `gorm:"column:is_group"`
	Owner      int64  `gorm:"column:owner"`
	GroupOwner int64  `gorm:"column:group_owner"`
	Size       int64  `gorm:"column:size"`
	LayoutID   int64  `gorm:"column:layout_id"`
	Locations  string `gorm:"column:locations"`
	Checksum   string `gorm:"column:checksum"`
	CreatedAt  int64  `gorm:"column:created_at"`
	ModifiedAt int64  `gorm:"column:modified_at"`
	ChangedAt  int64  `gorm:"column:changed_at"`
}

func (e *Entry) TableName() string {
	return "entry"
}

func (e *Entry) Update(en *types.Entry) error {
	e.ID = en.ID
	e.ParentID = en.ParentID
	e.Name = en.Name
	e.IsGroup = en.IsGroup
	e.Owner = en.UID
	e.GroupOwner = en.GID
	e.Size = en.Size
	e.LayoutID = int64(en.LayoutID)
	e.Checksum = hex.EncodeToString(en.Checksum)
	e.CreatedAt = en.CreatedAt.UnixNano()
	e.ModifiedAt = en.ModifiedAt.UnixNano()
	e.ChangedAt = en.ChangedAt.UnixNano()

	raw, err := json.Marshal(en.Locations)
	if err != nil {
		return err
	}
	e.Locations = string(raw)
	return nil
}

func (e *Entry) ToEntry() (*types.Entry, error) {
	en := &types.Entry{
		ID:         e.ID,
		ParentID:   e.ParentID,
		Name:       e.Name,
		IsGroup:    e.IsGroup,
		UID:        e.Owner,
		GID:        e.GroupOwner,
		Size:       e.Size,
		LayoutID:   types.LayoutID(e.LayoutID),
		CreatedAt:  time.Unix(0, e.CreatedAt),
		ModifiedAt: time.Unix(0, e.ModifiedAt),
		ChangedAt:  time.Unix(0, e.ChangedAt),
	}
	if e.Checksum != "" {
		raw, err := hex.DecodeString(e.Checksum)
		if err != nil {
			return nil, err
		}
		en.Checksum = raw
	}
	if e.Locations != "" {
		if err := json.Unmarshal([]byte(e.Locations), &en.Locations); err != nil {
			return nil, err
		}
	}
	return en, nil
}
