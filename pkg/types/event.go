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

import "time"

type EntryEvent struct {
	Id          string    `json:"id"`
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	SpecVersion string    `json:"specversion"`
	Time        time.Time `json:"time"`
	RefID       int64     `json:"refid"`
	Data        EventData `json:"data"`
}

type EventData struct {
	ID      int64  `json:"id"`
	IsGroup bool   `json:"is_group"`
	Path    string `json:"path,omitempty"`
	NodeID  int64  `json:"node_id,omitempty"`
	Size    int64  `json:"size,omitempty"`
}
