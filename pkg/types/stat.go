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
	"os"
	"time"
)

const (
	// StatDevice is the synthetic device id reported for every entry.
	StatDevice = 0xcaff
	// StatBlockSize is the block size reported for file entries.
	StatBlockSize = 4096
)

type Stat struct {
	Dev       uint64      `json:"dev"`
	Ino       int64       `json:"ino"`
	Mode      os.FileMode `json:"mode"`
	Nlink     int         `json:"nlink"`
	UID       int64       `json:"uid"`
	GID       int64       `json:"gid"`
	Size      int64       `json:"size"`
	BlockSize int         `json:"block_size"`
	Blocks    int64       `json:"blocks"`
	Atime     time.Time   `json:"atime"`
	Mtime     time.Time   `json:"mtime"`
	Ctime     time.Time   `json:"ctime"`
}
