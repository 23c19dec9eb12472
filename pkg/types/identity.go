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

// VirtualIdentity is the mapped identity a request runs under. UIDList and
// GIDList carry all identities the caller maps to, the first element being
// the real one. Instances are immutable for the lifetime of a request.
type VirtualIdentity struct {
	UID     int64   `json:"uid"`
	GID     int64   `json:"gid"`
	UIDList []int64 `json:"uid_list"`
	GIDList []int64 `json:"gid_list"`
	Sudoer  bool    `json:"sudoer"`
}

func NewVirtualIdentity(uid, gid int64) VirtualIdentity {
	return VirtualIdentity{
		UID:     uid,
		GID:     gid,
		UIDList: []int64{uid},
		GIDList: []int64{gid},
	}
}

func (v VirtualIdentity) RealUID() int64 {
	if len(v.UIDList) > 0 {
		return v.UIDList[0]
	}
	return v.UID
}

func (v VirtualIdentity) RealGID() int64 {
	if len(v.GIDList) > 0 {
		return v.GIDList[0]
	}
	return v.GID
}
