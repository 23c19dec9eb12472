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

// LayoutID packs the whole layout descriptor into one integer for the wire:
// bits 0-3 checksum kind, bits 4-7 layout kind, bits 8-15 stripe count - 1.
type LayoutID uint32

type LayoutKind uint32

const (
	LayoutPlain LayoutKind = iota
	LayoutReplica
	// LayoutStriped is reserved for erasure-coded layouts; the scheduler
	// treats it like replica until striping lands on the storage nodes.
	LayoutStriped
)

type ChecksumKind uint32

const (
	ChecksumNone ChecksumKind = iota
	ChecksumAdler32
	ChecksumCRC32
	ChecksumMD5
	ChecksumSHA1
)

func NewLayoutID(kind LayoutKind, checksum ChecksumKind, stripes int) LayoutID {
	if stripes < 1 {
		stripes = 1
	}
	return LayoutID(uint32(checksum)&0xf | (uint32(kind)&0xf)<<4 | (uint32(stripes-1)&0xff)<<8)
}

func (l LayoutID) Kind() LayoutKind {
	return LayoutKind((uint32(l) >> 4) & 0xf)
}

func (l LayoutID) ChecksumKind() ChecksumKind {
	return ChecksumKind(uint32(l) & 0xf)
}

func (l LayoutID) StripeCount() int {
	return int((uint32(l)>>8)&0xff) + 1
}

// ReplicationFactor is the physical copies per logical byte.
func (l LayoutID) ReplicationFactor() int64 {
	switch l.Kind() {
	case LayoutReplica, LayoutStriped:
		return int64(l.StripeCount())
	default:
		return 1
	}
}
