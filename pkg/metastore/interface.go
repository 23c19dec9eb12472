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

package metastore

import (
	"context"

	"github.com/basaltfs/basalt/pkg/types"
)

// Meta persists namespace entry records. Implementations return the
// types error sentinels for caller-visible conditions and may wrap backend
// faults with extra context.
type Meta interface {
	GetEntry(ctx context.Context, id int64) (*types.Entry, error)
	FindEntry(ctx context.Context, parentID int64, name string) (*types.Entry, error)
	ListChildren(ctx context.Context, parentID int64) ([]*types.Entry, error)
	HasChildren(ctx context.Context, parentID int64) (bool, error)
	CreateEntry(ctx context.Context, entry *types.Entry) error
	UpdateEntry(ctx context.Context, entry *types.Entry) error
	RemoveEntry(ctx context.Context, id int64) error
}

// CounterStore is an independently lockable hash-counter store backing quota
// accounting: a bucket per quota subtree, signed 64bit counters per field.
type CounterStore interface {
	IncrCounter(ctx context.Context, bucket, field string, delta int64) (int64, error)
	GetCounter(ctx context.Context, bucket, field string) (int64, error)
	HasBucket(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
	RemoveBucket(ctx context.Context, bucket string) error
	Close() error
}
