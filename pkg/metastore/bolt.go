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
	"encoding/binary"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/basaltfs/basalt/pkg/types"
)

// boltCounterStore keeps one bbolt bucket per quota subtree, a signed 64bit
// big-endian counter per field. Counter updates run in their own write
// transactions and never touch the namespace lock.
type boltCounterStore struct {
	db *bolt.DB
}

var _ CounterStore = &boltCounterStore{}

func newBoltCounterStore(path string) (*boltCounterStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open bolt counter store")
	}
	return &boltCounterStore{db: db}, nil
}

func (b *boltCounterStore) IncrCounter(ctx context.Context, bucket, field string, delta int64) (int64, error) {
	var result int64
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return types.ErrNotFound
		}
		result = decodeCounter(bkt.Get([]byte(field))) + delta
		return bkt.Put([]byte(field), encodeCounter(result))
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

func (b *boltCounterStore) GetCounter(ctx context.Context, bucket, field string) (int64, error) {
	var result int64
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(bucket))
		if bkt == nil {
			return types.ErrNotFound
		}
		result = decodeCounter(bkt.Get([]byte(field)))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

func (b *boltCounterStore) HasBucket(ctx context.Context, bucket string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(bucket)) != nil
		return nil
	})
	return found, err
}

func (b *boltCounterStore) CreateBucket(ctx context.Context, bucket string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket([]byte(bucket))
		if errors.Is(err, bolt.ErrBucketExists) {
			return types.ErrIsExist
		}
		return err
	})
}

func (b *boltCounterStore) RemoveBucket(ctx context.Context, bucket string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(bucket))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return types.ErrNotFound
		}
		return err
	})
}

func (b *boltCounterStore) Close() error {
	return b.db.Close()
}

func encodeCounter(val int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(val))
	return buf
}

func decodeCounter(raw []byte) int64 {
	if len(raw) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(raw))
}
