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
	"runtime/trace"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/basaltfs/basalt/config"
	"github.com/basaltfs/basalt/pkg/metastore/db"
	"github.com/basaltfs/basalt/pkg/types"
	"github.com/basaltfs/basalt/utils/logger"
)

type sqlMetaStore struct {
	dbConn *gorm.DB
	logger *zap.SugaredLogger
}

var _ Meta = &sqlMetaStore{}

func newSqliteMetaStore(meta config.Meta) (*sqlMetaStore, error) {
	dbConn, err := gorm.Open(sqlite.Open(meta.Path), &gorm.Config{Logger: glogger.Discard})
	if err != nil {
		return nil, err
	}
	dbConn.Set("gorm:table_options", "CHARSET=utf8mb4")

	sqlDB, err := dbConn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return buildSqlMetaStore(dbConn)
}

func newPostgresMetaStore(meta config.Meta) (*sqlMetaStore, error) {
	dbConn, err := gorm.Open(postgres.Open(meta.DSN), &gorm.Config{Logger: glogger.Discard})
	if err != nil {
		return nil, err
	}
	return buildSqlMetaStore(dbConn)
}

func buildSqlMetaStore(dbConn *gorm.DB) (*sqlMetaStore, error) {
	s := &sqlMetaStore{dbConn: dbConn, logger: logger.NewLogger("metaStore")}
	if err := db.Migrate(dbConn); err != nil {
		return nil, errors.Wrap(err, "migrate meta store")
	}
	return s, nil
}

func (s *sqlMetaStore) GetEntry(ctx context.Context, id int64) (*types.Entry, error) {
	defer trace.StartRegion(ctx, "metastore.sql.GetEntry").End()
	defer logOperationLatency("get_entry", time.Now())
	var mod db.Entry
	res := s.dbConn.WithContext(ctx).Where("id = ?", id).First(&mod)
	if res.Error != nil {
		return nil, logOperationError("get_entry", db.SqlError2Error(res.Error))
	}
	return mod.ToEntry()
}

func (s *sqlMetaStore) FindEntry(ctx context.Context, parentID int64, name string) (*types.Entry, error) {
	defer trace.StartRegion(ctx, "metastore.sql.FindEntry").End()
	defer logOperationLatency("find_entry", time.Now())
	var mod db.Entry
	res := s.dbConn.WithContext(ctx).Where("parent_id = ? AND name = ? AND id != parent_id", parentID, name).First(&mod)
	if res.Error != nil {
		return nil, logOperationError("find_entry", db.SqlError2Error(res.Error))
	}
	return mod.ToEntry()
}

func (s *sqlMetaStore) ListChildren(ctx context.Context, parentID int64) ([]*types.Entry, error) {
	defer trace.StartRegion(ctx, "metastore.sql.ListChildren").End()
	defer logOperationLatency("list_children", time.Now())
	var mods []db.Entry
	res := s.dbConn.WithContext(ctx).Where("parent_id = ? AND id != parent_id", parentID).Find(&mods)
	if res.Error != nil {
		return nil, logOperationError("list_children", db.SqlError2Error(res.Error))
	}
	result := make([]*types.Entry, 0, len(mods))
	for i := range mods {
		en, err := mods[i].ToEntry()
		if err != nil {
			return nil, logOperationError("list_children", err)
		}
		result = append(result, en)
	}
	return result, nil
}

func (s *sqlMetaStore) HasChildren(ctx context.Context, parentID int64) (bool, error) {
	defer trace.StartRegion(ctx, "metastore.sql.HasChildren").End()
	defer logOperationLatency("has_children", time.Now())
	var count int64
	res := s.dbConn.WithContext(ctx).Model(&db.Entry{}).Where("parent_id = ? AND id != parent_id", parentID).Count(&count)
	if res.Error != nil {
		return false, logOperationError("has_children", db.SqlError2Error(res.Error))
	}
	return count > 0, nil
}

func (s *sqlMetaStore) CreateEntry(ctx context.Context, entry *types.Entry) error {
	defer trace.StartRegion(ctx, "metastore.sql.CreateEntry").End()
	defer logOperationLatency("create_entry", time.Now())
	err := s.dbConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entry.ID != entry.ParentID {
			var count int64
			if err := tx.Model(&db.Entry{}).Where("parent_id = ? AND name = ? AND id != parent_id",
				entry.ParentID, entry.Name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return types.ErrIsExist
			}
		}
		mod := &db.Entry{}
		if err := mod.Update(entry); err != nil {
			return err
		}
		return tx.Create(mod).Error
	})
	if err != nil {
		return logOperationError("create_entry", db.SqlError2Error(err))
	}
	return nil
}

func (s *sqlMetaStore) UpdateEntry(ctx context.Context, entry *types.Entry) error {
	defer trace.StartRegion(ctx, "metastore.sql.UpdateEntry").End()
	defer logOperationLatency("update_entry", time.Now())
	mod := &db.Entry{}
	if err := mod.Update(entry); err != nil {
		return logOperationError("update_entry", err)
	}
	res := s.dbConn.WithContext(ctx).Model(&db.Entry{}).Where("id = ?", entry.ID).Select("*").Updates(mod)
	if res.Error != nil {
		return logOperationError("update_entry", db.SqlError2Error(res.Error))
	}
	if res.RowsAffected == 0 {
		return logOperationError("update_entry", types.ErrNotFound)
	}
	return nil
}

func (s *sqlMetaStore) RemoveEntry(ctx context.Context, id int64) error {
	defer trace.StartRegion(ctx, "metastore.sql.RemoveEntry").End()
	defer logOperationLatency("remove_entry", time.Now())
	err := s.dbConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Entry{}).Where("parent_id = ? AND id != parent_id", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return types.ErrNotEmpty
		}
		res := tx.Where("id = ?", id).Delete(&db.Entry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return logOperationError("remove_entry", db.SqlError2Error(err))
	}
	return nil
}
