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

package namespace

import (
	"context"
	"errors"
	"fmt"
	"runtime/trace"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/basaltfs/basalt/pkg/metastore"
	"github.com/basaltfs/basalt/pkg/types"
	"github.com/basaltfs/basalt/utils/logger"
)

// RootEntryID is the fixed id of the namespace root container.
const RootEntryID = 1

type Classification int

const (
	Missing Classification = iota
	File
	Directory
)

// View is the in-memory hierarchical namespace over the record store. Every
// operation serializes behind one exclusive lock; the lock covers only the
// metadata critical section, never storage node I/O.
type View struct {
	store  metastore.Meta
	mux    sync.Mutex
	logger *zap.SugaredLogger
}

func NewView(store metastore.Meta) (*View, error) {
	v := &View{
		store:  store,
		logger: logger.NewLogger("namespaceView"),
	}
	if err := v.initRoot(context.Background()); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *View) initRoot(ctx context.Context) error {
	_, err := v.store.GetEntry(ctx, RootEntryID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		v.logger.Errorw("load root container failed", "err", err)
		return internalErr("init root", "/", err)
	}

	now := time.Now()
	root := &types.Entry{
		ID:         RootEntryID,
		ParentID:   RootEntryID,
		Name:       "/",
		IsGroup:    true,
		CreatedAt:  now,
		ModifiedAt: now,
		ChangedAt:  now,
	}
	if err = v.store.CreateEntry(ctx, root); err != nil && !errors.Is(err, types.ErrIsExist) {
		v.logger.Errorw("create root container failed", "err", err)
		return internalErr("init root", "/", err)
	}
	return nil
}

// Lookup resolves path to its entry.
func (v *View) Lookup(ctx context.Context, path string) (*types.Entry, error) {
	defer trace.StartRegion(ctx, "namespace.view.Lookup").End()
	v.mux.Lock()
	defer v.mux.Unlock()
	return v.resolve(ctx, path)
}

// Classify reports whether path is missing, a file or a directory.
func (v *View) Classify(ctx context.Context, path string) (Classification, error) {
	defer trace.StartRegion(ctx, "namespace.view.Classify").End()
	v.mux.Lock()
	defer v.mux.Unlock()
	en, err := v.resolve(ctx, path)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return Missing, nil
		}
		return Missing, err
	}
	if en.IsGroup {
		return Directory, nil
	}
	return File, nil
}

// CreateContainer creates the container at path. With recursive set, missing
// ancestors are created on the way down; otherwise a missing ancestor is
// NotFound. An existing leaf container is ErrIsExist.
func (v *View) CreateContainer(ctx context.Context, path string, recursive bool, uid, gid int64) (*types.Entry, error) {
	defer trace.StartRegion(ctx, "namespace.view.CreateContainer").End()
	names, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, types.ErrIsExist
	}

	v.mux.Lock()
	defer v.mux.Unlock()

	parentID := int64(RootEntryID)
	for i, name := range names {
		last := i == len(names)-1
		found, err := v.store.FindEntry(ctx, parentID, name)
		if err == nil {
			if !found.IsGroup {
				return nil, types.ErrNoGroup
			}
			if last {
				return nil, types.ErrIsExist
			}
			parentID = found.ID
			continue
		}
		if !errors.Is(err, types.ErrNotFound) {
			return nil, internalErr("create container", path, err)
		}
		if !last && !recursive {
			return nil, types.ErrNotFound
		}

		en := types.NewEntry(name, true)
		en.ParentID = parentID
		en.UID = uid
		en.GID = gid
		if err = v.store.CreateEntry(ctx, en); err != nil {
			if errors.Is(err, types.ErrIsExist) {
				return nil, types.ErrIsExist
			}
			return nil, internalErr("create container", path, err)
		}
		parentID = en.ID
		if last {
			return en, nil
		}
	}
	return nil, types.ErrIsExist
}

// CreateFile creates a file record under an existing parent container.
func (v *View) CreateFile(ctx context.Context, path string, uid, gid int64) (*types.Entry, error) {
	defer trace.StartRegion(ctx, "namespace.view.CreateFile").End()
	names, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, types.ErrIsGroup
	}
	name := names[len(names)-1]
	if !types.IsValidName(name) {
		return nil, types.ErrInvalidArg
	}

	v.mux.Lock()
	defer v.mux.Unlock()

	parent, err := v.resolveNames(ctx, names[:len(names)-1])
	if err != nil {
		return nil, err
	}
	if !parent.IsGroup {
		return nil, types.ErrNoGroup
	}
	if _, err = v.store.FindEntry(ctx, parent.ID, name); err == nil {
		return nil, types.ErrIsExist
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, internalErr("create file", path, err)
	}

	en := types.NewEntry(name, false)
	en.ParentID = parent.ID
	en.UID = uid
	en.GID = gid
	if err = v.store.CreateEntry(ctx, en); err != nil {
		if errors.Is(err, types.ErrIsExist) {
			return nil, types.ErrIsExist
		}
		return nil, internalErr("create file", path, err)
	}
	return en, nil
}

// UpdateFile persists mutated file record fields. The lock is held through
// the whole store update so no reader observes a half applied change.
func (v *View) UpdateFile(ctx context.Context, entry *types.Entry) error {
	defer trace.StartRegion(ctx, "namespace.view.UpdateFile").End()
	if entry.IsGroup {
		return types.ErrIsGroup
	}
	return v.updateEntry(ctx, entry)
}

func (v *View) UpdateContainer(ctx context.Context, entry *types.Entry) error {
	defer trace.StartRegion(ctx, "namespace.view.UpdateContainer").End()
	if !entry.IsGroup {
		return types.ErrNoGroup
	}
	return v.updateEntry(ctx, entry)
}

func (v *View) updateEntry(ctx context.Context, entry *types.Entry) error {
	v.mux.Lock()
	defer v.mux.Unlock()
	entry.ChangedAt = time.Now()
	if err := v.store.UpdateEntry(ctx, entry); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return types.ErrNotFound
		}
		return internalErr("update entry", entry.Name, err)
	}
	return nil
}

// CommitFile applies a storage node's post-write report in one critical
// section: size, reporting location (idempotent append), checksum and mtime.
// A file id mismatch is ErrConflict and mutates nothing. Returns the file's
// previous size so the caller can settle quota accounting. Concurrent
// replica reports serialize here, no report can overwrite another's
// location append.
func (v *View) CommitFile(ctx context.Context, req types.CommitRequest) (int64, *types.Entry, error) {
	defer trace.StartRegion(ctx, "namespace.view.CommitFile").End()
	v.mux.Lock()
	defer v.mux.Unlock()

	en, err := v.resolve(ctx, req.Path)
	if err != nil {
		return 0, nil, err
	}
	if en.IsGroup {
		return 0, nil, types.ErrIsGroup
	}
	if en.ID != req.FileID {
		return 0, nil, types.ErrConflict
	}

	prev := en.Size
	en.Size = req.Size
	en.AddLocation(req.NodeID)
	if len(req.Checksum) > 0 {
		en.Checksum = req.Checksum
	}
	en.ModifiedAt = time.Unix(req.MtimeSec, req.MtimeNS)
	en.ChangedAt = time.Now()
	if err = v.store.UpdateEntry(ctx, en); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return 0, nil, types.ErrNotFound
		}
		return 0, nil, internalErr("commit file", req.Path, err)
	}
	return prev, en, nil
}

// RemoveFile removes the file at path and returns the removed record so the
// caller can settle quota accounting.
func (v *View) RemoveFile(ctx context.Context, path string) (*types.Entry, error) {
	defer trace.StartRegion(ctx, "namespace.view.RemoveFile").End()
	v.mux.Lock()
	defer v.mux.Unlock()

	en, err := v.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if en.IsGroup {
		return nil, types.ErrIsGroup
	}
	if err = v.store.RemoveEntry(ctx, en.ID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, internalErr("remove file", path, err)
	}
	return en, nil
}

// RemoveContainer removes an empty container. A populated container surfaces
// the store's ErrNotEmpty unchanged.
func (v *View) RemoveContainer(ctx context.Context, path string) error {
	defer trace.StartRegion(ctx, "namespace.view.RemoveContainer").End()
	v.mux.Lock()
	defer v.mux.Unlock()

	en, err := v.resolve(ctx, path)
	if err != nil {
		return err
	}
	if !en.IsGroup {
		return types.ErrNoGroup
	}
	if en.ID == RootEntryID {
		return types.ErrNoPerm
	}
	if err = v.store.RemoveEntry(ctx, en.ID); err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrNotEmpty) {
			return err
		}
		return internalErr("remove container", path, err)
	}
	return nil
}

// CountChildContainers reports how many container children the container at
// path has. Stat reports this as the directory size.
func (v *View) CountChildContainers(ctx context.Context, path string) (int64, error) {
	defer trace.StartRegion(ctx, "namespace.view.CountChildContainers").End()
	v.mux.Lock()
	defer v.mux.Unlock()

	en, err := v.resolve(ctx, path)
	if err != nil {
		return 0, err
	}
	if !en.IsGroup {
		return 0, types.ErrNoGroup
	}
	children, err := v.store.ListChildren(ctx, en.ID)
	if err != nil {
		return 0, internalErr("count child containers", path, err)
	}
	var count int64
	for _, child := range children {
		if child.IsGroup {
			count++
		}
	}
	return count, nil
}

// AncestorIDs lists the container ids from entry's parent up to the root,
// nearest first. Used to find the governing quota subtree.
func (v *View) AncestorIDs(ctx context.Context, entry *types.Entry) ([]int64, error) {
	defer trace.StartRegion(ctx, "namespace.view.AncestorIDs").End()
	v.mux.Lock()
	defer v.mux.Unlock()

	var ids []int64
	cur := entry.ParentID
	if entry.IsGroup {
		ids = append(ids, entry.ID)
	}
	for {
		ids = append(ids, cur)
		if cur == RootEntryID {
			return ids, nil
		}
		parent, err := v.store.GetEntry(ctx, cur)
		if err != nil {
			return nil, internalErr("resolve ancestors", entry.Name, err)
		}
		cur = parent.ParentID
	}
}

// resolve walks path from the root. Callers hold the namespace lock.
func (v *View) resolve(ctx context.Context, path string) (*types.Entry, error) {
	names, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	return v.resolveNames(ctx, names)
}

func (v *View) resolveNames(ctx context.Context, names []string) (*types.Entry, error) {
	cur, err := v.store.GetEntry(ctx, RootEntryID)
	if err != nil {
		return nil, internalErr("resolve", "/", err)
	}
	for _, name := range names {
		if !cur.IsGroup {
			return nil, types.ErrNotFound
		}
		cur, err = v.store.FindEntry(ctx, cur.ID, name)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return nil, types.ErrNotFound
			}
			return nil, internalErr("resolve", name, err)
		}
	}
	return cur, nil
}

// SplitPath normalizes an absolute path into its components.
func SplitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, types.ErrInvalidArg
	}
	var names []string
	for _, part := range strings.Split(path, "/") {
		switch part {
		case "", ".":
		case "..":
			return nil, types.ErrInvalidArg
		default:
			names = append(names, part)
		}
	}
	return names, nil
}

// ParentPath returns the parent directory of an absolute path.
func ParentPath(path string) string {
	idx := strings.LastIndex(strings.TrimSuffix(path, "/"), "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

func internalErr(op, target string, err error) error {
	return fmt.Errorf("%w: %s %s: %s", types.ErrInternal, op, target, err)
}
