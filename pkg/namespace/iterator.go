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
	"runtime/trace"

	"github.com/basaltfs/basalt/pkg/types"
)

// DirStream enumerates child names lazily: file children first, then
// container children. The sequence is a snapshot taken at open time and is
// not restartable.
type DirStream struct {
	names []string
	pos   int
}

// OpenDirectory snapshots the children of the container at path.
func (v *View) OpenDirectory(ctx context.Context, path string) (*DirStream, error) {
	defer trace.StartRegion(ctx, "namespace.view.OpenDirectory").End()
	v.mux.Lock()
	defer v.mux.Unlock()

	en, err := v.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if !en.IsGroup {
		return nil, types.ErrNoGroup
	}

	children, err := v.store.ListChildren(ctx, en.ID)
	if err != nil {
		return nil, internalErr("open directory", path, err)
	}

	dir := &DirStream{}
	for _, child := range children {
		if !child.IsGroup {
			dir.names = append(dir.names, child.Name)
		}
	}
	for _, child := range children {
		if child.IsGroup {
			dir.names = append(dir.names, child.Name)
		}
	}
	return dir, nil
}

// NextEntry returns the next child name, or false when exhausted.
func (d *DirStream) NextEntry() (string, bool) {
	if d.pos >= len(d.names) {
		return "", false
	}
	name := d.names[d.pos]
	d.pos++
	return name, true
}
