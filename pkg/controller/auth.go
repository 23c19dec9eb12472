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

package controller

import (
	"context"

	"github.com/basaltfs/basalt/pkg/types"
)

// Authorizer is the external authorization oracle consulted before any
// pipeline work. Create access requires create permission, writes need
// update permission, everything else needs read.
type Authorizer interface {
	Authorize(ctx context.Context, caller types.VirtualIdentity, path, access string) error
}

// defaultAuthorizer grants any mapped identity and keeps the root container
// itself read-only for everyone but sudoers.
type defaultAuthorizer struct{}

func NewAuthorizer() Authorizer {
	return defaultAuthorizer{}
}

func (defaultAuthorizer) Authorize(_ context.Context, caller types.VirtualIdentity, path, access string) error {
	if caller.UID < 0 || caller.GID < 0 {
		return types.ErrNoPerm
	}
	if path == "/" && access != types.AccessRead && !caller.Sudoer {
		return types.ErrNoPerm
	}
	return nil
}
