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

package policy

import (
	"sort"
	"strings"

	"github.com/basaltfs/basalt/config"
	"github.com/basaltfs/basalt/pkg/types"
)

// Decision is what a new file gets before placement runs.
type Decision struct {
	Layout types.LayoutID
	Space  string
}

// Policy maps a path to the layout and target space of new files under it.
// Rules match on path prefix, longest prefix wins.
type Policy struct {
	rules []rule
}

type rule struct {
	prefix string
	layout types.LayoutID
	space  string
}

func New(cfg []config.PolicyRule) (*Policy, error) {
	p := &Policy{}
	for _, r := range cfg {
		layout, err := parseLayout(r)
		if err != nil {
			return nil, err
		}
		space := r.Space
		if space == "" {
			space = config.DefaultSpace
		}
		p.rules = append(p.rules, rule{prefix: r.PathPrefix, layout: layout, space: space})
	}
	sort.Slice(p.rules, func(i, j int) bool {
		return len(p.rules[i].prefix) > len(p.rules[j].prefix)
	})
	return p, nil
}

// Resolve picks the decision for a path. Paths with no matching rule get a
// plain layout in the default space.
func (p *Policy) Resolve(path string) Decision {
	for _, r := range p.rules {
		if strings.HasPrefix(path, r.prefix) {
			return Decision{Layout: r.layout, Space: r.space}
		}
	}
	return Decision{
		Layout: types.NewLayoutID(types.LayoutPlain, types.ChecksumAdler32, 1),
		Space:  config.DefaultSpace,
	}
}

func parseLayout(r config.PolicyRule) (types.LayoutID, error) {
	var kind types.LayoutKind
	switch r.Layout {
	case "", "plain":
		kind = types.LayoutPlain
	case "replica":
		kind = types.LayoutReplica
	case "striped":
		kind = types.LayoutStriped
	default:
		return 0, types.ErrInvalidArg
	}

	var checksum types.ChecksumKind
	switch r.Checksum {
	case "", "adler32":
		checksum = types.ChecksumAdler32
	case "none":
		checksum = types.ChecksumNone
	case "crc32":
		checksum = types.ChecksumCRC32
	case "md5":
		checksum = types.ChecksumMD5
	case "sha1":
		checksum = types.ChecksumSHA1
	default:
		return 0, types.ErrInvalidArg
	}

	stripes := r.Stripes
	if stripes <= 0 {
		stripes = 1
	}
	if kind == types.LayoutPlain {
		stripes = 1
	}
	return types.NewLayoutID(kind, checksum, stripes), nil
}
